// Package forms implements the orbital-element form graph: Cartesian,
// Keplerian (true/eccentric/mean/near-circular anomaly), TLE and
// Spherical representations of a 6-vector state, and the conversions
// between them. Grounded on beyond's orbits.forms module
// (original_source beyond/orbits/forms.py) and goeph's own
// elements/elements.go for the numerically careful edge cases (circular
// and equatorial orbits, hyperbolic branches).
package forms

import (
	"fmt"
	"math"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/graph"
)

const twoPi = 2 * math.Pi

// edgeFunc converts a 6-vector state from one form to an adjacent one,
// given the gravitational parameter of the body the orbit is centered
// on. Unlike orient's rotation edges, form conversions are not generally
// invertible by a simple transpose, so both directions of every edge are
// registered explicitly, matching beyond's paired
// `_a_to_b`/`_b_to_a` classmethods.
type edgeFunc func(coord [6]float64, mu float64) [6]float64

// Form is a node in the orbital-element form graph.
type Form struct {
	node       *graph.Node
	name       string
	ParamNames []string
	edges      map[string]edgeFunc
}

// Name returns the form's name.
func (f *Form) Name() string { return f.name }

func newForm(name string, params ...string) *Form {
	return &Form{node: graph.NewNode(name), name: name, ParamNames: params, edges: map[string]edgeFunc{}}
}

func link(a, b *Form, aToB, bToA edgeFunc) {
	a.edges[b.name] = aToB
	b.edges[a.name] = bToA
	graph.Link(a.node, b.node)
}

// Known forms (§4.6, §4.8).
var (
	Cartesian             = newForm("cartesian", "x", "y", "z", "vx", "vy", "vz")
	Spherical             = newForm("spherical", "r", "theta", "phi", "r_dot", "theta_dot", "phi_dot")
	Keplerian             = newForm("keplerian", "a", "e", "i", "raan", "aop", "nu")
	KeplerianEccentric    = newForm("keplerian_eccentric", "a", "e", "i", "raan", "aop", "E")
	KeplerianMean         = newForm("keplerian_mean", "a", "e", "i", "raan", "aop", "M")
	KeplerianCircular     = newForm("keplerian_circular", "a", "ex", "ey", "i", "raan", "u")
	KeplerianMeanCircular = newForm("keplerian_mean_circular", "a", "ex", "ey", "i", "raan", "u")
	Equinoctial           = newForm("equinoctial", "a", "h", "k", "p", "q", "lambda")
	Cylindrical           = newForm("cylindrical", "rho", "theta", "z", "rho_dot", "theta_dot", "z_dot")
	TLE                   = newForm("tle", "i", "raan", "e", "aop", "M", "n")

	byName = map[string]*Form{}
)

func register(f *Form) { byName[f.name] = f }

func init() {
	for _, f := range []*Form{
		Cartesian, Spherical, Keplerian, KeplerianEccentric, KeplerianMean,
		KeplerianCircular, KeplerianMeanCircular, Equinoctial, Cylindrical, TLE,
	} {
		register(f)
	}

	link(Spherical, Cartesian, sphericalToCartesian, cartesianToSpherical)
	link(Cartesian, Keplerian, cartesianToKeplerian, keplerianToCartesian)
	link(Keplerian, KeplerianEccentric, keplerianToKeplerianEccentric, keplerianEccentricToKeplerian)
	link(KeplerianEccentric, KeplerianMean, keplerianEccentricToKeplerianMean, keplerianMeanToKeplerianEccentric)
	link(KeplerianMean, TLE, keplerianMeanToTLE, tleToKeplerianMean)
	link(Keplerian, KeplerianCircular, keplerianToKeplerianCircular, keplerianCircularToKeplerian)
	link(KeplerianMean, KeplerianMeanCircular, keplerianMeanToKeplerianMeanCircular, keplerianMeanCircularToKeplerianMean)
	link(Keplerian, Equinoctial, keplerianToEquinoctial, equinoctialToKeplerian)
	link(Cartesian, Cylindrical, cartesianToCylindrical, cylindricalToCartesian)
}

// Get resolves a registered form by name.
func Get(name string) (*Form, error) {
	f, ok := byName[name]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownForm, name)
	}
	return f, nil
}

// ConvertTo converts coord, expressed in form f around a body of
// gravitational parameter mu, into target's representation. Grounded on
// beyond's Form.__call__: walk the shortest path and apply each edge's
// conversion in turn.
func (f *Form) ConvertTo(coord [6]float64, mu float64, target *Form) ([6]float64, error) {
	if f == target {
		return coord, nil
	}
	steps, ok := f.node.Steps(target.name)
	if !ok {
		return [6]float64{}, astroerr.NewDomain(fmt.Sprintf("no conversion path from %s to %s", f.name, target.name))
	}

	for _, step := range steps {
		from := byName[step.From.Name]
		to := byName[step.To.Name]
		fn, ok := from.edges[to.name]
		if !ok {
			return [6]float64{}, astroerr.NewDomain(fmt.Sprintf("unknown transformation %s -> %s", from.name, to.name))
		}
		coord = fn(coord, mu)
	}

	return coord, nil
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func norm(a [3]float64) float64 { return math.Sqrt(dot(a, a)) }

// cartesianToKeplerian ports beyond's Form._cartesian_to_keplerian.
func cartesianToKeplerian(coord [6]float64, mu float64) [6]float64 {
	r := [3]float64{coord[0], coord[1], coord[2]}
	v := [3]float64{coord[3], coord[4], coord[5]}
	h := cross(r, v)
	hNorm := norm(h)
	rNorm := norm(r)
	vNorm := norm(v)

	k := vNorm*vNorm/2 - mu/rNorm
	a := -mu / (2 * k)
	e := math.Sqrt(1 - hNorm*hNorm/(a*mu))
	p := a * (1 - e*e)
	i := math.Acos(h[2] / hNorm)
	raan := math.Mod(math.Atan2(h[0], -h[1]), twoPi)
	if raan < 0 {
		raan += twoPi
	}

	aopNu := math.Atan2(r[2]/math.Sin(i), r[0]*math.Cos(raan)+r[1]*math.Sin(raan))
	nu := math.Mod(math.Atan2(math.Sqrt(p/mu)*dot(v, r), p-rNorm), twoPi)
	if nu < 0 {
		nu += twoPi
	}
	aop := math.Mod(aopNu-nu, twoPi)
	if aop < 0 {
		aop += twoPi
	}

	return [6]float64{a, e, i, raan, aop, nu}
}

// keplerianToCartesian ports beyond's Form._keplerian_to_cartesian.
func keplerianToCartesian(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, nu := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	p := a * (1 - e*e)
	r := p / (1 + e*math.Cos(nu))
	h := math.Sqrt(mu * p)

	cosRaan, sinRaan := math.Cos(raan), math.Sin(raan)
	cosAopNu, sinAopNu := math.Cos(aop+nu), math.Sin(aop+nu)
	cosI := math.Cos(i)

	x := r * (cosRaan*cosAopNu - sinRaan*sinAopNu*cosI)
	y := r * (sinRaan*cosAopNu + cosRaan*sinAopNu*cosI)
	z := r * math.Sin(i) * sinAopNu

	vx := x*h*e/(r*p)*math.Sin(nu) - h/r*(cosRaan*sinAopNu+sinRaan*cosAopNu*cosI)
	vy := y*h*e/(r*p)*math.Sin(nu) - h/r*(sinRaan*sinAopNu-cosRaan*cosAopNu*cosI)
	vz := z*h*e/(r*p)*math.Sin(nu) + h/r*math.Sin(i)*cosAopNu

	return [6]float64{x, y, z, vx, vy, vz}
}

// keplerianToKeplerianEccentric ports
// beyond's Form._keplerian_to_keplerian_eccentric.
func keplerianToKeplerianEccentric(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, nu := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	var ee float64
	if e < 1 {
		cosE := (e + math.Cos(nu)) / (1 + e*math.Cos(nu))
		sinE := (math.Sin(nu) * math.Sqrt(1-e*e)) / (1 + e*math.Cos(nu))
		ee = math.Mod(math.Atan2(sinE, cosE), twoPi)
		if ee < 0 {
			ee += twoPi
		}
	} else {
		coshE := (e + math.Cos(nu)) / (1 + e*math.Cos(nu))
		sinhE := (math.Sin(nu) * math.Sqrt(e*e-1)) / (1 + e*math.Cos(nu))
		ee = math.Atanh(sinhE / coshE)
	}

	return [6]float64{a, e, i, raan, aop, ee}
}

// keplerianEccentricToKeplerianMean ports
// beyond's Form._keplerian_eccentric_to_keplerian_mean.
func keplerianEccentricToKeplerianMean(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, ee := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	var m float64
	if e < 1 {
		m = ee - e*math.Sin(ee)
	} else {
		m = e*math.Sinh(ee) - ee
	}

	return [6]float64{a, e, i, raan, aop, m}
}

// keplerianMeanToKeplerianEccentric ports
// beyond's Form._keplerian_mean_to_keplerian_eccentric (the M2E Newton
// iteration, Vallado).
func keplerianMeanToKeplerianEccentric(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, m := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]
	return [6]float64{a, e, i, raan, aop, MeanToEccentricAnomaly(e, m)}
}

// MeanToEccentricAnomaly solves Kepler's equation by Newton's method for
// the elliptic case and the analogous hyperbolic equation for e > 1,
// ported verbatim from beyond's Form.M2E.
func MeanToEccentricAnomaly(e, m float64) float64 {
	const tol = 1e-8

	if e < 1 {
		var ee float64
		if (-math.Pi < m && m < 0) || m > math.Pi {
			ee = m - e
		} else {
			ee = m + e
		}
		next := func(ee float64) float64 {
			return ee + (m-ee+e*math.Sin(ee))/(1-e*math.Cos(ee))
		}
		e1 := next(ee)
		for math.Abs(e1-ee) >= tol {
			ee = e1
			e1 = next(ee)
		}
		return e1
	}

	var h float64
	if e < 1.6 {
		if (-math.Pi < m && m < 0) || m > math.Pi {
			h = m - e
		} else {
			h = m + e
		}
	} else if e < 3.6 && math.Abs(m) > math.Pi {
		h = m - math.Copysign(e, m)
	} else {
		h = m / (e - 1)
	}
	next := func(h float64) float64 {
		return h + (m-e*math.Sinh(h)+h)/(e*math.Cosh(h)-1)
	}
	h1 := next(h)
	for math.Abs(h1-h) >= tol {
		h = h1
		h1 = next(h)
	}
	return h1
}

// keplerianEccentricToKeplerian ports
// beyond's Form._keplerian_eccentric_to_keplerian.
func keplerianEccentricToKeplerian(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, ee := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	var cosNu, sinNu float64
	if e < 1 {
		cosNu = (math.Cos(ee) - e) / (1 - e*math.Cos(ee))
		sinNu = (math.Sin(ee) * math.Sqrt(1-e*e)) / (1 - e*math.Cos(ee))
	} else {
		cosNu = (math.Cosh(ee) - e) / (1 - e*math.Cosh(ee))
		sinNu = -(math.Sinh(ee) * math.Sqrt(e*e-1)) / (1 - e*math.Cosh(ee))
	}

	nu := math.Mod(math.Atan2(sinNu, cosNu), twoPi)
	if nu < 0 {
		nu += twoPi
	}

	return [6]float64{a, e, i, raan, aop, nu}
}

// keplerianCircularToKeplerian ports
// beyond's Form._keplerian_circular_to_keplerian.
func keplerianCircularToKeplerian(coord [6]float64, mu float64) [6]float64 {
	a, ex, ey, i, raan, u := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	e := math.Sqrt(ex*ex + ey*ey)
	aop := math.Atan2(ey/e, ex/e)
	nu := u - aop

	return [6]float64{a, e, i, raan, aop, nu}
}

// keplerianToKeplerianCircular ports
// beyond's Form._keplerian_to_keplerian_circular.
func keplerianToKeplerianCircular(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, nu := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	ex := e * math.Cos(aop)
	ey := e * math.Sin(aop)
	u := math.Mod(aop+nu, twoPi)
	if u < 0 {
		u += twoPi
	}

	return [6]float64{a, ex, ey, i, raan, u}
}

// tleToKeplerianMean ports beyond's Form._tle_to_keplerian_mean.
func tleToKeplerianMean(coord [6]float64, mu float64) [6]float64 {
	i, raan, e, aop, m, n := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]
	a := math.Cbrt(mu / (n * n))
	return [6]float64{a, e, i, raan, aop, m}
}

// keplerianMeanToTLE ports beyond's Form._keplerian_mean_to_tle.
func keplerianMeanToTLE(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, m := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]
	n := math.Sqrt(mu / (a * a * a))
	return [6]float64{i, raan, e, aop, m, n}
}

// normalizeAngle reduces theta into [0, 2π), matching the normalization
// every other angular edge in this file applies inline.
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	return theta
}

// keplerianMeanToKeplerianMeanCircular mirrors
// keplerianToKeplerianCircular, but built on the mean anomaly rather than
// the true anomaly, removing the argument-of-periapsis singularity at
// e=0 for mean elements the way KeplerianCircular does for osculating
// ones.
func keplerianMeanToKeplerianMeanCircular(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, m := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	ex := e * math.Cos(aop)
	ey := e * math.Sin(aop)
	u := normalizeAngle(aop + m)

	return [6]float64{a, ex, ey, i, raan, u}
}

// keplerianMeanCircularToKeplerianMean mirrors
// keplerianCircularToKeplerian, recovering the mean anomaly from the mean
// argument of latitude.
func keplerianMeanCircularToKeplerianMean(coord [6]float64, mu float64) [6]float64 {
	a, ex, ey, i, raan, u := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	e := math.Sqrt(ex*ex + ey*ey)
	aop := math.Atan2(ey/e, ex/e)
	m := u - aop

	return [6]float64{a, e, i, raan, aop, m}
}

// keplerianToEquinoctial converts to the non-singular equinoctial
// elements (a, h, k, p, q, λ), prograde convention: h/k carry the
// eccentricity and the sum of raan and aop, p/q carry the inclination
// and raan via the half-angle tangent, and λ is the true longitude.
// Singular only at i=π, which the spec's form set does not otherwise
// guard against either (see KeplerianCircular's e=0 fix without an
// equivalent i=π fix).
func keplerianToEquinoctial(coord [6]float64, mu float64) [6]float64 {
	a, e, i, raan, aop, nu := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	aopRaan := aop + raan
	h := e * math.Sin(aopRaan)
	k := e * math.Cos(aopRaan)
	tanHalfI := math.Tan(i / 2)
	p := tanHalfI * math.Sin(raan)
	q := tanHalfI * math.Cos(raan)
	lambda := normalizeAngle(aopRaan + nu)

	return [6]float64{a, h, k, p, q, lambda}
}

// equinoctialToKeplerian inverts keplerianToEquinoctial.
func equinoctialToKeplerian(coord [6]float64, mu float64) [6]float64 {
	a, h, k, p, q, lambda := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	e := math.Sqrt(h*h + k*k)
	aopRaan := math.Atan2(h, k)
	i := 2 * math.Atan(math.Sqrt(p*p+q*q))
	raan := normalizeAngle(math.Atan2(p, q))
	aop := normalizeAngle(aopRaan - raan)
	nu := normalizeAngle(lambda - aopRaan)

	return [6]float64{a, e, i, raan, aop, nu}
}

// cartesianToCylindrical converts to cylindrical position/velocity
// (ρ, θ, z) about the frame's z-axis.
func cartesianToCylindrical(coord [6]float64, mu float64) [6]float64 {
	x, y, z, vx, vy, vz := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	rho := math.Sqrt(x*x + y*y)
	theta := math.Atan2(y, x)
	rhoDot := (x*vx + y*vy) / rho
	thetaDot := (x*vy - y*vx) / (rho * rho)

	return [6]float64{rho, theta, z, rhoDot, thetaDot, vz}
}

// cylindricalToCartesian inverts cartesianToCylindrical.
func cylindricalToCartesian(coord [6]float64, mu float64) [6]float64 {
	rho, theta, z, rhoDot, thetaDot, zDot := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	cosT, sinT := math.Cos(theta), math.Sin(theta)
	x := rho * cosT
	y := rho * sinT
	vx := rhoDot*cosT - rho*thetaDot*sinT
	vy := rhoDot*sinT + rho*thetaDot*cosT

	return [6]float64{x, y, z, vx, vy, zDot}
}

// cartesianToSpherical ports beyond's Form._cartesian_to_spherical. The
// spherical form is equatorial, not zenithal.
func cartesianToSpherical(coord [6]float64, mu float64) [6]float64 {
	x, y, z, vx, vy, vz := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]
	r := math.Sqrt(x*x + y*y + z*z)
	phi := math.Asin(z / r)
	theta := math.Atan2(y, x)

	rDot := (x*vx + y*vy + z*vz) / r
	phiDot := (vz*(x*x+y*y) - z*(x*vx+y*vy)) / (r * r * math.Sqrt(x*x+y*y))
	thetaDot := (x*vy - y*vx) / (x*x + y*y)

	return [6]float64{r, theta, phi, rDot, thetaDot, phiDot}
}

// sphericalToCartesian ports beyond's Form._spherical_to_cartesian.
func sphericalToCartesian(coord [6]float64, mu float64) [6]float64 {
	r, theta, phi, rDot, thetaDot, phiDot := coord[0], coord[1], coord[2], coord[3], coord[4], coord[5]

	x := r * math.Cos(phi) * math.Cos(theta)
	y := r * math.Cos(phi) * math.Sin(theta)
	z := r * math.Sin(phi)

	vx := rDot*x/r - y*thetaDot - z*phiDot*math.Cos(theta)
	vy := rDot*y/r + x*thetaDot - z*phiDot*math.Sin(theta)
	vz := rDot*z/r + r*phiDot*math.Cos(phi)

	return [6]float64{x, y, z, vx, vy, vz}
}
