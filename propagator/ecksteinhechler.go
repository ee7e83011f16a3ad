package propagator

import (
	"math"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/centers"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/statevector"
	"gonum.org/v1/gonum/mat"
)

// EcksteinHechler propagates mean circular elements (a, ex, ey, i, raan,
// u) for near-circular, low-eccentricity orbits under the J2 zonal
// secular drift, with an optional first-order short-period
// correction for osculating output. Grounded on beyond's
// propagators.analytical.EcksteinHechler contract (original_source carries
// only its test fixtures, not its body); the secular rates reuse the J2
// propagator's drift expressions, generalized to circular elements. The
// J3 coefficient bodies.Body carries is not used.
type EcksteinHechler struct {
	// Osculating adds the short-period correction to the propagated state.
	// When false, the returned state stays in mean circular elements.
	Osculating bool
	// Center supplies µ, equatorial radius and zonal harmonics. If nil,
	// the orbit's own frame center is used.
	Center *centers.Center
}

// NewEcksteinHechler mirrors beyond's EcksteinHechler(osculating=True) default.
func NewEcksteinHechler() EcksteinHechler { return EcksteinHechler{Osculating: true} }

func (p EcksteinHechler) center(mean *statevector.StateVector) *centers.Center {
	if p.Center != nil {
		return p.Center
	}
	return mean.Frame.Center
}

// secularRates returns the drift rates of (ex, ey rotation, raan, u) for
// the circular element set (a, ex, ey, i), matching the J2 propagator's
// expressions rewritten for an argument-of-latitude element set.
func secularRates(mu, re, j2 float64, a, e, i float64) (n, dRaan, dAop, du float64) {
	n = math.Sqrt(mu / (a * a * a))
	com := n * re * re * j2 / (a * a * (1 - e*e) * (1 - e*e))
	dRaan = -1.5 * com * math.Cos(i)
	dAop = 0.75 * com * (4 - 5*math.Sin(i)*math.Sin(i))
	du = n + 0.75*com*math.Sqrt(1-e*e)*(2-3*math.Sin(i)*math.Sin(i))
	return
}

// shortPeriod applies a first-order J2 short-period correction to the
// circular elements at argument of latitude u, matching the standard
// envelope of semi-major-axis, eccentricity-vector and inclination
// "wobble" terms used to build an osculating state from mean elements.
func shortPeriod(mu, re, j2 float64, a, ex, ey, i, raan, u float64) (da, dex, dey, di, draan, du float64) {
	e := math.Sqrt(ex*ex + ey*ey)
	gamma := 0.5 * j2 * (re / a) * (re / a)
	sinI, cosI := math.Sincos(i)
	s2i := sinI * sinI

	c2u := math.Cos(2 * u)
	s2u := math.Sin(2 * u)
	cu := math.Cos(u)
	su := math.Sin(u)

	da = a * gamma * (2 - 3*s2i) * 2 * e * cu
	dex = gamma * ((1-1.5*s2i)*cu + 1.5*s2i*math.Cos(3*u))
	dey = gamma * ((1-1.5*s2i)*su + 1.5*s2i*math.Sin(3*u))
	di = gamma * sinI * cosI * c2u
	draan = -gamma * cosI * s2u
	du = gamma * (2 - 3.5*s2i) * s2u
	return
}

// Propagate advances from's mean circular elements by the secular drift
// times Δt, then optionally adds the short-period osculating correction.
func (p EcksteinHechler) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	mean, err := from.WithForm(forms.KeplerianCircular)
	if err != nil {
		return nil, err
	}

	center := p.center(mean)
	mu := center.Body.Mu()
	re := center.Body.EquatorialRadius
	j2 := center.Body.J2

	a, ex, ey, i, raan, u := mean.Coord[0], mean.Coord[1], mean.Coord[2], mean.Coord[3], mean.Coord[4], mean.Coord[5]
	e := math.Sqrt(ex*ex + ey*ey)
	aop := math.Atan2(ey, ex)

	_, dRaan, dAop, du := secularRates(mu, re, j2, a, e, i)
	dt := to.Sub(mean.Date).Seconds()

	newAop := aop + dAop*dt
	newE := e
	newEx := newE * math.Cos(newAop)
	newEy := newE * math.Sin(newAop)
	newRaan := math.Mod(raan+dRaan*dt, 2*math.Pi)
	newU := math.Mod(u+du*dt, 2*math.Pi)

	next := mean.Copy()
	next.Date = to
	next.Coord = [6]float64{a, newEx, newEy, i, newRaan, newU}

	if p.Osculating {
		da, dex, dey, di, draan, dup := shortPeriod(mu, re, j2, a, newEx, newEy, i, newRaan, newU)
		next.Coord[0] += da
		next.Coord[1] += dex
		next.Coord[2] += dey
		next.Coord[3] += di
		next.Coord[4] = math.Mod(next.Coord[4]+draan, 2*math.Pi)
		next.Coord[5] = math.Mod(next.Coord[5]+dup, 2*math.Pi)
	}

	return next.WithForm(forms.Cartesian)
}

// FitMean recovers the mean circular element set whose EcksteinHechler(false)
// propagation best reproduces (least squares, Cartesian position residual)
// the sampled osculating history. Grounded on beyond's EcksteinHechler.fit,
// using gonum's Dense solver for the Gauss-Newton normal equations rather
// than a hand-rolled linear algebra routine.
func FitMean(samples []*statevector.StateVector, center *centers.Center) (*statevector.MeanOrbit, error) {
	if len(samples) == 0 {
		return nil, astroerr.NewDomain("fitting mean elements requires at least one sample")
	}

	mean0, err := samples[0].WithForm(forms.KeplerianCircular)
	if err != nil {
		return nil, err
	}
	x := mean0.Coord

	residual := func(x [6]float64) []float64 {
		out := make([]float64, 0, 3*len(samples))
		base := statevector.NewOrbit(mean0.Date, x, forms.KeplerianCircular, mean0.Frame, EcksteinHechler{Osculating: false, Center: center})
		for _, s := range samples {
			pred, err := base.Propagate(s.Date)
			if err != nil {
				return nil
			}
			predCart, err := pred.WithForm(forms.Cartesian)
			if err != nil {
				return nil
			}
			obsCart, err := s.WithForm(forms.Cartesian)
			if err != nil {
				return nil
			}
			for k := 0; k < 3; k++ {
				out = append(out, predCart.Coord[k]-obsCart.Coord[k])
			}
		}
		return out
	}

	const maxIter = 25
	const eps = 1.0
	for iter := 0; iter < maxIter; iter++ {
		r0 := residual(x)
		if r0 == nil {
			return nil, astroerr.NewDomain("fit diverged while propagating a residual sample")
		}
		m := len(r0)

		jac := mat.NewDense(m, 6, nil)
		for col := 0; col < 6; col++ {
			xp := x
			step := eps
			if col == 0 {
				step = eps
			} else {
				step = 1e-6
			}
			xp[col] += step
			rp := residual(xp)
			if rp == nil {
				return nil, astroerr.NewDomain("fit diverged while perturbing a mean element")
			}
			for row := 0; row < m; row++ {
				jac.Set(row, col, (rp[row]-r0[row])/step)
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		rVec := mat.NewVecDense(m, r0)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), rVec)

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			break
		}

		var normDelta float64
		for k := 0; k < 6; k++ {
			d := delta.AtVec(k)
			x[k] -= d
			normDelta += d * d
		}
		if math.Sqrt(normDelta) < 1e-9 {
			break
		}
	}

	return statevector.NewMeanOrbit(mean0.Date, x, forms.KeplerianCircular, mean0.Frame), nil
}
