package propagator

import (
	"math"

	"github.com/orrery-space/astrocore/centers"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/statevector"
)

// J2 propagates the secular effects of a body's J2 zonal harmonic on the
// right ascension of ascending node, argument of periapsis and mean
// anomaly; no short-period terms. Grounded on beyond's J2 propagator.
type J2 struct {
	// Center supplies the central body's µ, equatorial radius and J2. If
	// nil, the orbit's own frame center is used.
	Center *centers.Center
}

// Propagate advances from by the secular J2 drift rates times Δt.
func (p J2) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	mean, err := from.WithForm(forms.KeplerianMean)
	if err != nil {
		return nil, err
	}

	center := p.Center
	if center == nil {
		center = mean.Frame.Center
	}

	mu := center.Body.Mu()
	re := center.Body.EquatorialRadius
	j2 := center.Body.J2

	a, e, i := mean.Coord[0], mean.Coord[1], mean.Coord[2]
	n := math.Sqrt(mu / (a * a * a))

	com := n * re * re * j2 / (a * a * (1 - e*e) * (1 - e*e))

	dRaan := -1.5 * com * math.Cos(i)
	dAop := 0.75 * com * (4 - 5*math.Sin(i)*math.Sin(i))
	dM := 0.75*com*math.Sqrt(1-e*e)*(2-3*math.Sin(i)*math.Sin(i)) + n

	dt := to.Sub(mean.Date).Seconds()

	next := mean.Copy()
	next.Date = to
	next.Coord[3] = math.Mod(mean.Coord[3]+dRaan*dt, 2*math.Pi)
	next.Coord[4] = math.Mod(mean.Coord[4]+dAop*dt, 2*math.Pi)
	next.Coord[5] = math.Mod(mean.Coord[5]+dM*dt, 2*math.Pi)

	return next.WithForm(forms.Cartesian)
}
