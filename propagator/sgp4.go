package propagator

import (
	gosatellite "github.com/joshuaferrara/go-satellite"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/statevector"
)

// SGP4 is the TLE-native analytical propagator (near-Earth SGP4 only, no
// SDP4 deep-space variant), delegating the numerical model to the same
// go-satellite engine goeph's own satellite package already wraps.
// Grounded on beyond's Sgp4 propagator and goeph's satellite.Sat.
type SGP4 struct {
	sat gosatellite.Satellite
}

// NewSGP4 builds an SGP4 propagator from TLE lines, using the WGS84
// gravity constant table.
func NewSGP4(line1, line2 string) SGP4 {
	return SGP4{sat: gosatellite.TLEToSat(line1, line2, gosatellite.GravityWGS84)}
}

// Propagate evaluates the SGP4 model at to (converted to UTC), returning a
// Cartesian TEME state in meters and meters/second. from is accepted to
// satisfy statevector.Propagator; SGP4 carries its own TLE epoch and
// element set and does not consult from's coordinates.
func (p SGP4) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	utc, err := to.ChangeScale("UTC")
	if err != nil {
		return nil, err
	}
	t := utc.Time()

	pos, vel := gosatellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	coord := [6]float64{
		pos.X * 1000, pos.Y * 1000, pos.Z * 1000,
		vel.X * 1000, vel.Y * 1000, vel.Z * 1000,
	}
	return statevector.New(to, coord, forms.Cartesian, frames.TEME), nil
}
