// Package propagator implements the analytical propagators: pure
// mean-anomaly Kepler motion, secular J2, Eckstein-Hechler mean-circular
// elements, SGP4 (delegated to goeph's TLE engine), and the solar-system
// body analytic models (Sun, Moon, and a JPL SPK-kernel variant). Grounded
// on beyond's propagators package (original_source
// beyond/propagators/{kepler,j2,sgp4}.py, beyond/env/{solarsystem,jpl}.py)
// and goeph's own kepler and satellite packages.
package propagator

import (
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/statevector"
)

// Kepler propagates mean elements forward by ΔM = n·Δt; every other
// Keplerian element is left unchanged. Grounded on beyond's Kepler
// propagator.
type Kepler struct{}

// Propagate advances from's mean anomaly by n·Δt and returns the
// resulting state converted to Cartesian. Matches statevector.Propagator.
func (Kepler) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	mean, err := from.WithForm(forms.KeplerianMean)
	if err != nil {
		return nil, err
	}

	n, err := mean.MeanMotion()
	if err != nil {
		return nil, err
	}

	dt := to.Sub(mean.Date).Seconds()

	next := mean.Copy()
	next.Date = to
	next.Coord[5] = mean.Coord[5] + n*dt

	return next.WithForm(forms.Cartesian)
}
