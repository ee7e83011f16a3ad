package statevector

import (
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
)

// Propagator extrapolates an Orbit's state to an arbitrary date. Defined
// here (rather than in a propagator package importing statevector) so
// statevector has no dependency on any concrete propagator; every
// propagator in package propagator implements this instead. Grounded on
// beyond's propagators.base.Propagator.propagate.
type Propagator interface {
	Propagate(from *Orbit, to dates.Date) (*StateVector, error)
}

// Orbit is a StateVector with a Propagator attached, making it
// extrapolable to any date. Grounded on beyond's orbits.orbit.Orbit.
type Orbit struct {
	StateVector
	Propagator Propagator
}

// NewOrbit builds an Orbit from an initial state and a propagator.
func NewOrbit(d dates.Date, coord [6]float64, form *forms.Form, frame *frames.Frame, propagator Propagator) *Orbit {
	return &Orbit{StateVector: *New(d, coord, form, frame), Propagator: propagator}
}

// At returns the orbit's Cartesian state at d, delegating to the
// attached propagator (beyond's Orbit.propagate). Together with Frame,
// satisfies frames.OrbitRef.
func (o *Orbit) At(d dates.Date) ([6]float64, error) {
	sv, err := o.Propagate(d)
	if err != nil {
		return [6]float64{}, err
	}
	cart, err := sv.WithForm(forms.Cartesian)
	if err != nil {
		return [6]float64{}, err
	}
	return cart.Coord, nil
}

// Frame returns the orbit's reference frame. Declared explicitly, rather
// than relying on the embedded StateVector.Frame field, because a
// directly declared method always wins selector resolution over one
// promoted from an embedded field, letting Orbit implement
// frames.OrbitRef without renaming StateVector.Frame.
func (o *Orbit) Frame() *frames.Frame { return o.StateVector.Frame }

// Propagate extrapolates the orbit to date d, returning a full
// StateVector snapshot. Matches beyond's Orbit.propagate.
func (o *Orbit) Propagate(d dates.Date) (*StateVector, error) {
	if o.Propagator == nil {
		return nil, astroerr.NewUnknown(astroerr.UnknownPropagator, "<nil>")
	}
	return o.Propagator.Propagate(o, d)
}

// EphemerisRange propagates the orbit across a date range, matching
// beyond's Orbit.ephemeris/Orbit.ephem without the listener-driven event
// detection that package listener layers on top of this.
func (o *Orbit) EphemerisRange(start dates.Date, step time.Duration, count int) ([]*StateVector, error) {
	ds, err := dates.Range(start, step, count)
	if err != nil {
		return nil, err
	}
	out := make([]*StateVector, 0, len(ds))
	for _, d := range ds {
		sv, err := o.Propagate(d)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, nil
}

// AsStateVector detaches the orbit from its propagator, returning a
// plain StateVector snapshot of its current state.
func (o *Orbit) AsStateVector() *StateVector {
	return o.StateVector.Copy()
}

// MeanOrbit is a StateVector whose coordinates are mean (not osculating)
// elements, as produced by or required by analytic propagators such as
// SGP4 or the mean-element J2 secular model. It carries no propagator of
// its own; package propagator attaches one when building an Orbit from a
// MeanOrbit (e.g. a TLE loader keeping the mean elements around for
// re-propagation). Grounded on beyond's distinction between a Tle's raw
// mean elements and the osculating Orbit produced from them.
type MeanOrbit struct {
	StateVector
}

// NewMeanOrbit builds a MeanOrbit in the given mean-element form
// (typically forms.KeplerianMean or forms.TLE).
func NewMeanOrbit(d dates.Date, coord [6]float64, form *forms.Form, frame *frames.Frame) *MeanOrbit {
	return &MeanOrbit{StateVector: *New(d, coord, form, frame)}
}

// AsOrbit attaches propagator to m, returning an extrapolable Orbit that
// starts from m's mean-element state.
func (m *MeanOrbit) AsOrbit(propagator Propagator) *Orbit {
	return &Orbit{StateVector: *m.StateVector.Copy(), Propagator: propagator}
}
