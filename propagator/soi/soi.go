// Package soi implements the sphere-of-influence propagator: a wrapper
// that switches between an "active body" and an alternate list of bodies
// as a trajectory crosses each one's sphere of influence, re-anchoring
// the state in the new body's frame and swapping in that body's own inner
// propagator (analytic Kepler or the numeric RK integrator). Grounded on
// beyond's propagators.soi module (original_source
// beyond/propagators/soi.py, the `_SoI` mixin and its `SoIAnalytical`/
// `SoINumerical` subclasses).
package soi

import (
	"time"

	"github.com/orrery-space/astrocore/centers"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/statevector"
)

// Radius describes one body's sphere of influence: its radius and the
// frame (centered on that body) used both to test membership and to
// re-anchor the state once the trajectory has entered it.
type Radius struct {
	Center *centers.Center
	Meters float64
	Frame  *frames.Frame
}

// DefaultRadii reproduces beyond's _SoI.SOIS table, in meters.
var DefaultRadii = map[string]float64{
	"Mercury": 112408000,
	"Venus":   616270000,
	"Earth":   924642000,
	"Moon":    66168000,
	"Mars":    577223000,
	"Jupiter": 48219667000,
	"Saturn":  54800713000,
	"Uranus":  51839589000,
	"Neptune": 84758736000,
}

// Factory builds the inner propagator to run while active is the current
// sphere. active is nil while the central body is in effect.
type Factory func(active *Radius) statevector.Propagator

// SoI is a sphere-of-influence propagator. Central is the fallback body
// (its own Frame is used whenever the state lies outside every entry of
// Alt); Alt is checked in order, first match wins, mirroring beyond's
// for/else fallthrough to the central body.
type SoI struct {
	Central Radius
	Alt     []Radius
	Build   Factory
	Step    time.Duration
	// OutFrame, if set, is the frame every returned sample is converted
	// to regardless of which body is currently active, matching beyond's
	// out_frame. Left nil, each sample stays expressed in its active
	// body's own frame.
	OutFrame *frames.Frame
}

func sameRadius(a, b *Radius) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Center == b.Center
}

// Active reports which sphere orb's state currently lies within, nil
// meaning the central body. Grounded on beyond's _SoI._soi.
func (s SoI) Active(orb *statevector.StateVector) (*Radius, error) {
	for i := range s.Alt {
		r := &s.Alt[i]
		reframed, err := orb.WithFrame(r.Frame)
		if err != nil {
			return nil, err
		}
		sph, err := reframed.WithForm(forms.Spherical)
		if err != nil {
			return nil, err
		}
		if sph.Coord[0] < r.Meters {
			return r, nil
		}
	}
	return nil, nil
}

func (s SoI) frameFor(active *Radius) *frames.Frame {
	if active == nil {
		return s.Central.Frame
	}
	return active.Frame
}

func (s SoI) outFrame(active *Radius) *frames.Frame {
	if s.OutFrame != nil {
		return s.OutFrame
	}
	return s.frameFor(active)
}

// Walk integrates from from's own date to stop, switching bodies at every
// sphere-of-influence crossing. Each returned sample is expressed in
// s.outFrame. Grounded on beyond's _SoI._iter.
func (s SoI) Walk(from *statevector.Orbit, stop dates.Date) ([]*statevector.StateVector, error) {
	cur := from.AsStateVector()

	active, err := s.Active(cur)
	if err != nil {
		return nil, err
	}
	anchored, err := cur.WithFrame(s.frameFor(active))
	if err != nil {
		return nil, err
	}

	if anchored.Date.Equal(stop) {
		return []*statevector.StateVector{anchored}, nil
	}
	forward := stop.After(anchored.Date)

	reached := func(d dates.Date) bool {
		if forward {
			return !d.Before(stop)
		}
		return !d.After(stop)
	}

	out := []*statevector.StateVector{}
	for {
		prop := s.Build(active)
		d := anchored.Date
		coord := anchored.Coord
		form := anchored.Form
		frame := anchored.Frame

		for {
			step := s.Step
			if forward != (step > 0) {
				step = -step
			}
			nextDate, err := d.Add(step)
			if err != nil {
				return nil, err
			}
			if forward && nextDate.After(stop) {
				nextDate = stop
			} else if !forward && nextDate.Before(stop) {
				nextDate = stop
			}

			orb := statevector.NewOrbit(d, coord, form, frame, prop)
			sv, err := orb.Propagate(nextDate)
			if err != nil {
				return nil, err
			}

			reported, err := sv.WithFrame(s.outFrame(active))
			if err != nil {
				return nil, err
			}
			out = append(out, reported)

			newActive, err := s.Active(sv)
			if err != nil {
				return nil, err
			}
			d = nextDate

			if !sameRadius(newActive, active) {
				active = newActive
				reanchored, err := sv.WithFrame(s.frameFor(active))
				if err != nil {
					return nil, err
				}
				coord, form, frame = reanchored.Coord, reanchored.Form, reanchored.Frame
				break
			}

			coord, form, frame = sv.Coord, sv.Form, sv.Frame

			if reached(d) {
				return out, nil
			}
		}

		anchored = statevector.New(d, coord, form, frame)
	}
}

// Propagate satisfies statevector.Propagator, returning the final sample
// of Walk.
func (s SoI) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	samples, err := s.Walk(from, to)
	if err != nil {
		return nil, err
	}
	return samples[len(samples)-1], nil
}
