// Package listener watches a propagated orbit for state transitions —
// station acquisition/loss of signal, node crossings, apside passage,
// anomaly thresholds, shadow entry/exit — and bisects each crossing down
// to the precise date it occurred. Grounded on beyond's
// propagators.listeners module (original_source
// beyond/propagators/listeners.py).
//
// Unlike beyond's Listener, which stores the previous sample as mutable
// state on the listener object itself, every Listener here is stateless:
// Check and Info both take the previous and current samples explicitly.
// The caller (typically a propagation loop) carries the "previous sample"
// forward between calls, the same way statevector.StateVector itself is
// immutable under conversion. This also makes a single Listener value
// safely reusable across independent propagation runs.
package listener

import (
	"fmt"
	"sort"
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/statevector"
)

// EpsBisect is the default bisection convergence tolerance.
const EpsBisect = time.Microsecond

// Event records that a Listener fired, and the human-readable
// description of what happened.
type Event struct {
	Listener Listener
	Info     string
}

// Listener watches a scalar function of a state vector for sign changes.
// Value is evaluated at every propagated sample; a sign change between
// two successive samples (as reported by Check) triggers a bisection
// down to the crossing, after which Info describes what was found.
type Listener interface {
	Value(orb *statevector.StateVector) (float64, error)
	Check(prev, cur *statevector.StateVector) (bool, error)
	Info(prev, cur *statevector.StateVector) (Event, error)
}

// DefaultCheck implements the common sign-change test: a transition
// fired if prev is non-nil and Value(prev) and Value(cur) have opposite
// signs. Listeners that need extra gating (only trigger while in view of
// a station, only near a target anomaly, ...) call this from their own
// Check after their own gate passes.
func DefaultCheck(l Listener, prev, cur *statevector.StateVector) (bool, error) {
	if prev == nil {
		return false, nil
	}
	a, err := l.Value(prev)
	if err != nil {
		return false, err
	}
	b, err := l.Value(cur)
	if err != nil {
		return false, err
	}
	return sign(a) != sign(b), nil
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Propagator is the subset of statevector.Orbit and ephem.Ephem that
// Speaker needs: the ability to produce a StateVector at an arbitrary
// date. Satisfied structurally, so this package depends on neither
// propagator nor ephem.
type Propagator interface {
	Propagate(d dates.Date) (*statevector.StateVector, error)
}

// Speaker drives Listeners across a Propagator, bisecting every
// transition it detects down to EpsBisect. Grounded on beyond's Speaker
// mixin.
type Speaker struct {
	Propagator Propagator
	Eps        time.Duration
}

// NewSpeaker builds a Speaker over p, using EpsBisect as the default
// bisection tolerance.
func NewSpeaker(p Propagator) *Speaker {
	return &Speaker{Propagator: p, Eps: EpsBisect}
}

// Listen checks every listener against the transition from prev to cur
// and returns one bisected StateVector per listener that fired, each
// tagged via its Event field, sorted by date. prev may be nil, in which
// case no listener can have fired yet (there is nothing to compare
// against).
func (s *Speaker) Listen(prev, cur *statevector.StateVector, listeners []Listener) ([]*statevector.StateVector, error) {
	if prev == nil {
		return nil, nil
	}

	var out []*statevector.StateVector
	for _, l := range listeners {
		fired, err := l.Check(prev, cur)
		if err != nil {
			return nil, err
		}
		if !fired {
			continue
		}
		tagged, err := s.bisect(prev, cur, l)
		if err != nil {
			return nil, err
		}
		out = append(out, tagged)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// bisect searches for the zero-crossing of l.Value between begin and
// end, propagating new midpoints through s.Propagator until the bracket
// is narrower than Eps. Grounded on beyond's Speaker._bisect.
func (s *Speaker) bisect(begin, end *statevector.StateVector, l Listener) (*statevector.StateVector, error) {
	eps := s.Eps
	if eps <= 0 {
		eps = EpsBisect
	}

	step := end.Date.Sub(begin.Date) / 2
	for absDuration(step) >= eps {
		mid, err := begin.Date.Add(step)
		if err != nil {
			return nil, err
		}
		cur, err := s.Propagator.Propagate(mid)
		if err != nil {
			return nil, err
		}

		vBegin, err := l.Value(begin)
		if err != nil {
			return nil, err
		}
		vCur, err := l.Value(cur)
		if err != nil {
			return nil, err
		}

		if sign(vBegin) == sign(vCur) {
			begin = cur
		} else {
			end = cur
		}
		step = end.Date.Sub(begin.Date) / 2
	}

	event, err := l.Info(begin, end)
	if err != nil {
		return nil, err
	}

	tagged := end.Copy()
	tagged.Event = event.Info
	return tagged, nil
}

// FindEvent returns the (offset+1)-th StateVector in states whose Event
// field equals event.
func FindEvent(states []*statevector.StateVector, event string, offset int) (*statevector.StateVector, error) {
	n := 0
	for _, sv := range states {
		if sv.Event == event {
			if n == offset {
				return sv, nil
			}
			n++
		}
	}
	return nil, astroerr.NewOutOfRange(fmt.Sprintf("no event %q found at offset=%d", event, offset))
}

// EventsIterator filters states down to those carrying one of events (or
// any event at all, if events is empty).
func EventsIterator(states []*statevector.StateVector, events ...string) []*statevector.StateVector {
	var out []*statevector.StateVector
	for _, sv := range states {
		if sv.Event == "" {
			continue
		}
		if len(events) == 0 {
			out = append(out, sv)
			continue
		}
		for _, e := range events {
			if sv.Event == e {
				out = append(out, sv)
				break
			}
		}
	}
	return out
}
