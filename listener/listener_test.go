package listener

import (
	"math"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/statevector"
)

func sampleDate(t *testing.T) dates.Date {
	t.Helper()
	d, err := dates.NewFromCalendar(2016, time.November, 17, 0, 0, 0, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// linearPropagator is a synthetic Propagator whose first coordinate
// changes linearly with elapsed time, crossing zero at t0+crossing.
type linearPropagator struct {
	t0       dates.Date
	crossing time.Duration
	rate     float64 // units per second
}

func (p *linearPropagator) Propagate(d dates.Date) (*statevector.StateVector, error) {
	elapsed := d.Sub(p.t0) - p.crossing
	value := p.rate * elapsed.Seconds()
	return statevector.New(d, [6]float64{value, 0, 0, 0, 0, 0}, forms.Cartesian, frames.EME2000), nil
}

type coord0Listener struct{}

func (coord0Listener) Value(orb *statevector.StateVector) (float64, error) { return orb.Coord[0], nil }
func (l coord0Listener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(l, prev, cur)
}
func (coord0Listener) Info(prev, cur *statevector.StateVector) (Event, error) {
	return Event{Info: "crossing"}, nil
}

func TestSpeakerBisectFindsZeroCrossing(t *testing.T) {
	t0 := sampleDate(t)
	crossing := 37 * time.Minute
	prop := &linearPropagator{t0: t0, crossing: crossing, rate: 1}
	speaker := NewSpeaker(prop)

	begin, err := prop.Propagate(t0)
	if err != nil {
		t.Fatal(err)
	}
	end, err := prop.Propagate(mustAdd(t, t0, time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	events, err := speaker.Listen(begin, end, []Listener{coord0Listener{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	want, err := t0.Add(crossing)
	if err != nil {
		t.Fatal(err)
	}
	if d := events[0].Date.Sub(want); absDuration(d) > time.Millisecond {
		t.Errorf("bisected crossing off by %v", d)
	}
	if events[0].Event != "crossing" {
		t.Errorf("Event = %q, want %q", events[0].Event, "crossing")
	}
}

func TestSpeakerListenReturnsNilWithoutPrev(t *testing.T) {
	t0 := sampleDate(t)
	prop := &linearPropagator{t0: t0, crossing: time.Minute, rate: 1}
	speaker := NewSpeaker(prop)
	cur, err := prop.Propagate(t0)
	if err != nil {
		t.Fatal(err)
	}
	events, err := speaker.Listen(nil, cur, []Listener{coord0Listener{}})
	if err != nil {
		t.Fatal(err)
	}
	if events != nil {
		t.Errorf("expected no events without a previous sample, got %v", events)
	}
}

func mustAdd(t *testing.T, d dates.Date, dur time.Duration) dates.Date {
	t.Helper()
	out, err := d.Add(dur)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// keplerianAt builds a near-circular (e = 0.01), 45deg-inclined orbit at true anomaly
// nuDeg, for exercising NodeListener and ApsideListener.
func keplerianAt(t *testing.T, d dates.Date, nuDeg float64) *statevector.StateVector {
	t.Helper()
	kep := statevector.New(d, [6]float64{7000000, 0.01, 45 * math.Pi / 180, 0, 0, nuDeg * math.Pi / 180}, forms.Keplerian, frames.EME2000)
	cart, err := kep.WithForm(forms.Cartesian)
	if err != nil {
		t.Fatal(err)
	}
	return cart
}

func TestNodeListenerDetectsAscendingCrossing(t *testing.T) {
	d := sampleDate(t)
	before := keplerianAt(t, d, -5)
	after := keplerianAt(t, mustAdd(t, d, time.Minute), 5)

	nl := &NodeListener{}
	fired, err := nl.Check(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if !fired {
		t.Fatal("expected a node crossing between nu=-5deg and nu=+5deg")
	}

	ev, err := nl.Info(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Info != "Asc Node" {
		t.Errorf("Info = %q, want %q", ev.Info, "Asc Node")
	}
}

func TestApsideListenerLabelsPericenter(t *testing.T) {
	d := sampleDate(t)
	before := keplerianAt(t, d, -5)
	after := keplerianAt(t, mustAdd(t, d, time.Minute), 5)

	al := &ApsideListener{}
	ev, err := al.Info(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Info != "Periapsis" {
		t.Errorf("Info = %q, want %q (r_dot increasing through pericenter)", ev.Info, "Periapsis")
	}
}

func TestAnomalyListenerTargetsTrueAnomaly(t *testing.T) {
	al := &AnomalyListener{Target: 0, Kind: TrueAnomaly}
	d := sampleDate(t)
	near := keplerianAt(t, d, 1)

	v, err := al.Value(near)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-1*math.Pi/180) > 1e-9 {
		t.Errorf("Value = %v, want ~%v", v, 1*math.Pi/180)
	}

	fired, err := al.Check(nil, near)
	if err != nil {
		t.Fatal(err)
	}
	if fired {
		t.Error("Check should report false without a previous sample")
	}
}

func TestFindEventAndEventsIterator(t *testing.T) {
	d := sampleDate(t)
	a := statevector.New(d, [6]float64{}, forms.Cartesian, frames.EME2000)
	a.Event = "AOS"
	b := statevector.New(mustAdd(t, d, time.Minute), [6]float64{}, forms.Cartesian, frames.EME2000)
	b.Event = ""
	c := statevector.New(mustAdd(t, d, 2*time.Minute), [6]float64{}, forms.Cartesian, frames.EME2000)
	c.Event = "LOS"

	states := []*statevector.StateVector{a, b, c}

	found, err := FindEvent(states, "LOS", 0)
	if err != nil {
		t.Fatal(err)
	}
	if found != c {
		t.Error("FindEvent returned the wrong state vector")
	}

	if _, err := FindEvent(states, "LOS", 1); err == nil {
		t.Fatal("expected an error when the offset exceeds the number of matching events")
	}

	all := EventsIterator(states)
	if len(all) != 2 {
		t.Fatalf("EventsIterator() returned %d states, want 2", len(all))
	}
}
