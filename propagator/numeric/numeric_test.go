package numeric

import (
	"math"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/maneuver"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

func sampleDate(t *testing.T) dates.Date {
	t.Helper()
	d, err := dates.NewFromCalendar(2016, time.November, 17, 19, 16, 40, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func earthAttractor() Attractor {
	return Attractor{
		Name: "Earth",
		Mu:   bodies.Earth.Mu(),
		Position: func(d dates.Date) ([3]float64, error) {
			return [3]float64{0, 0, 0}, nil
		},
	}
}

func circularLEO(t *testing.T, d dates.Date, propagator statevector.Propagator) *statevector.Orbit {
	t.Helper()
	return statevector.NewOrbit(d, [6]float64{7000000, 0, 0, 0, 7546.05329, 0}, forms.Cartesian, frames.EME2000, propagator)
}

func TestRK4ConservesSemiMajorAxisOverOneOrbit(t *testing.T) {
	d := sampleDate(t)
	prop := Numeric{
		Step:       30 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     RK4,
		Frame:      frames.EME2000,
	}
	orb := circularLEO(t, d, prop)

	period, err := orb.Period()
	if err != nil {
		t.Fatal(err)
	}
	later, err := d.Add(period)
	if err != nil {
		t.Fatal(err)
	}

	sv, err := orb.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	kep, err := sv.WithForm(forms.Keplerian)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(kep.Coord[0]-7000000) > 1000 {
		t.Errorf("semi-major axis after one orbit = %v, want close to 7000000", kep.Coord[0])
	}
}

func TestAdaptiveRKF54MatchesRK4ClosePosition(t *testing.T) {
	d := sampleDate(t)
	rk4 := circularLEO(t, d, Numeric{
		Step:       15 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     RK4,
		Frame:      frames.EME2000,
	})
	rkf54 := circularLEO(t, d, Numeric{
		Step:       60 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     RKF54,
		Frame:      frames.EME2000,
	})

	later, err := d.Add(20 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	a, err := rk4.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rkf54.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}

	var dist float64
	for i := 0; i < 3; i++ {
		diff := a.Coord[i] - b.Coord[i]
		dist += diff * diff
	}
	dist = math.Sqrt(dist)
	if dist > 50 {
		t.Errorf("RK4 and RKF54 positions diverge by %v m, want close agreement", dist)
	}
}

func TestContinuousManeuverChangesSemiMajorAxis(t *testing.T) {
	d := sampleDate(t)
	start, err := d.Add(5 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	man, err := maneuver.NewContinuousManFromDV(start, 2*time.Minute, [3]float64{5, 0, 0}, maneuver.AtStart, orient.TNW, "raise")
	if err != nil {
		t.Fatal(err)
	}

	prop := Numeric{
		Step:       10 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     RK4,
		Frame:      frames.EME2000,
	}
	orb := circularLEO(t, d, prop)
	orb.Maneuvers = append(orb.Maneuvers, man)

	later, err := d.Add(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := orb.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	kep, err := sv.WithForm(forms.Keplerian)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(kep.Coord[0]-7000000) < 10 {
		t.Error("a continuous burn should have changed the semi-major axis measurably")
	}
}

func TestImpulsiveManeuverFiresOnce(t *testing.T) {
	d := sampleDate(t)
	burnDate, err := d.Add(3 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	man := maneuver.NewImpulsiveMan(burnDate, [3]float64{10, 0, 0}, orient.TNW, "kick")

	prop := Numeric{
		Step:       10 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     RK4,
		Frame:      frames.EME2000,
	}
	without := circularLEO(t, d, prop)
	with := circularLEO(t, d, prop)
	with.Maneuvers = append(with.Maneuvers, man)

	later, err := d.Add(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	svWithout, err := without.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	svWith, err := with.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	if svWithout.Coord == svWith.Coord {
		t.Error("an impulsive maneuver partway through the arc should change the resulting state")
	}
}

func TestWalkProducesMonotonicDates(t *testing.T) {
	d := sampleDate(t)
	prop := Numeric{
		Step:       60 * time.Second,
		Attractors: []Attractor{earthAttractor()},
		Method:     Euler,
		Frame:      frames.EME2000,
	}
	orb := circularLEO(t, d, prop)
	stop, err := d.Add(5 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := prop.Walk(orb, stop)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) < 2 {
		t.Fatalf("expected multiple samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if !samples[i].Date.After(samples[i-1].Date) {
			t.Errorf("sample %d date did not advance", i)
		}
	}
}
