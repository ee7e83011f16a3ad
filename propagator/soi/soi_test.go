package soi

import (
	"math"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/centers"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/propagator"
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

func kepler() statevector.Propagator { return propagator.Kepler{} }

func TestActiveDefaultsToCentral(t *testing.T) {
	s := SoI{
		Central: Radius{Center: centers.Earth, Frame: frames.EME2000},
		Alt: []Radius{
			{Center: centers.Earth, Meters: 1000000, Frame: frames.EME2000},
		},
		Build: func(active *Radius) statevector.Propagator { return kepler() },
		Step:  60 * time.Second,
	}
	d := sampleDate(t)
	leo := statevector.New(d, [6]float64{7000000, 0, 0, 0, 7546, 0}, forms.Cartesian, frames.EME2000)

	active, err := s.Active(leo)
	if err != nil {
		t.Fatal(err)
	}
	if active != nil {
		t.Error("a LEO state should remain outside every alternate sphere, want central")
	}
}

func TestWalkStaysInCentralWhenNoCrossing(t *testing.T) {
	s := SoI{
		Central: Radius{Center: centers.Earth, Frame: frames.EME2000},
		Build:   func(active *Radius) statevector.Propagator { return kepler() },
		Step:    5 * time.Minute,
	}
	d := sampleDate(t)
	orb := statevector.NewOrbit(d, [6]float64{7000000, 0, 0, 0, 7546, 0}, forms.Cartesian, frames.EME2000, kepler())
	stop, err := d.Add(time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := s.Walk(orb, stop)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) == 0 {
		t.Fatal("expected at least one sample")
	}
	last := samples[len(samples)-1]
	if !last.Date.Equal(stop) {
		t.Errorf("last sample date = %v, want %v", last.Date, stop)
	}
	r := math.Sqrt(last.Coord[0]*last.Coord[0] + last.Coord[1]*last.Coord[1] + last.Coord[2]*last.Coord[2])
	if math.Abs(r-7000000) > 10 {
		t.Errorf("radius drifted under pure Kepler walk: %v", r)
	}
}
