package propagator

import (
	"math"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/spk"
	"github.com/orrery-space/astrocore/statevector"
)

func degSin(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }
func degCos(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

// SunAnalytic computes the Sun's position from a low-precision polynomial
// ephemeris, returning a state in the MOD frame (position only; velocity
// is left zero, matching the source model). Grounded on beyond's
// SunPropagator (original_source beyond/env/solarsystem.py).
type SunAnalytic struct{}

// Propagate ignores from and evaluates the polynomial model at to.
func (SunAnalytic) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	ut1, err := to.ChangeScale("UT1")
	if err != nil {
		return nil, err
	}
	t := ut1.JulianCentury()

	lambdaM := 280.460 + 36000.771*t
	m := (357.5291092 + 35999.05034*t) * math.Pi / 180
	lambdaEl := (lambdaM + 1.914666471*math.Sin(m)*180/math.Pi + 0.019994643*math.Sin(2*m)*180/math.Pi) * math.Pi / 180

	r := 1.000140612 - 0.016708617*math.Cos(m) - 0.000139589*math.Cos(2*m)
	eps := (23.439291 - 0.0130042*t) * math.Pi / 180

	coord := [6]float64{
		r * math.Cos(lambdaEl) * bodies.AU,
		r * math.Cos(eps) * math.Sin(lambdaEl) * bodies.AU,
		r * math.Sin(eps) * math.Sin(lambdaEl) * bodies.AU,
		0, 0, 0,
	}
	return statevector.New(to, coord, forms.Cartesian, frames.MOD), nil
}

// MoonAnalytic computes the Moon's position from a low-precision
// polynomial ephemeris, returning a state in the EME2000 frame (position
// only). Grounded on beyond's MoonPropagator.
type MoonAnalytic struct{}

func (MoonAnalytic) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	tdb, err := to.ChangeScale("TDB")
	if err != nil {
		return nil, err
	}
	t := tdb.JulianCentury()

	lambdaEl := 218.32 + 481267.8813*t +
		6.29*degSin(134.9+477198.85*t) - 1.27*degSin(259.2-413335.38*t) +
		0.66*degSin(235.7+890534.23*t) + 0.21*degSin(269.9+954397.7*t) -
		0.19*degSin(357.5+35999.05*t) - 0.11*degSin(186.6+966404.05*t)

	phiEl := 5.13*degSin(93.3+483202.03*t) + 0.28*degSin(228.2+960400.87*t) -
		0.28*degSin(318.3+6003.18*t) - 0.17*degSin(217.6-407332.2*t)

	p := 0.9508 + 0.0518*degCos(134.9+477198.85*t) + 0.0095*degCos(259.2-413335.38*t) +
		0.0078*degCos(235.7+890534.23*t) + 0.0028*degCos(269.9+954397.70*t)

	eBar := (23.439291 - 0.0130042*t - 1.64e-7*t*t + 5.04e-7*t*t*t) * math.Pi / 180

	rMoon := bodies.Earth.EquatorialRadius / degSin(p)

	lambdaRad := lambdaEl * math.Pi / 180
	phiRad := phiEl * math.Pi / 180

	coord := [6]float64{
		rMoon * math.Cos(phiRad) * math.Cos(lambdaRad),
		rMoon * (math.Cos(eBar)*math.Cos(phiRad)*math.Sin(lambdaRad) - math.Sin(eBar)*math.Sin(phiRad)),
		rMoon * (math.Sin(eBar)*math.Cos(phiRad)*math.Sin(lambdaRad) + math.Cos(eBar)*math.Sin(phiRad)),
		0, 0, 0,
	}
	return statevector.New(to, coord, forms.Cartesian, frames.EME2000), nil
}

// JPLKernel propagates a body by reading its position from a JPL SPK/DAF
// kernel through spk.Observe: the light-time corrected position of
// TargetID as seen from Earth, not a barycentric state. Velocity is
// left zero. Grounded on beyond's env.jpl module and goeph's spk.SPK
// reader.
type JPLKernel struct {
	SPK      *spk.SPK
	TargetID int
	Frame    *frames.Frame
}

// Propagate reads the kernel at to's TDB Julian date.
func (p JPLKernel) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	if p.SPK == nil {
		return nil, astroerr.NewDomain("JPLKernel propagator has no SPK file loaded")
	}
	tdb, err := to.ChangeScale("TDB")
	if err != nil {
		return nil, err
	}
	jd := tdb.JD()

	pos := p.SPK.Observe(p.TargetID, jd)

	frame := p.Frame
	if frame == nil {
		frame = frames.EME2000
	}

	coord := [6]float64{pos[0] * 1000, pos[1] * 1000, pos[2] * 1000, 0, 0, 0}
	return statevector.New(to, coord, forms.Cartesian, frame), nil
}
