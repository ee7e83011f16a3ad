// Package numeric implements the Runge-Kutta family numerical
// propagator: fixed-step Euler and RK4, and the adaptive RKF5(4) and
// Dormand-Prince 5(4) embedded pairs, integrating Newtonian gravity from
// a configurable set of attractor bodies, with continuous and impulsive
// maneuver support. Grounded on beyond's propagators.keplernum module
// (original_source beyond/propagators/keplernum.py).
package numeric

import (
	"math"
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/ephem"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/statevector"
)

// Method selects the integration scheme.
type Method string

const (
	Euler   Method = "euler"
	RK4     Method = "rk4"
	RKF54   Method = "rkf54"
	DOPRI54 Method = "dopri54"
)

// butcherTableau holds a Runge-Kutta method's coefficients. a[i] (i>=1)
// lists the weights applied to k[0..i-1]; bStar is nil for fixed-step
// methods.
type butcherTableau struct {
	a     [][]float64
	b     []float64
	bStar []float64
	c     []float64
}

// tableaus mirrors beyond's KeplerNum.BUTCHER table verbatim.
var tableaus = map[Method]butcherTableau{
	Euler: {
		a: [][]float64{{}},
		b: []float64{1},
		c: []float64{0},
	},
	RK4: {
		a: [][]float64{
			{},
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		b: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		c: []float64{0, 0.5, 0.5, 1},
	},
	RKF54: {
		a: [][]float64{
			{},
			{1.0 / 4},
			{3.0 / 32, 9.0 / 32},
			{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197},
			{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104},
			{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40},
		},
		b:     []float64{16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55},
		bStar: []float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0},
		c:     []float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2},
	},
	DOPRI54: {
		a: [][]float64{
			{},
			{1.0 / 5},
			{3.0 / 40, 9.0 / 40},
			{44.0 / 45, -56.0 / 15, 32.0 / 9},
			{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
			{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
			{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
		},
		b: []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
		bStar: []float64{
			5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40,
		},
		c: []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	},
}

// Attractor is a gravitational source contributing Newtonian acceleration.
// Position returns the attractor's position, in meters, expressed in the
// propagator's working frame, at d.
type Attractor struct {
	Name     string
	Mu       float64
	Position func(d dates.Date) ([3]float64, error)
}

// continuousAccelerator and impulsiveKicker are the subsets of the
// maneuver package's concrete types this propagator needs, matched
// structurally against statevector.Maneuver values so this package never
// imports maneuver. Grounded on the same dependency-inversion pattern
// used between listener and statevector/ephem.
type continuousAccelerator interface {
	AppliesAt(d dates.Date) bool
	Accel(orb *statevector.StateVector) ([3]float64, error)
}

type impulsiveKicker interface {
	AppliesAt(d dates.Date) bool
	Check(date dates.Date, step time.Duration) (bool, error)
	DeltaV(orb *statevector.StateVector) ([3]float64, error)
}

// Numeric is the Runge-Kutta numerical propagator. Grounded on beyond's
// KeplerNum.
type Numeric struct {
	Step       time.Duration
	Attractors []Attractor
	Method     Method
	Frame      *frames.Frame
	Tol        float64 // error tolerance for adaptive methods; 0 uses DefaultTol
}

// DefaultTol matches beyond's KeplerNum default tol of 1e-3 (meters).
const DefaultTol = 1e-3

const maxStepIter = 10

func (p Numeric) tableau() butcherTableau {
	t, ok := tableaus[p.Method]
	if !ok {
		return tableaus[RK4]
	}
	return t
}

func (p Numeric) tol() float64 {
	if p.Tol == 0 {
		return DefaultTol
	}
	return p.Tol
}

func (p Numeric) frame() *frames.Frame {
	if p.Frame == nil {
		return frames.EME2000
	}
	return p.Frame
}

func add6(a, b [6]float64, k float64) [6]float64 {
	var out [6]float64
	for i := range out {
		out[i] = a[i] + b[i]*k
	}
	return out
}

func normPos(v [6]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// accel evaluates the state derivative (velocity, acceleration) at coord,
// date d, including every attractor's Newtonian pull and every applicable
// continuous maneuver's acceleration.
func (p Numeric) accel(coord [6]float64, d dates.Date, maneuvers []statevector.Maneuver) ([6]float64, error) {
	var out [6]float64
	out[0], out[1], out[2] = coord[3], coord[4], coord[5]

	for _, att := range p.Attractors {
		bodyPos, err := att.Position(d)
		if err != nil {
			return out, err
		}
		diff := [3]float64{bodyPos[0] - coord[0], bodyPos[1] - coord[1], bodyPos[2] - coord[2]}
		r := math.Sqrt(diff[0]*diff[0] + diff[1]*diff[1] + diff[2]*diff[2])
		r3 := r * r * r
		out[3] += att.Mu * diff[0] / r3
		out[4] += att.Mu * diff[1] / r3
		out[5] += att.Mu * diff[2] / r3
	}

	for _, m := range maneuvers {
		ca, ok := m.(continuousAccelerator)
		if !ok || !ca.AppliesAt(d) {
			continue
		}
		sv := statevector.New(d, coord, forms.Cartesian, p.frame())
		a, err := ca.Accel(sv)
		if err != nil {
			return out, err
		}
		out[3] += a[0]
		out[4] += a[1]
		out[5] += a[2]
	}

	return out, nil
}

// makeStep advances (coord, d) by step using the configured Butcher
// tableau, adapting step on error for methods carrying a bStar row.
// Grounded on beyond's KeplerNum._make_step.
func (p Numeric) makeStep(coord [6]float64, d dates.Date, step time.Duration, maneuvers []statevector.Maneuver) (realStep time.Duration, next [6]float64, nextDate dates.Date, err error) {
	tab := p.tableau()

	for iter := 0; iter < maxStepIter; iter++ {
		stepSec := step.Seconds()
		ks := make([][6]float64, len(tab.b))

		k0, err := p.accel(coord, d, maneuvers)
		if err != nil {
			return 0, [6]float64{}, d, err
		}
		ks[0] = k0

		for i := 1; i < len(tab.b); i++ {
			var yPrime [6]float64 = coord
			for j, aij := range tab.a[i] {
				yPrime = add6(yPrime, ks[j], aij*stepSec)
			}
			di, err := d.Add(time.Duration(tab.c[i] * stepSec * float64(time.Second)))
			if err != nil {
				return 0, [6]float64{}, d, err
			}
			ki, err := p.accel(yPrime, di, maneuvers)
			if err != nil {
				return 0, [6]float64{}, d, err
			}
			ks[i] = ki
		}

		var y1 [6]float64 = coord
		for i, bi := range tab.b {
			y1 = add6(y1, ks[i], bi*stepSec)
		}
		d1, err := d.Add(step)
		if err != nil {
			return 0, [6]float64{}, d, err
		}

		if tab.bStar == nil {
			return step, y1, d1, nil
		}

		var errVec [6]float64
		for i := range tab.b {
			diff := tab.b[i] - tab.bStar[i]
			for c := 0; c < 6; c++ {
				errVec[c] += diff * ks[i][c] * stepSec
			}
		}

		pErr := normPos(errVec)
		if pErr <= p.tol() {
			return step, y1, d1, nil
		}

		order := float64(len(tab.b) - 1)
		scaled := time.Duration(float64(step) * math.Pow(p.tol()/(2*pErr), 1/order))
		if math.Abs(float64(scaled)) > math.Abs(float64(p.Step)) {
			scaled = p.Step
		}
		step = scaled
	}

	return 0, [6]float64{}, d, astroerr.NewOutOfRange("numeric propagator: no convergence in step size after max iterations")
}

// applyImpulsive applies every impulsive maneuver whose window brackets
// the step just taken, mutating the velocity components of next.
func applyImpulsive(next [6]float64, nextDate dates.Date, prevDate dates.Date, realStep time.Duration, frame *frames.Frame, maneuvers []statevector.Maneuver) ([6]float64, error) {
	for _, m := range maneuvers {
		ik, ok := m.(impulsiveKicker)
		if !ok {
			continue
		}
		fired, err := ik.Check(prevDate, realStep)
		if err != nil {
			return next, err
		}
		if !fired {
			continue
		}
		sv := statevector.New(nextDate, next, forms.Cartesian, frame)
		dv, err := ik.DeltaV(sv)
		if err != nil {
			return next, err
		}
		next[3] += dv[0]
		next[4] += dv[1]
		next[5] += dv[2]
	}
	return next, nil
}

// Walk integrates from's Cartesian state from its own date up to (or past,
// for enough interpolation support) stop, returning the native variable-step
// samples produced along the way. Grounded on beyond's KeplerNum._iter,
// minus the listener-driven event detection layered on by callers.
func (p Numeric) Walk(from *statevector.Orbit, stop dates.Date) ([]*statevector.StateVector, error) {
	start := from.AsStateVector()
	reframed, err := start.WithFrame(p.frame())
	if err != nil {
		return nil, err
	}
	cart, err := reframed.WithForm(forms.Cartesian)
	if err != nil {
		return nil, err
	}

	forward := stop.After(cart.Date) || stop.Equal(cart.Date)
	step := p.Step
	if (step > 0) != forward {
		step = -step
	}

	coord := cart.Coord
	d := cart.Date

	samples := []*statevector.StateVector{statevector.New(d, coord, forms.Cartesian, p.frame())}

	passedStop := func(d dates.Date) bool {
		if forward {
			return !d.Before(stop)
		}
		return !d.After(stop)
	}

	for !passedStop(d) || len(samples) < ephem.DefaultOrder {
		realStep, next, nextDate, err := p.makeStep(coord, d, step, from.Maneuvers)
		if err != nil {
			return nil, err
		}
		next, err = applyImpulsive(next, nextDate, d, realStep, p.frame(), from.Maneuvers)
		if err != nil {
			return nil, err
		}
		coord, d = next, nextDate
		samples = append(samples, statevector.New(d, coord, forms.Cartesian, p.frame()))

		if len(samples) > 100000 {
			return nil, astroerr.NewDomain("numeric propagator: step size too small to reach the requested date")
		}
	}

	return samples, nil
}

// Propagate integrates from from's own date to to and returns the
// interpolated state there. Each call restarts the integration from
// from's date; it does not carry hidden state between calls, matching
// statevector.Propagator's pure (from, to) contract. A caller sampling a
// whole range should use Walk directly and build one ephem.Ephem instead
// of calling Propagate repeatedly.
func (p Numeric) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	samples, err := p.Walk(from, to)
	if err != nil {
		return nil, err
	}
	method := ephem.Lagrange
	if len(samples) < 3 {
		method = ephem.Linear
	}
	e, err := ephem.New(samples, method, 0)
	if err != nil {
		return nil, err
	}
	return e.Interpolate(to)
}
