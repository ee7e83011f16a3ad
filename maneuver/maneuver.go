// Package maneuver implements impulsive and continuous orbital
// maneuvers: a velocity increment or acceleration, expressed in the
// orbit's own frame or in its local QSW/TNW orientation, plus the
// Gauss-planetary-equations shortcut for targeting a semi-major-axis,
// inclination or right-ascension-of-ascending-node change directly.
// Grounded on beyond's orbits.man module (original_source
// beyond/orbits/man.py).
package maneuver

import (
	"math"
	"time"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

func norm3(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }

func scale3(v [3]float64, k float64) [3]float64 { return [3]float64{v[0] * k, v[1] * k, v[2] * k} }

func isLocal(frame orient.LocalFrameKind) bool { return frame == orient.QSW || frame == orient.TNW }

// toOrbitFrame converts a vector expressed in frame (the orbit's own
// frame if frame is "", otherwise its QSW or TNW local orientation) to
// the orbit's own Cartesian axes. Grounded on beyond's use of
// `to_local(...).T`.
func toOrbitFrame(orb *statevector.StateVector, frame orient.LocalFrameKind, v [3]float64) ([3]float64, error) {
	if !isLocal(frame) {
		return v, nil
	}
	cart, err := orb.WithForm(forms.Cartesian)
	if err != nil {
		return [3]float64{}, err
	}
	basis, err := orient.LocalBasis(frame, cart.Position(), cart.Velocity())
	if err != nil {
		return [3]float64{}, err
	}
	return basis.Transpose().Apply(v), nil
}

// ImpulsiveMan is an instantaneous velocity change applied at Date.
// Grounded on beyond's ImpulsiveMan.
type ImpulsiveMan struct {
	Date    dates.Date
	DV      [3]float64
	Frame   orient.LocalFrameKind // "" keeps the orbit's own frame
	Comment string
}

// NewImpulsiveMan builds an ImpulsiveMan applying dv (m/s) at d,
// expressed in frame ("" for the orbit's own frame, orient.QSW or
// orient.TNW for a local orientation).
func NewImpulsiveMan(d dates.Date, dv [3]float64, frame orient.LocalFrameKind, comment string) *ImpulsiveMan {
	return &ImpulsiveMan{Date: d, DV: dv, Frame: frame, Comment: comment}
}

// AppliesAt reports whether d is exactly the maneuver's date, satisfying
// statevector.Maneuver. A stepping propagator instead calls Check, which
// knows about step boundaries.
func (m *ImpulsiveMan) AppliesAt(d dates.Date) bool { return d.Equal(m.Date) }

// Check reports whether m's date falls within (date, date+step], the
// window a propagator advancing from date by step should apply the
// kick in. Grounded on beyond's ImpulsiveMan.check.
func (m *ImpulsiveMan) Check(date dates.Date, step time.Duration) (bool, error) {
	end, err := date.Add(step)
	if err != nil {
		return false, err
	}
	return date.Before(m.Date) && !end.Before(m.Date), nil
}

// DeltaV returns the velocity increment expressed in orb's own
// reference frame. Grounded on beyond's ImpulsiveMan.dv.
func (m *ImpulsiveMan) DeltaV(orb *statevector.StateVector) ([3]float64, error) {
	return toOrbitFrame(orb, m.Frame, m.DV)
}

// KeplerianImpulsiveMan is an impulsive maneuver specified as a target
// change in semi-major axis, inclination and/or right ascension of
// ascending node, converted to a velocity increment in TNW via the Gauss
// planetary equations at application time. Grounded on beyond's
// KeplerianImpulsiveMan.
type KeplerianImpulsiveMan struct {
	Date           dates.Date
	DA, DI, DOmega float64
	Comment        string
}

// NewKeplerianImpulsiveMan builds a KeplerianImpulsiveMan applying the
// given element increments at d. Any of da, di, dOmega may be zero.
func NewKeplerianImpulsiveMan(d dates.Date, da, di, dOmega float64, comment string) *KeplerianImpulsiveMan {
	return &KeplerianImpulsiveMan{Date: d, DA: da, DI: di, DOmega: dOmega, Comment: comment}
}

func (m *KeplerianImpulsiveMan) AppliesAt(d dates.Date) bool { return d.Equal(m.Date) }

func (m *KeplerianImpulsiveMan) Check(date dates.Date, step time.Duration) (bool, error) {
	end, err := date.Add(step)
	if err != nil {
		return false, err
	}
	return date.Before(m.Date) && !end.Before(m.Date), nil
}

// DeltaV computes the required delta-v via dkep2dv and rotates it from
// TNW into orb's own frame.
func (m *KeplerianImpulsiveMan) DeltaV(orb *statevector.StateVector) ([3]float64, error) {
	dv, err := dkep2dv(orb, m.DA, m.DI, m.DOmega)
	if err != nil {
		return [3]float64{}, err
	}
	return toOrbitFrame(orb, orient.TNW, dv)
}

// DatePosition selects how a ContinuousMan's construction date relates
// to its burn window.
type DatePosition string

const (
	AtStart  DatePosition = "start"
	AtStop   DatePosition = "stop"
	AtMedian DatePosition = "median"
)

func burnWindow(date dates.Date, duration time.Duration, pos DatePosition) (start, stop, median dates.Date, err error) {
	switch pos {
	case AtStop:
		start, err = date.Add(-duration)
	case AtMedian:
		start, err = date.Add(-duration / 2)
	default:
		start = date
	}
	if err != nil {
		return
	}
	stop, err = start.Add(duration)
	if err != nil {
		return
	}
	median, err = start.Add(duration / 2)
	return
}

// ContinuousMan is a constant thrust applied over [Start, Stop).
// Grounded on beyond's ContinuousMan.
type ContinuousMan struct {
	Start, Stop, Median dates.Date
	Duration            time.Duration
	dv                  [3]float64
	accel               [3]float64
	Frame               orient.LocalFrameKind
	Comment             string
}

// NewContinuousManFromDV builds a ContinuousMan delivering dv (m/s) over
// duration, with date interpreted according to pos.
func NewContinuousManFromDV(date dates.Date, duration time.Duration, dv [3]float64, pos DatePosition, frame orient.LocalFrameKind, comment string) (*ContinuousMan, error) {
	start, stop, median, err := burnWindow(date, duration, pos)
	if err != nil {
		return nil, err
	}
	accel := scale3(dv, 1/duration.Seconds())
	return &ContinuousMan{Start: start, Stop: stop, Median: median, Duration: duration, dv: dv, accel: accel, Frame: frame, Comment: comment}, nil
}

// NewContinuousManFromAccel builds a ContinuousMan delivering a constant
// acceleration (m/s^2) over duration, with date interpreted according to
// pos.
func NewContinuousManFromAccel(date dates.Date, duration time.Duration, accel [3]float64, pos DatePosition, frame orient.LocalFrameKind, comment string) (*ContinuousMan, error) {
	start, stop, median, err := burnWindow(date, duration, pos)
	if err != nil {
		return nil, err
	}
	dv := scale3(accel, duration.Seconds())
	return &ContinuousMan{Start: start, Stop: stop, Median: median, Duration: duration, dv: dv, accel: accel, Frame: frame, Comment: comment}, nil
}

// AppliesAt reports whether d falls within [Start, Stop), satisfying
// statevector.Maneuver.
func (m *ContinuousMan) AppliesAt(d dates.Date) bool {
	return !d.Before(m.Start) && d.Before(m.Stop)
}

// Accel returns the acceleration (m/s^2) expressed in orb's own
// reference frame. Grounded on beyond's ContinuousMan.accel.
func (m *ContinuousMan) Accel(orb *statevector.StateVector) ([3]float64, error) {
	return toOrbitFrame(orb, m.Frame, m.accel)
}

// DeltaV returns the total velocity increment (m/s) this maneuver
// delivers over its duration, undecomposed (caller-frame, not
// orbit-frame).
func (m *ContinuousMan) DeltaV() [3]float64 { return m.dv }

// KeplerianContinuousMan is a continuous TNW burn specified as a target
// change in semi-major axis, inclination and/or right ascension of
// ascending node, recomputed from the current orbit at every Accel call
// since the required thrust direction changes as the orbit evolves.
// Grounded on beyond's KeplerianContinuousMan.
type KeplerianContinuousMan struct {
	*ContinuousMan
	DeltaA, DI, DOmega float64
}

// NewKeplerianContinuousMan builds a KeplerianContinuousMan targeting
// the given element increments over duration, always in TNW.
func NewKeplerianContinuousMan(date dates.Date, duration time.Duration, deltaA, di, dOmega float64, pos DatePosition, comment string) (*KeplerianContinuousMan, error) {
	base, err := NewContinuousManFromDV(date, duration, [3]float64{}, pos, orient.TNW, comment)
	if err != nil {
		return nil, err
	}
	return &KeplerianContinuousMan{ContinuousMan: base, DeltaA: deltaA, DI: di, DOmega: dOmega}, nil
}

// Accel recomputes the required TNW delta-v from orb's current elements
// before projecting it into orb's own frame.
func (m *KeplerianContinuousMan) Accel(orb *statevector.StateVector) ([3]float64, error) {
	dv, err := dkep2dv(orb, m.DeltaA, m.DI, m.DOmega)
	if err != nil {
		return [3]float64{}, err
	}
	m.dv = dv
	m.accel = scale3(dv, 1/m.Duration.Seconds())
	return m.ContinuousMan.Accel(orb)
}

// ArgumentOfLatitudeForCorrection returns the argument of latitude
// (omega + nu, radians) at which an inclination and/or RAAN correction
// is most efficiently performed. Grounded on beyond's dkep2aol.
func ArgumentOfLatitudeForCorrection(orb *statevector.StateVector, di, dOmega float64) (float64, error) {
	kep, err := orb.WithForm(forms.Keplerian)
	if err != nil {
		return 0, err
	}
	i, err := kep.Param("i")
	if err != nil {
		return 0, err
	}
	return math.Atan2(dOmega*math.Sin(i), di), nil
}

// dkep2dv converts a target increment in semi-major axis, inclination
// and RAAN into a delta-v expressed in TNW, via the Gauss planetary
// equations and the law of cosines (Al-Kashi) between the current and
// post-burn velocity vectors. Grounded on beyond's dkep2dv.
func dkep2dv(orb *statevector.StateVector, da, di, dOmega float64) ([3]float64, error) {
	kep, err := orb.WithForm(forms.Keplerian)
	if err != nil {
		return [3]float64{}, err
	}
	a, err := kep.Param("a")
	if err != nil {
		return [3]float64{}, err
	}
	i, err := kep.Param("i")
	if err != nil {
		return [3]float64{}, err
	}

	cart, err := orb.WithForm(forms.Cartesian)
	if err != nil {
		return [3]float64{}, err
	}
	v := norm3(cart.Velocity())
	mu := orb.Frame.Center.Body.Mu()

	dvA := mu * da / (2 * v * a * a)
	dangle := math.Sqrt(di*di + dOmega*dOmega*math.Sin(i)*math.Sin(i))
	vFinal := v + dvA

	dv := math.Sqrt(v*v + vFinal*vFinal - 2*v*vFinal*math.Cos(dangle))
	dvT := vFinal*math.Cos(dangle) - v

	var dvW float64
	if dv != 0 {
		ratio := math.Abs(dvT / dv)
		if math.Abs(ratio-1) > 1e-9 {
			dvW = dv * math.Sqrt(1-ratio*ratio)
		}
	}

	return [3]float64{dvT, 0, dvW}, nil
}

var _ statevector.Maneuver = (*ImpulsiveMan)(nil)
var _ statevector.Maneuver = (*KeplerianImpulsiveMan)(nil)
var _ statevector.Maneuver = (*ContinuousMan)(nil)
