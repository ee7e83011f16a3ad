// Package statevector implements the StateVector/Orbit/MeanOrbit types:
// a 6-vector state tagged with a date, form and frame, with conversion,
// derived-quantity and propagator-attachment methods. Grounded on
// beyond's orbits.statevector and orbits.orbit modules (original_source
// beyond/orbits/{statevector,orbit}.py).
package statevector

import (
	"fmt"
	"math"
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
)

// StateVector is a 6-element orbital state, unambiguous once tagged with
// a date, a form and a frame. Unlike beyond's numpy-ndarray subclass, it
// is a plain struct: Go has no attribute-interception hook to route
// `sv.a`/`sv.raan` through the form's parameter list, so named-parameter
// access goes through Param/SetParam instead.
type StateVector struct {
	Date  dates.Date
	Coord [6]float64
	Form  *forms.Form
	Frame *frames.Frame

	Cov       Covariance // optional; Covariance.Valid() reports whether it was set
	Maneuvers []Maneuver
	Event     string // set by listener-driven iteration; empty otherwise
}

// Covariance is the minimal surface statevector needs from the
// covariance package, kept as an interface here to avoid a dependency
// cycle (covariance retagging needs a StateVector's frame). The
// covariance package's Cov type satisfies this.
type Covariance interface {
	Valid() bool
	Reframe(sv *StateVector, target *frames.Frame) (Covariance, error)
}

// Maneuver is the minimal surface statevector needs from the maneuver
// package (kept as an interface for the same reason as Covariance).
type Maneuver interface {
	AppliesAt(d dates.Date) bool
}

// New builds a StateVector. coord is a fixed-size 6-array, so no arity
// check against form is made and New cannot fail.
func New(d dates.Date, coord [6]float64, form *forms.Form, frame *frames.Frame) *StateVector {
	return &StateVector{Date: d, Coord: coord, Form: form, Frame: frame}
}

// Param returns the value of the named form parameter (e.g. "a", "e",
// "raan"), erroring if it is not part of the current form.
func (s *StateVector) Param(name string) (float64, error) {
	for i, p := range s.Form.ParamNames {
		if p == name {
			return s.Coord[i], nil
		}
	}
	return 0, astroerr.NewDomain(fmt.Sprintf("%q is not available in %q form", name, s.Form.Name()))
}

// SetParam sets the named form parameter in place.
func (s *StateVector) SetParam(name string, value float64) error {
	for i, p := range s.Form.ParamNames {
		if p == name {
			s.Coord[i] = value
			return nil
		}
	}
	return astroerr.NewDomain(fmt.Sprintf("%q is not available in %q form", name, s.Form.Name()))
}

// Copy returns an independent copy of s.
func (s *StateVector) Copy() *StateVector {
	c := *s
	if s.Maneuvers != nil {
		c.Maneuvers = append([]Maneuver(nil), s.Maneuvers...)
	}
	return &c
}

// mu resolves the gravitational parameter of the body s.Frame is
// centered on, used by every form conversion.
func (s *StateVector) mu() float64 {
	return s.Frame.Center.Body.Mu()
}

// WithForm returns a copy of s converted to target's representation.
// Grounded on beyond's StateVector.form setter.
func (s *StateVector) WithForm(target *forms.Form) (*StateVector, error) {
	coord, err := s.Form.ConvertTo(s.Coord, s.mu(), target)
	if err != nil {
		return nil, err
	}
	c := s.Copy()
	c.Coord = coord
	c.Form = target
	return c, nil
}

// WithFrame returns a copy of s converted into target, going through
// Cartesian form as beyond's StateVector.frame setter does (form
// conversions are generally not frame-agnostic at the non-Cartesian
// level), then back to s's original form. The covariance, if any, is
// retagged the same way.
func (s *StateVector) WithFrame(target *frames.Frame) (*StateVector, error) {
	if target == s.Frame {
		return s.Copy(), nil
	}

	cart, err := s.WithForm(forms.Cartesian)
	if err != nil {
		return nil, err
	}

	newCoord, err := s.Frame.TransformState(s.Date, cart.Coord, target)
	if err != nil {
		return nil, err
	}

	cart.Coord = newCoord
	cart.Frame = target

	out, err := cart.WithForm(s.Form)
	if err != nil {
		return nil, err
	}

	if s.Cov != nil && s.Cov.Valid() {
		newCov, err := s.Cov.Reframe(s, target)
		if err != nil {
			return nil, err
		}
		out.Cov = newCov
	}

	return out, nil
}

// Position returns s's Cartesian position, converting form on the fly if
// needed. Satisfies orient.PosVel and frames.OrbitRef's positional half.
func (s *StateVector) Position() [3]float64 {
	c, err := s.cartesianCoord()
	if err != nil {
		return [3]float64{}
	}
	return [3]float64{c[0], c[1], c[2]}
}

// Velocity returns s's Cartesian velocity, converting form on the fly if
// needed.
func (s *StateVector) Velocity() [3]float64 {
	c, err := s.cartesianCoord()
	if err != nil {
		return [3]float64{}
	}
	return [3]float64{c[3], c[4], c[5]}
}

func (s *StateVector) cartesianCoord() ([6]float64, error) {
	if s.Form == forms.Cartesian {
		return s.Coord, nil
	}
	cart, err := s.WithForm(forms.Cartesian)
	if err != nil {
		return [6]float64{}, err
	}
	return cart.Coord, nil
}

// At returns s's Cartesian state if d matches s's own date, and an error
// otherwise: a bare StateVector has no propagator and so cannot answer
// for any other date. Orbit.At, defined in orbit.go, overrides this by
// delegating to the attached propagator, and together with Orbit.Frame
// satisfies frames.OrbitRef.
func (s *StateVector) At(d dates.Date) ([6]float64, error) {
	if s.Date.Sub(d) != 0 {
		return [6]float64{}, astroerr.NewDomain("a bare StateVector has no propagator attached; use Orbit.At instead")
	}
	return s.cartesianCoord()
}

// keplerian returns s converted to Keplerian form, used by every derived
// quantity below.
func (s *StateVector) keplerian() (*StateVector, error) {
	return s.WithForm(forms.Keplerian)
}

// Energy returns the orbit's specific mechanical energy.
func (s *StateVector) Energy() (float64, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	return -s.mu() / (2 * kep.Coord[0]), nil
}

// MeanMotion returns the orbit's mean motion in rad/s.
func (s *StateVector) MeanMotion() (float64, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	a := math.Abs(kep.Coord[0])
	return math.Sqrt(s.mu() / (a * a * a)), nil
}

// Period returns the orbit's period, erroring for a hyperbolic orbit.
func (s *StateVector) Period() (time.Duration, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	if kep.Coord[1] >= 1 {
		return 0, astroerr.NewDomain("period is undefined for a hyperbolic or parabolic orbit")
	}
	n, err := s.MeanMotion()
	if err != nil {
		return 0, err
	}
	return time.Duration(2 * math.Pi / n * float64(time.Second)), nil
}

// Apocenter returns the orbit's apocenter radius, erroring for a
// hyperbolic orbit.
func (s *StateVector) Apocenter() (float64, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	if kep.Coord[1] >= 1 {
		return 0, astroerr.NewDomain("apocenter is undefined for a hyperbolic or parabolic orbit")
	}
	return kep.Coord[0] * (1 + kep.Coord[1]), nil
}

// Pericenter returns the orbit's pericenter radius.
func (s *StateVector) Pericenter() (float64, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	return kep.Coord[0] * (1 - kep.Coord[1]), nil
}

// OrbitType classifies the orbit by eccentricity.
type OrbitType string

const (
	Elliptic  OrbitType = "elliptic"
	Parabolic OrbitType = "parabolic"
	Hyperbolic OrbitType = "hyperbolic"
)

// Type reports whether the orbit is elliptic, parabolic or hyperbolic.
func (s *StateVector) Type() (OrbitType, error) {
	kep, err := s.keplerian()
	if err != nil {
		return "", err
	}
	switch {
	case kep.Coord[1] < 1:
		return Elliptic, nil
	case kep.Coord[1] == 1:
		return Parabolic, nil
	default:
		return Hyperbolic, nil
	}
}

// FlightPathAngle returns the angle between the velocity vector and the
// local horizontal.
func (s *StateVector) FlightPathAngle() (float64, error) {
	kep, err := s.keplerian()
	if err != nil {
		return 0, err
	}
	a, e, nu := kep.Coord[0], kep.Coord[1], kep.Coord[5]
	mu := s.mu()
	factor := math.Sqrt(mu / (a * (1 - e*e)))
	cosFPA := factor * (1 + e*math.Cos(nu)) / nu
	sinFPA := factor * e * math.Sin(nu) / nu
	return math.Atan2(sinFPA, cosFPA), nil
}
