package listener

import (
	"fmt"
	"math"
	"strings"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/statevector"
)

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func norm3(a [3]float64) float64   { return math.Sqrt(dot3(a, a)) }

func wrapPi(x float64) float64 {
	y := math.Mod(x+math.Pi, 2*math.Pi)
	if y < 0 {
		y += 2 * math.Pi
	}
	return y - math.Pi
}

// SunEphemeris returns the Sun's state vector at d. A listener package
// that needs the Sun's position is handed one of these rather than
// importing a concrete ephemeris source, the same way beyond's listeners
// module imports env.solarsystem locally inside each function to avoid a
// circular import.
type SunEphemeris func(d dates.Date) (*statevector.StateVector, error)

// LightKind selects which illumination transition a LightListener
// watches.
type LightKind string

const (
	Umbra    LightKind = "umbra"
	Penumbra LightKind = "penumbra"
)

// LightListener detects umbra/penumbra crossings using a conical shadow
// model (umbra and penumbra cones of the central body lit by the Sun).
// Grounded on beyond's LightListener.
type LightListener struct {
	Kind  LightKind
	Frame *frames.Frame // frame the computation is done in; nil keeps the orbit's own frame
	Sun   SunEphemeris
}

func (l *LightListener) illuminationFrame(orb *statevector.StateVector) *frames.Frame {
	if l.Frame != nil {
		return l.Frame
	}
	return orb.Frame
}

// Value returns a positive number while the satellite is illuminated, or
// -1 once it has entered the watched shadow region.
func (l *LightListener) Value(orb *statevector.StateVector) (float64, error) {
	sunSV, err := l.Sun(orb.Date)
	if err != nil {
		return 0, err
	}
	frame := l.illuminationFrame(orb)

	sunInFrame, err := sunSV.WithFrame(frame)
	if err != nil {
		return 0, err
	}
	satInFrame, err := orb.WithFrame(frame)
	if err != nil {
		return 0, err
	}

	xSun := sunInFrame.Position()
	xSat := satInFrame.Position()
	normSun := norm3(xSun)
	normSat := norm3(xSat)

	centralRadius := frame.Center.Body.EquatorialRadius
	alphaUmb := math.Asin((bodies.Sun.EquatorialRadius - centralRadius) / normSun)
	alphaPen := math.Asin((bodies.Sun.EquatorialRadius + centralRadius) / normSun)

	if dot3(xSun, xSat) < 0 {
		zeta := math.Acos(-dot3(xSun, xSat) / (normSun * normSat))
		satHoriz := normSat * math.Cos(zeta)
		satVert := normSat * math.Sin(zeta)

		x := centralRadius / math.Sin(alphaPen)
		penVert := math.Tan(alphaPen) * (x + satHoriz)

		if satVert <= penVert {
			if l.Kind == Penumbra {
				return -1, nil
			}
			y := centralRadius / math.Sin(alphaUmb)
			umbVert := math.Tan(alphaUmb) * (y - satHoriz)
			if satVert <= umbVert {
				return -1, nil
			}
		}
	}

	return 1, nil
}

func (l *LightListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(l, prev, cur)
}

func (l *LightListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	v, err := l.Value(cur)
	if err != nil {
		return Event{}, err
	}
	label := "Umbra"
	if l.Kind == Penumbra {
		label = "Penumbra"
	}
	action := "exit"
	if v <= 0 {
		action = "entry"
	}
	return Event{Listener: l, Info: fmt.Sprintf("%s %s", label, action)}, nil
}

// TerminatorListener detects the day/night boundary at the sub-satellite
// point. Grounded on beyond's TerminatorListener.
type TerminatorListener struct {
	Sun   SunEphemeris
	Frame *frames.Frame // the Sun-attached frame built by NewTerminatorListener
}

// NewTerminatorListener builds a TerminatorListener watching the
// terminator from the sun-attached frame named name, built on top of
// parent via frames.NewOrbitAttached.
func NewTerminatorListener(name string, sun SunEphemeris, parent *frames.Frame) (*TerminatorListener, error) {
	ref := &sunRef{sun: sun, frame: parent}
	fr, err := frames.NewOrbitAttached(name, ref, "", parent)
	if err != nil {
		return nil, err
	}
	return &TerminatorListener{Sun: sun, Frame: fr}, nil
}

type sunRef struct {
	sun   SunEphemeris
	frame *frames.Frame
}

func (s *sunRef) At(d dates.Date) ([6]float64, error) {
	sv, err := s.sun(d)
	if err != nil {
		return [6]float64{}, err
	}
	cart, err := sv.WithForm(forms.Cartesian)
	if err != nil {
		return [6]float64{}, err
	}
	return cart.Coord, nil
}

func (s *sunRef) Frame() *frames.Frame { return s.frame }

func (t *TerminatorListener) Value(orb *statevector.StateVector) (float64, error) {
	sunSV, err := t.Sun(orb.Date)
	if err != nil {
		return 0, err
	}
	sunInOrbFrame, err := sunSV.WithFrame(orb.Frame)
	if err != nil {
		return 0, err
	}
	satCart, err := orb.WithForm(forms.Cartesian)
	if err != nil {
		return 0, err
	}
	sunPos := sunInOrbFrame.Position()
	satPos := satCart.Position()
	return dot3(satPos, sunPos) / (norm3(satPos) * norm3(sunPos)), nil
}

func (t *TerminatorListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(t, prev, cur)
}

func (t *TerminatorListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	sv, err := cur.WithFrame(t.Frame)
	if err != nil {
		return Event{}, err
	}
	sph, err := sv.WithForm(forms.Spherical)
	if err != nil {
		return Event{}, err
	}
	rDot, err := sph.Param("r_dot")
	if err != nil {
		return Event{}, err
	}
	msg := "Day Terminator"
	if rDot > 0 {
		msg = "Night Terminator"
	}
	return Event{Listener: t, Info: msg}, nil
}

// NodeListener detects ascending/descending node crossings (the
// sub-satellite latitude crossing the equator). Grounded on beyond's
// NodeListener.
type NodeListener struct {
	Frame *frames.Frame // nil keeps the orbit's own frame
}

func (n *NodeListener) sphericalIn(orb *statevector.StateVector) (*statevector.StateVector, error) {
	sv := orb
	if n.Frame != nil {
		var err error
		sv, err = orb.WithFrame(n.Frame)
		if err != nil {
			return nil, err
		}
	}
	return sv.WithForm(forms.Spherical)
}

func (n *NodeListener) Value(orb *statevector.StateVector) (float64, error) {
	sph, err := n.sphericalIn(orb)
	if err != nil {
		return 0, err
	}
	return sph.Param("phi")
}

func (n *NodeListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(n, prev, cur)
}

func (n *NodeListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	sph, err := n.sphericalIn(cur)
	if err != nil {
		return Event{}, err
	}
	phiDot, err := sph.Param("phi_dot")
	if err != nil {
		return Event{}, err
	}
	msg := "Asc Node"
	if phiDot < 0 {
		msg = "Desc Node"
	}
	return Event{Listener: n, Info: msg}, nil
}

// ApsideListener detects pericenter/apocenter passage. Grounded on
// beyond's ApsideListener.
type ApsideListener struct {
	Frame *frames.Frame
}

func (a *ApsideListener) Value(orb *statevector.StateVector) (float64, error) {
	sv := orb
	if a.Frame != nil {
		var err error
		sv, err = orb.WithFrame(a.Frame)
		if err != nil {
			return 0, err
		}
	}
	sph, err := sv.WithForm(forms.Spherical)
	if err != nil {
		return 0, err
	}
	return sph.Param("r_dot")
}

func (a *ApsideListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(a, prev, cur)
}

func (a *ApsideListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	vCur, err := a.Value(cur)
	if err != nil {
		return Event{}, err
	}
	vPrev, err := a.Value(prev)
	if err != nil {
		return Event{}, err
	}
	msg := "Apoapsis"
	if vCur > vPrev {
		msg = "Periapsis"
	}
	return Event{Listener: a, Info: msg}, nil
}

// AnomalyKind selects which of the four orbital-element anomaly forms an
// AnomalyListener tracks.
type AnomalyKind string

const (
	TrueAnomaly        AnomalyKind = "true"
	MeanAnomaly        AnomalyKind = "mean"
	EccentricAnomaly   AnomalyKind = "eccentric"
	ArgumentOfLatitude AnomalyKind = "aol"
)

// AnomalyListener fires when an orbit's anomaly crosses Target. Grounded
// on beyond's AnomalyListener.
type AnomalyListener struct {
	Target float64
	Kind   AnomalyKind
	Frame  *frames.Frame
}

func (l *AnomalyListener) formAndParam() (*forms.Form, string, error) {
	switch l.Kind {
	case TrueAnomaly, "":
		return forms.Keplerian, "nu", nil
	case MeanAnomaly:
		return forms.KeplerianMean, "M", nil
	case EccentricAnomaly:
		return forms.KeplerianEccentric, "E", nil
	case ArgumentOfLatitude:
		return forms.KeplerianCircular, "u", nil
	default:
		return nil, "", astroerr.NewUnknown(astroerr.UnknownForm, string(l.Kind))
	}
}

func (l *AnomalyListener) angle(orb *statevector.StateVector) (float64, error) {
	sv := orb
	if l.Frame != nil {
		var err error
		sv, err = orb.WithFrame(l.Frame)
		if err != nil {
			return 0, err
		}
	}
	form, param, err := l.formAndParam()
	if err != nil {
		return 0, err
	}
	sv, err = sv.WithForm(form)
	if err != nil {
		return 0, err
	}
	return sv.Param(param)
}

func (l *AnomalyListener) Value(orb *statevector.StateVector) (float64, error) {
	angle, err := l.angle(orb)
	if err != nil {
		return 0, err
	}
	return wrapPi(angle - l.Target), nil
}

func (l *AnomalyListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	v, err := l.Value(cur)
	if err != nil {
		return false, err
	}
	if math.Abs(v) >= 2 {
		return false, nil
	}
	return DefaultCheck(l, prev, cur)
}

func (l *AnomalyListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	angle, err := l.angle(cur)
	if err != nil {
		return Event{}, err
	}
	label := "Argument of Latitude"
	if l.Kind != ArgumentOfLatitude {
		kind := string(l.Kind)
		if kind == "" {
			kind = string(TrueAnomaly)
		}
		label = strings.ToUpper(kind[:1]) + kind[1:] + " Anomaly"
	}
	return Event{Listener: l, Info: fmt.Sprintf("%s = %.2f", label, angle*180/math.Pi)}, nil
}

// StationSignalListener detects acquisition/loss of signal for a given
// minimum elevation above a station's horizon. Grounded on beyond's
// StationSignalListener.
type StationSignalListener struct {
	Station   *frames.Frame
	Elevation float64 // radians
}

func (s *StationSignalListener) sphericalAtStation(orb *statevector.StateVector) (*statevector.StateVector, error) {
	sv, err := orb.WithFrame(s.Station)
	if err != nil {
		return nil, err
	}
	return sv.WithForm(forms.Spherical)
}

func (s *StationSignalListener) Value(orb *statevector.StateVector) (float64, error) {
	sph, err := s.sphericalAtStation(orb)
	if err != nil {
		return 0, err
	}
	phi, err := sph.Param("phi")
	if err != nil {
		return 0, err
	}
	return phi - s.Elevation, nil
}

func (s *StationSignalListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	return DefaultCheck(s, prev, cur)
}

func (s *StationSignalListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	sph, err := s.sphericalAtStation(cur)
	if err != nil {
		return Event{}, err
	}
	phiDot, err := sph.Param("phi_dot")
	if err != nil {
		return Event{}, err
	}
	msg := "LOS"
	if phiDot > 0 {
		msg = "AOS"
	}
	return Event{Listener: s, Info: msg}, nil
}

// StationMaskListener detects rising above a station's physical horizon
// mask (elevation as a function of azimuth), rather than a fixed minimum
// elevation. Grounded on beyond's StationMaskListener.
type StationMaskListener struct {
	Station *frames.Frame
	Mask    func(azimuthRad float64) float64
}

func (s *StationMaskListener) sphericalAtStation(orb *statevector.StateVector) (*statevector.StateVector, error) {
	sv, err := orb.WithFrame(s.Station)
	if err != nil {
		return nil, err
	}
	return sv.WithForm(forms.Spherical)
}

func (s *StationMaskListener) Value(orb *statevector.StateVector) (float64, error) {
	sph, err := s.sphericalAtStation(orb)
	if err != nil {
		return 0, err
	}
	phi, err := sph.Param("phi")
	if err != nil {
		return 0, err
	}
	theta, err := sph.Param("theta")
	if err != nil {
		return 0, err
	}
	return phi - s.Mask(theta), nil
}

func (s *StationMaskListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	sph, err := s.sphericalAtStation(cur)
	if err != nil {
		return false, err
	}
	phi, err := sph.Param("phi")
	if err != nil {
		return false, err
	}
	if phi <= 0 {
		return false, nil
	}
	return DefaultCheck(s, prev, cur)
}

func (s *StationMaskListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	vCur, err := s.Value(cur)
	if err != nil {
		return Event{}, err
	}
	vPrev, err := s.Value(prev)
	if err != nil {
		return Event{}, err
	}
	msg := "LOS"
	if vCur > vPrev {
		msg = "AOS"
	}
	return Event{Listener: s, Info: msg}, nil
}

// StationMaxListener detects the moment of maximum elevation during a
// pass over a station. Grounded on beyond's StationMaxListener.
type StationMaxListener struct {
	Station *frames.Frame
}

func (s *StationMaxListener) sphericalAtStation(orb *statevector.StateVector) (*statevector.StateVector, error) {
	sv, err := orb.WithFrame(s.Station)
	if err != nil {
		return nil, err
	}
	return sv.WithForm(forms.Spherical)
}

func (s *StationMaxListener) Value(orb *statevector.StateVector) (float64, error) {
	sph, err := s.sphericalAtStation(orb)
	if err != nil {
		return 0, err
	}
	return sph.Param("phi_dot")
}

func (s *StationMaxListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	sph, err := s.sphericalAtStation(cur)
	if err != nil {
		return false, err
	}
	phi, err := sph.Param("phi")
	if err != nil {
		return false, err
	}
	phiDot, err := sph.Param("phi_dot")
	if err != nil {
		return false, err
	}
	if phi <= 0 || phiDot > 0 {
		return false, nil
	}
	return DefaultCheck(s, prev, cur)
}

func (s *StationMaxListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	return Event{Listener: s, Info: "MAX"}, nil
}

// RadialVelocityListener detects zero-Doppler crossings (the moment the
// range-rate with respect to frame reverses sign). Grounded on beyond's
// RadialVelocityListener.
type RadialVelocityListener struct {
	Frame *frames.Frame
	Sight bool // only trigger while above the local horizon of Frame
}

func (r *RadialVelocityListener) sphericalIn(orb *statevector.StateVector) (*statevector.StateVector, error) {
	sv, err := orb.WithFrame(r.Frame)
	if err != nil {
		return nil, err
	}
	return sv.WithForm(forms.Spherical)
}

func (r *RadialVelocityListener) Value(orb *statevector.StateVector) (float64, error) {
	sph, err := r.sphericalIn(orb)
	if err != nil {
		return 0, err
	}
	return sph.Param("r_dot")
}

func (r *RadialVelocityListener) Check(prev, cur *statevector.StateVector) (bool, error) {
	if r.Sight {
		sph, err := r.sphericalIn(cur)
		if err != nil {
			return false, err
		}
		phi, err := sph.Param("phi")
		if err != nil {
			return false, err
		}
		if phi <= 0 {
			return false, nil
		}
	}
	return DefaultCheck(r, prev, cur)
}

func (r *RadialVelocityListener) Info(prev, cur *statevector.StateVector) (Event, error) {
	return Event{Listener: r, Info: fmt.Sprintf("Zero Doppler %s", r.Frame.Name())}, nil
}

// StationsListeners builds the standard set of listeners for each
// station: signal acquisition/loss at zero elevation, max-elevation, and
// (if a mask is supplied for that station) horizon-mask acquisition/loss.
// Grounded on beyond's stations_listeners.
func StationsListeners(stations []*frames.Frame, masks map[*frames.Frame]func(float64) float64) []Listener {
	var out []Listener
	for _, sta := range stations {
		out = append(out, &StationSignalListener{Station: sta})
		out = append(out, &StationMaxListener{Station: sta})
		if mask := masks[sta]; mask != nil {
			out = append(out, &StationMaskListener{Station: sta, Mask: mask})
		}
	}
	return out
}
