package orient

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
)

// PosVel is the minimal state a local-orbital orientation needs:
// position and velocity in the parent orientation, at the date it is
// queried. statevector.StateVector satisfies this without orient needing
// to import statevector (which itself depends on orient), matching the
// teacher's preference for small accepted interfaces over concrete
// dependencies.
type PosVel interface {
	Position() [3]float64
	Velocity() [3]float64
}

// NewTopocentric creates (and registers) a ground-station orientation
// parametrized by geodetic latitude, longitude (radians) and a heading
// (radians; 0 points the local x axis South, pi points it North, as
// frames.South/North encode), attached to parentName (ITRF by
// default). Grounded on beyond's TopocentricFrame._to_parent_frame and
// the QSW/TNW-free rotation formula quoted in §4.5: rot3(-lon) *
// rot2(lat - pi/2) * rot3(heading).
func NewTopocentric(name string, parentName string, latRad, lonRad, heading float64) (*Orientation, error) {
	parent, err := Get(parentName)
	if err != nil {
		return nil, err
	}

	if _, exists := byName[name]; exists {
		log.Warn().Str("name", name).Msg("orient: dynamic orientation name already registered, reusing existing node")
		return byName[name], nil
	}

	o := newOrientation(name)
	rot := rot3(-lonRad).Mul(rot2(latRad - math.Pi/2)).Mul(rot3(heading))

	link(o, parent, func(d dates.Date) (Transform, error) {
		return Transform{R: rot}, nil
	})
	register(o)
	return o, nil
}

// LocalFrameKind selects which local orbital basis a local-orbital
// orientation uses.
type LocalFrameKind string

const (
	// QSW: x along position, z along angular momentum, y completes the
	// frame (a.k.a. RSW/LVLH).
	QSW LocalFrameKind = "QSW"
	// TNW: x along velocity, z along angular momentum, y completes the
	// frame.
	TNW LocalFrameKind = "TNW"
)

// LocalBasis returns the 3x3 matrix transforming a vector from the
// parent inertial frame into the chosen local orbital frame, given the
// Cartesian position and velocity in that parent frame. Grounded on
// beyond's frames.local.to_qsw/to_tnw.
func LocalBasis(kind LocalFrameKind, pos, vel [3]float64) (Rot3, error) {
	switch kind {
	case QSW:
		q := normalize(pos)
		w := normalize(cross(pos, vel))
		s := cross(w, q)
		return Rot3{q, s, w}, nil
	case TNW:
		t := normalize(vel)
		w := normalize(cross(pos, vel))
		n := cross(w, t)
		return Rot3{t, n, w}, nil
	default:
		return Rot3{}, astroerr.NewUnknown(astroerr.UnknownOrientation, string(kind))
	}
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return v
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// NewDynamicFromBasis creates (and registers) an orientation whose
// rotation relative to parent is recomputed at every query date by basis,
// with no associated angular rate. Used by frames.NewOrbitAttached to
// expose a LocalOrbital basis as an addressable orient.Orientation node,
// the same way NewTopocentric exposes a station's fixed rotation. basis
// returns the parent->local matrix (as LocalBasis builds it); the
// local->parent edge carries its transpose.
func NewDynamicFromBasis(name string, parent *Orientation, basis func(d dates.Date) (Rot3, error)) (*Orientation, error) {
	if _, exists := byName[name]; exists {
		log.Warn().Str("name", name).Msg("orient: dynamic orientation name already registered, reusing existing node")
		return byName[name], nil
	}

	o := newOrientation(name)
	link(o, parent, func(d dates.Date) (Transform, error) {
		r, err := basis(d)
		if err != nil {
			return Transform{}, err
		}
		return Transform{R: r.Transpose()}, nil
	})
	register(o)
	return o, nil
}

// LocalOrbital is a local-orbital orientation basis (QSW or TNW) whose
// rotation is derived from SV's current position/velocity via
// LocalBasis. It is not itself registered in byName or linked into the
// orientation graph; frames.NewOrbitAttached wraps one with
// NewDynamicFromBasis to make it an addressable Orientation.
type LocalOrbital struct {
	Kind LocalFrameKind
	SV   PosVel
}

// RotationAt returns the 3x3 rotation from the parent inertial frame to
// this local orbital orientation, evaluated at sv's current state.
func (l *LocalOrbital) RotationAt() (Rot3, error) {
	return LocalBasis(l.Kind, l.SV.Position(), l.SV.Velocity())
}

