// Package frames pairs an orientation with a center to form a complete
// reference frame, and provides the dynamic frame constructors (ground
// stations, orbit-attached local frames) built on top of orient and
// centers. Grounded on beyond's frames.frames module (original_source
// beyond/frames/frames.py) and beyond/frames/stations.py.
package frames

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/centers"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/orient"
)

// Frame is a named (orientation, center) pair: everything needed to
// express a state vector unambiguously.
type Frame struct {
	name        string
	Orientation *orient.Orientation
	Center      *centers.Center
}

// Name returns the frame's name.
func (f *Frame) Name() string { return f.name }

var dynamic = map[string]*Frame{}

// newFrame builds and registers a frame. If existsWarning is true and a
// frame with this name is already registered, the previous one is logged
// and overridden, matching beyond's Frame.__init__.
func newFrame(name string, orientation *orient.Orientation, center *centers.Center, existsWarning bool) *Frame {
	if existsWarning {
		if _, ok := dynamic[name]; ok {
			log.Warn().Str("name", name).Msg("frames: a frame with this name is already registered, overriding")
		}
	}
	f := &Frame{name: name, Orientation: orientation, Center: center}
	dynamic[name] = f
	return f
}

// GetFrame resolves a registered frame by name.
func GetFrame(name string) (*Frame, error) {
	f, ok := dynamic[name]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownFrame, name)
	}
	return f, nil
}

// Built-in frames (§4.5), all Earth-centered.
var (
	EME2000 = newFrame("EME2000", orient.EME2000, centers.Earth, false)
	MOD     = newFrame("MOD", orient.MOD, centers.Earth, false)
	TOD     = newFrame("TOD", orient.TOD, centers.Earth, false)
	TEME    = newFrame("TEME", orient.TEME, centers.Earth, false)
	PEF     = newFrame("PEF", orient.PEF, centers.Earth, false)
	ITRF    = newFrame("ITRF", orient.ITRF, centers.Earth, false)
	TIRF    = newFrame("TIRF", orient.TIRF, centers.Earth, false)
	CIRF    = newFrame("CIRF", orient.CIRF, centers.Earth, false)
	GCRF    = newFrame("GCRF", orient.GCRF, centers.Earth, false)
	G50     = newFrame("G50", orient.G50, centers.Earth, false)
)

// WGS84 is an alias for ITRF (error below the centimeter at interplanetary
// scales, kept distinct by name so callers can express intent).
var WGS84 = func() *Frame {
	dynamic["WGS84"] = ITRF
	return ITRF
}()

// TransformState converts the Cartesian position+velocity state pv, valid
// at date d in frame f, into target. Operates on a raw 6-vector rather
// than a full orbit type so that statevector (which depends on frames)
// can call it without a cyclic import; StateVector.WithFrame is the single
// caller in practice. Grounded on beyond's Frame.transform: rotate, then
// translate by the center offset expressed in the target orientation.
func (f *Frame) TransformState(d dates.Date, pv [6]float64, target *Frame) ([6]float64, error) {
	offset, err := f.Center.ConvertTo(d, target.Center, target.Orientation)
	if err != nil {
		return [6]float64{}, err
	}
	m, err := f.Orientation.ConvertTo(d, target.Orientation)
	if err != nil {
		return [6]float64{}, err
	}

	var rotated [6]float64
	for i := 0; i < 6; i++ {
		var sum float64
		for j := 0; j < 6; j++ {
			sum += m.At(i, j) * pv[j]
		}
		rotated[i] = sum
	}

	var out [6]float64
	for i := range out {
		out[i] = rotated[i] + offset[i]
	}
	return out, nil
}

// geodeticToCartesian converts geodetic latitude/longitude (radians) and
// altitude (meters) to an Earth-fixed Cartesian position, accounting for
// the reference ellipsoid's flattening. Grounded on beyond's
// TopocentricFrame._geodetic_to_cartesian.
func geodeticToCartesian(lat, lon, alt float64) [3]float64 {
	e := bodies.Earth.Eccentricity()
	r := bodies.Earth.EquatorialRadius
	sinLat := math.Sin(lat)
	c := r / math.Sqrt(1-(e*sinLat)*(e*sinLat))
	s := r * (1 - e*e) / math.Sqrt(1-(e*sinLat)*(e*sinLat))
	rd := (c + alt) * math.Cos(lat)
	rk := (s + alt) * math.Sin(lat)
	norm := math.Sqrt(rd*rd + rk*rk)
	return [3]float64{
		norm * math.Cos(lat) * math.Cos(lon),
		norm * math.Cos(lat) * math.Sin(lon),
		norm * math.Sin(lat),
	}
}

// Heading constants for NewStation, matching beyond's 'N'/'S'/'E'/'W'
// orientation shorthand.
const (
	North = math.Pi
	South = 0.0
	East  = math.Pi / 2.0
	West  = 3.0 * math.Pi / 2.0
)

// NewStation creates a ground-station frame at geodetic (latDeg, lonDeg,
// altitude in meters), attached to parent (WGS84/ITRF by default) with
// the given heading (radians; use North/South/East/West). Grounded on
// beyond's create_station + TopocentricFrame._to_parent_frame.
func NewStation(name string, latDeg, lonDeg, alt float64, parent *Frame, heading float64) (*Frame, error) {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	coords := geodeticToCartesian(lat, lon, alt)

	o, err := orient.NewTopocentric(name, parent.Orientation.Name(), lat, lon, heading)
	if err != nil {
		return nil, err
	}

	c := centers.New(name, parent.Center.Body)
	centers.Link(c, parent.Center, parent.Orientation, centers.StaticOffset(
		[6]float64{coords[0], coords[1], coords[2], 0, 0, 0},
	))

	return newFrame(name, o, c, true), nil
}

// OrbitRef is the minimal state an orbit-attached frame needs to follow
// its reference trajectory: its Cartesian state in its own frame, at a
// given date. A propagator-backed orbit or an ephemeris satisfies this.
type OrbitRef interface {
	At(d dates.Date) ([6]float64, error)
	Frame() *Frame
}

// NewOrbitAttached creates a frame that moves with ref's reference
// trajectory. orientationKind selects a local orbital orientation (orient.QSW
// or orient.TNW); an empty kind keeps ref's own orientation and simply
// translates with it. Grounded on beyond's orbit2frame.
func NewOrbitAttached(name string, ref OrbitRef, orientationKind orient.LocalFrameKind, parent *Frame) (*Frame, error) {
	var orientation *orient.Orientation
	if orientationKind == "" {
		orientation = ref.Frame().Orientation
	} else {
		lo := &orient.LocalOrbital{Kind: orientationKind, SV: &orbitRefPosVel{ref: ref, parent: parent}}
		var err error
		orientation, err = dynamicLocalOrientation(name, lo, parent.Orientation)
		if err != nil {
			return nil, err
		}
	}

	c := centers.New(name, parent.Center.Body)
	centers.Link(c, ref.Frame().Center, ref.Frame().Orientation, centers.DynamicOffset(ref.At))

	return newFrame(name, orientation, c, true), nil
}

// orbitRefPosVel adapts an OrbitRef, evaluated at its own latest state, to
// orient.PosVel. It is only valid immediately after the OrbitRef was
// queried for the date in question; NewOrbitAttached re-derives it lazily
// through dynamicLocalOrientation rather than caching a stale state.
type orbitRefPosVel struct {
	ref    OrbitRef
	parent *Frame
	pv     [6]float64
}

func (p *orbitRefPosVel) Position() [3]float64 { return [3]float64{p.pv[0], p.pv[1], p.pv[2]} }
func (p *orbitRefPosVel) Velocity() [3]float64 { return [3]float64{p.pv[3], p.pv[4], p.pv[5]} }

// dynamicLocalOrientation wraps a LocalOrbital basis, refreshed at each
// query date, as a registered orient.Orientation edge to parentOrientation
// so it can be addressed by name like any other orientation.
func dynamicLocalOrientation(name string, lo *orient.LocalOrbital, parentOrientation *orient.Orientation) (*orient.Orientation, error) {
	adapter := lo.SV.(*orbitRefPosVel)
	return orient.NewDynamicFromBasis(name, parentOrientation, func(d dates.Date) (orient.Rot3, error) {
		pv, err := adapter.ref.At(d)
		if err != nil {
			return orient.Rot3{}, err
		}
		adapter.pv = pv
		return lo.RotationAt()
	})
}
