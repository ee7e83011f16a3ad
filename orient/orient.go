// Package orient implements the orientation graph: named reference
// orientations (ITRF, PEF, TOD, MOD, EME2000, CIRF, TIRF, GCRF, G50, TEME,
// plus dynamic topocentric and local-orbital orientations) and the
// pairwise rotation-and-rate providers that connect them. Grounded on
// beyond's frames.orient/iau1980/iau2010 modules (original_source
// beyond/frames/{orient,iau1980,iau2010}.py) and on goeph's coord package,
// whose reduced IAU2000A nutation series and rotation-matrix conventions
// this package reuses directly.
package orient

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/graph"
)

const arcsec2rad = math.Pi / (180.0 * 3600.0)

// Rot3 is a 3x3 rotation matrix, row-major, matching the teacher's
// [3][3]float64 convention (coord/frames.go's GalacticMatrix et al.)
// rather than a general-purpose matrix type — orientation math never
// needs more than 3x3 until it is expanded to 6x6 for rate-aware
// transforms.
type Rot3 [3][3]float64

// Identity3 is the 3x3 identity rotation.
var Identity3 = Rot3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Apply rotates v by r: r*v.
func (r Rot3) Apply(v [3]float64) [3]float64 {
	return [3]float64{
		r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// Transpose returns r's transpose (its inverse, since rotations are
// orthonormal).
func (r Rot3) Transpose() Rot3 {
	var out Rot3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[j][i]
		}
	}
	return out
}

// Mul returns r composed with s: apply s first, then r (r*s).
func (r Rot3) Mul(s Rot3) Rot3 {
	var out Rot3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r[i][k] * s[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// rot1, rot2, rot3 are the elementary axis rotations used by Vallado's
// convention (beyond utils.matrix.rot1/rot2/rot3): they rotate the
// coordinate frame, not the vector, so they are the *inverse* of the
// textbook "rotate a vector" matrices.
func rot1(theta float64) Rot3 {
	s, c := math.Sincos(theta)
	return Rot3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
}

func rot2(theta float64) Rot3 {
	s, c := math.Sincos(theta)
	return Rot3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

func rot3(theta float64) Rot3 {
	s, c := math.Sincos(theta)
	return Rot3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}

// Expand promotes a 3x3 rotation (with an optional angular-rate vector,
// expressed in the "from" frame, of the "to" frame relative to the
// "from" frame) into the 6x6 matrix that transforms a position+velocity
// state consistently (§4.5). rate == nil produces a block-diagonal
// matrix (a static orientation pair). Grounded on beyond's
// utils.matrix.expand: the lower-left block is -m @ W where W is the
// skew-symmetric matrix of rate.
func Expand(m Rot3, rate *[3]float64) *mat.Dense {
	out := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, m[i][j])
			out.Set(i+3, j+3, m[i][j])
		}
	}
	if rate != nil {
		w := mat.NewDense(3, 3, []float64{
			0, -rate[2], rate[1],
			rate[2], 0, -rate[0],
			-rate[1], rate[0], 0,
		})
		mm := mat.NewDense(3, 3, nil)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				mm.Set(i, j, m[i][j])
			}
		}
		var lowerLeft mat.Dense
		lowerLeft.Mul(mm, w)
		lowerLeft.Scale(-1, &lowerLeft)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				out.Set(i+3, j, lowerLeft.At(i, j))
			}
		}
	}
	return out
}

// Transform is one edge's computed rotation: a 3x3 matrix from the edge's
// "from" orientation to its "to" orientation, and the optional angular
// rate of "to" relative to "from" expressed in "from".
type Transform struct {
	R    Rot3
	Rate *[3]float64
}

func (t Transform) reverse() Transform {
	out := Transform{R: t.R.Transpose()}
	if t.Rate != nil {
		neg := [3]float64{-t.Rate[0], -t.Rate[1], -t.Rate[2]}
		out.Rate = &neg
	}
	return out
}

// edgeFunc computes the Transform for one direction of an edge, given the
// date at which to evaluate it.
type edgeFunc func(d dates.Date) (Transform, error)

// Orientation is a node in the orientation graph.
type Orientation struct {
	node  *graph.Node
	name  string
	edges map[string]edgeFunc // edges[neighborName] computes self -> neighbor
}

// Name returns the orientation's name.
func (o *Orientation) Name() string { return o.name }

func newOrientation(name string) *Orientation {
	return &Orientation{node: graph.NewNode(name), name: name, edges: map[string]edgeFunc{}}
}

// link registers the edge "from -> to" computed by fn, and connects the
// two nodes in the graph. Only one direction needs an edgeFunc; the
// reverse is derived automatically by ConvertTo.
func link(from, to *Orientation, fn edgeFunc) {
	from.edges[to.name] = fn
	graph.Link(from.node, to.node)
}

// Known built-in orientations (§4.5).
var (
	TEME    = newOrientation("TEME")
	PEF     = newOrientation("PEF")
	TOD     = newOrientation("TOD")
	MOD     = newOrientation("MOD")
	EME2000 = newOrientation("EME2000")
	G50     = newOrientation("G50")
	ITRF    = newOrientation("ITRF")
	TIRF    = newOrientation("TIRF")
	CIRF    = newOrientation("CIRF")
	GCRF    = newOrientation("GCRF")

	byName = map[string]*Orientation{}
)

func register(o *Orientation) { byName[o.name] = o }

func init() {
	for _, o := range []*Orientation{TEME, PEF, TOD, MOD, EME2000, G50, ITRF, TIRF, CIRF, GCRF} {
		register(o)
	}

	link(TEME, TOD, func(d dates.Date) (Transform, error) {
		equin := equinoxIAU1980(d, false, true)
		return Transform{R: rot3(-equin)}, nil
	})

	link(PEF, TOD, func(d dates.Date) (Transform, error) {
		m := sideralIAU1980(d, 0, "apparent", false)
		rate := earthRotationRateIAU1980(d)
		neg := [3]float64{-rate[0], -rate[1], -rate[2]}
		return Transform{R: m, Rate: &neg}, nil
	})

	link(TOD, MOD, func(d dates.Date) (Transform, error) {
		return Transform{R: nutationIAU1980(d, false)}, nil
	})

	link(MOD, EME2000, func(d dates.Date) (Transform, error) {
		return Transform{R: precessionIAU1980(d)}, nil
	})

	link(ITRF, PEF, func(d dates.Date) (Transform, error) {
		return Transform{R: earthOrientationIAU1980(d)}, nil
	})

	link(ITRF, TIRF, func(d dates.Date) (Transform, error) {
		return Transform{R: earthOrientationIAU2010(d)}, nil
	})

	link(TIRF, CIRF, func(d dates.Date) (Transform, error) {
		m := sideralIAU2010(d)
		rate := earthRotationRateIAU2010(d)
		neg := [3]float64{-rate[0], -rate[1], -rate[2]}
		return Transform{R: m, Rate: &neg}, nil
	})

	link(CIRF, GCRF, func(d dates.Date) (Transform, error) {
		return Transform{R: precessionNutationIAU2010(d)}, nil
	})

	link(G50, EME2000, func(d dates.Date) (Transform, error) {
		return Transform{R: g50ToEME2000}, nil
	})

	link(GCRF, EME2000, func(d dates.Date) (Transform, error) {
		return Transform{R: gcrfToEME2000}, nil
	})
}

// Get resolves a registered orientation by name.
func Get(name string) (*Orientation, error) {
	o, ok := byName[name]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownOrientation, name)
	}
	return o, nil
}

// ConvertTo returns the 6x6 matrix transforming a position+velocity state
// from o to target, evaluated at date, by composing each edge along the
// shortest path (beyond's Orientation.convert_to).
func (o *Orientation) ConvertTo(d dates.Date, target *Orientation) (*mat.Dense, error) {
	steps, ok := o.node.Steps(target.name)
	if !ok {
		return nil, astroerr.NewDomain(fmt.Sprintf("no conversion path from %s to %s", o.name, target.name))
	}

	m := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		m.Set(i, i, 1)
	}

	for _, step := range steps {
		from := byName[step.From.Name]
		to := byName[step.To.Name]

		var t Transform
		var err error
		if fn, ok := from.edges[to.name]; ok {
			t, err = fn(d)
		} else if fn, ok := to.edges[from.name]; ok {
			t, err = fn(d)
			if err == nil {
				t = t.reverse()
			}
		} else {
			return nil, astroerr.NewDomain(fmt.Sprintf("unknown transformation %s <-> %s", from.name, to.name))
		}
		if err != nil {
			return nil, err
		}

		expanded := Expand(t.R, t.Rate)
		var next mat.Dense
		next.Mul(expanded, m)
		m = &next
	}

	return m, nil
}
