// Package covariance implements Cov, a 6x6 symmetric covariance matrix
// tied to a state vector's Cartesian state, with frame retagging
// (including the QSW/TNW local orbital frames). Grounded on beyond's
// orbits.cov module (original_source beyond/orbits/cov.py).
package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

// Ref names the frame a covariance is expressed in: either a registered
// Frame, or one of the two local orbital orientations, which exist only
// relative to a particular state vector and have no standalone Frame.
type Ref struct {
	Frame *frames.Frame
	Local orient.LocalFrameKind
}

// GlobalRef builds a Ref pointing at a registered frame.
func GlobalRef(f *frames.Frame) Ref { return Ref{Frame: f} }

// LocalRef builds a Ref pointing at a local orbital orientation (QSW or
// TNW), evaluated relative to the covariance's own state vector.
func LocalRef(kind orient.LocalFrameKind) Ref { return Ref{Local: kind} }

func (r Ref) isLocal() bool { return r.Local != "" }

func (r Ref) equal(other Ref) bool {
	return r.Frame == other.Frame && r.Local == other.Local
}

func (r Ref) String() string {
	if r.isLocal() {
		return string(r.Local)
	}
	if r.Frame != nil {
		return r.Frame.Name()
	}
	return "<unset>"
}

// Cov is a 6x6 symmetric covariance matrix attached to a Cartesian
// snapshot of the state vector it describes.
type Cov struct {
	orb  *statevector.StateVector // always kept in Cartesian form
	m    [6][6]float64
	frame Ref
}

// New builds a covariance matrix for orb, expressed in frame, validating
// that values is symmetric. Grounded on beyond's Cov.__new__.
func New(orb *statevector.StateVector, values [6][6]float64, frame Ref) (*Cov, error) {
	for i := 0; i < 6; i++ {
		for j := 0; j < i; j++ {
			if math.Abs(values[i][j]-values[j][i]) > 1e-9*(1+math.Abs(values[i][j])) {
				return nil, astroerr.NewDomain(fmt.Sprintf("non-symmetric covariance at (%d,%d)", i, j))
			}
		}
	}

	cart, err := orb.WithForm(forms.Cartesian)
	if err != nil {
		return nil, err
	}
	cart.Cov = nil

	return &Cov{orb: cart, m: values, frame: frame}, nil
}

// Valid reports whether c is a usable covariance. A nil *Cov value
// satisfies statevector.Covariance's Valid as false, letting
// StateVector.Cov default to "no covariance" without a separate
// pointer-nilness special case at call sites.
func (c *Cov) Valid() bool { return c != nil }

// Frame returns the reference this covariance is currently expressed in.
func (c *Cov) Frame() Ref { return c.frame }

// At returns the (i, j) covariance element.
func (c *Cov) At(i, j int) float64 { return c.m[i][j] }

// Matrix returns a copy of the full 6x6 covariance.
func (c *Cov) Matrix() [6][6]float64 { return c.m }

func expandedRotation(kind orient.LocalFrameKind, orb *statevector.StateVector) (*mat.Dense, error) {
	basis, err := orient.LocalBasis(kind, orb.Position(), orb.Velocity())
	if err != nil {
		return nil, err
	}
	return orient.Expand(basis, nil), nil
}

// transitionMatrices computes m1 (previous ref -> orb's own frame) and
// m2 (orb's own frame -> target ref), mirroring beyond's two-step
// Cov.frame setter.
func (c *Cov) transitionMatrices(target Ref) (*mat.Dense, *mat.Dense, error) {
	identity := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		identity.Set(i, i, 1)
	}

	var m1 *mat.Dense
	switch {
	case c.frame.isLocal():
		r, err := expandedRotation(c.frame.Local, c.orb)
		if err != nil {
			return nil, nil, err
		}
		m1 = mat.DenseCopyOf(r.T())
	case c.frame.Frame != c.orb.Frame:
		r, err := c.frame.Frame.Orientation.ConvertTo(c.orb.Date, c.orb.Frame.Orientation)
		if err != nil {
			return nil, nil, err
		}
		m1 = r
	default:
		m1 = identity
	}

	var m2 *mat.Dense
	switch {
	case target.isLocal():
		r, err := expandedRotation(target.Local, c.orb)
		if err != nil {
			return nil, nil, err
		}
		m2 = r
	case c.orb.Frame != target.Frame:
		r, err := c.orb.Frame.Orientation.ConvertTo(c.orb.Date, target.Frame.Orientation)
		if err != nil {
			return nil, nil, err
		}
		m2 = r
	default:
		m2 = identity
	}

	return m1, m2, nil
}

// ChangeFrame converts c in place to be expressed in target, rotating
// its matrix by M = m2 @ m1 on both sides (M @ cov @ M^T). If target is
// a registered (non-local) frame, c's internal orbit snapshot is also
// reframed, keeping future local-frame conversions (QSW/TNW, which need
// a position/velocity) consistent. Grounded on beyond's Cov.frame
// setter.
func (c *Cov) ChangeFrame(target Ref) error {
	if c.frame.equal(target) {
		return nil
	}

	m1, m2, err := c.transitionMatrices(target)
	if err != nil {
		return err
	}

	var mm mat.Dense
	mm.Mul(m2, m1)

	src := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			src.Set(i, j, c.m[i][j])
		}
	}

	var tmp mat.Dense
	tmp.Mul(&mm, src)
	var out mat.Dense
	out.Mul(&tmp, mm.T())

	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			c.m[i][j] = out.At(i, j)
		}
	}

	c.frame = target
	if !target.isLocal() {
		reframed, err := c.orb.WithFrame(target.Frame)
		if err != nil {
			return err
		}
		c.orb = reframed
	}

	return nil
}

// Copy returns an independent copy of c.
func (c *Cov) Copy() *Cov {
	out := *c
	out.orb = c.orb.Copy()
	return &out
}

// Reframe returns a copy of c expressed in target, without mutating c.
// Implements statevector.Covariance, and is what StateVector.WithFrame
// calls when reframing a state vector that carries a covariance.
func (c *Cov) Reframe(sv *statevector.StateVector, target *frames.Frame) (statevector.Covariance, error) {
	dup := c.Copy()
	if err := dup.ChangeFrame(GlobalRef(target)); err != nil {
		return nil, err
	}
	return dup, nil
}

var _ statevector.Covariance = (*Cov)(nil)
