// Package ephem implements Ephem, a dense table of state vectors sampled
// at discrete dates, interpolable (linearly or by Lagrange polynomial)
// to any date within its span. Grounded on beyond's orbits.ephem module
// (original_source beyond/orbits/ephem.py) and its interpolation
// machinery in beyond/utils/interp.py.
package ephem

import (
	"sort"
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

// Method selects the interpolation scheme used between samples.
type Method string

const (
	Linear   Method = "linear"
	Lagrange Method = "lagrange"
)

// DefaultOrder is the Lagrange interpolation order used when none is
// specified, matching beyond's Ephem.DEFAULT_ORDER.
const DefaultOrder = 8

// Ephem is a time-ordered table of state vectors, all sharing the same
// form and frame, interpolable between samples.
type Ephem struct {
	orbits []*statevector.StateVector
	method Method
	order  int
}

// New builds an Ephem from orbits, sorted by date. All orbits must share
// a common form and frame; Interpolate assumes this and does not
// reconcile mismatches. If method is "", Lagrange interpolation is used;
// if order is 0, DefaultOrder is used.
func New(orbits []*statevector.StateVector, method Method, order int) (*Ephem, error) {
	if len(orbits) == 0 {
		return nil, astroerr.NewDomain("an ephemeris requires at least one state vector")
	}
	sorted := make([]*statevector.StateVector, len(orbits))
	copy(sorted, orbits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	if method == "" {
		method = Lagrange
	}
	if order <= 0 {
		order = DefaultOrder
	}

	return &Ephem{orbits: sorted, method: method, order: order}, nil
}

// Len returns the number of samples.
func (e *Ephem) Len() int { return len(e.orbits) }

// At returns the i-th sample directly, with no interpolation.
func (e *Ephem) At(i int) *statevector.StateVector { return e.orbits[i] }

// Slice returns the samples in [i, j), sharing the underlying storage.
func (e *Ephem) Slice(i, j int) []*statevector.StateVector { return e.orbits[i:j] }

// Start returns the date of the first sample.
func (e *Ephem) Start() dates.Date { return e.orbits[0].Date }

// Stop returns the date of the last sample.
func (e *Ephem) Stop() dates.Date { return e.orbits[len(e.orbits)-1].Date }

// Dates returns the date of every sample, in order.
func (e *Ephem) Dates() []dates.Date {
	out := make([]dates.Date, len(e.orbits))
	for i, o := range e.orbits {
		out[i] = o.Date
	}
	return out
}

// Frame returns the frame of the first sample.
func (e *Ephem) Frame() *frames.Frame { return e.orbits[0].Frame }

// Form returns the form of the first sample.
func (e *Ephem) Form() *forms.Form { return e.orbits[0].Form }

// Method reports the interpolation scheme in use.
func (e *Ephem) Method() Method { return e.method }

// Order reports the Lagrange interpolation order in use (ignored for
// Linear interpolation).
func (e *Ephem) Order() int { return e.order }

// sampleIndex returns the index of the last sample whose date is not
// after d, i.e. the left endpoint of the bracket containing d. Uses
// sort.Search in place of beyond's hand-rolled halving loop, over the
// same monotonically increasing date sequence.
func (e *Ephem) sampleIndex(d dates.Date) int {
	idx := sort.Search(len(e.orbits), func(i int) bool { return e.orbits[i].Date.After(d) }) - 1
	if idx < 0 {
		idx = 0
	}
	if max := len(e.orbits) - 2; idx > max && max >= 0 {
		idx = max
	}
	return idx
}

// Interpolate computes the state at d by linear or Lagrange
// interpolation over the samples, in the Ephem's own form and frame.
// Grounded on beyond's Ephem.interpolate / Interp.__call__.
func (e *Ephem) Interpolate(d dates.Date) (*statevector.StateVector, error) {
	if d.Before(e.Start()) || d.After(e.Stop()) {
		return nil, astroerr.NewOutOfRange("date not in ephemeris range [" + e.Start().String() + ", " + e.Stop().String() + "]")
	}

	var coord [6]float64
	var err error
	switch e.method {
	case Linear:
		coord, err = e.linear(d)
	default:
		coord, err = e.lagrange(d)
	}
	if err != nil {
		return nil, err
	}

	return statevector.New(d, coord, e.Form(), e.Frame()), nil
}

// Propagate is an alias of Interpolate, giving Ephem the same
// Propagate(date) shape as statevector.Orbit so both satisfy
// listener.Propagator without either package depending on the other.
func (e *Ephem) Propagate(d dates.Date) (*statevector.StateVector, error) { return e.Interpolate(d) }

func (e *Ephem) linear(d dates.Date) ([6]float64, error) {
	i := e.sampleIndex(d)
	x0, x1 := e.orbits[i].Date.MJD(), e.orbits[i+1].Date.MJD()
	y0, y1 := e.orbits[i].Coord, e.orbits[i+1].Coord
	x := d.MJD()

	var out [6]float64
	for k := range out {
		out[k] = y0[k] + (y1[k]-y0[k])*(x-x0)/(x1-x0)
	}
	return out, nil
}

// lagrange interpolates with a polynomial of degree order-1 fitted to
// the order samples centered on the bracket containing d. Grounded on
// beyond's Interp._lagrange.
func (e *Ephem) lagrange(d dates.Date) ([6]float64, error) {
	order := e.order
	if order > len(e.orbits) {
		order = len(e.orbits)
	}

	prevIdx := e.sampleIndex(d)
	stop := prevIdx + 1 + order/2 + order%2
	start := prevIdx - order/2 + 1

	if stop > len(e.orbits) {
		start -= stop - len(e.orbits)
		stop = len(e.orbits)
	}
	if start < 0 {
		stop -= start
		start = 0
	}
	if stop > len(e.orbits) {
		stop = len(e.orbits)
	}

	xs := make([]float64, stop-start)
	ys := make([][6]float64, stop-start)
	for i := start; i < stop; i++ {
		xs[i-start] = e.orbits[i].Date.MJD()
		ys[i-start] = e.orbits[i].Coord
	}

	x := d.MJD()
	n := len(xs)

	var out [6]float64
	for j := 0; j < n; j++ {
		lj := 1.0
		for m := 0; m < n; m++ {
			if m == j {
				continue
			}
			lj *= (x - xs[m]) / (xs[j] - xs[m])
		}
		for k := 0; k < 6; k++ {
			out[k] += lj * ys[j][k]
		}
	}
	return out, nil
}

// IterOptions configures Iter. A zero value replays the Ephem's own
// dates and step.
type IterOptions struct {
	Dates  []dates.Date  // explicit dates to sample; overrides Start/Stop/Step if non-nil
	Start  *dates.Date   // nil keeps e.Start()
	Stop   *dates.Date   // nil keeps e.Stop()
	Step   time.Duration // 0 keeps the Ephem's own sampling (no resampling)
	Strict bool          // if true, an out-of-range Start/Stop is an error rather than clamped
}

// Iter generates a new sequence of samples over this Ephem's span,
// optionally at a different step or explicit set of dates. Grounded on
// beyond's Ephem.iter, minus the listener-driven event detection, which
// callers now layer on top via a listener.Speaker built over the
// returned Ephem (or directly over this one).
func (e *Ephem) Iter(opts IterOptions) ([]*statevector.StateVector, error) {
	if opts.Dates != nil {
		out := make([]*statevector.StateVector, 0, len(opts.Dates))
		for _, d := range opts.Dates {
			sv, err := e.Interpolate(d)
			if err != nil {
				return nil, err
			}
			out = append(out, sv)
		}
		return out, nil
	}

	start := e.Start()
	if opts.Start != nil {
		if opts.Start.Before(e.Start()) {
			if opts.Strict {
				return nil, astroerr.NewOutOfRange("start date before the ephemeris range")
			}
		} else {
			start = *opts.Start
		}
	}

	stop := e.Stop()
	if opts.Stop != nil {
		if opts.Stop.After(e.Stop()) {
			if opts.Strict {
				return nil, astroerr.NewOutOfRange("stop date after the ephemeris range")
			}
		} else {
			stop = *opts.Stop
		}
	}

	if opts.Step == 0 {
		var out []*statevector.StateVector
		for _, o := range e.orbits {
			if o.Date.Before(start) {
				continue
			}
			if o.Date.After(stop) {
				break
			}
			out = append(out, o.Copy())
		}
		return out, nil
	}

	var out []*statevector.StateVector
	for d := start; !d.After(stop); {
		sv, err := e.Interpolate(d)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)

		next, err := d.Add(opts.Step)
		if err != nil {
			return nil, err
		}
		d = next
	}
	return out, nil
}

// Sub returns a new Ephem covering only the samples in opts' range,
// sharing the parent's method and order. Grounded on beyond's Ephem.ephem
// (a subset built from self.ephemeris()).
func (e *Ephem) Sub(opts IterOptions) (*Ephem, error) {
	samples, err := e.Iter(opts)
	if err != nil {
		return nil, err
	}
	return New(samples, e.method, e.order)
}

// WithFrame returns a copy of the ephemeris with every sample reframed.
func (e *Ephem) WithFrame(target *frames.Frame) (*Ephem, error) {
	out := make([]*statevector.StateVector, len(e.orbits))
	for i, o := range e.orbits {
		converted, err := o.WithFrame(target)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return &Ephem{orbits: out, method: e.method, order: e.order}, nil
}

// WithForm returns a copy of the ephemeris with every sample converted
// to form.
func (e *Ephem) WithForm(target *forms.Form) (*Ephem, error) {
	out := make([]*statevector.StateVector, len(e.orbits))
	for i, o := range e.orbits {
		converted, err := o.WithForm(target)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return &Ephem{orbits: out, method: e.method, order: e.order}, nil
}

// AsFrame registers this ephemeris as an orbit-attached frame, usable as
// the center of other frames (e.g. a Sun- or Moon-relative frame).
// Grounded on beyond's Ephem.as_frame / frames.orbit2frame.
func (e *Ephem) AsFrame(name string, orientationKind orient.LocalFrameKind, parent *frames.Frame) (*frames.Frame, error) {
	return frames.NewOrbitAttached(name, ephemRef{e}, orientationKind, parent)
}

type ephemRef struct{ e *Ephem }

func (r ephemRef) At(d dates.Date) ([6]float64, error) {
	sv, err := r.e.Interpolate(d)
	if err != nil {
		return [6]float64{}, err
	}
	cart, err := sv.WithForm(forms.Cartesian)
	if err != nil {
		return [6]float64{}, err
	}
	return cart.Coord, nil
}

func (r ephemRef) Frame() *frames.Frame { return r.e.Frame() }
