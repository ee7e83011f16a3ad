// Package centers implements the center graph: named origins (planetary
// barycenters, ground stations, orbit-attached points, Lagrange points)
// linked to a parent center by an offset — a static 6-vector or a
// time-dependent propagation — expressed in a given orientation.
// Grounded on beyond's frames.center module (original_source
// beyond/frames/center.py).
package centers

import (
	"fmt"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/graph"
	"github.com/orrery-space/astrocore/orient"
)

// Offset is a center edge's attached 6-vector: either a fixed value or
// anything exposing a date-dependent evaluation (an attached propagator),
// matching beyond's "offset, or offset.propagate(date) if present".
type Offset struct {
	static  *[6]float64
	dynamic func(d dates.Date) ([6]float64, error)
}

// StaticOffset builds a fixed Offset.
func StaticOffset(v [6]float64) Offset { return Offset{static: &v} }

// DynamicOffset builds an Offset evaluated at query time, e.g. from an
// orbit's propagator or a JPL ephemeris lookup.
func DynamicOffset(fn func(d dates.Date) ([6]float64, error)) Offset {
	return Offset{dynamic: fn}
}

// At evaluates the offset at d.
func (o Offset) At(d dates.Date) ([6]float64, error) {
	if o.dynamic != nil {
		return o.dynamic(d)
	}
	if o.static != nil {
		return *o.static, nil
	}
	return [6]float64{}, nil
}

type edge struct {
	orientation *orient.Orientation
	offset      Offset
}

// Center is a node in the center graph.
type Center struct {
	node  *graph.Node
	name  string
	Body  *bodies.Body
	edges map[string]edge // edges[parentName] = this center's offset relative to that parent
}

// Name returns the center's name.
func (c *Center) Name() string { return c.name }

func newCenter(name string, body *bodies.Body) *Center {
	return &Center{node: graph.NewNode(name), name: name, Body: body, edges: map[string]edge{}}
}

var byName = map[string]*Center{}

// Earth is the default center, attached to bodies.Earth.
var Earth = func() *Center {
	c := newCenter("Earth", &bodies.Earth)
	byName[c.name] = c
	return c
}()

// New creates and registers a new center named name, not yet linked to any
// parent.
func New(name string, body *bodies.Body) *Center {
	c := newCenter(name, body)
	byName[name] = c
	return c
}

// Get resolves a registered center by name.
func Get(name string) (*Center, error) {
	c, ok := byName[name]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownCenter, name)
	}
	return c, nil
}

// Link attaches child to parent: child's position relative to parent is
// offset, expressed in orientation. Matches beyond's Center.add_link.
func Link(child, parent *Center, orientation *orient.Orientation, offset Offset) {
	child.edges[parent.name] = edge{orientation: orientation, offset: offset}
	graph.Link(child.node, parent.node)
}

// ConvertTo computes c's offset relative to target, expressed in
// orientation, at date — summing each edge along the shortest path and
// rotating every segment into orientation, negating the segment when the
// path traverses an edge backward. Matches beyond's Center.convert_to.
func (c *Center) ConvertTo(d dates.Date, target *Center, orientation *orient.Orientation) ([6]float64, error) {
	steps, ok := c.node.Steps(target.name)
	if !ok {
		return [6]float64{}, astroerr.NewDomain(fmt.Sprintf("no conversion path from %s to %s", c.name, target.name))
	}

	var out [6]float64
	for _, step := range steps {
		from := byName[step.From.Name]
		to := byName[step.To.Name]

		var seg [6]float64
		var err error
		sign := 1.0
		if e, ok := from.edges[to.name]; ok {
			seg, err = e.offset.At(d)
			if err == nil {
				seg, err = rotate(e.orientation, orientation, d, seg)
			}
		} else if e, ok := to.edges[from.name]; ok {
			seg, err = e.offset.At(d)
			if err == nil {
				seg, err = rotate(e.orientation, orientation, d, seg)
			}
			sign = -1
		} else {
			return [6]float64{}, astroerr.NewDomain(fmt.Sprintf("unknown transformation %s <-> %s", from.name, to.name))
		}
		if err != nil {
			return [6]float64{}, err
		}

		for i := range out {
			out[i] += sign * seg[i]
		}
	}

	return out, nil
}

// rotate expresses v (given in from's orientation) in to's orientation, at
// date d.
func rotate(from, to *orient.Orientation, d dates.Date, v [6]float64) ([6]float64, error) {
	if from == to {
		return v, nil
	}
	m, err := from.ConvertTo(d, to)
	if err != nil {
		return [6]float64{}, err
	}
	var out [6]float64
	for i := 0; i < 6; i++ {
		var sum float64
		for j := 0; j < 6; j++ {
			sum += m.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out, nil
}
