// Package graph implements the shortest-path node pattern shared by the
// time-scale, orientation, center and form graphs (spec §4.1): a node has a
// name and a set of neighbors, and maintains a routing table of
// {target name -> (next hop, step count)} refreshed whenever an edge is
// added. This is a direct generalization of beyond's utils.node.Node
// (original_source beyond/utils/node.py), which used reflection-free method
// lookup on a Python class; here the routing table is a plain map and the
// per-edge operator is supplied by the caller as an opaque value.
package graph

// route records how to reach a target node: the next hop to follow and the
// total number of hops from here.
type route struct {
	next  *Node
	steps int
}

// Node is a named vertex in a graph. Neighbors are stored in insertion
// order so that BFS ties are broken deterministically, matching beyond's
// OrderedDict-backed neighbor set.
type Node struct {
	Name string

	order     []*Node
	neighbors map[*Node]struct{}
	routes    map[string]route
}

// NewNode creates an unconnected node.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		neighbors: make(map[*Node]struct{}),
		routes:    make(map[string]route),
	}
}

// Link adds an undirected edge between a and b and refreshes routing tables
// on every node reachable from either endpoint. Linking an already-linked
// pair is a no-op.
func Link(a, b *Node) {
	if _, ok := a.neighbors[b]; ok {
		return
	}
	a.addNeighbor(b)
	b.addNeighbor(a)
	a.refresh(make(map[*Node]bool))
}

func (n *Node) addNeighbor(other *Node) {
	if _, ok := n.neighbors[other]; !ok {
		n.neighbors[other] = struct{}{}
		n.order = append(n.order, other)
	}
}

// refresh recomputes n.routes from its direct neighbors plus whatever those
// neighbors already know, then recurses into neighbors that have not yet
// been visited this pass. The "already visited" set is the single-writer
// lock the original Python carried as a recursion guard.
func (n *Node) refresh(visited map[*Node]bool) {
	n.routes = make(map[string]route)

	isNeighbor := func(name string) bool {
		if name == n.Name {
			return true
		}
		for _, nb := range n.order {
			if nb.Name == name {
				return true
			}
		}
		return false
	}

	for _, nb := range n.order {
		n.routes[nb.Name] = route{next: nb, steps: 1}
		for name, r := range nb.routes {
			if isNeighbor(name) {
				continue
			}
			if existing, ok := n.routes[name]; ok && existing.steps <= r.steps+1 {
				continue
			}
			n.routes[name] = route{next: nb, steps: r.steps + 1}
		}
	}

	visited[n] = true
	for _, nb := range n.order {
		if !visited[nb] {
			nb.refresh(visited)
		}
	}
}

// Path returns the sequence of nodes from n to the node named goal,
// inclusive of both ends. It panics-free returns ok=false if goal is
// unknown.
func (n *Node) Path(goal string) (path []*Node, ok bool) {
	if goal == n.Name {
		return []*Node{n}, true
	}
	r, found := n.routes[goal]
	if !found {
		return nil, false
	}
	path = []*Node{n}
	cur := n
	for {
		r := cur.routes[goal]
		cur = r.next
		path = append(path, cur)
		if cur.Name == goal {
			break
		}
	}
	_ = r
	return path, true
}

// Step is one edge of a Path: the node traveled from and the node traveled
// to.
type Step struct {
	From, To *Node
}

// Steps returns the consecutive pairs along Path(goal).
func (n *Node) Steps(goal string) ([]Step, bool) {
	path, ok := n.Path(goal)
	if !ok {
		return nil, false
	}
	steps := make([]Step, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		steps = append(steps, Step{From: path[i], To: path[i+1]})
	}
	return steps, true
}

// Neighbors returns n's direct neighbors in insertion order.
func (n *Node) Neighbors() []*Node {
	out := make([]*Node, len(n.order))
	copy(out, n.order)
	return out
}

// Known reports whether goal is reachable from n (or is n itself).
func (n *Node) Known(goal string) bool {
	if goal == n.Name {
		return true
	}
	_, ok := n.routes[goal]
	return ok
}
