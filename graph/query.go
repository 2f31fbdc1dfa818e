package graph

import "slices"

// Query selects what Collect accumulates while walking backward from a
// start node. A nil predicate matches everything; a nil Input collects no
// inputs.
type Query struct {
	// Node selects visited nodes to collect.
	Node func(n Node) bool
	// Edge selects the incoming edges to follow. from is nil when the edge
	// names an unknown producer; such edges are never followed.
	Edge func(e Edge, from Node) bool
	// Input selects input slots to collect. e is nil when the slot is not
	// connected.
	Input func(n Node, in NodeInput, e *Edge) bool
	// MaxDepth bounds the walk; 1 visits only the start node. Zero means
	// unbounded.
	MaxDepth int
}

// Result accumulates the matches of Collect.
type Result struct {
	// Nodes in first-visit order.
	Nodes []Node
	// Inputs by owning node id.
	Inputs map[string][]NodeInput

	seen map[string]bool
	// walked maps each expanded node to the shallowest depth it was
	// expanded at.
	walked map[string]int
}

// Has reports whether the node id was collected.
func (r *Result) Has(id string) bool { return r.seen[id] }

// IDs returns the ids of collected nodes in first-visit order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.NodeID()
	}
	return ids
}

func (r *Result) addNode(n Node) {
	if r.seen[n.NodeID()] {
		return
	}
	r.seen[n.NodeID()] = true
	r.Nodes = append(r.Nodes, n)
}

func (r *Result) addInput(id string, in NodeInput) {
	list := r.Inputs[id]
	if slices.ContainsFunc(list, func(x NodeInput) bool { return x.ID == in.ID }) {
		return
	}
	r.Inputs[id] = append(list, in)
}

// Merge adds the matches of other to r.
func (r *Result) Merge(other *Result) {
	for _, n := range other.Nodes {
		r.addNode(n)
	}
	for id, inputs := range other.Inputs {
		for _, in := range inputs {
			r.addInput(id, in)
		}
	}
}

func newResult() *Result {
	return &Result{
		Inputs: make(map[string][]NodeInput),
		seen:   make(map[string]bool),
		walked: make(map[string]int),
	}
}

// Collect walks from start to its producers along incoming edges. A node
// is expanded again only when reached at a shallower depth, so cycles end
// the walk instead of recursing.
func Collect(g *Graph, start Node, q Query) *Result {
	res := newResult()
	collect(g, start, q, 1, res)
	return res
}

func collect(g *Graph, n Node, q Query, depth int, res *Result) {
	if d, ok := res.walked[n.NodeID()]; ok && d <= depth {
		return
	}
	res.walked[n.NodeID()] = depth

	if q.Node == nil || q.Node(n) {
		res.addNode(n)
	}

	edges := g.EdgesInto(n.NodeID())
	if q.Input != nil {
		for _, in := range Inputs(n) {
			var connected *Edge
			if i := slices.IndexFunc(edges, func(e Edge) bool { return e.Input == in.ID }); i >= 0 {
				e := edges[i]
				connected = &e
			}
			if q.Input(n, in, connected) {
				res.addInput(n.NodeID(), in)
			}
		}
	}

	if q.MaxDepth > 0 && depth >= q.MaxDepth {
		return
	}
	for _, e := range edges {
		from := g.Node(e.From)
		if from == nil {
			continue
		}
		if q.Edge != nil && !q.Edge(e, from) {
			continue
		}
		collect(g, from, q, depth+1, res)
	}
}

// ActiveNodes returns the ids of every node feeding the output of either
// stage, including next-stage counterparts of collected nodes and their
// own producers.
func ActiveNodes(g *Graph) []string {
	res := newResult()
	for _, stage := range []Stage{StageFragment, StageVertex} {
		if out := g.OutputNode(stage); out != nil {
			res.Merge(Collect(g, out, Query{}))
		}
	}
	for i := 0; i < len(res.Nodes); i++ {
		sn, ok := res.Nodes[i].(*SourceNode)
		if !ok {
			continue
		}
		if linked := g.LinkedNode(sn); linked != nil && !res.Has(linked.ID) {
			res.Merge(Collect(g, linked, Query{}))
		}
	}
	return res.IDs()
}

// CollectDataInputs returns, per node, the slots fed directly by a data
// node. The walk skips next-stage links.
func CollectDataInputs(g *Graph, start Node) map[string][]NodeInput {
	return Collect(g, start, Query{
		Edge: followData,
		Input: func(_ Node, in NodeInput, e *Edge) bool {
			if e == nil || !in.IsDataOnly() {
				return false
			}
			_, ok := g.Node(e.From).(*DataNode)
			return ok
		},
	}).Inputs
}

// CollectProperties returns, per node, the slots bound to an engine
// material property.
func CollectProperties(g *Graph, start Node) map[string][]NodeInput {
	return Collect(g, start, Query{
		Edge: followData,
		Input: func(_ Node, in NodeInput, _ *Edge) bool {
			return in.Property != ""
		},
	}).Inputs
}

func followData(e Edge, _ Node) bool {
	return e.Type != EdgeNextStage
}
