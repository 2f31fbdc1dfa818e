package graph

import (
	"slices"
)

// Graph is a set of nodes and the edges between them.
//
// Lookups go through an index that is rebuilt lazily whenever the graph's
// generation changes. Methods that mutate the graph advance the generation;
// callers editing Nodes or Edges in place must call Touch.
type Graph struct {
	Nodes []Node
	Edges []Edge

	generation uint64
	idx        *index
}

type index struct {
	generation uint64
	nodes      int
	edges      int

	byID map[string]Node
	into map[string][]Edge
	from map[string][]Edge
}

// New returns a graph holding nodes and edges.
func New(nodes []Node, edges []Edge) *Graph {
	return &Graph{Nodes: nodes, Edges: edges}
}

// Generation returns the structural generation counter.
func (g *Graph) Generation() uint64 { return g.generation }

// Touch invalidates cached lookups after an in-place edit.
func (g *Graph) Touch() { g.generation++ }

// AddNode appends n.
func (g *Graph) AddNode(n Node) {
	g.Nodes = append(g.Nodes, n)
	g.Touch()
}

// AddEdge appends e.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
	g.Touch()
}

// RemoveNode deletes the node with the given id together with every edge
// touching it.
func (g *Graph) RemoveNode(id string) {
	g.Nodes = slices.DeleteFunc(g.Nodes, func(n Node) bool { return n.NodeID() == id })
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool { return e.From == id || e.To == id })
	g.Touch()
}

// RemoveEdge deletes the edge with the given id.
func (g *Graph) RemoveEdge(id string) {
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool { return e.ID == id })
	g.Touch()
}

func (g *Graph) lookup() *index {
	if ix := g.idx; ix != nil && ix.generation == g.generation &&
		ix.nodes == len(g.Nodes) && ix.edges == len(g.Edges) {
		return ix
	}
	ix := &index{
		generation: g.generation,
		nodes:      len(g.Nodes),
		edges:      len(g.Edges),
		byID:       make(map[string]Node, len(g.Nodes)),
		into:       make(map[string][]Edge),
		from:       make(map[string][]Edge),
	}
	for _, n := range g.Nodes {
		ix.byID[n.NodeID()] = n
	}
	for _, e := range g.Edges {
		ix.into[e.To] = append(ix.into[e.To], e)
		ix.from[e.From] = append(ix.from[e.From], e)
	}
	g.idx = ix
	return ix
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) Node {
	return g.lookup().byID[id]
}

// SourceNode returns the source node with the given id, or nil.
func (g *Graph) SourceNode(id string) *SourceNode {
	n, _ := g.Node(id).(*SourceNode)
	return n
}

// EdgesInto returns the edges whose consumer is the node id, in graph
// order.
func (g *Graph) EdgesInto(id string) []Edge {
	return g.lookup().into[id]
}

// EdgesFrom returns the edges whose producer is the node id.
func (g *Graph) EdgesFrom(id string) []Edge {
	return g.lookup().from[id]
}

// EdgeInto returns the edge feeding input slot input of node id.
func (g *Graph) EdgeInto(id, input string) (Edge, bool) {
	for _, e := range g.EdgesInto(id) {
		if e.Input == input {
			return e, true
		}
	}
	return Edge{}, false
}

// OutputNode returns the output node of stage.
func (g *Graph) OutputNode(stage Stage) *SourceNode {
	for _, n := range g.Nodes {
		if sn, ok := n.(*SourceNode); ok && sn.Type == TypeOutput && sn.Stage == stage {
			return sn
		}
	}
	return nil
}

// LinkedNode returns the next-stage counterpart of n, found through
// NextStageNodeID or a next-stage edge.
func (g *Graph) LinkedNode(n *SourceNode) *SourceNode {
	if n.NextStageNodeID != "" {
		return g.SourceNode(n.NextStageNodeID)
	}
	for _, e := range g.EdgesFrom(n.ID) {
		if e.Type == EdgeNextStage {
			return g.SourceNode(e.To)
		}
	}
	for _, e := range g.EdgesInto(n.ID) {
		if e.Type == EdgeNextStage {
			return g.SourceNode(e.From)
		}
	}
	return nil
}
