package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// NewID returns a fresh node or edge id.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of g.
func Clone(g *Graph) *Graph {
	nodes := make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = CloneNode(n)
	}
	return New(nodes, slices.Clone(g.Edges))
}

// CloneNode returns a deep copy of n.
func CloneNode(n Node) Node {
	switch n := n.(type) {
	case *SourceNode:
		c := *n
		c.Inputs = cloneInputs(n.Inputs)
		c.Outputs = slices.Clone(n.Outputs)
		c.Config = cloneConfig(n.Config)
		if n.Backfill != nil {
			b := *n.Backfill
			c.Backfill = &b
		}
		return &c
	case *DataNode:
		c := *n
		c.Outputs = slices.Clone(n.Outputs)
		if v, ok := n.Value.([]float64); ok {
			c.Value = slices.Clone(v)
		}
		return &c
	}
	panic(fmt.Sprintf("graph: unexpected node type %T", n))
}

func cloneInputs(inputs []NodeInput) []NodeInput {
	out := slices.Clone(inputs)
	for i := range out {
		out[i].Accepts = slices.Clone(out[i].Accepts)
	}
	return out
}

func cloneConfig(c NodeConfig) NodeConfig {
	c.Strategies = slices.Clone(c.Strategies)
	for i, s := range c.Strategies {
		if s.Inject != nil {
			inj := *s.Inject
			c.Strategies[i].Inject = &inj
		}
		c.Strategies[i].Inputs = cloneInputs(s.Inputs)
	}
	c.Uniforms = slices.Clone(c.Uniforms)
	c.Properties = slices.Clone(c.Properties)
	c.HardCodedProperties = maps.Clone(c.HardCodedProperties)
	c.InputMapping = maps.Clone(c.InputMapping)
	return c
}

// ResetIDs returns a deep copy of g in which every node and edge has a new
// id. Edge endpoints and next-stage links are remapped consistently.
func ResetIDs(g *Graph) *Graph {
	out := Clone(g)
	remap := make(map[string]string, len(out.Nodes))
	for _, n := range out.Nodes {
		remap[n.NodeID()] = NewID()
	}

	for _, n := range out.Nodes {
		switch n := n.(type) {
		case *SourceNode:
			n.ID = remap[n.ID]
			if id, ok := remap[n.NextStageNodeID]; ok {
				n.NextStageNodeID = id
			}
		case *DataNode:
			n.ID = remap[n.ID]
		}
	}
	for i := range out.Edges {
		e := &out.Edges[i]
		e.ID = NewID()
		if id, ok := remap[e.From]; ok {
			e.From = id
		}
		if id, ok := remap[e.To]; ok {
			e.To = id
		}
	}
	out.Touch()
	return out
}
