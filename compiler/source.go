// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"context"
	"fmt"
	"slices"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/ir"
)

// SourceResult is the output of CompileSource.
type SourceResult struct {
	FragmentText string `json:"fragment"`
	VertexText   string `json:"vertex"`

	// ActiveNodeIDs lists the nodes the compile reached and the data
	// nodes feeding their runtime inputs.
	ActiveNodeIDs []string `json:"activeNodeIds"`
	// DataNodeIDs lists the data nodes bound to runtime inputs.
	DataNodeIDs []string `json:"dataNodeIds"`
	// DataInputsByNode lists the runtime inputs of each reached node that a
	// data node feeds.
	DataInputsByNode map[string][]graph.NodeInput `json:"dataInputsByNode"`
}

// CompileSource computes every node context of g, compiles both stages
// and renders them. A NodeError or StructuralError is returned instead of
// a result when any step fails.
func CompileSource(ctx context.Context, g *graph.Graph, ec *EngineContext) (*SourceResult, error) {
	if err := ComputeAllContexts(ctx, ec, g); err != nil {
		return nil, err
	}
	compiled, err := CompileGraph(ec, g)
	if err != nil {
		return nil, err
	}

	frag, err := render(compiled.Fragment)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", graph.StageFragment, err)
	}
	vert, err := render(compiled.Vertex)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", graph.StageVertex, err)
	}

	res := &SourceResult{
		FragmentText:     frag,
		VertexText:       vert,
		ActiveNodeIDs:    slices.Clone(compiled.ActiveNodeIDs),
		DataInputsByNode: make(map[string][]graph.NodeInput),
	}
	for _, id := range compiled.ActiveNodeIDs {
		sn := g.SourceNode(id)
		if sn == nil {
			continue
		}
		for _, in := range sn.Inputs {
			if !in.IsDataOnly() {
				continue
			}
			e, ok := g.EdgeInto(id, in.ID)
			if !ok {
				continue
			}
			if _, isData := g.Node(e.From).(*graph.DataNode); !isData {
				continue
			}
			res.DataInputsByNode[id] = append(res.DataInputsByNode[id], in)
			if !slices.Contains(res.DataNodeIDs, e.From) {
				res.DataNodeIDs = append(res.DataNodeIDs, e.From)
			}
			if !slices.Contains(res.ActiveNodeIDs, e.From) {
				res.ActiveNodeIDs = append(res.ActiveNodeIDs, e.From)
			}
		}
	}

	ec.logger.Debug("compiled graph",
		"active", len(res.ActiveNodeIDs),
		"data", len(res.DataNodeIDs))
	return res, nil
}

func render(s ir.Sections) (string, error) {
	prog, err := ir.ToProgram(s, ir.DefaultOptions())
	if err != nil {
		return "", err
	}
	return glsl.Generate(prog), nil
}
