// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/ir"
	"github.com/gogpu/shadergraph/strategy"
)

// MainStatements is the slot of the vertex output node that receives the
// entry point calls of vertex nodes not wired into the vertex graph.
const MainStatements = "mainStmts"

// Result holds the merged sections of both stages.
type Result struct {
	Fragment ir.Sections
	Vertex   ir.Sections

	// ActiveNodeIDs lists the nodes reached while compiling, fragment
	// stage first.
	ActiveNodeIDs []string
}

// CompileGraph compiles both stages from their output nodes. Contexts of
// every reachable node must have been computed; compiling splices fillers
// into them, so each set of contexts can be compiled once.
func CompileGraph(ec *EngineContext, g *graph.Graph) (*Result, error) {
	frag := g.OutputNode(graph.StageFragment)
	if frag == nil {
		return nil, structuralf(ErrMissingOutput, "", "", "no %s output node", graph.StageFragment)
	}
	vert := g.OutputNode(graph.StageVertex)
	if vert == nil {
		return nil, structuralf(ErrMissingOutput, "", "", "no %s output node", graph.StageVertex)
	}

	res := &Result{}
	seen := make(map[string]bool)
	visit := func(id string) {
		if !seen[id] {
			seen[id] = true
			res.ActiveNodeIDs = append(res.ActiveNodeIDs, id)
		}
	}

	var err error
	fc := newCompilation(ec, g, graph.StageFragment, visit)
	if res.Fragment, _, err = fc.compile(frag, nil); err != nil {
		return nil, err
	}
	vc := newCompilation(ec, g, graph.StageVertex, visit)
	if res.Vertex, _, err = vc.compile(vert, orphanEdges(g, vert)); err != nil {
		return nil, err
	}
	return res, nil
}

// orphanEdges connects the vertex counterparts of fragment nodes that
// the vertex output does not reach to its MainStatements slot.
func orphanEdges(g *graph.Graph, vert *graph.SourceNode) []graph.Edge {
	reached := graph.Collect(g, vert, graph.Query{
		Edge: func(e graph.Edge, _ graph.Node) bool { return e.Type != graph.EdgeNextStage },
	})
	var edges []graph.Edge
	for _, sn := range StageNodes(g, graph.StageFragment) {
		linked := g.LinkedNode(sn)
		if linked == nil || linked.Stage != graph.StageVertex || reached.Has(linked.ID) {
			continue
		}
		if slices.ContainsFunc(edges, func(e graph.Edge) bool { return e.From == linked.ID }) {
			continue
		}
		edges = append(edges, graph.Edge{
			ID:     "orphan_" + linked.ID,
			From:   linked.ID,
			To:     vert.ID,
			Output: "main",
			Input:  MainStatements,
		})
	}
	return edges
}

// compilation is one stage's walk. A node reached twice is compiled once;
// later reaches get its filler and no sections.
type compilation struct {
	ec      *EngineContext
	g       *graph.Graph
	stage   graph.Stage
	visit   func(id string)
	fillers map[string]strategy.Filler
	pending map[string]bool
}

func newCompilation(ec *EngineContext, g *graph.Graph, stage graph.Stage, visit func(string)) *compilation {
	return &compilation{
		ec:      ec,
		g:       g,
		stage:   stage,
		visit:   visit,
		fillers: make(map[string]strategy.Filler),
		pending: make(map[string]bool),
	}
}

func (c *compilation) compile(n graph.Node, extra []graph.Edge) (ir.Sections, strategy.Filler, error) {
	id := n.NodeID()
	if fill, ok := c.fillers[id]; ok {
		return ir.Sections{}, fill, nil
	}
	if c.pending[id] {
		return ir.Sections{}, nil, structuralf(ErrCycle, id, "", "%s stage", c.stage)
	}
	c.pending[id] = true
	defer delete(c.pending, id)
	c.visit(id)

	var (
		sections ir.Sections
		fill     strategy.Filler
		err      error
	)
	switch n := n.(type) {
	case *graph.DataNode:
		sections, fill, err = DataFiller(n)
		if err != nil {
			return ir.Sections{}, nil, newNodeError(id, err)
		}
	case *graph.SourceNode:
		sections, fill, err = c.source(n, extra)
		if err != nil {
			return ir.Sections{}, nil, err
		}
	default:
		panic(fmt.Sprintf("compiler: unexpected node type %T", n))
	}
	c.fillers[id] = fill
	return sections, fill, nil
}

func (c *compilation) source(node *graph.SourceNode, extra []graph.Edge) (ir.Sections, strategy.Filler, error) {
	nc := c.ec.Nodes[node.ID]
	if nc == nil {
		return ir.Sections{}, nil, structuralf(ErrNoContext, node.ID, "", "")
	}

	var deps ir.Sections
	edges := slices.Concat(c.g.EdgesInto(node.ID), extra)
	for _, e := range edges {
		if e.Type == graph.EdgeNextStage {
			continue
		}
		in, ok := node.Input(e.Input)
		if !ok {
			in, ok = lo.Find(nc.Inputs, func(x graph.NodeInput) bool { return x.ID == e.Input })
		}
		if !ok {
			return ir.Sections{}, nil, structuralf(ErrMissingInput, node.ID, e.ID, "slot %q", e.Input)
		}
		if in.IsDataOnly() {
			continue
		}

		from := c.g.Node(e.From)
		if from == nil {
			return ir.Sections{}, nil, structuralf(ErrUnknownNode, e.From, e.ID, "producer of %s.%s", node.ID, e.Input)
		}
		secs, fill, err := c.compile(from, nil)
		if err != nil {
			return ir.Sections{}, nil, err
		}
		deps = ir.Merge(deps, secs)

		found, ok := c.setterFor(node, nc, in)
		if !ok {
			return ir.Sections{}, nil, structuralf(ErrMissingFiller, node.ID, e.ID, "slot %q", in.ID)
		}
		if producer, ok := from.(*graph.SourceNode); ok && producer.Backfill != nil && len(found.Args) > 0 {
			fill, err = c.backfill(producer, found, nc.Program)
			if err != nil {
				return ir.Sections{}, nil, err
			}
		}
		found.Setter(fill)

		c.ec.logger.Debug("filled input",
			"node", node.ID,
			"input", in.ID,
			"from", from.NodeID(),
			"stage", c.stage.String())
	}

	sections := deps
	if node.SourceType == graph.SourceProgram {
		own, err := ir.FindSections(nc.Program)
		if err != nil {
			return ir.Sections{}, nil, newNodeError(node.ID, err)
		}
		sections = ir.Merge(deps, own)
	}

	if produce := c.ec.Engine.hooks(node.Type).ProduceFiller; produce != nil {
		return sections, produce(c.ec, node, nc), nil
	}
	return sections, SourceFiller(node, nc), nil
}

// setterFor finds the slot's setter by id, or through the filler name of
// the property owning the slot.
func (c *compilation) setterFor(node *graph.SourceNode, nc *NodeContext, in graph.NodeInput) (strategy.Found, bool) {
	if found, ok := nc.Fillers[in.ID]; ok {
		return found, true
	}
	if in.Property == "" {
		return strategy.Found{}, false
	}
	prop, ok := node.Config.Property(in.Property)
	if !ok || prop.FillerName == "" {
		return strategy.Found{}, false
	}
	found, ok := nc.Fillers[prop.FillerName]
	return found, ok
}

// backfill adds the producer's implicit input as a parameter of its entry
// point and returns a filler calling it with the first argument the
// consumer's slot replaced.
func (c *compilation) backfill(producer *graph.SourceNode, found strategy.Found, consumer *glsl.Program) (strategy.Filler, error) {
	pc := c.ec.Nodes[producer.ID]
	if pc == nil {
		return nil, structuralf(ErrNoContext, producer.ID, "", "")
	}
	fn, ok := pc.Program.Node(pc.Main).(*glsl.FunctionDecl)
	if !ok {
		return nil, structuralf(ErrMissingFiller, producer.ID, "", "no entry point to backfill")
	}

	bf := producer.Backfill
	names := []string{bf.Name}
	if producer.Mangled() {
		names = append(names, MangleName(bf.Name, producer, c.g.LinkedNode(producer)))
	}
	if !hasParam(pc.Program, fn, bf.Name) {
		for _, name := range names {
			b := pc.Program.Global().Bindings.Get(name)
			if b == nil {
				continue
			}
			for _, ref := range b.Refs {
				if pc.Program.Contains(pc.Main, ref) {
					pc.Program.SetName(ref, bf.Name)
				}
			}
		}
		fn.Params = append(fn.Params, pc.Program.NewParam(bf.Type, bf.Name))
		glsl.Analyze(pc.Program)
	}

	entry := fn.Name
	args := found.Args[:1]
	return func(dst *glsl.Program) glsl.Handle {
		call := make([]glsl.Handle, len(args))
		for i, a := range args {
			call[i] = dst.Graft(consumer, a)
		}
		return dst.NewCall(entry, call...)
	}, nil
}

func hasParam(prog *glsl.Program, fn *glsl.FunctionDecl, name string) bool {
	return slices.ContainsFunc(fn.Params, func(h glsl.Handle) bool {
		p, ok := prog.Node(h).(*glsl.Param)
		return ok && p.Name == name
	})
}

// SourceFiller returns the default filler of a source node: the inlined
// expression, the inlined statements, or a call to the entry point.
func SourceFiller(node *graph.SourceNode, nc *NodeContext) strategy.Filler {
	prog := nc.Program
	switch node.SourceType {
	case graph.SourceExpression:
		var root glsl.Handle
		if len(prog.Items) > 0 {
			if st, ok := prog.Node(prog.Items[0]).(*glsl.ExprStmt); ok {
				root = st.X
			}
		}
		return func(dst *glsl.Program) glsl.Handle {
			return dst.Graft(prog, root)
		}
	case graph.SourceFunctionBody:
		return func(dst *glsl.Program) glsl.Handle {
			stmts := make([]glsl.Handle, len(prog.Items))
			for i, h := range prog.Items {
				stmts[i] = dst.Graft(prog, h)
			}
			return dst.Add(&glsl.StmtList{Stmts: stmts})
		}
	}

	entry := EntryName(node)
	if fn, ok := prog.Node(nc.Main).(*glsl.FunctionDecl); ok {
		entry = fn.Name
	}
	return func(dst *glsl.Program) glsl.Handle {
		return dst.NewCall(entry)
	}
}

// DataFiller returns the filler of a data node: a literal or constructor
// call for numbers, vectors, colors and matrices. Textures become a
// uniform named after the node, declared in the returned sections.
func DataFiller(n *graph.DataNode) (ir.Sections, strategy.Filler, error) {
	switch n.Type {
	case graph.DataNumber:
		f, ok := n.Number()
		if !ok {
			return ir.Sections{}, nil, fmt.Errorf("value %v is not a number", n.Value)
		}
		return ir.Sections{}, func(dst *glsl.Program) glsl.Handle { return dst.NewFloat(f) }, nil

	case graph.DataTexture, graph.DataSamplerCube:
		name := DataUniformName(n)
		prog := glsl.NewProgram()
		prog.Items = append(prog.Items, prog.NewDecl([]string{"uniform"}, n.Type.GLSLType(), name, glsl.NoHandle))
		glsl.Analyze(prog)
		sections, err := ir.FindSections(prog)
		if err != nil {
			return ir.Sections{}, nil, err
		}
		return sections, func(dst *glsl.Program) glsl.Handle { return dst.NewIdent(name) }, nil
	}

	typ := n.Type.GLSLType()
	if typ == "" {
		return ir.Sections{}, nil, fmt.Errorf("%s values cannot be written as GLSL literals", n.Type)
	}
	values, ok := n.Vector()
	if !ok {
		return ir.Sections{}, nil, fmt.Errorf("value %v is not a %s", n.Value, n.Type)
	}
	return ir.Sections{}, func(dst *glsl.Program) glsl.Handle {
		args := make([]glsl.Handle, len(values))
		for i, v := range values {
			args[i] = dst.NewFloat(v)
		}
		return dst.NewCall(typ, args...)
	}, nil
}

// DataUniformName is the uniform a texture data node is bound to.
func DataUniformName(n *graph.DataNode) string {
	return "data_" + strategy.Sanitize(n.ID)
}
