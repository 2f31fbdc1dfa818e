// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/strategy"
)

// ComputeContext parses node, discovers its input slots and mangles it.
// The result replaces any earlier context of node in ec, and the node's
// Inputs are replaced by the discovered slots, keeping their Baked flags.
func ComputeContext(ctx context.Context, ec *EngineContext, g *graph.Graph, node *graph.SourceNode) error {
	nc, err := computeContext(ctx, ec, g, node)
	if err != nil {
		return newNodeError(node.ID, err)
	}
	ec.Nodes[node.ID] = nc

	prev := lo.KeyBy(node.Inputs, func(in graph.NodeInput) string { return in.ID })
	inputs := slices.Clone(nc.Inputs)
	for i := range inputs {
		if p, ok := prev[inputs[i].ID]; ok {
			inputs[i].Baked = p.Baked
		}
	}
	node.Inputs = inputs

	ec.logger.Debug("computed node context",
		"node", node.ID,
		"stage", node.Stage.String(),
		"inputs", len(inputs))
	return nil
}

func computeContext(ctx context.Context, ec *EngineContext, g *graph.Graph, node *graph.SourceNode) (*NodeContext, error) {
	hooks := ec.Engine.hooks(node.Type)
	sibling := g.LinkedNode(node)

	source := node.Source
	if hooks.OnBeforeCompile != nil {
		override, err := hooks.OnBeforeCompile(ctx, ec, g, node)
		if err != nil {
			return nil, fmt.Errorf("before compile: %w", err)
		}
		if override != "" {
			source = override
			ec.Sources[node.ID] = override
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prog, err := parseNode(source, node)
	if err != nil {
		return nil, err
	}

	if node.SourceType == graph.SourceProgram {
		if node.Config.Version == 2 {
			UpgradeES3(prog, node.Stage)
		}
		if node.Type != graph.TypeOutput {
			ConvertReturn(prog, node.Stage)
		}
		declareUniforms(prog, node.Config.Uniforms)
	}

	if hooks.ManipulateAst != nil {
		prog, err = hooks.ManipulateAst(ec, prog, node, sibling)
		if err != nil {
			return nil, fmt.Errorf("manipulate ast: %w", err)
		}
		glsl.Analyze(prog)
	}

	var main glsl.Handle
	if node.HasMain() {
		main, _ = prog.Function("main")
	}

	var found []strategy.Found
	if hooks.FindInputs != nil {
		found, err = hooks.FindInputs(ec, prog, node, sibling)
	} else {
		found, err = strategy.FindInputs(prog, node, sibling)
	}
	if err != nil {
		return nil, err
	}

	for i, f := range found {
		if to, ok := node.Config.InputMapping[f.Input.ID]; ok {
			found[i].Input.ID = to
		}
	}
	found = lo.UniqBy(found, func(f strategy.Found) string { return f.Input.ID })

	inputs := strategy.Inputs(found)
	for _, p := range node.Config.Properties {
		in := graph.NodeInput{
			ID:          strategy.SlotID("property", p.Property),
			DisplayName: p.DisplayName,
			Kind:        graph.InputProperty,
			DataType:    p.Type,
			Accepts:     []graph.InputCategory{graph.CategoryCode, graph.CategoryData},
			Bakeable:    true,
			Property:    p.Property,
		}
		if !slices.ContainsFunc(inputs, func(x graph.NodeInput) bool { return x.ID == in.ID }) {
			inputs = append(inputs, in)
		}
	}

	if node.Mangled() {
		MangleProgram(prog, node, sibling, ec.preserve)
	}

	return &NodeContext{
		NodeID:  node.ID,
		Source:  source,
		Program: prog,
		Main:    main,
		Inputs:  inputs,
		Fillers: lo.KeyBy(found, func(f strategy.Found) string { return f.Input.ID }),
	}, nil
}

// parseNode parses source the way node's source type requires.
func parseNode(source string, node *graph.SourceNode) (*glsl.Program, error) {
	mode := glsl.ModeProgram
	switch node.SourceType {
	case graph.SourceExpression:
		mode = glsl.ModeExpression
	case graph.SourceFunctionBody:
		mode = glsl.ModeStatements
	}
	if node.Config.Preprocess && mode == glsl.ModeProgram {
		text, err := glsl.Preprocess(source, glsl.DefaultPreprocessOptions())
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}
		source = text
	}
	return glsl.Parse(source, glsl.ParseOptions{Mode: mode})
}

// declareUniforms adds a declaration for every uniform the program uses
// without declaring.
func declareUniforms(prog *glsl.Program, uniforms []graph.UniformDefinition) {
	if len(uniforms) == 0 {
		return
	}
	global := prog.Global()
	for _, u := range uniforms {
		if b := global.Bindings.Get(u.Name); b != nil && b.Declared() {
			continue
		}
		typ := u.Type.GLSLType()
		if typ == "" {
			continue
		}
		insertDeclaration(prog, prog.NewDecl([]string{"uniform"}, typ, u.Name, glsl.NoHandle))
	}
	glsl.Analyze(prog)
}

// StageNodes returns the source nodes whose contexts a stage needs,
// producers before consumers. The vertex stage also takes the vertex
// counterparts of fragment nodes together with their producers.
func StageNodes(g *graph.Graph, stage graph.Stage) []*graph.SourceNode {
	out := g.OutputNode(stage)
	if out == nil {
		return nil
	}
	var nodes []*graph.SourceNode
	seen := make(map[string]bool)
	var visit func(n graph.Node)
	visit = func(n graph.Node) {
		if seen[n.NodeID()] {
			return
		}
		seen[n.NodeID()] = true
		for _, e := range g.EdgesInto(n.NodeID()) {
			if e.Type == graph.EdgeNextStage {
				continue
			}
			if from := g.Node(e.From); from != nil {
				visit(from)
			}
		}
		if sn, ok := n.(*graph.SourceNode); ok {
			nodes = append(nodes, sn)
		}
	}
	visit(out)

	if stage == graph.StageVertex {
		for _, sn := range StageNodes(g, graph.StageFragment) {
			if linked := g.LinkedNode(sn); linked != nil && linked.Stage == graph.StageVertex {
				visit(linked)
			}
		}
	}
	return nodes
}

// ComputeStageContexts computes the context of every node a stage needs,
// one node at a time. The first failure aborts the batch.
func ComputeStageContexts(ctx context.Context, ec *EngineContext, g *graph.Graph, stage graph.Stage) error {
	for _, node := range StageNodes(g, stage) {
		if err := ComputeContext(ctx, ec, g, node); err != nil {
			return err
		}
	}
	return nil
}

// ComputeAllContexts runs the fragment and the vertex batch. A failure in
// one batch does not stop the other; their errors are joined.
func ComputeAllContexts(ctx context.Context, ec *EngineContext, g *graph.Graph) error {
	return errors.Join(
		ComputeStageContexts(ctx, ec, g, graph.StageFragment),
		ComputeStageContexts(ctx, ec, g, graph.StageVertex),
	)
}
