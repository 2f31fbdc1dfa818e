// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/strategy"
)

// Engine adapts the compiler to one renderer: the names it owns and the
// per node type hooks overriding default node behavior.
type Engine struct {
	Name string

	// Preserve lists names that are never mangled: renderer-provided
	// attributes, uniforms and varyings.
	Preserve []string

	// Hooks by node type.
	Hooks map[string]NodeHooks
}

// NodeHooks override steps of context computation and compilation for one
// node type. Every hook is optional.
type NodeHooks struct {
	// OnBeforeCompile runs before the node is parsed and may return source
	// text that replaces the stored source. It may block, e.g. on a
	// renderer compiling a real program.
	OnBeforeCompile func(ctx context.Context, ec *EngineContext, g *graph.Graph, node *graph.SourceNode) (string, error)

	// ManipulateAst rewrites the parsed program before slots are searched.
	ManipulateAst func(ec *EngineContext, prog *glsl.Program, node, sibling *graph.SourceNode) (*glsl.Program, error)

	// FindInputs replaces the configured strategies.
	FindInputs func(ec *EngineContext, prog *glsl.Program, node, sibling *graph.SourceNode) ([]strategy.Found, error)

	// ProduceFiller replaces the default filler handed to consumers.
	ProduceFiller func(ec *EngineContext, node *graph.SourceNode, nc *NodeContext) strategy.Filler
}

func (e *Engine) hooks(nodeType string) NodeHooks {
	if e == nil || e.Hooks == nil {
		return NodeHooks{}
	}
	return e.Hooks[nodeType]
}

// NodeContext is the computed state of one source node.
type NodeContext struct {
	NodeID string
	// Source is the text that was parsed.
	Source  string
	Program *glsl.Program
	// Main is the node's entry point, renamed when the node is mangled.
	Main glsl.Handle

	Inputs  []graph.NodeInput
	Fillers map[string]strategy.Found
}

// Input returns the discovered slot with the given id.
func (nc *NodeContext) Input(id string) (graph.NodeInput, bool) {
	f, ok := nc.Fillers[id]
	return f.Input, ok
}

// Options configures an EngineContext.
type Options struct {
	// Logger receives debug records per computed node; nil uses slog.Default.
	Logger *slog.Logger
}

// EngineContext carries the engine and every node context computed so far.
// It is threaded through every compiler call and is not safe for
// concurrent use.
type EngineContext struct {
	Engine *Engine
	Nodes  map[string]*NodeContext

	// Sources records source text returned by OnBeforeCompile hooks.
	Sources map[string]string

	logger   *slog.Logger
	preserve map[string]bool
}

// NewContext returns an empty context for engine.
func NewContext(engine *Engine, opts Options) *EngineContext {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = &Engine{}
	}
	return &EngineContext{
		Engine:   engine,
		Nodes:    make(map[string]*NodeContext),
		Sources:  make(map[string]string),
		logger:   logger,
		preserve: lo.SliceToMap(engine.Preserve, func(name string) (string, bool) { return name, true }),
	}
}

// Logger returns the context logger.
func (ec *EngineContext) Logger() *slog.Logger { return ec.logger }
