// Package shadergraph composes GLSL shaders from node graphs.
//
// A graph holds source nodes (GLSL programs, expressions or function
// bodies) and data nodes (literal values). Edges plug the output of one
// node into an input slot of another. Compiling a graph walks back from
// the fragment and vertex output nodes, renames every node's globals so
// they cannot collide, splices producers into their consumers' slots and
// merges everything into one program per stage.
//
// Example usage:
//
//	g := graph.New(
//		[]graph.Node{
//			nodes.Output("out", graph.StageFragment),
//			nodes.Output("vert", graph.StageVertex),
//			nodes.Source("red", "Red", graph.StageFragment, redSource),
//		},
//		[]graph.Edge{{ID: "e1", From: "red", To: "out", Output: "out", Input: "filler_frogFragOut"}},
//	)
//	res, err := shadergraph.Compile(context.Background(), g)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.FragmentText)
//
// The compiler package exposes the individual passes, the glsl package the
// parser and printer they are built on.
package shadergraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/evaluate"
	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/nodes"
)

// Options configures graph compilation.
type Options struct {
	// Engine supplies preserved names and node hooks (default: nodes.Engine())
	Engine *compiler.Engine

	// Logger receives debug records (default: slog.Default())
	Logger *slog.Logger
}

// DefaultOptions returns the options Compile uses.
func DefaultOptions() Options {
	return Options{Engine: nodes.Engine()}
}

// Compile compiles g with the default engine.
func Compile(ctx context.Context, g *graph.Graph) (*compiler.SourceResult, error) {
	return CompileWithOptions(ctx, g, DefaultOptions())
}

// CompileWithOptions compiles g.
//
// The compilation pipeline is:
//  1. Compute the context of every node reachable from an output node
//  2. Compile the fragment stage, then the vertex stage
//  3. Print both stages
func CompileWithOptions(ctx context.Context, g *graph.Graph, opts Options) (*compiler.SourceResult, error) {
	engine := opts.Engine
	if engine == nil {
		engine = nodes.Engine()
	}
	ec := compiler.NewContext(engine, compiler.Options{Logger: opts.Logger})
	return compiler.CompileSource(ctx, g, ec)
}

// CompileFile loads a JSON or YAML graph file and compiles it.
func CompileFile(ctx context.Context, path string, opts Options) (*compiler.SourceResult, error) {
	g, err := graph.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return CompileWithOptions(ctx, g, opts)
}

// Parse parses a GLSL ES 3.00 program.
func Parse(source string) (*glsl.Program, error) {
	return glsl.Parse(source, glsl.ParseOptions{})
}

// Generate prints prog as GLSL text.
func Generate(prog *glsl.Program) string {
	return glsl.Generate(prog)
}

// Evaluate returns the numeric value of the node with the given id.
func Evaluate(g *graph.Graph, id string) (evaluate.Value, error) {
	n := g.Node(id)
	if n == nil {
		return nil, fmt.Errorf("evaluate: unknown node %s", id)
	}
	return evaluate.Evaluate(g, n)
}
