package compiler_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/nodes"
	"github.com/gogpu/shadergraph/strategy"
)

const redSource = `#version 300 es
precision highp float;
out vec4 fragColor;
void main() {
  fragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`

// outputs returns the two output nodes every graph starts from.
func outputs() []graph.Node {
	return []graph.Node{
		nodes.Output("fout", graph.StageFragment),
		nodes.Output("vout", graph.StageVertex),
	}
}

func compile(t *testing.T, g *graph.Graph) *compiler.SourceResult {
	t.Helper()
	ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
	res, err := compiler.CompileSource(context.Background(), g, ec)
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	return res
}

func contains(t *testing.T, text string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Errorf("missing %q in:\n%s", w, text)
		}
	}
}

func edge(id, from, to, input string) graph.Edge {
	return graph.Edge{ID: id, From: from, To: to, Output: "out", Input: input}
}

// =============================================================================
// Compiling
// =============================================================================

func TestCompileSingleFragmentNode(t *testing.T) {
	g := graph.New(
		append(outputs(), nodes.Source("red", "Red", graph.StageFragment, redSource)),
		[]graph.Edge{edge("e1", "red", "fout", "filler_frogFragOut")},
	)
	res := compile(t, g)

	contains(t, res.FragmentText,
		"#version 300 es\n",
		"precision highp float;\n",
		"out vec4 frogFragOut;\n",
		"vec4 main_Red() {\n  vec4 frogOut;\n  frogOut = vec4(1.0, 0.0, 0.0, 1.0);\n  return frogOut;\n}\n",
		"void main() {\n  frogFragOut = main_Red();\n}\n",
	)
	if strings.Index(res.FragmentText, "main_Red()") > strings.Index(res.FragmentText, "void main()") {
		t.Error("entry point defined after its caller")
	}
	if strings.Count(res.FragmentText, "#version") != 1 || strings.Count(res.FragmentText, "precision") != 1 {
		t.Errorf("duplicated header:\n%s", res.FragmentText)
	}
	if strings.Contains(res.FragmentText, "fragColor") {
		t.Errorf("node output declaration kept:\n%s", res.FragmentText)
	}

	contains(t, res.VertexText,
		"uniform mat4 modelViewMatrix, projectionMatrix;",
		"in vec3 position;",
		"gl_Position = projectionMatrix * modelViewMatrix * vec4(position, 1.0);",
	)
	if want := []string{"fout", "red", "vout"}; !reflect.DeepEqual(want, res.ActiveNodeIDs) {
		t.Errorf("active = %v, want %v", res.ActiveNodeIDs, want)
	}
}

func TestCompileBinaryChain(t *testing.T) {
	g := graph.New(
		append(outputs(),
			nodes.Add("add1"),
			nodes.Multiply("mul"),
			nodes.Number("n5", "five", 5),
			nodes.Number("n7", "seven", 7),
			nodes.Number("n3", "three", 3),
		),
		[]graph.Edge{
			edge("e1", "n5", "add1", "filler_a"),
			edge("e2", "n7", "add1", "filler_b"),
			edge("e3", "add1", "mul", "filler_a"),
			edge("e4", "n3", "mul", "filler_b"),
			edge("e5", "mul", "fout", "filler_frogFragOut"),
		},
	)
	res := compile(t, g)

	contains(t, res.FragmentText, "frogFragOut = (5.0 + 7.0) * 3.0;")
	want := []string{"fout", "mul", "add1", "n5", "n7", "n3", "vout"}
	if !reflect.DeepEqual(want, res.ActiveNodeIDs) {
		t.Errorf("active = %v, want %v", res.ActiveNodeIDs, want)
	}
	if len(res.DataNodeIDs) != 0 {
		t.Errorf("literals reported as runtime data: %v", res.DataNodeIDs)
	}
}

func TestCompileSharedProducer(t *testing.T) {
	g := graph.New(
		append(outputs(),
			nodes.Source("red", "Red", graph.StageFragment, redSource),
			nodes.Add("add"),
		),
		[]graph.Edge{
			edge("e1", "red", "add", "filler_a"),
			edge("e2", "red", "add", "filler_b"),
			edge("e3", "add", "fout", "filler_frogFragOut"),
		},
	)
	res := compile(t, g)

	contains(t, res.FragmentText, "frogFragOut = main_Red() + main_Red();")
	if n := strings.Count(res.FragmentText, "vec4 main_Red()"); n != 1 {
		t.Errorf("main_Red defined %d times:\n%s", n, res.FragmentText)
	}
}

func TestCompileDataInputs(t *testing.T) {
	const tintSource = `#version 300 es
precision highp float;
uniform vec3 tint;
out vec4 color;
void main() {
  color = vec4(tint, 1.0);
}
`
	build := func(baked bool) *graph.Graph {
		tint := nodes.Source("tinted", "Tinted", graph.StageFragment, tintSource)
		tint.Inputs = []graph.NodeInput{{ID: "uniform_tint", Kind: graph.InputUniform, Baked: baked}}
		return graph.New(
			append(outputs(), tint, nodes.Color("col", "Orange", 1, 0.5, 0)),
			[]graph.Edge{
				edge("e1", "col", "tinted", "uniform_tint"),
				edge("e2", "tinted", "fout", "filler_frogFragOut"),
			},
		)
	}

	t.Run("runtime uniform", func(t *testing.T) {
		res := compile(t, build(false))
		contains(t, res.FragmentText, "uniform vec3 tint_tinted;", "frogOut = vec4(tint_tinted, 1.0);")
		if !reflect.DeepEqual([]string{"col"}, res.DataNodeIDs) {
			t.Errorf("data nodes = %v", res.DataNodeIDs)
		}
		ins := res.DataInputsByNode["tinted"]
		if len(ins) != 1 || ins[0].ID != "uniform_tint" {
			t.Errorf("data inputs = %v", res.DataInputsByNode)
		}
		if !slices.Contains(res.ActiveNodeIDs, "col") {
			t.Errorf("active = %v", res.ActiveNodeIDs)
		}
	})

	t.Run("baked", func(t *testing.T) {
		res := compile(t, build(true))
		contains(t, res.FragmentText, "frogOut = vec4(vec3(1.0, 0.5, 0.0), 1.0);")
		if strings.Contains(res.FragmentText, "uniform vec3") {
			t.Errorf("baked uniform still declared:\n%s", res.FragmentText)
		}
		if len(res.DataNodeIDs) != 0 {
			t.Errorf("data nodes = %v", res.DataNodeIDs)
		}
	})
}

func TestCompileOrphanVertexNode(t *testing.T) {
	vert := nodes.Source("wavev", "Wave", graph.StageVertex, `#version 300 es
precision highp float;
in vec2 uv;
out vec2 vWave;
void main() {
  vWave = uv * 2.0;
}
`)
	frag := nodes.Source("wavef", "Wave", graph.StageFragment, `#version 300 es
precision highp float;
in vec2 vWave;
out vec4 color;
void main() {
  color = vec4(vWave, 0.0, 1.0);
}
`)
	nodes.Link(vert, frag)
	g := graph.New(
		append(outputs(), vert, frag),
		[]graph.Edge{edge("e1", "wavef", "fout", "filler_frogFragOut")},
	)
	res := compile(t, g)

	contains(t, res.FragmentText, "in vec2 vWave_wavef;", "vec4(vWave_wavef, 0.0, 1.0)")
	contains(t, res.VertexText,
		"in vec2 uv;",
		"out vec2 vWave_wavef;",
		"void main_Wave() {\n  vWave_wavef = uv * 2.0;\n}\n",
		"  main_Wave();\n  gl_Position = ",
	)
	if !slices.Contains(res.ActiveNodeIDs, "wavev") {
		t.Errorf("active = %v", res.ActiveNodeIDs)
	}
}

func TestCompileBackfill(t *testing.T) {
	checker := nodes.Source("checker", "Checker", graph.StageFragment, `#version 300 es
precision highp float;
in vec2 vUv;
out vec4 c;
void main() {
  c = vec4(step(0.5, fract(vUv * 4.0)), 0.0, 1.0);
}
`)
	checker.Backfill = &graph.Backfill{Type: "vec2", Name: "vUv"}
	img := nodes.Source("img", "Image", graph.StageFragment, `#version 300 es
precision highp float;
uniform sampler2D image;
in vec2 vUv;
out vec4 c;
void main() {
  c = texture(image, vUv * 2.0);
}
`)
	g := graph.New(
		append(outputs(), checker, img),
		[]graph.Edge{
			edge("e1", "checker", "img", "filler_image"),
			edge("e2", "img", "fout", "filler_frogFragOut"),
		},
	)
	res := compile(t, g)

	contains(t, res.FragmentText,
		"vec4 main_Checker(vec2 vUv) {",
		"frogOut = vec4(step(0.5, fract(vUv * 4.0)), 0.0, 1.0);",
		"frogOut = main_Checker(vUv * 2.0);",
	)
}

func TestCompileProduceFillerHook(t *testing.T) {
	engine := nodes.Engine()
	engine.Hooks["constant"] = compiler.NodeHooks{
		ProduceFiller: func(*compiler.EngineContext, *graph.SourceNode, *compiler.NodeContext) strategy.Filler {
			return func(dst *glsl.Program) glsl.Handle { return dst.NewCall("vec4", dst.NewFloat(0.25)) }
		},
	}
	constant := nodes.Expression("k", "Constant", "vec4(1.0)")
	constant.Type = "constant"
	g := graph.New(
		append(outputs(), constant),
		[]graph.Edge{edge("e1", "k", "fout", "filler_frogFragOut")},
	)
	res, err := compiler.CompileSource(context.Background(), g, compiler.NewContext(engine, compiler.Options{}))
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	contains(t, res.FragmentText, "frogFragOut = vec4(0.25);")
}

func TestCompilePropertyFiller(t *testing.T) {
	mapped := nodes.Source("mapped", "Mapped", graph.StageFragment, `#version 300 es
precision highp float;
in vec2 vUv;
out vec4 color;
void main() {
  color = texture(map, vUv);
}
`)
	mapped.Config.Uniforms = []graph.UniformDefinition{{Name: "map", Type: graph.DataTexture}}
	mapped.Config.Properties = []graph.NodeProperty{
		{DisplayName: "Map", Type: graph.DataTexture, Property: "map", FillerName: "uniform_map"},
	}
	mapped.Inputs = []graph.NodeInput{
		{ID: "property_map", Kind: graph.InputProperty, Property: "map", Baked: true},
	}
	g := graph.New(
		append(outputs(), mapped, nodes.Texture("tex", "Bricks", "bricks.png")),
		[]graph.Edge{
			edge("e1", "tex", "mapped", "property_map"),
			edge("e2", "mapped", "fout", "filler_frogFragOut"),
		},
	)
	res := compile(t, g)

	contains(t, res.FragmentText, "uniform sampler2D data_tex;", "frogOut = texture(data_tex, vUv);")
	if strings.Contains(res.FragmentText, "sampler2D map") {
		t.Errorf("property uniform still declared:\n%s", res.FragmentText)
	}
	if !slices.Contains(res.ActiveNodeIDs, "tex") {
		t.Errorf("active = %v", res.ActiveNodeIDs)
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestCompileStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		graph func() *graph.Graph
		want  error
	}{
		{
			name: "missing vertex output",
			graph: func() *graph.Graph {
				return graph.New([]graph.Node{nodes.Output("fout", graph.StageFragment)}, nil)
			},
			want: compiler.ErrMissingOutput,
		},
		{
			name: "unknown slot",
			graph: func() *graph.Graph {
				return graph.New(append(outputs(), nodes.Number("n", "n", 1)),
					[]graph.Edge{edge("e1", "n", "fout", "filler_nope")})
			},
			want: compiler.ErrMissingInput,
		},
		{
			name: "unknown producer",
			graph: func() *graph.Graph {
				return graph.New(outputs(), []graph.Edge{edge("e1", "ghost", "fout", "filler_frogFragOut")})
			},
			want: compiler.ErrUnknownNode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
			_, err := compiler.CompileSource(context.Background(), tt.graph(), ec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var se *compiler.StructuralError
			if !errors.As(err, &se) {
				t.Errorf("err %T is not a StructuralError", err)
			}
		})
	}
}

func TestCompileCycle(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
	}{
		{"fragment", "fout", "filler_frogFragOut"},
		{"vertex", "vout", "filler_gl_Position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(
				append(outputs(), nodes.Add("a"), nodes.Add("b")),
				[]graph.Edge{
					edge("e1", "a", "b", "filler_a"),
					edge("e2", "b", "a", "filler_a"),
					edge("e3", "a", tt.output, tt.input),
				},
			)
			ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
			_, err := compiler.CompileSource(context.Background(), g, ec)
			if !errors.Is(err, compiler.ErrCycle) {
				t.Fatalf("err = %v, want %v", err, compiler.ErrCycle)
			}
		})
	}
}

func TestCompileNodeError(t *testing.T) {
	g := graph.New(
		append(outputs(), nodes.Source("bad", "Bad", graph.StageFragment, "void main() { vec4 x = ; }")),
		[]graph.Edge{edge("e1", "bad", "fout", "filler_frogFragOut")},
	)
	ec := compiler.NewContext(nodes.Engine(), compiler.Options{})
	res, err := compiler.CompileSource(context.Background(), g, ec)
	if res != nil {
		t.Error("result returned with an error")
	}
	var nodeErr *compiler.NodeError
	if !errors.As(err, &nodeErr) || nodeErr.NodeID != "bad" {
		t.Errorf("err = %v, want NodeError for bad", err)
	}
}
