package shadergraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/nodes"
)

// noiseSource is a full fragment program with helper functions, uniforms
// and a texture sample.
const noiseSource = `#version 300 es
precision highp float;

uniform float time;
uniform float scale;
uniform sampler2D noiseMap;
in vec2 vUv;
out vec4 fragColor;

float hash(vec2 p) {
  return fract(sin(dot(p, vec2(12.9898, 78.233))) * 43758.5453);
}

float noise(vec2 p) {
  vec2 i = floor(p);
  vec2 f = fract(p);
  float a = hash(i);
  float b = hash(i + vec2(1.0, 0.0));
  return mix(a, b, f.x);
}

void main() {
  float n = noise(vUv * scale + time);
  fragColor = vec4(vec3(n), 1.0) * texture(noiseMap, vUv);
}
`

// chainGraph feeds count noise nodes through a chain of additions.
func chainGraph(count int) *graph.Graph {
	g := graph.New(
		[]graph.Node{nodes.Output("out", graph.StageFragment), nodes.Output("vert", graph.StageVertex)},
		nil,
	)
	prev := ""
	for i := range count {
		id := fmt.Sprintf("noise%d", i)
		g.AddNode(nodes.Source(id, fmt.Sprintf("Noise %d", i), graph.StageFragment, noiseSource))
		if prev == "" {
			prev = id
			continue
		}
		add := fmt.Sprintf("add%d", i)
		g.AddNode(nodes.Add(add))
		g.AddEdge(graph.Edge{ID: add + "a", From: prev, To: add, Output: "out", Input: "filler_a"})
		g.AddEdge(graph.Edge{ID: add + "b", From: id, To: add, Output: "out", Input: "filler_b"})
		prev = add
	}
	g.AddEdge(graph.Edge{ID: "final", From: prev, To: "out", Output: "out", Input: "filler_frogFragOut"})
	return g
}

func BenchmarkCompile(b *testing.B) {
	for _, count := range []int{1, 8, 32} {
		b.Run(fmt.Sprintf("nodes=%d", count), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := Compile(context.Background(), chainGraph(count)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(noiseSource)))
	for b.Loop() {
		if _, err := glsl.Parse(noiseSource, glsl.ParseOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	prog, err := glsl.Parse(noiseSource, glsl.ParseOptions{})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = glsl.Generate(prog)
	}
}
