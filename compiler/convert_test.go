package compiler

import (
	"testing"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

func TestUpgradeES3Fragment(t *testing.T) {
	prog := parseProgram(t, `#version 100
precision mediump float;
varying vec2 vUv;
uniform sampler2D image;
void main() {
  gl_FragColor = texture2D(image, vUv);
}
`)
	UpgradeES3(prog, graph.StageFragment)
	out := glsl.Generate(prog)

	assertContains(t, out,
		"precision mediump float;\nout vec4 frogFragOut;\n",
		"in vec2 vUv;",
		"frogFragOut = texture(image, vUv);",
	)
	assertNotContains(t, out, "#version", "varying", "texture2D", "gl_FragColor")
}

func TestUpgradeES3Vertex(t *testing.T) {
	prog := parseProgram(t, `attribute vec3 position;
varying vec2 vUv;
void main() {
  vUv = position.xy;
  gl_Position = vec4(position, 1.0);
}
`)
	UpgradeES3(prog, graph.StageVertex)
	out := glsl.Generate(prog)

	assertContains(t, out, "in vec3 position;", "out vec2 vUv;", "gl_Position = vec4(position, 1.0);")
	assertNotContains(t, out, "frogFragOut")
}

func TestConvertReturnFragment(t *testing.T) {
	prog := parseProgram(t, `out vec4 color;
void main() {
  if (gl_FragCoord.x < 0.5) {
    color = vec4(0.0);
    return;
  }
  color = vec4(1.0);
}
`)
	if !ConvertReturn(prog, graph.StageFragment) {
		t.Fatal("main not converted")
	}
	want := `vec4 main() {
  vec4 frogOut;
  if (gl_FragCoord.x < 0.5) {
    frogOut = vec4(0.0);
    return frogOut;
  }
  frogOut = vec4(1.0);
  return frogOut;
}
`
	if got := glsl.Generate(prog); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestConvertReturnVertex(t *testing.T) {
	prog := parseProgram(t, `in vec3 position;
void main() {
  gl_Position = vec4(position, 1.0);
}
`)
	if !ConvertReturn(prog, graph.StageVertex) {
		t.Fatal("main not converted")
	}
	assertContains(t, glsl.Generate(prog),
		"in vec3 position;",
		"vec4 main() {",
		"frogOut = vec4(position, 1.0);",
		"return frogOut;",
	)
}

func TestConvertReturnSkips(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"returns value", "vec4 main() {\n  return vec4(1.0);\n}\n"},
		{"no output write", "out vec4 color;\nvoid main() {\n  float x = 1.0;\n}\n"},
		{"no main", "float f() {\n  return 1.0;\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := parseProgram(t, tt.source)
			if ConvertReturn(prog, graph.StageFragment) {
				t.Errorf("converted:\n%s", glsl.Generate(prog))
			}
			if got := glsl.Generate(prog); got != tt.source {
				t.Errorf("program changed:\n%s", got)
			}
		})
	}
}
