package graph

import (
	"slices"
	"strings"
	"testing"
)

const yamlGraph = `
nodes:
  - kind: source
    id: out
    name: Output
    type: output
    stage: fragment
    source: |
      out vec4 frogFragOut;
      void main() { frogFragOut = vec4(1.0); }
    config:
      version: 3
      strategies:
        - type: assignment_to
          target: frogFragOut
        - type: inject
          inject:
            name: mainStmts
            find: "frogFragOut ="
            mode: before
    inputs:
      - id: filler_frogFragOut
        displayName: Color
        kind: filler
        accepts: [code, data]
  - kind: data
    id: tint
    name: Tint
    type: rgb
    value: [1, 0.5, 0]
edges:
  - id: e1
    from: tint
    to: out
    output: out
    input: filler_frogFragOut
`

func TestDecodeYAML(t *testing.T) {
	g, err := Decode([]byte(yamlGraph), FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out := g.SourceNode("out")
	if out == nil {
		t.Fatal("source node missing")
	}
	if out.Stage != StageFragment || out.SourceType != SourceProgram {
		t.Errorf("stage %v, source type %v", out.Stage, out.SourceType)
	}
	if got := out.Config.Strategies; len(got) != 2 || got[0].Type != StrategyAssignmentTo ||
		got[1].Inject == nil || got[1].Inject.Mode != InjectBefore {
		t.Errorf("strategies = %+v", got)
	}
	if in := out.Inputs[0]; in.Kind != InputFiller || !in.AcceptsCategory(CategoryData) {
		t.Errorf("input = %+v", in)
	}

	tint, ok := g.Node("tint").(*DataNode)
	if !ok {
		t.Fatal("data node missing")
	}
	if v, ok := tint.Vector(); !ok || !slices.Equal(v, []float64{1, 0.5, 0}) {
		t.Errorf("tint value = %v", tint.Value)
	}
	if e, ok := g.EdgeInto("out", "filler_frogFragOut"); !ok || e.From != "tint" {
		t.Errorf("edge = %+v", e)
	}
}

func TestHashIgnoresFormat(t *testing.T) {
	g, err := Decode([]byte(yamlGraph), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	js, err := Encode(g, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(js), `"kind": "source"`) || !strings.Contains(string(js), `"type": "assignment_to"`) {
		t.Errorf("enums not encoded as text:\n%s", js)
	}
	fromJSON, err := Decode(js, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := Hash(g)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Hash(fromJSON)
	if h1 != h2 {
		t.Errorf("hash differs between formats: %s vs %s", h1, h2)
	}

	fromJSON.SourceNode("out").Source += "\n"
	if h3, _ := Hash(fromJSON); h3 == h1 {
		t.Error("hash ignores source text")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown kind", `{"nodes":[{"kind":"mystery","id":"a"}]}`, "unknown kind"},
		{"duplicate id", `{"nodes":[{"kind":"data","id":"a"},{"kind":"data","id":"a"}]}`, "duplicate node id"},
		{"bad stage", `{"nodes":[{"kind":"source","id":"a","stage":"geometry"}]}`, "unknown stage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), FormatJSON)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
