package evaluate

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/nodes"
)

func TestEvaluateNestedAdd(t *testing.T) {
	g := graph.New(
		[]graph.Node{
			nodes.Add("add1"),
			nodes.Add("add2"),
			nodes.Number("n5", "five", 5),
			nodes.Number("n7", "seven", 7),
			nodes.Number("n3", "three", 3),
		},
		[]graph.Edge{
			{ID: "e1", From: "n5", To: "add1", Output: "out", Input: "filler_a"},
			{ID: "e2", From: "n7", To: "add1", Output: "out", Input: "filler_b"},
			{ID: "e3", From: "add1", To: "add2", Output: "out", Input: "filler_a"},
			{ID: "e4", From: "n3", To: "add2", Output: "out", Input: "filler_b"},
		},
	)
	v, err := Evaluate(g, g.Node("add2"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if f, ok := v.Scalar(); !ok || f != 15 {
		t.Errorf("add(add(5, 7), 3) = %v, want 15", v)
	}
}

func TestEvaluateVectors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		a, b   *graph.DataNode
		want   Value
	}{
		{"component-wise", "a - b",
			nodes.Vector("a", "a", graph.DataVector3, 3, 2, 1),
			nodes.Vector("b", "b", graph.DataVector3, 1, 1, 1),
			Value{2, 1, 0}},
		{"scalar broadcast", "a * b",
			nodes.Color("a", "a", 1, 0.5, 0.25),
			nodes.Number("b", "b", 2),
			Value{2, 1, 0.5}},
		{"constructor", "vec2(a, b) / 2.0",
			nodes.Number("a", "a", 4),
			nodes.Number("b", "b", 8),
			Value{2, 4}},
		{"negation", "-a + b",
			nodes.Number("a", "a", 1),
			nodes.Number("b", "b", 3),
			Value{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(
				[]graph.Node{nodes.Expression("x", "x", tt.source), tt.a, tt.b},
				[]graph.Edge{
					{ID: "e1", From: "a", To: "x", Output: "out", Input: "filler_a"},
					{ID: "e2", From: "b", To: "x", Output: "out", Input: "filler_b"},
				},
			)
			got, err := Evaluate(g, g.Node("x"))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if !reflect.DeepEqual(tt.want, got) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	program := nodes.Source("p", "P", graph.StageFragment, "void main() {}")
	tests := []struct {
		name  string
		nodes []graph.Node
		edges []graph.Edge
		start string
	}{
		{"program node", []graph.Node{program}, nil, "p"},
		{"unconnected input", []graph.Node{nodes.Add("add")}, nil, "add"},
		{"texture", []graph.Node{nodes.Texture("t", "t", "noise.png")}, nil, "t"},
		{"size mismatch",
			[]graph.Node{
				nodes.Add("add"),
				nodes.Vector("a", "a", graph.DataVector2, 1, 2),
				nodes.Vector("b", "b", graph.DataVector3, 1, 2, 3),
			},
			[]graph.Edge{
				{ID: "e1", From: "a", To: "add", Output: "out", Input: "filler_a"},
				{ID: "e2", From: "b", To: "add", Output: "out", Input: "filler_b"},
			},
			"add"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(tt.nodes, tt.edges)
			_, err := Evaluate(g, g.Node(tt.start))
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("err = %v, want *EvaluationError", err)
			}
		})
	}
}

func TestNodeLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g := graph.New([]graph.Node{nodes.Add("add")}, nil)

	if v := Node(g, g.Node("add"), Options{Logger: logger}); v != nil {
		t.Errorf("value = %v, want nil", v)
	}
	if !strings.Contains(buf.String(), "node=add") {
		t.Errorf("log = %q", buf.String())
	}
}
