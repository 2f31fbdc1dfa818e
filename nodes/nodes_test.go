package nodes

import (
	"reflect"
	"slices"
	"testing"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/graph"
)

func TestBinary(t *testing.T) {
	tests := []struct {
		count  int
		source string
		slots  []string
	}{
		{0, "a - b", []string{"filler_a", "filler_b"}},
		{3, "a - b - c", []string{"filler_a", "filler_b", "filler_c"}},
	}
	for _, tt := range tests {
		n := Binary("sub", "Subtract", "-", tt.count)
		if n.Source != tt.source {
			t.Errorf("Binary(%d) source = %q, want %q", tt.count, n.Source, tt.source)
		}
		var ids []string
		for _, in := range n.Inputs {
			ids = append(ids, in.ID)
		}
		if !reflect.DeepEqual(tt.slots, ids) {
			t.Errorf("Binary(%d) slots = %v, want %v", tt.count, ids, tt.slots)
		}
	}
	if n := Binary("big", "Big", "+", 100); len(n.Inputs) != 26 {
		t.Errorf("Binary(100) has %d slots", len(n.Inputs))
	}
}

func TestOutput(t *testing.T) {
	frag := Output("f", graph.StageFragment)
	if frag.Type != graph.TypeOutput || !frag.Config.NoMangle {
		t.Errorf("fragment output = %+v", frag)
	}
	if _, ok := frag.Input("filler_" + compiler.FragmentOutput); !ok {
		t.Error("fragment output has no color slot")
	}

	vert := Output("v", graph.StageVertex)
	if _, ok := vert.Input(compiler.MainStatements); !ok {
		t.Error("vertex output has no main statements slot")
	}
	g := graph.New([]graph.Node{frag, vert}, nil)
	if g.OutputNode(graph.StageFragment) != frag || g.OutputNode(graph.StageVertex) != vert {
		t.Error("outputs not found by stage")
	}
}

func TestLink(t *testing.T) {
	v := Source("v", "Wave", graph.StageVertex, "void main() {}")
	f := Source("f", "Wave", graph.StageFragment, "void main() {}")
	Link(v, f)
	g := graph.New([]graph.Node{v, f}, nil)
	if g.LinkedNode(v) != f || g.LinkedNode(f) != v {
		t.Error("nodes not linked both ways")
	}
}

func TestEngine(t *testing.T) {
	e := Engine("mapTexelToLinear")
	for _, name := range []string{"position", compiler.FragmentOutput, "mapTexelToLinear"} {
		if !slices.Contains(e.Preserve, name) {
			t.Errorf("%s not preserved", name)
		}
	}
	if len(Engine().Preserve) != len(DefaultPreserve) {
		t.Error("default engine preserve list differs from DefaultPreserve")
	}
}
