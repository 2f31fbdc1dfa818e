package graph

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"
)

// testGraph builds:
//
//	n5 ─┐
//	    ├─> add1 ─┐
//	n7 ─┘         ├─> add2 ─> frag ─> (fragment output)
//	n3 ───────────┘
//	vert (vertex output) <- vsrc, vsrc <-next-stage-> fsrc
func testGraph() *Graph {
	num := func(id string, v float64) *DataNode {
		return &DataNode{ID: id, Name: id, Type: DataNumber, Value: v,
			Outputs: []OutputSocket{{ID: "out", Name: "out", DataType: DataNumber}}}
	}
	binary := func(id string) *SourceNode {
		return &SourceNode{
			ID: id, Name: "Add", Type: TypeBinary, Source: "a + b",
			SourceType: SourceExpression,
			Config:     NodeConfig{Version: 3, Strategies: []Strategy{VariableStrategy()}},
			Inputs: []NodeInput{
				{ID: "a", DisplayName: "a", Kind: InputFiller, Accepts: []InputCategory{CategoryData, CategoryCode}},
				{ID: "b", DisplayName: "b", Kind: InputFiller, Accepts: []InputCategory{CategoryData, CategoryCode}},
			},
		}
	}
	return New(
		[]Node{
			&SourceNode{ID: "frag", Name: "Output", Type: TypeOutput, Stage: StageFragment,
				Inputs: []NodeInput{{ID: "filler_frogFragOut", DisplayName: "Color", Kind: InputFiller,
					Accepts: []InputCategory{CategoryCode, CategoryData}}}},
			&SourceNode{ID: "vert", Name: "Output", Type: TypeOutput, Stage: StageVertex,
				Inputs: []NodeInput{{ID: "filler_gl_Position", DisplayName: "Position", Kind: InputFiller,
					Accepts: []InputCategory{CategoryCode}}}},
			binary("add1"),
			binary("add2"),
			num("n5", 5), num("n7", 7), num("n3", 3),
			&SourceNode{ID: "vsrc", Name: "Wave", Stage: StageVertex, NextStageNodeID: "fsrc"},
			&SourceNode{ID: "fsrc", Name: "Wave", Stage: StageFragment, NextStageNodeID: "vsrc",
				Inputs: []NodeInput{{ID: "uniform_tint", DisplayName: "tint", Kind: InputUniform,
					Accepts: []InputCategory{CategoryData}, Property: "color"}}},
			&SourceNode{ID: "lonely", Name: "Unused"},
		},
		[]Edge{
			{ID: "e1", From: "n5", To: "add1", Output: "out", Input: "a"},
			{ID: "e2", From: "n7", To: "add1", Output: "out", Input: "b"},
			{ID: "e3", From: "add1", To: "add2", Output: "out", Input: "a"},
			{ID: "e4", From: "n3", To: "add2", Output: "out", Input: "b"},
			{ID: "e5", From: "add2", To: "frag", Output: "out", Input: "filler_frogFragOut"},
			{ID: "e6", From: "vsrc", To: "fsrc", Type: EdgeNextStage},
		},
	)
}

// =============================================================================
// Index
// =============================================================================

func TestIndexFollowsGeneration(t *testing.T) {
	g := testGraph()
	if g.Node("add1") == nil {
		t.Fatal("add1 not found")
	}
	gen := g.Generation()

	g.AddNode(&DataNode{ID: "n9", Type: DataNumber, Value: 9.0})
	if g.Generation() == gen {
		t.Error("AddNode did not advance the generation")
	}
	if g.Node("n9") == nil {
		t.Error("index not rebuilt after AddNode")
	}

	g.RemoveNode("add1")
	if g.Node("add1") != nil {
		t.Error("removed node still indexed")
	}
	if len(g.EdgesInto("add2")) != 1 {
		t.Errorf("edges into add2 = %d, want 1 after removing add1", len(g.EdgesInto("add2")))
	}

	// In-place edits are only visible after Touch.
	g.Edges[0].To = "frag"
	g.Touch()
	if _, ok := g.EdgeInto("frag", g.Edges[0].Input); !ok {
		t.Error("in-place edge edit not indexed after Touch")
	}
}

func TestOutputAndLinkedNodes(t *testing.T) {
	g := testGraph()
	if out := g.OutputNode(StageFragment); out == nil || out.ID != "frag" {
		t.Errorf("fragment output = %v", out)
	}
	if out := g.OutputNode(StageVertex); out == nil || out.ID != "vert" {
		t.Errorf("vertex output = %v", out)
	}
	if linked := g.LinkedNode(g.SourceNode("vsrc")); linked == nil || linked.ID != "fsrc" {
		t.Errorf("linked(vsrc) = %v", linked)
	}

	// The link may be expressed only through an edge.
	g.SourceNode("fsrc").NextStageNodeID = ""
	if linked := g.LinkedNode(g.SourceNode("fsrc")); linked == nil || linked.ID != "vsrc" {
		t.Errorf("linked(fsrc) via edge = %v", linked)
	}
}

// =============================================================================
// Query
// =============================================================================

func TestCollect(t *testing.T) {
	g := testGraph()
	frag := g.Node("frag")

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"everything", Query{}, []string{"frag", "add2", "add1", "n5", "n7", "n3"}},
		{"max depth 1", Query{MaxDepth: 1}, []string{"frag"}},
		{"max depth 2", Query{MaxDepth: 2}, []string{"frag", "add2"}},
		{
			"data nodes only",
			Query{Node: func(n Node) bool { _, ok := n.(*DataNode); return ok }},
			[]string{"n5", "n7", "n3"},
		},
		{
			"skip second operand",
			Query{Edge: func(e Edge, _ Node) bool { return e.Input != "b" }},
			[]string{"frag", "add2", "add1", "n5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(g, frag, tt.query).IDs()
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectCycle(t *testing.T) {
	g := testGraph()
	g.AddEdge(Edge{ID: "back", From: "add2", To: "add1", Output: "out", Input: "a"})

	want := []string{"frag", "add2", "add1", "n5", "n7", "n3"}
	if got := Collect(g, g.Node("frag"), Query{}).IDs(); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := ActiveNodes(g); !slices.Contains(got, "add1") {
		t.Errorf("active = %v", got)
	}
}

func TestCollectInputs(t *testing.T) {
	g := testGraph()
	res := Collect(g, g.Node("add2"), Query{
		Input: func(_ Node, in NodeInput, e *Edge) bool { return e != nil && in.ID == "b" },
	})
	if len(res.Inputs) != 2 || len(res.Inputs["add2"]) != 1 || len(res.Inputs["add1"]) != 1 {
		t.Errorf("unexpected inputs: %v", res.Inputs)
	}
}

func TestCollectDataInputs(t *testing.T) {
	g := testGraph()
	g.AddNode(&DataNode{ID: "tint", Name: "tint", Type: DataRGB, Value: []any{1.0, 0.5, 0.0}})
	g.AddEdge(Edge{ID: "e7", From: "tint", To: "fsrc", Output: "out", Input: "uniform_tint"})

	ids := func(got map[string][]NodeInput, id string) string {
		var out []string
		for _, in := range got[id] {
			out = append(out, in.ID)
		}
		return strings.Join(out, ",")
	}

	got := CollectDataInputs(g, g.Node("fsrc"))
	if ids(got, "fsrc") != "uniform_tint" || len(got) != 1 {
		t.Errorf("data inputs = %v", got)
	}

	// Filler slots always receive a literal, even from data nodes.
	if got := CollectDataInputs(g, g.Node("frag")); len(got) != 0 {
		t.Errorf("frag walk reported %v", got)
	}

	// A baked slot is no longer a runtime input.
	g.SourceNode("fsrc").Inputs[0].Baked = true
	if got := CollectDataInputs(g, g.Node("fsrc")); len(got) != 0 {
		t.Errorf("baked slot reported as data input: %v", got)
	}
}

func TestCollectProperties(t *testing.T) {
	g := testGraph()
	got := CollectProperties(g, g.Node("fsrc"))
	if len(got["fsrc"]) != 1 || got["fsrc"][0].Property != "color" {
		t.Errorf("properties = %v", got)
	}
}

func TestActiveNodes(t *testing.T) {
	g := testGraph()
	g.AddEdge(Edge{ID: "e7", From: "fsrc", To: "add1", Output: "out", Input: "a"})
	g.RemoveEdge("e1")

	got := ActiveNodes(g)
	for _, id := range []string{"frag", "add2", "add1", "fsrc", "vsrc", "n7", "n3", "vert"} {
		if !slices.Contains(got, id) {
			t.Errorf("%s missing from active set %v", id, got)
		}
	}
	for _, id := range []string{"lonely", "n5"} {
		if slices.Contains(got, id) {
			t.Errorf("%s should not be active", id)
		}
	}
}

// =============================================================================
// Id reset
// =============================================================================

func TestResetIDs(t *testing.T) {
	g := testGraph()
	reset := ResetIDs(g)

	if len(reset.Nodes) != len(g.Nodes) || len(reset.Edges) != len(g.Edges) {
		t.Fatalf("size changed: %d/%d nodes, %d/%d edges",
			len(reset.Nodes), len(g.Nodes), len(reset.Edges), len(g.Edges))
	}

	// Map new ids back to old ones by position and check that nothing
	// collides with the old id space.
	back := make(map[string]string)
	for i, n := range reset.Nodes {
		old := g.Nodes[i].NodeID()
		if n.NodeID() == old {
			t.Errorf("node %s kept its id", old)
		}
		if _, dup := back[n.NodeID()]; dup {
			t.Errorf("id %s assigned twice", n.NodeID())
		}
		if g.Node(n.NodeID()) != nil {
			t.Errorf("new id %s collides with an old one", n.NodeID())
		}
		back[n.NodeID()] = old
	}
	edgeIDs := make(map[string]bool)
	for i, e := range reset.Edges {
		if e.ID == g.Edges[i].ID || edgeIDs[e.ID] {
			t.Errorf("edge %d: id %s not fresh", i, e.ID)
		}
		edgeIDs[e.ID] = true
	}

	// Undoing the remap must give back the original graph exactly.
	undone := Clone(reset)
	for _, n := range undone.Nodes {
		switch n := n.(type) {
		case *SourceNode:
			n.ID = back[n.ID]
			if n.NextStageNodeID != "" {
				n.NextStageNodeID = back[n.NextStageNodeID]
			}
		case *DataNode:
			n.ID = back[n.ID]
		}
	}
	for i := range undone.Edges {
		undone.Edges[i].ID = g.Edges[i].ID
		undone.Edges[i].From = back[undone.Edges[i].From]
		undone.Edges[i].To = back[undone.Edges[i].To]
	}
	if !reflect.DeepEqual(g.Nodes, undone.Nodes) || !reflect.DeepEqual(g.Edges, undone.Edges) {
		deepequal.SideBySide(t, "nodes", g.Nodes, undone.Nodes)
		deepequal.SideBySide(t, "edges", g.Edges, undone.Edges)
		t.Fatal("reset graph is not isomorphic to the original")
	}

	// The original is untouched.
	if g.Node("add1") == nil || g.Edges[0].From != "n5" {
		t.Error("ResetIDs modified its input")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := testGraph()
	c := Clone(g)
	c.SourceNode("add1").Inputs[0].Accepts[0] = CategoryCode
	c.SourceNode("add1").Config.Strategies[0].Type = StrategyUniform
	if g.SourceNode("add1").Inputs[0].Accepts[0] != CategoryData {
		t.Error("clone shares input slices")
	}
	if g.SourceNode("add1").Config.Strategies[0].Type != StrategyVariable {
		t.Error("clone shares strategies")
	}
}
