// Package evaluate computes the numeric value of literal data nodes and of
// the expression nodes fed by them, for editors that preview values
// without compiling a shader.
package evaluate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/strategy"
)

// Value is a scalar (one component) or the components of a vector.
type Value []float64

// Scalar returns the value of a one component Value.
func (v Value) Scalar() (float64, bool) {
	if len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// EvaluationError reports a node that has no numeric value.
type EvaluationError struct {
	NodeID string
	Reason string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate node %s: %s", e.NodeID, e.Reason)
}

// Options configures Node.
type Options struct {
	// Logger receives EvaluationErrors; nil uses slog.Default.
	Logger *slog.Logger
}

// Node evaluates n. Failures are logged and yield nil.
func Node(g *graph.Graph, n graph.Node, opts Options) Value {
	v, err := Evaluate(g, n)
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("node has no value", "node", n.NodeID(), "err", err)
		return nil
	}
	return v
}

// Evaluate returns the value of a data node, or of an expression node
// whose variables are fed by evaluable nodes.
func Evaluate(g *graph.Graph, n graph.Node) (Value, error) {
	e := &evaluator{g: g, active: make(map[string]bool)}
	return e.node(n)
}

type evaluator struct {
	g      *graph.Graph
	active map[string]bool
}

func (e *evaluator) node(n graph.Node) (Value, error) {
	switch n := n.(type) {
	case *graph.DataNode:
		v, ok := n.Vector()
		if !ok {
			return nil, &EvaluationError{NodeID: n.ID, Reason: fmt.Sprintf("%s value %v is not numeric", n.Type, n.Value)}
		}
		return v, nil

	case *graph.SourceNode:
		if n.SourceType != graph.SourceExpression {
			return nil, &EvaluationError{NodeID: n.ID, Reason: fmt.Sprintf("%s source has no value", n.SourceType)}
		}
		if e.active[n.ID] {
			return nil, &EvaluationError{NodeID: n.ID, Reason: "cycle"}
		}
		e.active[n.ID] = true
		defer delete(e.active, n.ID)

		prog, err := glsl.Parse(n.Source, glsl.ParseOptions{Mode: glsl.ModeExpression})
		if err != nil {
			return nil, &EvaluationError{NodeID: n.ID, Reason: err.Error()}
		}
		st, ok := prog.Node(prog.Items[0]).(*glsl.ExprStmt)
		if !ok {
			return nil, &EvaluationError{NodeID: n.ID, Reason: "not an expression"}
		}
		return e.expr(n, prog, st.X)
	}
	panic(fmt.Sprintf("evaluate: unexpected node type %T", n))
}

func (e *evaluator) expr(n *graph.SourceNode, prog *glsl.Program, h glsl.Handle) (Value, error) {
	switch x := prog.Node(h).(type) {
	case *glsl.Literal:
		if x.Kind == glsl.TokenBoolLiteral {
			break
		}
		f, err := strconv.ParseFloat(strings.TrimRight(x.Value, "uUfF"), 64)
		if err != nil {
			return nil, &EvaluationError{NodeID: n.ID, Reason: err.Error()}
		}
		return Value{f}, nil

	case *glsl.Ident:
		return e.input(n, x.Name)

	case *glsl.UnaryExpr:
		v, err := e.expr(n, prog, x.Operand)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case glsl.TokenPlus:
			return v, nil
		case glsl.TokenMinus:
			out := make(Value, len(v))
			for i, c := range v {
				out[i] = -c
			}
			return out, nil
		}

	case *glsl.BinaryExpr:
		l, err := e.expr(n, prog, x.Left)
		if err != nil {
			return nil, err
		}
		r, err := e.expr(n, prog, x.Right)
		if err != nil {
			return nil, err
		}
		v, err := apply(x.Op, l, r)
		if err != nil {
			return nil, &EvaluationError{NodeID: n.ID, Reason: err.Error()}
		}
		return v, nil

	case *glsl.CallExpr:
		// Vector constructors concatenate their arguments.
		t, ok := prog.Node(x.Func).(*glsl.TypeSpec)
		if !ok || !strings.HasPrefix(t.Name, "vec") {
			break
		}
		var out Value
		for _, a := range x.Args {
			v, err := e.expr(n, prog, a)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		}
		return out, nil
	}
	return nil, &EvaluationError{NodeID: n.ID, Reason: fmt.Sprintf("cannot evaluate %q", glsl.GenerateNode(prog, h))}
}

// input evaluates the producer connected to the slot of variable name.
func (e *evaluator) input(n *graph.SourceNode, name string) (Value, error) {
	id := strategy.SlotID("filler", name)
	if to, ok := n.Config.InputMapping[id]; ok {
		id = to
	}
	edge, ok := e.g.EdgeInto(n.ID, id)
	if !ok {
		return nil, &EvaluationError{NodeID: n.ID, Reason: fmt.Sprintf("input %s is not connected", id)}
	}
	from := e.g.Node(edge.From)
	if from == nil {
		return nil, &EvaluationError{NodeID: n.ID, Reason: fmt.Sprintf("unknown producer %s", edge.From)}
	}
	return e.node(from)
}

// apply folds op component-wise. A scalar operand is broadcast.
func apply(op glsl.TokenKind, l, r Value) (Value, error) {
	size := max(len(l), len(r))
	if (len(l) != size && len(l) != 1) || (len(r) != size && len(r) != 1) {
		return nil, fmt.Errorf("mismatched sizes %d and %d", len(l), len(r))
	}
	at := func(v Value, i int) float64 {
		if len(v) == 1 {
			return v[0]
		}
		return v[i]
	}
	out := make(Value, size)
	for i := range out {
		a, b := at(l, i), at(r, i)
		switch op {
		case glsl.TokenPlus:
			out[i] = a + b
		case glsl.TokenMinus:
			out[i] = a - b
		case glsl.TokenStar:
			out[i] = a * b
		case glsl.TokenSlash:
			if b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out[i] = a / b
		default:
			return nil, fmt.Errorf("operator %s", op)
		}
	}
	return out, nil
}
