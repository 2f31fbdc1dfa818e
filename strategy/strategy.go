package strategy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

// Filler builds the AST fragment that fills a slot. It adds the fragment
// to dst and returns its root. A Filler may be called more than once and
// must build a fresh copy on every call.
type Filler func(dst *glsl.Program) glsl.Handle

// Setter splices the result of a Filler into the program the slot was
// found in.
type Setter func(fill Filler)

// Found is one input slot discovered in a program.
type Found struct {
	Input  graph.NodeInput
	Setter Setter

	// Args are the call arguments replaced by the fill, available to
	// backfill the producer. Handles address the program the slot was
	// found in.
	Args []glsl.Handle
	// Stmt is the statement holding the slot, when there is one.
	Stmt glsl.Handle
}

// Apply runs one strategy over prog. Names are matched before mangling.
// sibling is the node's next-stage counterpart and may be nil.
func Apply(cfg graph.Strategy, prog *glsl.Program, node, sibling *graph.SourceNode) ([]Found, error) {
	switch cfg.Type {
	case graph.StrategyUniform:
		return Uniform(prog), nil
	case graph.StrategyTexture:
		return Texture(prog), nil
	case graph.StrategyNamedAttribute:
		return NamedAttribute(prog, cfg.Target), nil
	case graph.StrategyAssignmentTo:
		return AssignmentTo(prog, cfg.Target, cfg.Index), nil
	case graph.StrategyDeclarationOf:
		return DeclarationOf(prog, cfg.Target, cfg.Index), nil
	case graph.StrategyVariable:
		return Variable(prog), nil
	case graph.StrategyInject:
		if cfg.Inject == nil {
			return nil, fmt.Errorf("inject strategy without configuration")
		}
		return Inject(prog, *cfg.Inject)
	case graph.StrategyHardCode:
		return HardCode(cfg.Inputs), nil
	}
	return nil, fmt.Errorf("unknown strategy %v", cfg.Type)
}

// FindInputs runs every strategy configured on node in order. When two
// strategies report the same slot id the first one wins.
func FindInputs(prog *glsl.Program, node, sibling *graph.SourceNode) ([]Found, error) {
	var all []Found
	for _, cfg := range node.Config.Strategies {
		found, err := Apply(cfg, prog, node, sibling)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", cfg.Type, err)
		}
		all = append(all, found...)
	}
	return lo.UniqBy(all, func(f Found) string { return f.Input.ID }), nil
}

// Inputs returns the slot descriptions of found.
func Inputs(found []Found) []graph.NodeInput {
	return lo.Map(found, func(f Found, _ int) graph.NodeInput { return f.Input })
}

// SlotID builds a slot id from a prefix and a display name.
func SlotID(prefix, name string) string {
	return prefix + "_" + Sanitize(name)
}

// Sanitize collapses every run of characters that cannot appear in a GLSL
// identifier into one underscore.
func Sanitize(s string) string {
	var sb strings.Builder
	pending := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	return sb.String()
}

func codeOrData() []graph.InputCategory {
	return []graph.InputCategory{graph.CategoryCode, graph.CategoryData}
}

func codeOnly() []graph.InputCategory {
	return []graph.InputCategory{graph.CategoryCode}
}

// replaceExpr swaps the expression at h for a fresh fill.
func replaceExpr(prog *glsl.Program, h glsl.Handle, fill Filler) {
	root := fill(prog)
	prog.Replace(h, prog.Node(root))
}

// statements turns a filled handle into statements: expressions become
// expression statements and statement lists are flattened.
func statements(prog *glsl.Program, h glsl.Handle) []glsl.Handle {
	switch n := prog.Node(h).(type) {
	case *glsl.StmtList:
		return n.Stmts
	case glsl.Stmt:
		return []glsl.Handle{h}
	}
	return []glsl.Handle{prog.NewExprStmt(h)}
}
