package strategy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

// Inject matches cfg.Find against the printed text of every statement
// directly inside a function body. Filling replaces the matches, or
// inserts the fill before or after them, for at most cfg.Count matches in
// document order. Edits are applied last match first.
func Inject(prog *glsl.Program, cfg graph.Inject) ([]Found, error) {
	if cfg.Find == "" {
		return nil, fmt.Errorf("inject %q: empty search text", cfg.Name)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("inject: missing slot name")
	}

	var matches []glsl.Handle
	for _, h := range prog.Items {
		fn, ok := prog.Node(h).(*glsl.FunctionDecl)
		if !ok {
			continue
		}
		body, ok := prog.Node(fn.Body).(*glsl.BlockStmt)
		if !ok {
			continue
		}
		for _, st := range body.Stmts {
			if strings.Contains(glsl.GenerateNode(prog, st), cfg.Find) {
				matches = append(matches, st)
			}
		}
	}
	if cfg.Count > 0 && len(matches) > cfg.Count {
		matches = matches[:cfg.Count]
	}
	if len(matches) == 0 {
		return nil, nil
	}

	var stmt glsl.Handle
	if len(matches) == 1 {
		stmt = matches[0]
	}
	return []Found{{
		Input: graph.NodeInput{
			ID:          cfg.Name,
			DisplayName: cfg.Name,
			Kind:        graph.InputFiller,
			Accepts:     codeOnly(),
		},
		Stmt: stmt,
		Setter: func(fill Filler) {
			for _, m := range slices.Backward(matches) {
				stmts := statements(prog, fill(prog))
				switch cfg.Mode {
				case graph.InjectBefore:
					prog.InsertBefore(m, stmts...)
				case graph.InjectAfter:
					prog.InsertAfter(m, stmts...)
				default:
					prog.ReplaceStmt(m, stmts...)
				}
			}
		},
	}}, nil
}
