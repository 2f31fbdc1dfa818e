package strategy

import (
	"slices"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

// NamedAttribute exposes every occurrence of one identifier, across every
// scope, as a single bakeable slot. References are replaced by the fill;
// parameters declaring the name take the fill's name when it is a plain
// identifier.
func NamedAttribute(prog *glsl.Program, name string) []Found {
	var refs, params []glsl.Handle
	for _, s := range prog.Scopes {
		b := s.Bindings.Get(name)
		if b == nil {
			continue
		}
		refs = append(refs, b.Refs...)
		for _, d := range b.Decls {
			if _, ok := prog.Node(d).(*glsl.Param); ok {
				params = append(params, d)
			}
		}
	}
	if len(refs) == 0 && len(params) == 0 {
		return nil
	}

	return []Found{{
		Input: graph.NodeInput{
			ID:          SlotID("filler", name),
			DisplayName: name,
			Kind:        graph.InputFiller,
			Accepts:     codeOrData(),
			Bakeable:    true,
		},
		Setter: func(fill Filler) {
			root := fill(prog)
			if id, ok := prog.Node(root).(*glsl.Ident); ok {
				for _, p := range params {
					prog.SetName(p, id.Name)
				}
			}
			for _, ref := range refs {
				prog.ReplaceWith(ref, prog, root)
			}
		},
	}}
}

// assignment is one `target = value` site: the handle of the value and of
// the statement holding it.
type assignment struct {
	value glsl.Handle
	stmt  glsl.Handle
	// owner is the node holding the value handle.
	owner glsl.Node
}

// AssignmentTo exposes the right-hand side of the index-th assignment or
// initializer of target, in document order.
func AssignmentTo(prog *glsl.Program, target string, index int) []Found {
	sites := assignments(prog, target, true)
	return valueSlot(prog, target, sites, index)
}

// DeclarationOf exposes the initializer of the index-th declaration of
// target.
func DeclarationOf(prog *glsl.Program, target string, index int) []Found {
	sites := assignments(prog, target, false)
	return valueSlot(prog, target, sites, index)
}

func valueSlot(prog *glsl.Program, target string, sites []assignment, index int) []Found {
	if index < 0 || index >= len(sites) {
		return nil
	}
	site := sites[index]
	return []Found{{
		Input: graph.NodeInput{
			ID:          SlotID("filler", target),
			DisplayName: target,
			Kind:        graph.InputFiller,
			Accepts:     codeOrData(),
		},
		Stmt: site.stmt,
		Setter: func(fill Filler) {
			root := fill(prog)
			switch n := site.owner.(type) {
			case *glsl.AssignExpr:
				n.Right = root
			case *glsl.Declarator:
				n.Init = root
			}
		},
	}}
}

// assignments lists initializers of target and, when withAssign is set,
// plain `=` assignments to it.
func assignments(prog *glsl.Program, target string, withAssign bool) []assignment {
	var sites []assignment
	var visit func(h, stmt glsl.Handle)
	visit = func(h, stmt glsl.Handle) {
		prog.Walk(h, func(ch glsl.Handle, n glsl.Node) bool {
			if _, isStmt := n.(glsl.Stmt); isStmt && ch != h {
				visit(ch, ch)
				return false
			}
			switch n := n.(type) {
			case *glsl.Declarator:
				if n.Name == target && n.Init.Valid() {
					sites = append(sites, assignment{value: n.Init, stmt: stmt, owner: n})
				}
			case *glsl.AssignExpr:
				if !withAssign || n.Op != glsl.TokenEqual {
					break
				}
				if id, ok := prog.Node(n.Left).(*glsl.Ident); ok && id.Name == target {
					sites = append(sites, assignment{value: n.Right, stmt: stmt, owner: n})
				}
			}
			return true
		})
	}
	for _, h := range prog.Items {
		visit(h, h)
	}
	return sites
}

// Variable exposes every variable name of every scope as its own slot;
// references to the name in any scope are replaced together. Names
// reserved by GLSL are skipped.
func Variable(prog *glsl.Program) []Found {
	var order []string
	refs := make(map[string][]glsl.Handle)
	for _, s := range prog.Scopes {
		for _, b := range s.Bindings.All() {
			if glsl.IsReservedName(b.Name) || len(b.Refs) == 0 {
				continue
			}
			if _, seen := refs[b.Name]; !seen {
				order = append(order, b.Name)
			}
			refs[b.Name] = append(refs[b.Name], b.Refs...)
		}
	}

	found := make([]Found, 0, len(order))
	for _, name := range order {
		handles := slices.Clone(refs[name])
		found = append(found, Found{
			Input: graph.NodeInput{
				ID:          SlotID("filler", name),
				DisplayName: name,
				Kind:        graph.InputFiller,
				Accepts:     codeOrData(),
				Bakeable:    true,
			},
			Setter: func(fill Filler) {
				root := fill(prog)
				for _, ref := range handles {
					prog.ReplaceWith(ref, prog, root)
				}
			},
		})
	}
	return found
}

// HardCode reports the given inputs unchanged. Their setters leave the
// program as it is.
func HardCode(inputs []graph.NodeInput) []Found {
	found := make([]Found, len(inputs))
	for i, in := range inputs {
		found[i] = Found{Input: in, Setter: func(Filler) {}}
	}
	return found
}
