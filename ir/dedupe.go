package ir

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/shadergraph/glsl"
)

// DedupeVersion keeps the first #version directive.
func DedupeVersion(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	return items[:1]
}

// DedupePrecision emits one precision statement per type carrying the
// highest qualifier seen for it, in first-seen type order.
func DedupePrecision(out *glsl.Program, items []Item) []glsl.Handle {
	best := make(map[string]string)
	var order []string
	for _, it := range items {
		p, ok := it.Node().(*glsl.PrecisionStmt)
		if !ok {
			continue
		}
		cur, seen := best[p.Type]
		if !seen {
			order = append(order, p.Type)
		}
		if !seen || glsl.PrecisionRank(p.Qualifier) > glsl.PrecisionRank(cur) {
			best[p.Type] = p.Qualifier
		}
	}
	return lo.Map(order, func(typ string, _ int) glsl.Handle {
		return out.Add(&glsl.PrecisionStmt{Qualifier: best[typ], Type: typ})
	})
}

// DedupeQualified merges in or out declarations sharing layout, qualifiers
// and type into one declaration whose names are the union of all names.
func DedupeQualified(out *glsl.Program, items []Item) []glsl.Handle {
	decls := lo.Filter(items, func(it Item, _ int) bool {
		_, ok := it.Node().(*glsl.DeclStmt)
		return ok
	})
	keyOf := func(it Item) string {
		d := it.Node().(*glsl.DeclStmt)
		return declKey(it.Prog, d)
	}
	keys := lo.Uniq(lo.Map(decls, func(it Item, _ int) string { return keyOf(it) }))
	groups := lo.GroupBy(decls, keyOf)

	var handles []glsl.Handle
	for _, key := range keys {
		group := groups[key]
		first := group[0]
		seen := make(map[string]bool)
		var declarators []glsl.Handle
		for _, it := range group {
			d := it.Node().(*glsl.DeclStmt)
			for _, dh := range d.Declarators {
				name := it.Prog.Node(dh).(*glsl.Declarator).Name
				if seen[name] {
					continue
				}
				seen[name] = true
				declarators = append(declarators, out.Graft(it.Prog, dh))
			}
		}
		handles = append(handles, rebuildDecl(out, first, declarators))
	}
	// Anything that is not a plain declaration passes through.
	for _, it := range items {
		if _, ok := it.Node().(*glsl.DeclStmt); !ok {
			handles = append(handles, out.Graft(it.Prog, it.Stmt))
		}
	}
	return handles
}

func declKey(prog *glsl.Program, d *glsl.DeclStmt) string {
	return glsl.DeclarationHead(prog, d)
}

// rebuildDecl copies the head of first (layout, qualifiers, type) into out
// with the given declarators.
func rebuildDecl(out *glsl.Program, first Item, declarators []glsl.Handle) glsl.Handle {
	d := first.Node().(*glsl.DeclStmt)
	layout := lo.Map(d.Layout, func(id glsl.LayoutID, _ int) glsl.LayoutID {
		return glsl.LayoutID{Name: id.Name, Value: out.Graft(first.Prog, id.Value)}
	})
	return out.Add(&glsl.DeclStmt{
		Layout:      layout,
		Qualifiers:  slices.Clone(d.Qualifiers),
		Type:        out.Graft(first.Prog, d.Type),
		Declarators: declarators,
	})
}

// uniformGroup collects every uniform sharing one type or block name.
type uniformGroup struct {
	// first plain declaration; supplies layout, qualifiers and type
	head *Item
	// declarator per variable name, last seen wins; order is first seen
	names map[string]Item
	order []string
	// interface blocks by instance name ("" when unnamed), last seen wins
	blocks     map[string]Item
	blockOrder []string
}

// DedupeUniforms merges uniform declarations. Plain declarations of one
// type are combined into a single declaration; a repeated name keeps the
// last declarator seen, including its array size. An interface block
// replaces every plain declaration of the same type name regardless of
// order.
func DedupeUniforms(out *glsl.Program, items []Item) ([]glsl.Handle, error) {
	groups := make(map[string]*uniformGroup)
	var order []string
	group := func(key string) *uniformGroup {
		g, ok := groups[key]
		if !ok {
			g = &uniformGroup{names: make(map[string]Item), blocks: make(map[string]Item)}
			groups[key] = g
			order = append(order, key)
		}
		return g
	}

	for _, it := range items {
		switch n := it.Node().(type) {
		case *glsl.DeclStmt:
			t, ok := it.Prog.Node(n.Type).(*glsl.TypeSpec)
			if !ok || t.Struct.Valid() {
				return nil, fmt.Errorf("unsupported uniform declaration %q", it)
			}
			g := group(glsl.TypeString(it.Prog, n.Type))
			if g.head == nil {
				head := it
				g.head = &head
			}
			for _, dh := range n.Declarators {
				name := it.Prog.Node(dh).(*glsl.Declarator).Name
				if _, seen := g.names[name]; !seen {
					g.order = append(g.order, name)
				}
				g.names[name] = Item{Prog: it.Prog, Stmt: dh}
			}

		case *glsl.InterfaceBlock:
			g := group(n.Name)
			var instance string
			if d, ok := it.Prog.Node(n.Instance).(*glsl.Declarator); ok {
				instance = d.Name
			}
			if _, seen := g.blocks[instance]; !seen {
				g.blockOrder = append(g.blockOrder, instance)
			}
			g.blocks[instance] = it

		default:
			return nil, fmt.Errorf("unsupported uniform declaration %q", it)
		}
	}

	handles := make([]glsl.Handle, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if len(g.blocks) > 0 {
			for _, instance := range g.blockOrder {
				b := g.blocks[instance]
				handles = append(handles, out.Graft(b.Prog, b.Stmt))
			}
			continue
		}
		declarators := lo.Map(g.order, func(name string, _ int) glsl.Handle {
			d := g.names[name]
			return out.Graft(d.Prog, d.Stmt)
		})
		handles = append(handles, rebuildDecl(out, *g.head, declarators))
	}
	return handles, nil
}
