// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// Binding is one named entity of a scope with every node that declares
// it and every node that references it. A binding with no declarations
// is a free name: a built-in, or a name supplied by another program.
type Binding struct {
	Name  string
	Decls []Handle
	Refs  []Handle
}

// Declared reports whether the binding has at least one declaration.
func (b *Binding) Declared() bool { return len(b.Decls) > 0 }

// Index is an insertion-ordered set of bindings keyed by name.
type Index struct {
	byName map[string]*Binding
	order  []*Binding
}

func newIndex() *Index {
	return &Index{byName: make(map[string]*Binding)}
}

// Get returns the binding named name, or nil.
func (ix *Index) Get(name string) *Binding {
	return ix.byName[name]
}

// All returns bindings in first-seen order.
func (ix *Index) All() []*Binding {
	return ix.order
}

// Len returns the number of bindings.
func (ix *Index) Len() int { return len(ix.order) }

func (ix *Index) ensure(name string) *Binding {
	if b, ok := ix.byName[name]; ok {
		return b
	}
	b := &Binding{Name: name}
	ix.byName[name] = b
	ix.order = append(ix.order, b)
	return b
}

// rekey rebuilds the name lookup after bindings were renamed.
func (ix *Index) rekey() {
	ix.byName = make(map[string]*Binding, len(ix.order))
	for _, b := range ix.order {
		ix.byName[b.Name] = b
	}
}

// Scope is one lexical scope. Scopes[0] of a program is the global scope.
type Scope struct {
	Name      string
	Parent    *Scope
	Bindings  *Index
	Functions *Index
	Types     *Index
}

func newScope(name string, parent *Scope) *Scope {
	return &Scope{
		Name:      name,
		Parent:    parent,
		Bindings:  newIndex(),
		Functions: newIndex(),
		Types:     newIndex(),
	}
}

// Global returns the program's global scope, analyzing it first if needed.
func (p *Program) Global() *Scope {
	if len(p.Scopes) == 0 {
		Analyze(p)
	}
	return p.Scopes[0]
}

// Analyze rebuilds p.Scopes from the current tree.
func Analyze(p *Program) {
	a := &analyzer{prog: p}
	global := newScope("global", nil)
	a.global = global
	p.Scopes = []*Scope{global}
	for _, h := range p.Items {
		a.visit(h, global)
	}
}

type analyzer struct {
	prog   *Program
	global *Scope
}

func (a *analyzer) push(name string, parent *Scope) *Scope {
	s := newScope(name, parent)
	a.prog.Scopes = append(a.prog.Scopes, s)
	return s
}

// lookup finds name in s or an enclosing scope of kind sel.
func lookup(s *Scope, name string, sel func(*Scope) *Index) *Binding {
	for ; s != nil; s = s.Parent {
		if b := sel(s).Get(name); b != nil {
			return b
		}
	}
	return nil
}

func bindingsOf(s *Scope) *Index  { return s.Bindings }
func functionsOf(s *Scope) *Index { return s.Functions }
func typesOf(s *Scope) *Index     { return s.Types }

// reference records a use of name, creating a free global binding when
// no declaration is visible.
func (a *analyzer) reference(s *Scope, name string, h Handle, sel func(*Scope) *Index) {
	b := lookup(s, name, sel)
	if b == nil {
		b = sel(a.global).ensure(name)
	}
	b.Refs = append(b.Refs, h)
}

func (a *analyzer) declare(s *Scope, name string, h Handle, sel func(*Scope) *Index) {
	b := sel(s).ensure(name)
	b.Decls = append(b.Decls, h)
}

func (a *analyzer) visit(h Handle, s *Scope) {
	switch n := a.prog.Node(h).(type) {
	case nil:
		return

	case *Ident:
		a.reference(s, n.Name, h, bindingsOf)

	case *MemberExpr:
		a.visit(n.X, s)

	case *CallExpr:
		if id, ok := a.prog.Node(n.Func).(*Ident); ok {
			if lookup(s, id.Name, typesOf) != nil {
				a.reference(s, id.Name, n.Func, typesOf)
			} else {
				a.reference(s, id.Name, n.Func, functionsOf)
			}
		} else {
			a.visit(n.Func, s)
		}
		for _, arg := range n.Args {
			a.visit(arg, s)
		}

	case *TypeSpec:
		if n.Struct.Valid() {
			a.visit(n.Struct, s)
		} else if !IsBuiltinType(n.Name) {
			a.reference(s, n.Name, h, typesOf)
		}
		for _, d := range n.Array {
			a.visit(d, s)
		}

	case *StructSpec:
		if n.Name != "" {
			a.declare(s, n.Name, h, typesOf)
		}
		a.visitFields(n.Fields, s)

	case *DeclStmt:
		a.visitLayout(n.Layout, s)
		a.visit(n.Type, s)
		for _, dh := range n.Declarators {
			a.declarator(dh, s)
		}

	case *InterfaceBlock:
		a.visitLayout(n.Layout, s)
		a.visitFields(n.Fields, s)
		if n.Instance.Valid() {
			a.declarator(n.Instance, s)
		}

	case *QualifierDecl:
		a.visitLayout(n.Layout, s)
		for _, nh := range n.Names {
			a.visit(nh, s)
		}

	case *FunctionDecl:
		a.visit(n.Return, s)
		a.declare(s, n.Name, h, functionsOf)
		fs := a.push(n.Name, s)
		for _, ph := range n.Params {
			if param, ok := a.prog.Node(ph).(*Param); ok {
				a.visit(param.Type, fs)
				for _, d := range param.Array {
					a.visit(d, fs)
				}
				if param.Name != "" {
					a.declare(fs, param.Name, ph, bindingsOf)
				}
			}
		}
		if body, ok := a.prog.Node(n.Body).(*BlockStmt); ok {
			for _, st := range body.Stmts {
				a.visit(st, fs)
			}
		}

	case *BlockStmt:
		bs := a.push("block", s)
		for _, st := range n.Stmts {
			a.visit(st, bs)
		}

	case *ForStmt:
		fs := a.push("for", s)
		a.visit(n.Init, fs)
		a.visit(n.Cond, fs)
		a.visit(n.Post, fs)
		a.visit(n.Body, fs)

	default:
		// Statements and expressions without binding semantics of their own.
		n.refs(func(c *Handle) {
			a.visit(*c, s)
		})
	}
}

func (a *analyzer) declarator(h Handle, s *Scope) {
	d, ok := a.prog.Node(h).(*Declarator)
	if !ok {
		return
	}
	for _, dim := range d.Array {
		a.visit(dim, s)
	}
	a.visit(d.Init, s)
	a.declare(s, d.Name, h, bindingsOf)
}

// visitFields visits member types only; member names are not bindings.
func (a *analyzer) visitFields(fields []Handle, s *Scope) {
	for _, f := range fields {
		decl, ok := a.prog.Node(f).(*DeclStmt)
		if !ok {
			continue
		}
		a.visit(decl.Type, s)
		for _, dh := range decl.Declarators {
			if d, ok := a.prog.Node(dh).(*Declarator); ok {
				for _, dim := range d.Array {
					a.visit(dim, s)
				}
			}
		}
	}
}

func (a *analyzer) visitLayout(layout []LayoutID, s *Scope) {
	for _, id := range layout {
		a.visit(id.Value, s)
	}
}

// =============================================================================
// Renaming
// =============================================================================

// RenameRule returns the new name for a binding, or the current name to
// leave it untouched.
type RenameRule func(name string, b *Binding) string

// RenameBindings renames every variable binding of s.
func (p *Program) RenameBindings(s *Scope, rule RenameRule) {
	p.rename(s.Bindings, rule)
}

// RenameFunctions renames every function of s.
func (p *Program) RenameFunctions(s *Scope, rule RenameRule) {
	p.rename(s.Functions, rule)
}

// RenameTypes renames every struct type of s.
func (p *Program) RenameTypes(s *Scope, rule RenameRule) {
	p.rename(s.Types, rule)
}

func (p *Program) rename(ix *Index, rule RenameRule) {
	changed := false
	for _, b := range ix.All() {
		name := rule(b.Name, b)
		if name == b.Name {
			continue
		}
		p.RenameBinding(b, name)
		changed = true
	}
	if changed {
		ix.rekey()
	}
}

// RenameBinding rewrites every declaration and reference of b to name.
// The owning Index is not rekeyed.
func (p *Program) RenameBinding(b *Binding, name string) {
	for _, h := range b.Decls {
		p.SetName(h, name)
	}
	for _, h := range b.Refs {
		p.SetName(h, name)
	}
	b.Name = name
}

// SetName renames a single naming node.
func (p *Program) SetName(h Handle, name string) {
	switch n := p.Node(h).(type) {
	case *Ident:
		n.Name = name
	case *Declarator:
		n.Name = name
	case *Param:
		n.Name = name
	case *FunctionDecl:
		n.Name = name
	case *StructSpec:
		n.Name = name
	case *TypeSpec:
		n.Name = name
	}
}
