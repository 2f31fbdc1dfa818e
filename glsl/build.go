package glsl

import (
	"slices"
	"strconv"
)

// NewIdent adds an identifier node.
func (p *Program) NewIdent(name string) Handle {
	return p.Add(&Ident{Name: name})
}

// NewCall adds a call. Built-in type names produce a constructor call.
func (p *Program) NewCall(name string, args ...Handle) Handle {
	var fn Handle
	if IsBuiltinType(name) {
		fn = p.Add(&TypeSpec{Name: name})
	} else {
		fn = p.NewIdent(name)
	}
	return p.Add(&CallExpr{Func: fn, Args: slices.Clone(args)})
}

// NewFloat adds a float literal.
func (p *Program) NewFloat(f float64) Handle {
	return p.Add(&Literal{Kind: TokenFloatLiteral, Value: FormatFloat(f)})
}

// NewInt adds an integer literal.
func (p *Program) NewInt(i int64) Handle {
	return p.Add(&Literal{Kind: TokenIntLiteral, Value: strconv.FormatInt(i, 10)})
}

// NewBool adds a boolean literal.
func (p *Program) NewBool(b bool) Handle {
	return p.Add(&Literal{Kind: TokenBoolLiteral, Value: strconv.FormatBool(b)})
}

// NewExprStmt wraps x in a statement.
func (p *Program) NewExprStmt(x Handle) Handle {
	return p.Add(&ExprStmt{X: x})
}

// NewAssign adds `left = right`.
func (p *Program) NewAssign(left, right Handle) Handle {
	return p.Add(&AssignExpr{Left: left, Op: TokenEqual, Right: right})
}

// NewReturn adds a return statement.
func (p *Program) NewReturn(x Handle) Handle {
	return p.Add(&ReturnStmt{Value: x})
}

// NewDecl adds `quals typ name = init;`. init may be NoHandle.
func (p *Program) NewDecl(quals []string, typ, name string, init Handle) Handle {
	t := p.Add(&TypeSpec{Name: typ})
	d := p.Add(&Declarator{Name: name, Init: init})
	return p.Add(&DeclStmt{Qualifiers: quals, Type: t, Declarators: []Handle{d}})
}

// NewParam adds a function parameter.
func (p *Program) NewParam(typ, name string) Handle {
	t := p.Add(&TypeSpec{Name: typ})
	return p.Add(&Param{Type: t, Name: name})
}

// =============================================================================
// Lookup
// =============================================================================

// Function returns the first definition (not prototype) of the named
// top-level function.
func (p *Program) Function(name string) (Handle, *FunctionDecl) {
	for _, h := range p.Items {
		if fn, ok := p.Node(h).(*FunctionDecl); ok && fn.Name == name && fn.Body.Valid() {
			return h, fn
		}
	}
	return NoHandle, nil
}

// TypeName returns the printed type of a TypeSpec handle.
func (p *Program) TypeName(h Handle) string {
	t, ok := p.Node(h).(*TypeSpec)
	if !ok {
		return ""
	}
	if s, ok := p.Node(t.Struct).(*StructSpec); ok {
		return s.Name
	}
	return t.Name
}

// =============================================================================
// Statement list edits
// =============================================================================

// StmtListOf returns the statement list holding h: the program items or
// the body of a block, statement list or switch.
func (p *Program) StmtListOf(h Handle) *[]Handle {
	if slices.Contains(p.Items, h) {
		return &p.Items
	}
	var found *[]Handle
	p.WalkItems(func(_ Handle, n Node) bool {
		if found != nil {
			return false
		}
		switch n := n.(type) {
		case *BlockStmt:
			if slices.Contains(n.Stmts, h) {
				found = &n.Stmts
			}
		case *StmtList:
			if slices.Contains(n.Stmts, h) {
				found = &n.Stmts
			}
		}
		return found == nil
	})
	return found
}

// InsertBefore inserts stmts ahead of target in its statement list.
func (p *Program) InsertBefore(target Handle, stmts ...Handle) bool {
	list := p.StmtListOf(target)
	if list == nil {
		return false
	}
	i := slices.Index(*list, target)
	*list = slices.Insert(*list, i, stmts...)
	return true
}

// InsertAfter inserts stmts following target in its statement list.
func (p *Program) InsertAfter(target Handle, stmts ...Handle) bool {
	list := p.StmtListOf(target)
	if list == nil {
		return false
	}
	i := slices.Index(*list, target)
	*list = slices.Insert(*list, i+1, stmts...)
	return true
}

// RemoveStmt removes target from its statement list.
func (p *Program) RemoveStmt(target Handle) bool {
	list := p.StmtListOf(target)
	if list == nil {
		return false
	}
	i := slices.Index(*list, target)
	*list = slices.Delete(*list, i, i+1)
	return true
}

// ReplaceStmt replaces target with stmts. A StmtList in stmts is spliced.
func (p *Program) ReplaceStmt(target Handle, stmts ...Handle) bool {
	list := p.StmtListOf(target)
	if list == nil {
		return false
	}
	var flat []Handle
	for _, s := range stmts {
		if sl, ok := p.Node(s).(*StmtList); ok {
			flat = append(flat, sl.Stmts...)
			continue
		}
		flat = append(flat, s)
	}
	i := slices.Index(*list, target)
	*list = slices.Replace(*list, i, i+1, flat...)
	return true
}

// RemoveDeclarator drops d from decl; the whole declaration statement is
// removed once no declarator is left.
func (p *Program) RemoveDeclarator(decl, d Handle) {
	ds, ok := p.Node(decl).(*DeclStmt)
	if !ok {
		return
	}
	ds.Declarators = slices.DeleteFunc(ds.Declarators, func(h Handle) bool { return h == d })
	if len(ds.Declarators) == 0 {
		p.RemoveStmt(decl)
	}
}
