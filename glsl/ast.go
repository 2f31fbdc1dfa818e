// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "slices"

// Handle addresses a node inside a Program arena.
type Handle uint32

// NoHandle is the zero Handle; it never addresses a node.
const NoHandle Handle = 0

// Valid reports whether h addresses a node.
func (h Handle) Valid() bool { return h != NoHandle }

// Node is the base interface for all AST nodes. Children are referenced by
// Handle so that a node can be replaced in place without touching parents.
type Node interface {
	// refs calls fn with a pointer to every child handle, in source order.
	refs(fn func(*Handle))
	// clone returns a shallow copy with independent slices.
	clone() Node
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statements and declarations.
type Stmt interface {
	Node
	stmtNode()
}

// Program is a parsed translation unit. All nodes live in one arena.
type Program struct {
	nodes []Node
	spans []Span

	// Items are the top-level statements in source order.
	Items []Handle

	// Scopes is filled by Analyze; Scopes[0] is the global scope.
	Scopes []*Scope
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		nodes: make([]Node, 1, 64),
		spans: make([]Span, 1, 64),
	}
}

// Add appends n to the arena and returns its handle.
func (p *Program) Add(n Node) Handle {
	return p.addAt(n, Span{})
}

func (p *Program) addAt(n Node, span Span) Handle {
	p.nodes = append(p.nodes, n)
	p.spans = append(p.spans, span)
	return Handle(len(p.nodes) - 1)
}

// Node returns the node addressed by h, or nil.
func (p *Program) Node(h Handle) Node {
	if !h.Valid() || int(h) >= len(p.nodes) {
		return nil
	}
	return p.nodes[h]
}

// Span returns the source span recorded for h.
func (p *Program) Span(h Handle) Span {
	if !h.Valid() || int(h) >= len(p.spans) {
		return Span{}
	}
	return p.spans[h]
}

// Len returns the number of arena slots, including the reserved zero slot.
func (p *Program) Len() int { return len(p.nodes) }

// Replace swaps the node at h. Every parent referencing h sees the new node.
func (p *Program) Replace(h Handle, n Node) {
	p.nodes[h] = n
}

// ReplaceWith replaces the node at h with a deep copy of src's subtree at sh.
func (p *Program) ReplaceWith(h Handle, src *Program, sh Handle) {
	root := p.Graft(src, sh)
	p.nodes[h] = p.nodes[root]
	p.spans[h] = p.spans[root]
}

// Graft deep-copies the subtree rooted at src's sh into p and returns the
// handle of the copy. src may be p itself.
func (p *Program) Graft(src *Program, sh Handle) Handle {
	if !sh.Valid() {
		return NoHandle
	}
	n := src.nodes[sh].clone()
	n.refs(func(c *Handle) {
		*c = p.Graft(src, *c)
	})
	return p.addAt(n, src.spans[sh])
}

// Clone returns a deep copy of the whole program, scopes excluded.
func (p *Program) Clone() *Program {
	out := &Program{
		nodes: make([]Node, len(p.nodes)),
		spans: slices.Clone(p.spans),
		Items: slices.Clone(p.Items),
	}
	for i, n := range p.nodes {
		if n != nil {
			out.nodes[i] = n.clone()
		}
	}
	return out
}

// Walk visits h and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func (p *Program) Walk(h Handle, fn func(Handle, Node) bool) {
	n := p.Node(h)
	if n == nil {
		return
	}
	if !fn(h, n) {
		return
	}
	n.refs(func(c *Handle) {
		p.Walk(*c, fn)
	})
}

// WalkItems walks every top-level item.
func (p *Program) WalkItems(fn func(Handle, Node) bool) {
	for _, h := range p.Items {
		p.Walk(h, fn)
	}
}

// Contains reports whether target is root or one of its descendants.
func (p *Program) Contains(root, target Handle) bool {
	found := false
	p.Walk(root, func(h Handle, _ Node) bool {
		if h == target {
			found = true
		}
		return !found
	})
	return found
}

func refList(hs []Handle, fn func(*Handle)) {
	for i := range hs {
		if hs[i].Valid() {
			fn(&hs[i])
		}
	}
}

func ref(h *Handle, fn func(*Handle)) {
	if h.Valid() {
		fn(h)
	}
}

// =============================================================================
// Expressions
// =============================================================================

// Ident represents an identifier reference.
type Ident struct {
	Name string
}

func (*Ident) refs(func(*Handle)) {}
func (i *Ident) clone() Node      { c := *i; return &c }
func (*Ident) exprNode()          {}

// Literal represents a literal value.
type Literal struct {
	Kind  TokenKind // IntLiteral, FloatLiteral, BoolLiteral
	Value string
}

func (*Literal) refs(func(*Handle)) {}
func (l *Literal) clone() Node      { c := *l; return &c }
func (*Literal) exprNode()          {}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Handle
	Op    TokenKind
	Right Handle
}

func (b *BinaryExpr) refs(fn func(*Handle)) { ref(&b.Left, fn); ref(&b.Right, fn) }
func (b *BinaryExpr) clone() Node           { c := *b; return &c }
func (*BinaryExpr) exprNode()               {}

// UnaryExpr represents a prefix or postfix unary expression.
type UnaryExpr struct {
	Op      TokenKind
	Operand Handle
	Postfix bool
}

func (u *UnaryExpr) refs(fn func(*Handle)) { ref(&u.Operand, fn) }
func (u *UnaryExpr) clone() Node           { c := *u; return &c }
func (*UnaryExpr) exprNode()               {}

// AssignExpr represents an assignment; GLSL assignments are expressions.
type AssignExpr struct {
	Left  Handle
	Op    TokenKind // =, +=, -=, etc.
	Right Handle
}

func (a *AssignExpr) refs(fn func(*Handle)) { ref(&a.Left, fn); ref(&a.Right, fn) }
func (a *AssignExpr) clone() Node           { c := *a; return &c }
func (*AssignExpr) exprNode()               {}

// TernaryExpr represents cond ? a : b.
type TernaryExpr struct {
	Cond Handle
	Then Handle
	Else Handle
}

func (t *TernaryExpr) refs(fn func(*Handle)) { ref(&t.Cond, fn); ref(&t.Then, fn); ref(&t.Else, fn) }
func (t *TernaryExpr) clone() Node           { c := *t; return &c }
func (*TernaryExpr) exprNode()               {}

// CallExpr represents a function call or a type constructor. Func is an
// *Ident for calls and a *TypeSpec for constructors.
type CallExpr struct {
	Func Handle
	Args []Handle
}

func (c *CallExpr) refs(fn func(*Handle)) { ref(&c.Func, fn); refList(c.Args, fn) }
func (c *CallExpr) clone() Node           { cp := *c; cp.Args = slices.Clone(c.Args); return &cp }
func (*CallExpr) exprNode()               {}

// IndexExpr represents x[index].
type IndexExpr struct {
	X     Handle
	Index Handle
}

func (i *IndexExpr) refs(fn func(*Handle)) { ref(&i.X, fn); ref(&i.Index, fn) }
func (i *IndexExpr) clone() Node           { c := *i; return &c }
func (*IndexExpr) exprNode()               {}

// MemberExpr represents field selection and swizzles.
type MemberExpr struct {
	X      Handle
	Member string
}

func (m *MemberExpr) refs(fn func(*Handle)) { ref(&m.X, fn) }
func (m *MemberExpr) clone() Node           { c := *m; return &c }
func (*MemberExpr) exprNode()               {}

// SequenceExpr represents the comma operator.
type SequenceExpr struct {
	List []Handle
}

func (s *SequenceExpr) refs(fn func(*Handle)) { refList(s.List, fn) }
func (s *SequenceExpr) clone() Node           { c := *s; c.List = slices.Clone(s.List); return &c }
func (*SequenceExpr) exprNode()               {}

// =============================================================================
// Types
// =============================================================================

// TypeSpec names a type. Struct is set for inline struct specifiers.
// Array holds one entry per dimension; NoHandle marks an unsized dimension.
type TypeSpec struct {
	Name   string
	Struct Handle
	Array  []Handle
}

func (t *TypeSpec) refs(fn func(*Handle)) { ref(&t.Struct, fn); refList(t.Array, fn) }
func (t *TypeSpec) clone() Node           { c := *t; c.Array = slices.Clone(t.Array); return &c }
func (*TypeSpec) exprNode()               {}

// StructSpec is a struct body; Fields are *DeclStmt.
type StructSpec struct {
	Name   string
	Fields []Handle
}

func (s *StructSpec) refs(fn func(*Handle)) { refList(s.Fields, fn) }
func (s *StructSpec) clone() Node           { c := *s; c.Fields = slices.Clone(s.Fields); return &c }

// LayoutID is one entry of a layout(...) qualifier.
type LayoutID struct {
	Name  string
	Value Handle // optional
}

func cloneLayout(l []LayoutID) []LayoutID { return slices.Clone(l) }

func layoutRefs(l []LayoutID, fn func(*Handle)) {
	for i := range l {
		ref(&l[i].Value, fn)
	}
}

// =============================================================================
// Declarations
// =============================================================================

// Declarator is one name introduced by a declaration.
type Declarator struct {
	Name  string
	Array []Handle
	Init  Handle
}

func (d *Declarator) refs(fn func(*Handle)) { refList(d.Array, fn); ref(&d.Init, fn) }
func (d *Declarator) clone() Node           { c := *d; c.Array = slices.Clone(d.Array); return &c }

// DeclStmt is a variable or struct declaration: `uniform vec4 a, b = x;`.
type DeclStmt struct {
	Layout      []LayoutID
	Qualifiers  []string
	Type        Handle // *TypeSpec
	Declarators []Handle
}

func (d *DeclStmt) refs(fn func(*Handle)) {
	layoutRefs(d.Layout, fn)
	ref(&d.Type, fn)
	refList(d.Declarators, fn)
}

func (d *DeclStmt) clone() Node {
	c := *d
	c.Layout = cloneLayout(d.Layout)
	c.Qualifiers = slices.Clone(d.Qualifiers)
	c.Declarators = slices.Clone(d.Declarators)
	return &c
}
func (*DeclStmt) stmtNode() {}

// HasQualifier reports whether q is among the declaration's qualifiers.
func (d *DeclStmt) HasQualifier(q string) bool { return slices.Contains(d.Qualifiers, q) }

// InterfaceBlock is `uniform Block { ... } instance;`.
type InterfaceBlock struct {
	Layout     []LayoutID
	Qualifiers []string
	Name       string
	Fields     []Handle // *DeclStmt
	Instance   Handle   // *Declarator, optional
}

func (b *InterfaceBlock) refs(fn func(*Handle)) {
	layoutRefs(b.Layout, fn)
	refList(b.Fields, fn)
	ref(&b.Instance, fn)
}

func (b *InterfaceBlock) clone() Node {
	c := *b
	c.Layout = cloneLayout(b.Layout)
	c.Qualifiers = slices.Clone(b.Qualifiers)
	c.Fields = slices.Clone(b.Fields)
	return &c
}
func (*InterfaceBlock) stmtNode() {}

// HasQualifier reports whether q is among the block's qualifiers.
func (b *InterfaceBlock) HasQualifier(q string) bool { return slices.Contains(b.Qualifiers, q) }

// QualifierDecl is a declaration with no type: `layout(std140) uniform;` or
// `invariant gl_Position;`.
type QualifierDecl struct {
	Layout     []LayoutID
	Qualifiers []string
	Names      []Handle // *Ident
}

func (q *QualifierDecl) refs(fn func(*Handle)) { layoutRefs(q.Layout, fn); refList(q.Names, fn) }
func (q *QualifierDecl) clone() Node {
	c := *q
	c.Layout = cloneLayout(q.Layout)
	c.Qualifiers = slices.Clone(q.Qualifiers)
	c.Names = slices.Clone(q.Names)
	return &c
}
func (*QualifierDecl) stmtNode() {}

// PrecisionStmt is `precision highp float;`.
type PrecisionStmt struct {
	Qualifier string
	Type      string
}

func (*PrecisionStmt) refs(func(*Handle)) {}
func (p *PrecisionStmt) clone() Node      { c := *p; return &c }
func (*PrecisionStmt) stmtNode()          {}

// FunctionDecl is a function prototype (Body == NoHandle) or definition.
type FunctionDecl struct {
	Qualifiers []string
	Return     Handle // *TypeSpec
	Name       string
	Params     []Handle // *Param
	Body       Handle   // *BlockStmt
}

func (f *FunctionDecl) refs(fn func(*Handle)) {
	ref(&f.Return, fn)
	refList(f.Params, fn)
	ref(&f.Body, fn)
}

func (f *FunctionDecl) clone() Node {
	c := *f
	c.Qualifiers = slices.Clone(f.Qualifiers)
	c.Params = slices.Clone(f.Params)
	return &c
}
func (*FunctionDecl) stmtNode() {}

// Param is a function parameter; Name may be empty in prototypes.
type Param struct {
	Qualifiers []string
	Type       Handle // *TypeSpec
	Name       string
	Array      []Handle
}

func (p *Param) refs(fn func(*Handle)) { ref(&p.Type, fn); refList(p.Array, fn) }
func (p *Param) clone() Node {
	c := *p
	c.Qualifiers = slices.Clone(p.Qualifiers)
	c.Array = slices.Clone(p.Array)
	return &c
}

// Directive is a preprocessor line kept verbatim.
type Directive struct {
	Line string
}

func (*Directive) refs(func(*Handle)) {}
func (d *Directive) clone() Node      { c := *d; return &c }
func (*Directive) stmtNode()          {}

// =============================================================================
// Statements
// =============================================================================

// BlockStmt is a braced statement list.
type BlockStmt struct {
	Stmts []Handle
}

func (b *BlockStmt) refs(fn func(*Handle)) { refList(b.Stmts, fn) }
func (b *BlockStmt) clone() Node           { c := *b; c.Stmts = slices.Clone(b.Stmts); return &c }
func (*BlockStmt) stmtNode()               {}

// StmtList is an unbraced statement sequence produced by fragments; it is
// spliced into its parent list when filled into a statement position.
type StmtList struct {
	Stmts []Handle
}

func (s *StmtList) refs(fn func(*Handle)) { refList(s.Stmts, fn) }
func (s *StmtList) clone() Node           { c := *s; c.Stmts = slices.Clone(s.Stmts); return &c }
func (*StmtList) stmtNode()               {}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X Handle
}

func (e *ExprStmt) refs(fn func(*Handle)) { ref(&e.X, fn) }
func (e *ExprStmt) clone() Node           { c := *e; return &c }
func (*ExprStmt) stmtNode()               {}

// IfStmt represents an if statement.
type IfStmt struct {
	Cond Handle
	Then Handle
	Else Handle
}

func (i *IfStmt) refs(fn func(*Handle)) { ref(&i.Cond, fn); ref(&i.Then, fn); ref(&i.Else, fn) }
func (i *IfStmt) clone() Node           { c := *i; return &c }
func (*IfStmt) stmtNode()               {}

// ForStmt represents a for loop; every clause is optional.
type ForStmt struct {
	Init Handle // statement
	Cond Handle
	Post Handle
	Body Handle
}

func (f *ForStmt) refs(fn func(*Handle)) {
	ref(&f.Init, fn)
	ref(&f.Cond, fn)
	ref(&f.Post, fn)
	ref(&f.Body, fn)
}
func (f *ForStmt) clone() Node { c := *f; return &c }
func (*ForStmt) stmtNode()     {}

// WhileStmt represents a while loop.
type WhileStmt struct {
	Cond Handle
	Body Handle
}

func (w *WhileStmt) refs(fn func(*Handle)) { ref(&w.Cond, fn); ref(&w.Body, fn) }
func (w *WhileStmt) clone() Node           { c := *w; return &c }
func (*WhileStmt) stmtNode()               {}

// DoWhileStmt represents a do/while loop.
type DoWhileStmt struct {
	Body Handle
	Cond Handle
}

func (d *DoWhileStmt) refs(fn func(*Handle)) { ref(&d.Body, fn); ref(&d.Cond, fn) }
func (d *DoWhileStmt) clone() Node           { c := *d; return &c }
func (*DoWhileStmt) stmtNode()               {}

// SwitchStmt represents a switch; Body holds CaseLabels and statements.
type SwitchStmt struct {
	Tag  Handle
	Body Handle // *BlockStmt
}

func (s *SwitchStmt) refs(fn func(*Handle)) { ref(&s.Tag, fn); ref(&s.Body, fn) }
func (s *SwitchStmt) clone() Node           { c := *s; return &c }
func (*SwitchStmt) stmtNode()               {}

// CaseLabel is `case v:` or, with no Value, `default:`.
type CaseLabel struct {
	Value Handle
}

func (c *CaseLabel) refs(fn func(*Handle)) { ref(&c.Value, fn) }
func (c *CaseLabel) clone() Node           { cp := *c; return &cp }
func (*CaseLabel) stmtNode()               {}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Handle
}

func (r *ReturnStmt) refs(fn func(*Handle)) { ref(&r.Value, fn) }
func (r *ReturnStmt) clone() Node           { c := *r; return &c }
func (*ReturnStmt) stmtNode()               {}

// JumpStmt is break, continue or discard.
type JumpStmt struct {
	Keyword TokenKind
}

func (*JumpStmt) refs(func(*Handle)) {}
func (j *JumpStmt) clone() Node      { c := *j; return &c }
func (*JumpStmt) stmtNode()          {}
