// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expression precedence levels used to decide parenthesization.
const (
	precSequence = iota
	precAssign
	precTernary
	precBinaryBase // binaryPrecedence values are added to this
	precUnary      = precBinaryBase + 12
	precPostfix    = precUnary + 1
	precPrimary    = precPostfix + 1
)

// Writer prints a Program back to GLSL text.
type Writer struct {
	prog *Program

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int
}

// Generate prints every top-level item of prog, one per line.
func Generate(prog *Program) string {
	w := &Writer{prog: prog}
	for _, h := range prog.Items {
		w.writeStmt(h)
	}
	return w.out.String()
}

// GenerateNode prints a single node. Statements keep their trailing
// newline; expressions are printed bare.
func GenerateNode(prog *Program, h Handle) string {
	w := &Writer{prog: prog}
	switch prog.Node(h).(type) {
	case Stmt:
		w.writeStmt(h)
	default:
		w.out.WriteString(w.expr(h, precSequence))
	}
	return w.out.String()
}

// TypeString prints a TypeSpec, including array dimensions.
func TypeString(prog *Program, h Handle) string {
	w := &Writer{prog: prog}
	return w.typeSpec(h)
}

// DeclarationHead prints the layout, qualifiers and type of d without its
// declarators.
func DeclarationHead(prog *Program, d *DeclStmt) string {
	w := &Writer{prog: prog}
	return w.declaration(&DeclStmt{Layout: d.Layout, Qualifiers: d.Qualifiers, Type: d.Type})
}

// =============================================================================
// Statements
// =============================================================================

func (w *Writer) writeStmt(h Handle) {
	switch n := w.prog.Node(h).(type) {
	case *Directive:
		w.out.WriteString(n.Line)
		w.out.WriteByte('\n')
	case *PrecisionStmt:
		w.writeLine("precision %s %s;", n.Qualifier, n.Type)
	case *DeclStmt:
		w.writeLine("%s;", w.declaration(n))
	case *InterfaceBlock:
		w.writeLine("%s;", w.interfaceBlock(n))
	case *QualifierDecl:
		w.writeLine("%s;", w.qualifierDecl(n))
	case *FunctionDecl:
		w.writeFunction(n)
	case *BlockStmt:
		w.writeLine("{")
		w.writeBody(n.Stmts)
		w.writeLine("}")
	case *StmtList:
		for _, s := range n.Stmts {
			w.writeStmt(s)
		}
	case *ExprStmt:
		w.writeLine("%s;", w.expr(n.X, precSequence))
	case *IfStmt:
		w.writeIf(n, false)
	case *ForStmt:
		init := ";"
		if n.Init.Valid() {
			init = strings.TrimSpace(GenerateNode(w.prog, n.Init))
		}
		var cond, post string
		if n.Cond.Valid() {
			cond = " " + w.expr(n.Cond, precSequence)
		}
		if n.Post.Valid() {
			post = " " + w.expr(n.Post, precSequence)
		}
		w.writeLine("for (%s%s;%s) {", init, cond, post)
		w.writeBlockBody(n.Body)
		w.writeLine("}")
	case *WhileStmt:
		w.writeLine("while (%s) {", w.expr(n.Cond, precSequence))
		w.writeBlockBody(n.Body)
		w.writeLine("}")
	case *DoWhileStmt:
		w.writeLine("do {")
		w.writeBlockBody(n.Body)
		w.writeLine("} while (%s);", w.expr(n.Cond, precSequence))
	case *SwitchStmt:
		w.writeLine("switch (%s) {", w.expr(n.Tag, precSequence))
		w.writeBlockBody(n.Body)
		w.writeLine("}")
	case *CaseLabel:
		if n.Value.Valid() {
			w.writeLine("case %s:", w.expr(n.Value, precSequence))
		} else {
			w.writeLine("default:")
		}
	case *ReturnStmt:
		if n.Value.Valid() {
			w.writeLine("return %s;", w.expr(n.Value, precSequence))
		} else {
			w.writeLine("return;")
		}
	case *JumpStmt:
		w.writeLine("%s;", n.Keyword)
	case nil:
	default:
		// Expression in statement position, e.g. a filler spliced into a
		// statement list.
		w.writeLine("%s;", w.expr(h, precSequence))
	}
}

func (w *Writer) writeIf(n *IfStmt, chained bool) {
	head := fmt.Sprintf("if (%s) {", w.expr(n.Cond, precSequence))
	if chained {
		w.out.WriteString(head)
		w.out.WriteByte('\n')
	} else {
		w.writeLine("%s", head)
	}
	w.writeBlockBody(n.Then)
	if !n.Else.Valid() {
		w.writeLine("}")
		return
	}
	if elif, ok := w.prog.Node(n.Else).(*IfStmt); ok {
		w.writeIndent()
		w.out.WriteString("} else ")
		w.writeIf(elif, true)
		return
	}
	w.writeLine("} else {")
	w.writeBlockBody(n.Else)
	w.writeLine("}")
}

// writeBlockBody writes the statements of a body without its braces.
func (w *Writer) writeBlockBody(h Handle) {
	if b, ok := w.prog.Node(h).(*BlockStmt); ok {
		w.writeBody(b.Stmts)
		return
	}
	w.writeBody([]Handle{h})
}

func (w *Writer) writeBody(stmts []Handle) {
	w.pushIndent()
	for _, s := range stmts {
		w.writeStmt(s)
	}
	w.popIndent()
}

func (w *Writer) writeFunction(fn *FunctionDecl) {
	var sb strings.Builder
	for _, q := range fn.Qualifiers {
		sb.WriteString(q)
		sb.WriteByte(' ')
	}
	sb.WriteString(w.typeSpec(fn.Return))
	sb.WriteByte(' ')
	sb.WriteString(fn.Name)
	sb.WriteByte('(')
	for i, ph := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(w.param(ph))
	}
	sb.WriteByte(')')

	if !fn.Body.Valid() {
		w.writeLine("%s;", sb.String())
		return
	}
	w.writeLine("%s {", sb.String())
	w.writeBlockBody(fn.Body)
	w.writeLine("}")
}

func (w *Writer) param(h Handle) string {
	p, ok := w.prog.Node(h).(*Param)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, q := range p.Qualifiers {
		sb.WriteString(q)
		sb.WriteByte(' ')
	}
	sb.WriteString(w.typeSpec(p.Type))
	if p.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
		sb.WriteString(w.arraySuffix(p.Array))
	}
	return sb.String()
}

// =============================================================================
// Declarations
// =============================================================================

func (w *Writer) prefix(layout []LayoutID, quals []string) string {
	var parts []string
	if len(layout) > 0 {
		ids := make([]string, len(layout))
		for i, id := range layout {
			if id.Value.Valid() {
				ids[i] = id.Name + " = " + w.expr(id.Value, precAssign)
			} else {
				ids[i] = id.Name
			}
		}
		parts = append(parts, "layout("+strings.Join(ids, ", ")+")")
	}
	parts = append(parts, quals...)
	return strings.Join(parts, " ")
}

func (w *Writer) declaration(d *DeclStmt) string {
	var sb strings.Builder
	if pre := w.prefix(d.Layout, d.Qualifiers); pre != "" {
		sb.WriteString(pre)
		sb.WriteByte(' ')
	}
	sb.WriteString(w.typeSpec(d.Type))
	for i, dh := range d.Declarators {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(w.declarator(dh))
	}
	return sb.String()
}

func (w *Writer) declarator(h Handle) string {
	d, ok := w.prog.Node(h).(*Declarator)
	if !ok {
		return ""
	}
	s := d.Name + w.arraySuffix(d.Array)
	if d.Init.Valid() {
		s += " = " + w.expr(d.Init, precAssign)
	}
	return s
}

func (w *Writer) interfaceBlock(b *InterfaceBlock) string {
	var sb strings.Builder
	if pre := w.prefix(b.Layout, b.Qualifiers); pre != "" {
		sb.WriteString(pre)
		sb.WriteByte(' ')
	}
	sb.WriteString(b.Name)
	sb.WriteString(w.fields(b.Fields))
	if b.Instance.Valid() {
		sb.WriteByte(' ')
		sb.WriteString(w.declarator(b.Instance))
	}
	return sb.String()
}

// fields prints a member list on one line: " { vec4 y; float z; }".
func (w *Writer) fields(fields []Handle) string {
	var sb strings.Builder
	sb.WriteString(" {")
	for _, f := range fields {
		if d, ok := w.prog.Node(f).(*DeclStmt); ok {
			sb.WriteByte(' ')
			sb.WriteString(w.declaration(d))
			sb.WriteByte(';')
		}
	}
	sb.WriteString(" }")
	return sb.String()
}

func (w *Writer) qualifierDecl(q *QualifierDecl) string {
	s := w.prefix(q.Layout, q.Qualifiers)
	for i, nh := range q.Names {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}
		s += w.expr(nh, precAssign)
	}
	return s
}

func (w *Writer) typeSpec(h Handle) string {
	t, ok := w.prog.Node(h).(*TypeSpec)
	if !ok {
		return ""
	}
	name := t.Name
	if s, ok := w.prog.Node(t.Struct).(*StructSpec); ok {
		name = "struct"
		if s.Name != "" {
			name += " " + s.Name
		}
		name += w.fields(s.Fields)
	}
	return name + w.arraySuffix(t.Array)
}

func (w *Writer) arraySuffix(dims []Handle) string {
	var sb strings.Builder
	for _, d := range dims {
		sb.WriteByte('[')
		if d.Valid() {
			sb.WriteString(w.expr(d, precSequence))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// =============================================================================
// Expressions
// =============================================================================

// expr prints h, parenthesized when its precedence is below min.
func (w *Writer) expr(h Handle, min int) string {
	s, prec := w.exprPrec(h)
	if prec < min {
		return "(" + s + ")"
	}
	return s
}

func (w *Writer) exprPrec(h Handle) (string, int) {
	switch n := w.prog.Node(h).(type) {
	case *Ident:
		return n.Name, precPrimary
	case *Literal:
		if strings.HasPrefix(n.Value, "-") {
			return n.Value, precUnary
		}
		return n.Value, precPrimary
	case *TypeSpec:
		return w.typeSpec(h), precPrimary
	case *BinaryExpr:
		prec := precBinaryBase + binaryPrecedence[n.Op]
		return w.expr(n.Left, prec) + " " + n.Op.String() + " " + w.expr(n.Right, prec+1), prec
	case *UnaryExpr:
		if n.Postfix {
			return w.expr(n.Operand, precPostfix) + n.Op.String(), precPostfix
		}
		op := n.Op.String()
		operand := w.expr(n.Operand, precUnary)
		if operand != "" && op[len(op)-1] == operand[0] {
			operand = " " + operand
		}
		return op + operand, precUnary
	case *AssignExpr:
		return w.expr(n.Left, precPostfix) + " " + n.Op.String() + " " + w.expr(n.Right, precAssign), precAssign
	case *TernaryExpr:
		return w.expr(n.Cond, precBinaryBase+1) + " ? " + w.expr(n.Then, precAssign) +
			" : " + w.expr(n.Else, precAssign), precTernary
	case *CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = w.expr(a, precAssign)
		}
		return w.expr(n.Func, precPostfix) + "(" + strings.Join(args, ", ") + ")", precPostfix
	case *IndexExpr:
		return w.expr(n.X, precPostfix) + "[" + w.expr(n.Index, precSequence) + "]", precPostfix
	case *MemberExpr:
		return w.expr(n.X, precPostfix) + "." + n.Member, precPostfix
	case *SequenceExpr:
		parts := make([]string, len(n.List))
		for i, x := range n.List {
			parts[i] = w.expr(x, precAssign)
		}
		return strings.Join(parts, ", "), precSequence
	case *StmtList:
		// A statement list in expression position prints its statements
		// joined; only happens when a fragment filler lands in an expression.
		return strings.TrimSpace(GenerateNode(w.prog, h)), precPrimary
	}
	return "", precPrimary
}

// =============================================================================
// Output helpers
// =============================================================================

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("  ")
	}
}

func (w *Writer) pushIndent() {
	w.indent++
}

func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

// FormatFloat formats f as a GLSL float literal; whole numbers keep a
// trailing ".0".
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
