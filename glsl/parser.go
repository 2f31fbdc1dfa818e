// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"
)

// Mode selects what a source text is parsed as.
type Mode uint8

const (
	// ModeProgram parses a full translation unit.
	ModeProgram Mode = iota
	// ModeExpression parses one expression, wrapped in a single ExprStmt.
	ModeExpression
	// ModeStatements parses a statement sequence with no enclosing function.
	ModeStatements
)

// ParseOptions configures Parse.
type ParseOptions struct {
	Mode Mode
}

// Parse tokenizes and parses source into a Program.
// Scopes are analyzed before returning.
func Parse(source string, opts ParseOptions) (*Program, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}

	p := newParser(tokens, source)
	switch opts.Mode {
	case ModeExpression:
		p.parseExpression()
	case ModeStatements:
		p.parseStatements()
	default:
		p.parseProgram()
	}

	if len(p.errors) > 0 {
		var errs SourceErrors
		for _, e := range p.errors {
			errs.Add(e.sourceError(source))
		}
		return nil, errs
	}

	Analyze(p.prog)
	return p.prog, nil
}

// MustParse is like Parse but panics on error. Intended for synthetic
// sources that are known to be valid.
func MustParse(source string, opts ParseOptions) *Program {
	prog, err := Parse(source, opts)
	if err != nil {
		panic(fmt.Sprintf("glsl: MustParse: %v", err))
	}
	return prog
}

// Parser is a recursive descent parser producing a handle-arena Program.
type Parser struct {
	tokens  []Token
	current int
	source  string
	prog    *Program
	errors  []*ParseError
}

func newParser(tokens []Token, source string) *Parser {
	return &Parser{
		tokens: tokens,
		source: source,
		prog:   NewProgram(),
	}
}

func (p *Parser) parseProgram() {
	for !p.isAtEnd() {
		if p.match(TokenSemicolon) {
			continue
		}
		h, err := p.externalDeclaration()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
			continue
		}
		p.prog.Items = append(p.prog.Items, h)
	}
}

func (p *Parser) parseExpression() {
	start := p.peek()
	x, err := p.expression()
	if err == nil && !p.isAtEnd() {
		p.match(TokenSemicolon)
		if !p.isAtEnd() {
			err = p.errorf("unexpected %s after expression", p.peek().Kind)
		}
	}
	if err != nil {
		p.errors = append(p.errors, err)
		return
	}
	p.prog.Items = append(p.prog.Items, p.add(&ExprStmt{X: x}, start))
}

func (p *Parser) parseStatements() {
	for !p.isAtEnd() {
		h, err := p.statement()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
			continue
		}
		if h.Valid() {
			p.prog.Items = append(p.prog.Items, h)
		}
	}
}

// =============================================================================
// Declarations
// =============================================================================

// externalDeclaration parses a top-level item.
func (p *Parser) externalDeclaration() (Handle, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenDirective:
		p.advance()
		return p.add(&Directive{Line: strings.TrimRight(tok.Lexeme, " \t\r")}, tok), nil
	case TokenPrecision:
		return p.precision()
	}
	return p.declaration(true)
}

func (p *Parser) precision() (Handle, *ParseError) {
	start := p.advance()
	q := p.peek()
	if q.Kind != TokenQualifier || !IsPrecision(q.Lexeme) {
		return NoHandle, p.errorf("expected precision qualifier, got %q", q.Lexeme)
	}
	p.advance()
	typ := p.peek()
	if typ.Kind != TokenIdent {
		return NoHandle, p.errorf("expected type name in precision statement")
	}
	p.advance()
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(&PrecisionStmt{Qualifier: q.Lexeme, Type: typ.Lexeme}, start), nil
}

// declaration parses a variable, struct, interface block, qualifier-only
// or (at top level) function declaration.
func (p *Parser) declaration(top bool) (Handle, *ParseError) {
	start := p.peek()

	layout, quals, err := p.qualifiers()
	if err != nil {
		return NoHandle, err
	}
	qualified := len(layout) > 0 || len(quals) > 0

	// layout(std140) uniform;
	if qualified && p.check(TokenSemicolon) {
		p.advance()
		return p.add(&QualifierDecl{Layout: layout, Qualifiers: quals}, start), nil
	}

	if qualified && p.check(TokenIdent) && !IsBuiltinType(p.peek().Lexeme) {
		switch p.peekAt(1).Kind {
		case TokenLeftBrace:
			return p.interfaceBlock(start, layout, quals)
		case TokenSemicolon, TokenComma:
			// invariant gl_Position;
			var names []Handle
			for {
				name := p.advance()
				names = append(names, p.add(&Ident{Name: name.Lexeme}, name))
				if !p.match(TokenComma) {
					break
				}
				if !p.check(TokenIdent) {
					return NoHandle, p.errorf("expected identifier")
				}
			}
			if err := p.expectErr(TokenSemicolon); err != nil {
				return NoHandle, err
			}
			return p.add(&QualifierDecl{Layout: layout, Qualifiers: quals, Names: names}, start), nil
		}
	}

	typ, err := p.typeSpec()
	if err != nil {
		return NoHandle, err
	}

	if top && p.check(TokenIdent) && p.peekAt(1).Kind == TokenLeftParen {
		return p.function(start, quals, typ)
	}

	decl := &DeclStmt{Layout: layout, Qualifiers: quals, Type: typ}
	if p.match(TokenSemicolon) {
		return p.add(decl, start), nil
	}
	for {
		d, err := p.declarator()
		if err != nil {
			return NoHandle, err
		}
		decl.Declarators = append(decl.Declarators, d)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(decl, start), nil
}

// qualifiers parses any mix of layout(...) and qualifier keywords.
func (p *Parser) qualifiers() ([]LayoutID, []string, *ParseError) {
	var layout []LayoutID
	var quals []string
	for {
		switch {
		case p.check(TokenQualifier):
			quals = append(quals, p.advance().Lexeme)
		case p.check(TokenLayout):
			ids, err := p.layoutQualifier()
			if err != nil {
				return nil, nil, err
			}
			layout = append(layout, ids...)
		default:
			return layout, quals, nil
		}
	}
}

func (p *Parser) layoutQualifier() ([]LayoutID, *ParseError) {
	p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	var ids []LayoutID
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		tok := p.peek()
		if tok.Kind != TokenIdent && tok.Kind != TokenQualifier {
			return nil, p.errorf("expected layout qualifier name")
		}
		p.advance()
		id := LayoutID{Name: tok.Lexeme}
		if p.match(TokenEqual) {
			v, err := p.ternary()
			if err != nil {
				return nil, err
			}
			id.Value = v
		}
		ids = append(ids, id)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *Parser) interfaceBlock(start Token, layout []LayoutID, quals []string) (Handle, *ParseError) {
	name := p.advance()
	p.advance() // {
	block := &InterfaceBlock{Layout: layout, Qualifiers: quals, Name: name.Lexeme}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		f, err := p.member()
		if err != nil {
			return NoHandle, err
		}
		block.Fields = append(block.Fields, f)
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return NoHandle, err
	}
	if p.check(TokenIdent) {
		d, err := p.declarator()
		if err != nil {
			return NoHandle, err
		}
		block.Instance = d
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(block, start), nil
}

// member parses one struct or block member declaration.
func (p *Parser) member() (Handle, *ParseError) {
	start := p.peek()
	layout, quals, err := p.qualifiers()
	if err != nil {
		return NoHandle, err
	}
	typ, err := p.typeSpec()
	if err != nil {
		return NoHandle, err
	}
	decl := &DeclStmt{Layout: layout, Qualifiers: quals, Type: typ}
	for {
		d, err := p.declarator()
		if err != nil {
			return NoHandle, err
		}
		decl.Declarators = append(decl.Declarators, d)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(decl, start), nil
}

func (p *Parser) declarator() (Handle, *ParseError) {
	name := p.peek()
	if name.Kind != TokenIdent {
		return NoHandle, p.errorf("expected identifier, got %s", name.Kind)
	}
	p.advance()
	dims, err := p.arrayDims()
	if err != nil {
		return NoHandle, err
	}
	d := &Declarator{Name: name.Lexeme, Array: dims}
	if p.match(TokenEqual) {
		init, err := p.assignment()
		if err != nil {
			return NoHandle, err
		}
		d.Init = init
	}
	return p.add(d, name), nil
}

func (p *Parser) arrayDims() ([]Handle, *ParseError) {
	var dims []Handle
	for p.match(TokenLeftBracket) {
		if p.match(TokenRightBracket) {
			dims = append(dims, NoHandle)
			continue
		}
		size, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenRightBracket); err != nil {
			return nil, err
		}
		dims = append(dims, size)
	}
	return dims, nil
}

// typeSpec parses a named type or a struct specifier, with array dims.
func (p *Parser) typeSpec() (Handle, *ParseError) {
	start := p.peek()
	spec := &TypeSpec{}
	switch start.Kind {
	case TokenStruct:
		s, err := p.structSpec()
		if err != nil {
			return NoHandle, err
		}
		spec.Struct = s
	case TokenIdent:
		p.advance()
		spec.Name = start.Lexeme
	default:
		return NoHandle, p.errorf("expected type, got %s", start.Kind)
	}
	dims, err := p.arrayDims()
	if err != nil {
		return NoHandle, err
	}
	spec.Array = dims
	return p.add(spec, start), nil
}

func (p *Parser) structSpec() (Handle, *ParseError) {
	start := p.advance()
	s := &StructSpec{}
	if p.check(TokenIdent) {
		s.Name = p.advance().Lexeme
	}
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return NoHandle, err
	}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		f, err := p.member()
		if err != nil {
			return NoHandle, err
		}
		s.Fields = append(s.Fields, f)
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return NoHandle, err
	}
	return p.add(s, start), nil
}

func (p *Parser) function(start Token, quals []string, ret Handle) (Handle, *ParseError) {
	name := p.advance()
	p.advance() // (
	fn := &FunctionDecl{Qualifiers: quals, Return: ret, Name: name.Lexeme}

	// f(void) declares no parameters.
	if p.check(TokenIdent) && p.peek().Lexeme == "void" && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		param, err := p.parameter()
		if err != nil {
			return NoHandle, err
		}
		fn.Params = append(fn.Params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}

	if p.match(TokenSemicolon) {
		return p.add(fn, start), nil
	}
	body, err := p.block()
	if err != nil {
		return NoHandle, err
	}
	fn.Body = body
	return p.add(fn, start), nil
}

func (p *Parser) parameter() (Handle, *ParseError) {
	start := p.peek()
	_, quals, err := p.qualifiers()
	if err != nil {
		return NoHandle, err
	}
	typ, err := p.typeSpec()
	if err != nil {
		return NoHandle, err
	}
	param := &Param{Qualifiers: quals, Type: typ}
	if p.check(TokenIdent) {
		param.Name = p.advance().Lexeme
		dims, err := p.arrayDims()
		if err != nil {
			return NoHandle, err
		}
		param.Array = dims
	}
	return p.add(param, start), nil
}

// =============================================================================
// Statements
// =============================================================================

func (p *Parser) block() (Handle, *ParseError) {
	start := p.peek()
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return NoHandle, err
	}
	b := &BlockStmt{}
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		s, err := p.statement()
		if err != nil {
			return NoHandle, err
		}
		if s.Valid() {
			b.Stmts = append(b.Stmts, s)
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return NoHandle, err
	}
	return p.add(b, start), nil
}

// statement parses one statement. An empty statement yields NoHandle.
func (p *Parser) statement() (Handle, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenSemicolon:
		p.advance()
		return NoHandle, nil
	case TokenLeftBrace:
		return p.block()
	case TokenDirective:
		p.advance()
		return p.add(&Directive{Line: strings.TrimRight(tok.Lexeme, " \t\r")}, tok), nil
	case TokenPrecision:
		return p.precision()
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		return p.whileStmt()
	case TokenDo:
		return p.doWhileStmt()
	case TokenSwitch:
		return p.switchStmt()
	case TokenCase, TokenDefault:
		return p.caseLabel()
	case TokenReturn:
		p.advance()
		r := &ReturnStmt{}
		if !p.check(TokenSemicolon) {
			v, err := p.expression()
			if err != nil {
				return NoHandle, err
			}
			r.Value = v
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return NoHandle, err
		}
		return p.add(r, tok), nil
	case TokenBreak, TokenContinue, TokenDiscard:
		p.advance()
		if err := p.expectErr(TokenSemicolon); err != nil {
			return NoHandle, err
		}
		return p.add(&JumpStmt{Keyword: tok.Kind}, tok), nil
	}

	if p.declarationAhead() {
		return p.declaration(false)
	}

	x, err := p.expression()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(&ExprStmt{X: x}, tok), nil
}

// declarationAhead reports whether the upcoming tokens start a declaration:
// a qualifier, a struct, or a type name (with optional array dims)
// followed by an identifier.
func (p *Parser) declarationAhead() bool {
	switch p.peek().Kind {
	case TokenQualifier, TokenLayout, TokenStruct:
		return true
	case TokenIdent:
	default:
		return false
	}
	i := p.current + 1
	for i < len(p.tokens) && p.tokens[i].Kind == TokenLeftBracket {
		depth := 0
		for ; i < len(p.tokens); i++ {
			if p.tokens[i].Kind == TokenLeftBracket {
				depth++
			} else if p.tokens[i].Kind == TokenRightBracket {
				depth--
				if depth == 0 {
					i++
					break
				}
			}
		}
	}
	return i < len(p.tokens) && p.tokens[i].Kind == TokenIdent
}

func (p *Parser) ifStmt() (Handle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return NoHandle, err
	}
	cond, err := p.expression()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	then, err := p.body()
	if err != nil {
		return NoHandle, err
	}
	s := &IfStmt{Cond: cond, Then: then}
	if p.match(TokenElse) {
		els, err := p.body()
		if err != nil {
			return NoHandle, err
		}
		s.Else = els
	}
	return p.add(s, start), nil
}

// body parses a loop or branch body; an empty statement becomes an empty block.
func (p *Parser) body() (Handle, *ParseError) {
	tok := p.peek()
	s, err := p.statement()
	if err != nil {
		return NoHandle, err
	}
	if !s.Valid() {
		return p.add(&BlockStmt{}, tok), nil
	}
	return s, nil
}

func (p *Parser) forStmt() (Handle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return NoHandle, err
	}
	s := &ForStmt{}

	// The init statement consumes its own semicolon.
	init, err := p.statement()
	if err != nil {
		return NoHandle, err
	}
	s.Init = init

	if !p.check(TokenSemicolon) {
		cond, err := p.expression()
		if err != nil {
			return NoHandle, err
		}
		s.Cond = cond
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	if !p.check(TokenRightParen) {
		post, err := p.expression()
		if err != nil {
			return NoHandle, err
		}
		s.Post = post
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	body, err := p.body()
	if err != nil {
		return NoHandle, err
	}
	s.Body = body
	return p.add(s, start), nil
}

func (p *Parser) whileStmt() (Handle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return NoHandle, err
	}
	cond, err := p.expression()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	body, err := p.body()
	if err != nil {
		return NoHandle, err
	}
	return p.add(&WhileStmt{Cond: cond, Body: body}, start), nil
}

func (p *Parser) doWhileStmt() (Handle, *ParseError) {
	start := p.advance()
	body, err := p.body()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenWhile); err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenLeftParen); err != nil {
		return NoHandle, err
	}
	cond, err := p.expression()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return NoHandle, err
	}
	return p.add(&DoWhileStmt{Body: body, Cond: cond}, start), nil
}

func (p *Parser) switchStmt() (Handle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return NoHandle, err
	}
	tag, err := p.expression()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	body, err := p.block()
	if err != nil {
		return NoHandle, err
	}
	return p.add(&SwitchStmt{Tag: tag, Body: body}, start), nil
}

func (p *Parser) caseLabel() (Handle, *ParseError) {
	start := p.advance()
	c := &CaseLabel{}
	if start.Kind == TokenCase {
		v, err := p.ternary()
		if err != nil {
			return NoHandle, err
		}
		c.Value = v
	}
	if err := p.expectErr(TokenColon); err != nil {
		return NoHandle, err
	}
	return p.add(c, start), nil
}

// =============================================================================
// Expressions
// =============================================================================

// binaryPrecedence orders binary operators; higher binds tighter.
var binaryPrecedence = map[TokenKind]int{
	TokenPipePipe:       1,
	TokenCaretCaret:     2,
	TokenAmpAmp:         3,
	TokenPipe:           4,
	TokenCaret:          5,
	TokenAmpersand:      6,
	TokenEqualEqual:     7,
	TokenBangEqual:      7,
	TokenLess:           8,
	TokenGreater:        8,
	TokenLessEqual:      8,
	TokenGreaterEqual:   8,
	TokenLessLess:       9,
	TokenGreaterGreater: 9,
	TokenPlus:           10,
	TokenMinus:          10,
	TokenStar:           11,
	TokenSlash:          11,
	TokenPercent:        11,
}

// expression parses a comma sequence.
func (p *Parser) expression() (Handle, *ParseError) {
	start := p.peek()
	first, err := p.assignment()
	if err != nil {
		return NoHandle, err
	}
	if !p.check(TokenComma) {
		return first, nil
	}
	seq := &SequenceExpr{List: []Handle{first}}
	for p.match(TokenComma) {
		next, err := p.assignment()
		if err != nil {
			return NoHandle, err
		}
		seq.List = append(seq.List, next)
	}
	return p.add(seq, start), nil
}

func (p *Parser) assignment() (Handle, *ParseError) {
	start := p.peek()
	left, err := p.ternary()
	if err != nil {
		return NoHandle, err
	}
	if !isAssignOp(p.peek().Kind) {
		return left, nil
	}
	op := p.advance()
	right, err := p.assignment()
	if err != nil {
		return NoHandle, err
	}
	return p.add(&AssignExpr{Left: left, Op: op.Kind, Right: right}, start), nil
}

func (p *Parser) ternary() (Handle, *ParseError) {
	start := p.peek()
	cond, err := p.binary(1)
	if err != nil {
		return NoHandle, err
	}
	if !p.match(TokenQuestion) {
		return cond, nil
	}
	then, err := p.assignment()
	if err != nil {
		return NoHandle, err
	}
	if err := p.expectErr(TokenColon); err != nil {
		return NoHandle, err
	}
	els, err := p.assignment()
	if err != nil {
		return NoHandle, err
	}
	return p.add(&TernaryExpr{Cond: cond, Then: then, Else: els}, start), nil
}

// binary parses left-associative binary operators by precedence climbing.
func (p *Parser) binary(minPrec int) (Handle, *ParseError) {
	start := p.peek()
	left, err := p.unary()
	if err != nil {
		return NoHandle, err
	}
	for {
		op := p.peek()
		prec, ok := binaryPrecedence[op.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.binary(prec + 1)
		if err != nil {
			return NoHandle, err
		}
		left = p.add(&BinaryExpr{Left: left, Op: op.Kind, Right: right}, start)
	}
}

func (p *Parser) unary() (Handle, *ParseError) {
	switch p.peek().Kind {
	case TokenMinus, TokenPlus, TokenBang, TokenTilde, TokenPlusPlus, TokenMinusMinus:
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return NoHandle, err
		}
		return p.add(&UnaryExpr{Op: op.Kind, Operand: operand}, op), nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (Handle, *ParseError) {
	start := p.peek()
	x, err := p.primary()
	if err != nil {
		return NoHandle, err
	}
	for {
		switch {
		case p.match(TokenLeftBracket):
			idx, err := p.expression()
			if err != nil {
				return NoHandle, err
			}
			if err := p.expectErr(TokenRightBracket); err != nil {
				return NoHandle, err
			}
			x = p.add(&IndexExpr{X: x, Index: idx}, start)
		case p.match(TokenDot):
			member := p.peek()
			if member.Kind != TokenIdent {
				return NoHandle, p.errorf("expected member name")
			}
			p.advance()
			x = p.add(&MemberExpr{X: x, Member: member.Lexeme}, start)
		case p.check(TokenPlusPlus), p.check(TokenMinusMinus):
			op := p.advance()
			x = p.add(&UnaryExpr{Op: op.Kind, Operand: x, Postfix: true}, start)
		default:
			return x, nil
		}
	}
}

func (p *Parser) primary() (Handle, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral, TokenFloatLiteral, TokenBoolLiteral:
		p.advance()
		return p.add(&Literal{Kind: tok.Kind, Value: tok.Lexeme}, tok), nil

	case TokenLeftParen:
		p.advance()
		x, err := p.expression()
		if err != nil {
			return NoHandle, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return NoHandle, err
		}
		return x, nil

	case TokenIdent:
		// Constructors: vec4(...), float[2](...)
		if IsBuiltinType(tok.Lexeme) || p.peekAt(1).Kind == TokenLeftBracket && p.arrayConstructorAhead() {
			typ, err := p.typeSpec()
			if err != nil {
				return NoHandle, err
			}
			if !p.check(TokenLeftParen) {
				return NoHandle, p.errorf("expected ( after type %s", tok.Lexeme)
			}
			return p.call(typ, tok)
		}
		p.advance()
		ident := p.add(&Ident{Name: tok.Lexeme}, tok)
		if p.check(TokenLeftParen) {
			return p.call(ident, tok)
		}
		return ident, nil
	}
	return NoHandle, p.errorf("unexpected %s in expression", tok.Kind)
}

// arrayConstructorAhead reports whether Ident[...]( follows.
func (p *Parser) arrayConstructorAhead() bool {
	depth := 0
	for i := p.current + 1; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case TokenLeftBracket:
			depth++
		case TokenRightBracket:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Kind == TokenLeftParen
			}
		case TokenEOF, TokenSemicolon:
			return false
		}
	}
	return false
}

func (p *Parser) call(fn Handle, start Token) (Handle, *ParseError) {
	p.advance() // (
	c := &CallExpr{Func: fn}
	if p.check(TokenIdent) && p.peek().Lexeme == "void" && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		arg, err := p.assignment()
		if err != nil {
			return NoHandle, err
		}
		c.Args = append(c.Args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return NoHandle, err
	}
	return p.add(c, start), nil
}

// =============================================================================
// Helpers
// =============================================================================

func (p *Parser) add(n Node, tok Token) Handle {
	return p.prog.addAt(n, Span{Start: Position{Line: tok.Line, Column: tok.Column}})
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) *ParseError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorf("expected %s, got %s", kind, p.peek().Kind)
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Token:   p.peek(),
	}
}

// synchronize skips to the next likely declaration boundary.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				p.match(TokenSemicolon)
				return
			}
		case TokenSemicolon:
			if depth <= 0 {
				return
			}
		}
	}
}

func isAssignOp(kind TokenKind) bool {
	switch kind {
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual,
		TokenSlashEqual, TokenPercentEqual, TokenAmpEqual, TokenPipeEqual,
		TokenCaretEqual, TokenLessLessEqual, TokenGreaterGreaterEqual:
		return true
	}
	return false
}
