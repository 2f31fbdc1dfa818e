// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes GLSL source code.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token

	// lineStart is true until a non-space rune is seen on the current line.
	lineStart bool
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 5 characters of source.
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source:    source,
		line:      1,
		column:    1,
		tokens:    make([]Token, 0, estTokens),
		lineStart: true,
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	atLineStart := l.lineStart
	r := l.advance()
	if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
		l.lineStart = false
	}

	switch r {
	case '#':
		if !atLineStart {
			return l.errorf("unexpected '#' in the middle of a line")
		}
		l.directive()
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case ';':
		l.addToken(TokenSemicolon)
	case '?':
		l.addToken(TokenQuestion)
	case '~':
		l.addToken(TokenTilde)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}
	case '%':
		l.addToken(l.either('=', TokenPercentEqual, TokenPercent))
	case '^':
		if l.match('^') {
			l.addToken(TokenCaretCaret)
		} else {
			l.addToken(l.either('=', TokenCaretEqual, TokenCaret))
		}
	case '+':
		if l.match('+') {
			l.addToken(TokenPlusPlus)
		} else {
			l.addToken(l.either('=', TokenPlusEqual, TokenPlus))
		}
	case '-':
		if l.match('-') {
			l.addToken(TokenMinusMinus)
		} else {
			l.addToken(l.either('=', TokenMinusEqual, TokenMinus))
		}
	case '*':
		l.addToken(l.either('=', TokenStarEqual, TokenStar))
	case '/':
		if l.match('/') {
			// Line comment
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			if err := l.blockComment(); err != nil {
				return err
			}
		} else {
			l.addToken(l.either('=', TokenSlashEqual, TokenSlash))
		}
	case '=':
		l.addToken(l.either('=', TokenEqualEqual, TokenEqual))
	case '!':
		l.addToken(l.either('=', TokenBangEqual, TokenBang))
	case '<':
		if l.match('<') {
			l.addToken(l.either('=', TokenLessLessEqual, TokenLessLess))
		} else {
			l.addToken(l.either('=', TokenLessEqual, TokenLess))
		}
	case '>':
		if l.match('>') {
			l.addToken(l.either('=', TokenGreaterGreaterEqual, TokenGreaterGreater))
		} else {
			l.addToken(l.either('=', TokenGreaterEqual, TokenGreater))
		}
	case '&':
		if l.match('&') {
			l.addToken(TokenAmpAmp)
		} else {
			l.addToken(l.either('=', TokenAmpEqual, TokenAmpersand))
		}
	case '|':
		if l.match('|') {
			l.addToken(TokenPipePipe)
		} else {
			l.addToken(l.either('=', TokenPipeEqual, TokenPipe))
		}

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.newline()

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			return l.errorf("unexpected character %q", r)
		}
	}

	return nil
}

// directive consumes a preprocessor line, honoring backslash continuations.
func (l *Lexer) directive() {
	for !l.isAtEnd() {
		if l.peek() == '\\' && l.peekNext() == '\n' {
			l.advance()
			l.advance()
			l.line++
			l.column = 1
			continue
		}
		if l.peek() == '\n' {
			break
		}
		l.advance()
	}
	l.addToken(TokenDirective)
}

func (l *Lexer) blockComment() error {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		if l.advance() == '\n' {
			l.line++
			l.column = 1
		}
	}
	return l.errorf("unterminated block comment")
}

func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == 'u' || l.peek() == 'U' {
			l.advance()
		}
		l.addToken(TokenIntLiteral)
		return
	}

	isFloat := l.source[l.start] == '.'
	for isDigit(l.peek()) {
		l.advance()
	}

	// GLSL allows "1." as a float literal; "1.x" never occurs since scalars
	// have no swizzles.
	if !isFloat && l.peek() == '.' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	switch {
	case l.peek() == 'f' || l.peek() == 'F':
		l.advance()
		isFloat = true
	case l.peek() == 'l' && l.peekNext() == 'f', l.peek() == 'L' && l.peekNext() == 'F':
		l.advance()
		l.advance()
		isFloat = true
	case !isFloat && (l.peek() == 'u' || l.peek() == 'U'):
		l.advance()
	}

	if isFloat {
		l.addToken(TokenFloatLiteral)
	} else {
		l.addToken(TokenIntLiteral)
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	l.addToken(lookupKeyword(text))
}

var keywords = map[string]TokenKind{
	"break":     TokenBreak,
	"case":      TokenCase,
	"continue":  TokenContinue,
	"default":   TokenDefault,
	"discard":   TokenDiscard,
	"do":        TokenDo,
	"else":      TokenElse,
	"for":       TokenFor,
	"if":        TokenIf,
	"layout":    TokenLayout,
	"precision": TokenPrecision,
	"return":    TokenReturn,
	"struct":    TokenStruct,
	"switch":    TokenSwitch,
	"while":     TokenWhile,
	"true":      TokenBoolLiteral,
	"false":     TokenBoolLiteral,
}

func lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	if _, ok := qualifierKeywords[text]; ok {
		return TokenQualifier
	}
	return TokenIdent
}

func (l *Lexer) either(next rune, matched, otherwise TokenKind) TokenKind {
	if l.match(next) {
		return matched
	}
	return otherwise
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Span: Span{
			Start: Position{Line: l.line, Column: l.column - 1, Offset: l.start},
		},
		Source: l.source,
	}
}

func (l *Lexer) newline() {
	l.line++
	l.column = 1
	l.lineStart = true
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
