package glsl

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"+ - * /", []TokenKind{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEOF}},
		{"( ) { }", []TokenKind{TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace, TokenEOF}},
		{"[ ] , .", []TokenKind{TokenLeftBracket, TokenRightBracket, TokenComma, TokenDot, TokenEOF}},
		{": ; ?", []TokenKind{TokenColon, TokenSemicolon, TokenQuestion, TokenEOF}},
	}

	for _, tt := range tests {
		tokens, err := NewLexer(tt.input).Tokenize()
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
			continue
		}

		if len(tokens) != len(tt.expected) {
			t.Errorf("%q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}

		for i, tok := range tokens {
			if tok.Kind != tt.expected[i] {
				t.Errorf("%q token %d: expected %v, got %v", tt.input, i, tt.expected[i], tok.Kind)
			}
		}
	}
}

func TestLexerOperators(t *testing.T) {
	input := "== != <= >= && || ^^ << >> ++ -- += <<= >>="
	expected := []TokenKind{
		TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
		TokenAmpAmp, TokenPipePipe, TokenCaretCaret, TokenLessLess, TokenGreaterGreater,
		TokenPlusPlus, TokenMinusMinus, TokenPlusEqual, TokenLessLessEqual,
		TokenGreaterGreaterEqual, TokenEOF,
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerKeywordsAndQualifiers(t *testing.T) {
	input := "uniform highp vec4 color; struct layout precision return true"
	expected := []TokenKind{
		TokenQualifier, TokenQualifier, TokenIdent, TokenIdent, TokenSemicolon,
		TokenStruct, TokenLayout, TokenPrecision, TokenReturn, TokenBoolLiteral, TokenEOF,
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d (%q): expected %v, got %v", i, tok.Lexeme, expected[i], tok.Kind)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"3u", TokenIntLiteral},
		{"0x1F", TokenIntLiteral},
		{"1.0", TokenFloatLiteral},
		{".5", TokenFloatLiteral},
		{"1.", TokenFloatLiteral},
		{"2e3", TokenFloatLiteral},
		{"1.5e-2", TokenFloatLiteral},
		{"1.0f", TokenFloatLiteral},
		{"2.0lf", TokenFloatLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(tokens) != 2 {
				t.Fatalf("expected 1 token + EOF, got %d", len(tokens))
			}
			if tokens[0].Kind != tt.kind {
				t.Errorf("expected %v, got %v", tt.kind, tokens[0].Kind)
			}
			if tokens[0].Lexeme != tt.input {
				t.Errorf("expected lexeme %q, got %q", tt.input, tokens[0].Lexeme)
			}
		})
	}
}

func TestLexerDirectives(t *testing.T) {
	input := "#version 300 es\n#define A(x) \\\n  x\nvoid main() {}"

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tokens[0].Kind != TokenDirective || tokens[0].Lexeme != "#version 300 es" {
		t.Errorf("token 0: got %v %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != TokenDirective || tokens[1].Lexeme != "#define A(x) \\\n  x" {
		t.Errorf("token 1: got %v %q", tokens[1].Kind, tokens[1].Lexeme)
	}
	if tokens[2].Kind != TokenIdent || tokens[2].Line != 4 {
		t.Errorf("token 2: got %v on line %d, want Ident on line 4", tokens[2].Kind, tokens[2].Line)
	}
}

func TestLexerComments(t *testing.T) {
	input := "a // line\n/* block\ncomment */ b"

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[1].Lexeme != "b" || tokens[1].Line != 3 {
		t.Errorf("expected b on line 3, got %q on line %d", tokens[1].Lexeme, tokens[1].Line)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []string{
		"a # b",
		"/* open",
		"a $ b",
	}

	for _, input := range tests {
		if _, err := NewLexer(input).Tokenize(); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}
