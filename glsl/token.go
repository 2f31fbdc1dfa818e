// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenBoolLiteral

	// Preprocessor line (#version, #define, ...), kept verbatim
	TokenDirective

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenColon               // :
	TokenSemicolon           // ;
	TokenQuestion            // ?
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenCaretCaret          // ^^
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenBreak
	TokenCase
	TokenContinue
	TokenDefault
	TokenDiscard
	TokenDo
	TokenElse
	TokenFor
	TokenIf
	TokenLayout
	TokenPrecision
	TokenReturn
	TokenStruct
	TokenSwitch
	TokenWhile

	// Qualifier keywords (storage, precision, interpolation, memory)
	TokenQualifier
)

var tokenNames = map[TokenKind]string{
	TokenEOF:                 "EOF",
	TokenError:               "Error",
	TokenIdent:               "Ident",
	TokenIntLiteral:          "IntLiteral",
	TokenFloatLiteral:        "FloatLiteral",
	TokenBoolLiteral:         "BoolLiteral",
	TokenDirective:           "Directive",
	TokenPlus:                "+",
	TokenMinus:               "-",
	TokenStar:                "*",
	TokenSlash:               "/",
	TokenPercent:             "%",
	TokenAmpersand:           "&",
	TokenPipe:                "|",
	TokenCaret:               "^",
	TokenTilde:               "~",
	TokenBang:                "!",
	TokenEqual:               "=",
	TokenLess:                "<",
	TokenGreater:             ">",
	TokenDot:                 ".",
	TokenComma:               ",",
	TokenColon:               ":",
	TokenSemicolon:           ";",
	TokenQuestion:            "?",
	TokenPlusPlus:            "++",
	TokenMinusMinus:          "--",
	TokenEqualEqual:          "==",
	TokenBangEqual:           "!=",
	TokenLessEqual:           "<=",
	TokenGreaterEqual:        ">=",
	TokenAmpAmp:              "&&",
	TokenPipePipe:            "||",
	TokenCaretCaret:          "^^",
	TokenLessLess:            "<<",
	TokenGreaterGreater:      ">>",
	TokenPlusEqual:           "+=",
	TokenMinusEqual:          "-=",
	TokenStarEqual:           "*=",
	TokenSlashEqual:          "/=",
	TokenPercentEqual:        "%=",
	TokenAmpEqual:            "&=",
	TokenPipeEqual:           "|=",
	TokenCaretEqual:          "^=",
	TokenLessLessEqual:       "<<=",
	TokenGreaterGreaterEqual: ">>=",
	TokenLeftParen:           "(",
	TokenRightParen:          ")",
	TokenLeftBrace:           "{",
	TokenRightBrace:          "}",
	TokenLeftBracket:         "[",
	TokenRightBracket:        "]",
	TokenBreak:               "break",
	TokenCase:                "case",
	TokenContinue:            "continue",
	TokenDefault:             "default",
	TokenDiscard:             "discard",
	TokenDo:                  "do",
	TokenElse:                "else",
	TokenFor:                 "for",
	TokenIf:                  "if",
	TokenLayout:              "layout",
	TokenPrecision:           "precision",
	TokenReturn:              "return",
	TokenStruct:              "struct",
	TokenSwitch:              "switch",
	TokenWhile:               "while",
	TokenQualifier:           "Qualifier",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// Span represents a source code location span.
type Span struct {
	Start  Position
	End    Position
	Source string // Source file name or identifier
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}
