package glsl

import (
	"errors"
	"strings"
	"testing"
)

func TestSourceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SourceError
		expected string
	}{
		{
			name: "with position",
			err: &SourceError{
				Message: "unexpected token",
				Span:    Span{Start: Position{Line: 5, Column: 10}},
			},
			expected: "5:10: unexpected token",
		},
		{
			name:     "without position",
			err:      &SourceError{Message: "generic error"},
			expected: "generic error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSourceError_FormatWithContext(t *testing.T) {
	source := `void main() {
  gl_FragColor = vec4(1.0)
}`

	err := &SourceError{
		Message: "expected ;",
		Span:    Span{Start: Position{Line: 2, Column: 27}},
		Source:  source,
	}

	formatted := err.FormatWithContext()
	for _, part := range []string{"expected ;", "line 2:27", "gl_FragColor = vec4(1.0)", "^"} {
		if !strings.Contains(formatted, part) {
			t.Errorf("formatted error should contain %q:\n%s", part, formatted)
		}
	}
}

func TestSourceError_FormatWithContext_NoSource(t *testing.T) {
	err := &SourceError{
		Message: "error without source",
		Span:    Span{Start: Position{Line: 1, Column: 1}},
	}

	if formatted := err.FormatWithContext(); formatted != "1:1: error without source" {
		t.Errorf("expected simple format without source, got: %q", formatted)
	}
}

func TestSourceErrors_Error(t *testing.T) {
	tests := []struct {
		name     string
		errors   SourceErrors
		expected string
	}{
		{"empty", SourceErrors{}, "no errors"},
		{
			"single",
			SourceErrors{{Message: "first error", Span: Span{Start: Position{Line: 1, Column: 1}}}},
			"1:1: first error",
		},
		{
			"multiple",
			SourceErrors{
				{Message: "first error", Span: Span{Start: Position{Line: 1, Column: 1}}},
				{Message: "second error", Span: Span{Start: Position{Line: 2, Column: 5}}},
			},
			"1:1: first error (and 1 more errors)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.errors.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseReportsEveryDeclarationError(t *testing.T) {
	source := "uniform float a\nuniform vec2 b;\nprecision vec4 float;\nuniform float c;\n"

	_, err := Parse(source, ParseOptions{})
	var errs SourceErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected SourceErrors, got %T", err)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs.FormatAll())
	}
	if errs[0].Span.Start.Line != 2 || errs[1].Span.Start.Line != 3 {
		t.Errorf("unexpected error lines %d and %d", errs[0].Span.Start.Line, errs[1].Span.Start.Line)
	}
}
