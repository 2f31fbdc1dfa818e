package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/shadergraph/glsl"
)

// Item is one top-level statement of a parsed program. Sections reference
// statements in place; nothing is copied until a program is rendered.
type Item struct {
	Prog *glsl.Program
	Stmt glsl.Handle
}

// Node returns the statement node.
func (it Item) Node() glsl.Node {
	return it.Prog.Node(it.Stmt)
}

// String prints the statement.
func (it Item) String() string {
	return strings.TrimRight(glsl.GenerateNode(it.Prog, it.Stmt), "\n")
}

// Sections partitions the top-level statements of one or more programs.
type Sections struct {
	Version      []Item
	Precision    []Item
	Preprocessor []Item
	Structs      []Item
	Inputs       []Item
	Outputs      []Item
	Uniforms     []Item
	Program      []Item
}

// Len returns the total number of items.
func (s Sections) Len() int {
	return len(s.Version) + len(s.Precision) + len(s.Preprocessor) + len(s.Structs) +
		len(s.Inputs) + len(s.Outputs) + len(s.Uniforms) + len(s.Program)
}

// FindSections classifies every top-level statement of prog. Uniform
// declarations whose shape cannot be merged are rejected.
func FindSections(prog *glsl.Program) (Sections, error) {
	var s Sections
	for _, h := range prog.Items {
		it := Item{Prog: prog, Stmt: h}
		switch n := prog.Node(h).(type) {
		case *glsl.Directive:
			if isVersion(n.Line) {
				s.Version = append(s.Version, it)
			} else {
				s.Preprocessor = append(s.Preprocessor, it)
			}

		case *glsl.PrecisionStmt:
			s.Precision = append(s.Precision, it)

		case *glsl.DeclStmt:
			switch {
			case isStructDefinition(prog, n):
				s.Structs = append(s.Structs, it)
			case n.HasQualifier("uniform"):
				if t, ok := prog.Node(n.Type).(*glsl.TypeSpec); ok && t.Struct.Valid() {
					return Sections{}, fmt.Errorf("unsupported uniform declaration %q: inline struct types cannot be merged", it)
				}
				s.Uniforms = append(s.Uniforms, it)
			case n.HasQualifier("in") || n.HasQualifier("attribute") || n.HasQualifier("varying"):
				s.Inputs = append(s.Inputs, it)
			case n.HasQualifier("out"):
				s.Outputs = append(s.Outputs, it)
			default:
				s.Program = append(s.Program, it)
			}

		case *glsl.InterfaceBlock:
			if n.HasQualifier("uniform") {
				s.Uniforms = append(s.Uniforms, it)
			} else {
				s.Program = append(s.Program, it)
			}

		case *glsl.QualifierDecl:
			// layout(...) uniform; carries no names and stays in place.
			if slices.Contains(n.Qualifiers, "uniform") && len(n.Names) > 0 {
				return Sections{}, fmt.Errorf("unsupported uniform declaration %q", it)
			}
			s.Program = append(s.Program, it)

		default:
			s.Program = append(s.Program, it)
		}
	}
	return s, nil
}

func isVersion(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(line, "#")), "version")
}

// isStructDefinition matches `struct S { ... };` with no qualifiers or names.
func isStructDefinition(prog *glsl.Program, d *glsl.DeclStmt) bool {
	t, ok := prog.Node(d.Type).(*glsl.TypeSpec)
	return ok && t.Struct.Valid() && len(d.Declarators) == 0 && len(d.Qualifiers) == 0
}

// Merge concatenates b after a in every category. Neither input is modified.
func Merge(a, b Sections) Sections {
	return Sections{
		Version:      slices.Concat(a.Version, b.Version),
		Precision:    slices.Concat(a.Precision, b.Precision),
		Preprocessor: slices.Concat(a.Preprocessor, b.Preprocessor),
		Structs:      slices.Concat(a.Structs, b.Structs),
		Inputs:       slices.Concat(a.Inputs, b.Inputs),
		Outputs:      slices.Concat(a.Outputs, b.Outputs),
		Uniforms:     slices.Concat(a.Uniforms, b.Uniforms),
		Program:      slices.Concat(a.Program, b.Program),
	}
}

// Options configures ToProgram.
type Options struct {
	IncludeVersion   bool
	IncludePrecision bool
}

// DefaultOptions returns options that emit every section.
func DefaultOptions() Options {
	return Options{IncludeVersion: true, IncludePrecision: true}
}

// ToProgram renders deduplicated sections into a new program in the order
// version, precision, preprocessor, structs, inputs, outputs, uniforms,
// program statements.
func ToProgram(s Sections, opts Options) (*glsl.Program, error) {
	out := glsl.NewProgram()
	emit := func(items []Item) {
		for _, it := range items {
			out.Items = append(out.Items, out.Graft(it.Prog, it.Stmt))
		}
	}

	if opts.IncludeVersion {
		emit(DedupeVersion(s.Version))
	}
	if opts.IncludePrecision {
		out.Items = append(out.Items, DedupePrecision(out, s.Precision)...)
	}
	emit(s.Preprocessor)
	emit(s.Structs)
	out.Items = append(out.Items, DedupeQualified(out, s.Inputs)...)
	out.Items = append(out.Items, DedupeQualified(out, s.Outputs)...)
	uniforms, err := DedupeUniforms(out, s.Uniforms)
	if err != nil {
		return nil, err
	}
	out.Items = append(out.Items, uniforms...)
	emit(s.Program)

	glsl.Analyze(out)
	return out, nil
}
