// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"slices"
	"strings"

	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
)

const (
	// FragmentOutput is the color output declared by upgraded fragment
	// programs and by the default fragment output node.
	FragmentOutput = "frogFragOut"

	// returnVar holds the value a converted main returns.
	returnVar = "frogOut"
)

// UpgradeES3 rewrites a GLSL ES 1.00 program to ES 3.00: attribute and
// varying become in or out, texture2D and textureCube become texture, and
// gl_FragColor is replaced by a declared output. #version lines are
// dropped.
func UpgradeES3(prog *glsl.Program, stage graph.Stage) {
	varying := "in"
	if stage == graph.StageVertex {
		varying = "out"
	}

	prog.Items = slices.DeleteFunc(prog.Items, func(h glsl.Handle) bool {
		d, ok := prog.Node(h).(*glsl.Directive)
		return ok && strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(d.Line, "#")), "version")
	})
	for _, h := range prog.Items {
		if d, ok := prog.Node(h).(*glsl.DeclStmt); ok {
			for i, q := range d.Qualifiers {
				switch q {
				case "attribute":
					d.Qualifiers[i] = "in"
				case "varying":
					d.Qualifiers[i] = varying
				}
			}
		}
	}
	prog.WalkItems(func(_ glsl.Handle, n glsl.Node) bool {
		if call, ok := n.(*glsl.CallExpr); ok {
			if id, ok := prog.Node(call.Func).(*glsl.Ident); ok && (id.Name == "texture2D" || id.Name == "textureCube") {
				id.Name = "texture"
			}
		}
		return true
	})

	glsl.Analyze(prog)
	if b := prog.Global().Bindings.Get("gl_FragColor"); b != nil && stage != graph.StageVertex {
		prog.RenameBinding(b, FragmentOutput)
		insertDeclaration(prog, prog.NewDecl([]string{"out"}, "vec4", FragmentOutput, glsl.NoHandle))
	}
	glsl.Analyze(prog)
}

// insertDeclaration adds a top-level declaration after the leading
// directives and precision statements.
func insertDeclaration(prog *glsl.Program, decl glsl.Handle) {
	i := slices.IndexFunc(prog.Items, func(h glsl.Handle) bool {
		switch prog.Node(h).(type) {
		case *glsl.Directive, *glsl.PrecisionStmt:
			return false
		}
		return true
	})
	if i < 0 {
		i = len(prog.Items)
	}
	prog.Items = slices.Insert(prog.Items, i, decl)
}

// ConvertReturn turns a void main that writes the stage output into a main
// returning vec4. Writes to the output inside main go to a local that is
// returned at every exit. A fragment program loses its output declaration.
// It reports whether main was converted.
func ConvertReturn(prog *glsl.Program, stage graph.Stage) bool {
	mainH, fn := prog.Function("main")
	if fn == nil || prog.TypeName(fn.Return) != "void" {
		return false
	}

	global := prog.Global()
	var output string
	var outDecl, outDeclarator glsl.Handle
	switch stage {
	case graph.StageVertex:
		output = "gl_Position"
	default:
		output = "gl_FragColor"
		for _, h := range prog.Items {
			d, ok := prog.Node(h).(*glsl.DeclStmt)
			if !ok || !d.HasQualifier("out") || prog.TypeName(d.Type) != "vec4" || len(d.Declarators) == 0 {
				continue
			}
			output = prog.Node(d.Declarators[0]).(*glsl.Declarator).Name
			outDecl, outDeclarator = h, d.Declarators[0]
			break
		}
	}

	b := global.Bindings.Get(output)
	if b == nil {
		return false
	}
	refs := slices.DeleteFunc(slices.Clone(b.Refs), func(ref glsl.Handle) bool {
		return !prog.Contains(mainH, ref)
	})
	if len(refs) == 0 {
		return false
	}

	for _, ref := range refs {
		prog.SetName(ref, returnVar)
	}
	body := prog.Node(fn.Body).(*glsl.BlockStmt)
	prog.Walk(fn.Body, func(_ glsl.Handle, n glsl.Node) bool {
		if r, ok := n.(*glsl.ReturnStmt); ok && !r.Value.Valid() {
			r.Value = prog.NewIdent(returnVar)
		}
		return true
	})
	body.Stmts = slices.Insert(body.Stmts, 0, prog.NewDecl(nil, "vec4", returnVar, glsl.NoHandle))
	body.Stmts = append(body.Stmts, prog.NewReturn(prog.NewIdent(returnVar)))
	prog.Replace(fn.Return, &glsl.TypeSpec{Name: "vec4"})

	if outDecl.Valid() {
		prog.RemoveDeclarator(outDecl, outDeclarator)
	}
	glsl.Analyze(prog)
	return true
}
