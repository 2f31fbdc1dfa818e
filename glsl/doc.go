// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl parses, analyzes, rewrites and prints GLSL source.
//
// The AST lives in a single arena owned by a Program. Nodes reference
// their children by Handle, so any subtree can be swapped in place with
// Program.Replace without touching its parent, and subtrees can be copied
// between programs with Program.Graft.
//
// # Basic Usage
//
//	prog, err := glsl.Parse(src, glsl.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	prog.RenameBindings(prog.Global(), func(name string, b *glsl.Binding) string {
//	    return name + "_1"
//	})
//	out := glsl.Generate(prog)
//
// # Parse Modes
//
// ModeProgram parses a translation unit. ModeExpression parses a single
// expression and wraps it in an ExprStmt. ModeStatements parses a bare
// statement list such as the body of a function.
//
// # Scopes
//
// Parse runs Analyze, which fills Program.Scopes. Each Scope indexes its
// variable bindings, functions and struct types with their declaring and
// referencing nodes. Names used without a visible declaration are recorded
// as undeclared bindings of the global scope.
package glsl
