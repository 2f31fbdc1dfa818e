// Package ir defines ShaderSections, the intermediate representation used
// to merge the top-level declarations of many independently written GLSL
// programs into one.
//
// # Structure
//
// FindSections partitions one program's top-level statements into:
//   - Version: the #version directive
//   - Precision: default precision statements
//   - Preprocessor: every other directive
//   - Structs: struct definitions
//   - Inputs and Outputs: in/attribute/varying and out declarations
//   - Uniforms: uniform declarations and uniform interface blocks
//   - Program: everything else, functions included
//
// # Merging
//
// Merge concatenates two Sections category by category, so merging in
// dependency order keeps producers ahead of their consumers. ToProgram
// then deduplicates each category and renders a single program:
//
//	merged := ir.Merge(producer, consumer)
//	prog, err := ir.ToProgram(merged, ir.DefaultOptions())
//	text := glsl.Generate(prog)
package ir
