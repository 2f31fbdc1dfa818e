// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"github.com/gogpu/shadergraph/glsl"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/strategy"
)

// mangleSuffix is the id appended to the names of node. A vertex node
// linked to a fragment node takes the fragment node's id so that names
// shared across the stage boundary agree.
func mangleSuffix(node, sibling *graph.SourceNode) string {
	id := node.ID
	if sibling != nil && sibling.Stage == graph.StageFragment {
		id = sibling.ID
	}
	return strategy.Sanitize(id)
}

// MangleName returns the namespaced form of a top-level name of node.
func MangleName(name string, node, sibling *graph.SourceNode) string {
	return name + "_" + mangleSuffix(node, sibling)
}

// EntryName returns the name main is renamed to in node.
func EntryName(node *graph.SourceNode) string {
	return "main_" + strategy.Sanitize(node.Name)
}

// MangleProgram renames every declared top-level variable, function and
// struct type of prog with MangleName, and main with EntryName. Names in
// preserve, names reserved by GLSL and names the program uses without
// declaring are left alone.
func MangleProgram(prog *glsl.Program, node, sibling *graph.SourceNode, preserve map[string]bool) {
	global := prog.Global()
	rule := func(name string, b *glsl.Binding) string {
		if !b.Declared() || preserve[name] || glsl.IsReservedName(name) {
			return name
		}
		return MangleName(name, node, sibling)
	}
	prog.RenameBindings(global, rule)
	prog.RenameTypes(global, rule)
	prog.RenameFunctions(global, func(name string, b *glsl.Binding) string {
		if name == "main" && b.Declared() {
			return EntryName(node)
		}
		return rule(name, b)
	})
}
