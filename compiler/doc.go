// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package compiler turns a shader graph into one vertex and one fragment
// GLSL program.
//
// Compilation runs in two passes. ComputeAllContexts parses every node
// reachable from the two output nodes, discovers its input slots with the
// node's strategies and mangles its top-level names. CompileGraph then
// walks each stage from its output node, compiling producers before
// consumers: every producer's filler is spliced into the consumer slot it
// feeds, and the top-level declarations of all reached nodes are merged
// into ir.Sections in dependency order.
//
// CompileSource runs both passes and renders the result:
//
//	ec := compiler.NewContext(engine, compiler.Options{})
//	res, err := compiler.CompileSource(ctx, g, ec)
//	if err != nil {
//		var nodeErr *compiler.NodeError
//		if errors.As(err, &nodeErr) {
//			// a node failed to parse or to expose its slots
//		}
//		return err
//	}
//	fmt.Print(res.FragmentText)
//
// An Engine supplies the names that must never be mangled and optional
// hooks per node type that replace the default node behavior.
package compiler
