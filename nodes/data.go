// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nodes

import "github.com/gogpu/shadergraph/graph"

func dataOutputs(t graph.DataType) []graph.OutputSocket {
	return []graph.OutputSocket{{ID: "out", Name: "out", DataType: t, Category: graph.CategoryData}}
}

// Number returns a scalar data node.
func Number(id, name string, v float64) *graph.DataNode {
	return &graph.DataNode{ID: id, Name: name, Type: graph.DataNumber, Value: v, Outputs: dataOutputs(graph.DataNumber)}
}

// Vector returns a vector, color or matrix data node of type t.
func Vector(id, name string, t graph.DataType, components ...float64) *graph.DataNode {
	return &graph.DataNode{ID: id, Name: name, Type: t, Value: components, Outputs: dataOutputs(t)}
}

// Color returns an rgb data node.
func Color(id, name string, r, g, b float64) *graph.DataNode {
	return Vector(id, name, graph.DataRGB, r, g, b)
}

// Texture returns a texture data node referring to an engine image.
func Texture(id, name, ref string) *graph.DataNode {
	return &graph.DataNode{ID: id, Name: name, Type: graph.DataTexture, Value: ref, Outputs: dataOutputs(graph.DataTexture)}
}
