// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package nodes provides engine-agnostic constructors for the node types
// every graph needs: the two output nodes, binary operators, full GLSL
// programs, expressions and literal data.
package nodes

import (
	"strings"

	"github.com/gogpu/shadergraph/compiler"
	"github.com/gogpu/shadergraph/graph"
)

const fragmentOutputSource = `#version 300 es
precision highp float;

out vec4 frogFragOut;

void main() {
  frogFragOut = vec4(1.0);
}
`

const vertexOutputSource = `#version 300 es
precision highp float;

uniform mat4 modelViewMatrix;
uniform mat4 projectionMatrix;

in vec3 position;

void main() {
  gl_Position = projectionMatrix * modelViewMatrix * vec4(position, 1.0);
}
`

func codeOrData() []graph.InputCategory {
	return []graph.InputCategory{graph.CategoryCode, graph.CategoryData}
}

// Output returns the output node of stage. Its slots are
// filler_frogFragOut for the fragment stage, and filler_gl_Position plus
// compiler.MainStatements for the vertex stage.
func Output(id string, stage graph.Stage) *graph.SourceNode {
	n := &graph.SourceNode{
		ID:         id,
		Name:       "Output",
		Type:       graph.TypeOutput,
		SourceType: graph.SourceProgram,
		Stage:      stage,
		Config:     graph.NodeConfig{Version: 3, NoMangle: true},
	}
	switch stage {
	case graph.StageVertex:
		n.Source = vertexOutputSource
		n.Config.Strategies = []graph.Strategy{
			graph.AssignmentToStrategy("gl_Position"),
			graph.InjectStrategy(graph.Inject{
				Name: compiler.MainStatements,
				Find: "gl_Position",
				Mode: graph.InjectBefore,
			}),
		}
		n.Inputs = []graph.NodeInput{
			{ID: "filler_gl_Position", DisplayName: "Position", Kind: graph.InputFiller,
				DataType: graph.DataVector4, Accepts: codeOrData()},
			{ID: compiler.MainStatements, DisplayName: compiler.MainStatements, Kind: graph.InputFiller,
				Accepts: []graph.InputCategory{graph.CategoryCode}},
		}
	default:
		n.Source = fragmentOutputSource
		n.Config.Strategies = []graph.Strategy{graph.AssignmentToStrategy(compiler.FragmentOutput)}
		n.Inputs = []graph.NodeInput{
			{ID: "filler_" + compiler.FragmentOutput, DisplayName: "Color", Kind: graph.InputFiller,
				DataType: graph.DataVector4, Accepts: codeOrData()},
		}
	}
	return n
}

// operands names the slots of a binary node.
const operands = "abcdefghijklmnopqrstuvwxyz"

// Binary returns a node applying op to count operands, left to right:
// "a + b + c". count is clamped to [2, 26].
func Binary(id, name, op string, count int) *graph.SourceNode {
	count = min(max(count, 2), len(operands))
	names := strings.Split(operands[:count], "")

	inputs := make([]graph.NodeInput, count)
	for i, v := range names {
		inputs[i] = graph.NodeInput{
			ID:          "filler_" + v,
			DisplayName: v,
			Kind:        graph.InputFiller,
			Accepts:     codeOrData(),
			Bakeable:    true,
		}
	}
	return &graph.SourceNode{
		ID:         id,
		Name:       name,
		Type:       graph.TypeBinary,
		Source:     strings.Join(names, " "+op+" "),
		SourceType: graph.SourceExpression,
		Config: graph.NodeConfig{
			Version:    3,
			Strategies: []graph.Strategy{graph.VariableStrategy()},
		},
		Inputs:  inputs,
		Outputs: []graph.OutputSocket{{ID: "out", Name: "out", Category: graph.CategoryCode}},
	}
}

// Add returns a two operand addition.
func Add(id string) *graph.SourceNode { return Binary(id, "Add", "+", 2) }

// Multiply returns a two operand multiplication.
func Multiply(id string) *graph.SourceNode { return Binary(id, "Multiply", "*", 2) }

// Source returns a full program node whose uniforms and texture samples
// become input slots.
func Source(id, name string, stage graph.Stage, source string) *graph.SourceNode {
	return &graph.SourceNode{
		ID:         id,
		Name:       name,
		Type:       graph.TypeSource,
		Source:     source,
		SourceType: graph.SourceProgram,
		Stage:      stage,
		Config: graph.NodeConfig{
			Version:    3,
			Strategies: []graph.Strategy{graph.UniformStrategy(), graph.TextureStrategy()},
		},
		Outputs: []graph.OutputSocket{{ID: "out", Name: "out", DataType: graph.DataVector4, Category: graph.CategoryCode}},
	}
}

// Expression returns a node inlining one GLSL expression. Every variable
// it reads becomes an input slot.
func Expression(id, name, source string) *graph.SourceNode {
	return &graph.SourceNode{
		ID:         id,
		Name:       name,
		Type:       graph.TypeSource,
		Source:     source,
		SourceType: graph.SourceExpression,
		Config: graph.NodeConfig{
			Version:    3,
			Strategies: []graph.Strategy{graph.VariableStrategy()},
		},
		Outputs: []graph.OutputSocket{{ID: "out", Name: "out", Category: graph.CategoryCode}},
	}
}

// Link pairs a vertex node with its fragment counterpart.
func Link(vertex, fragment *graph.SourceNode) {
	vertex.NextStageNodeID = fragment.ID
	fragment.NextStageNodeID = vertex.ID
}
