// Package graph models a shader composition graph: source nodes holding
// GLSL fragments, data nodes holding literal values, and the edges that
// feed producer outputs into consumer input slots.
//
// Graphs persist as JSON or YAML with a "kind" discriminant per node:
//
//	nodes:
//	  - kind: source
//	    id: out
//	    type: output
//	    stage: fragment
//	    source: "out vec4 frogFragOut; void main() { frogFragOut = vec4(1.0); }"
//	  - kind: data
//	    id: n1
//	    type: number
//	    value: 0.5
//	edges: []
//
// Collect walks a graph backward from a node, accumulating the producers
// and input slots selected by a Query.
package graph
