// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/glsl"
)

// Structural failures. A graph failing one of these cannot be compiled.
var (
	ErrMissingOutput = errors.New("missing output node")
	ErrUnknownNode   = errors.New("unknown node")
	ErrMissingInput  = errors.New("missing input slot")
	ErrMissingFiller = errors.New("missing filler")
	ErrNoContext     = errors.New("node context not computed")
	ErrCycle         = errors.New("graph cycle")
)

// NodeError reports why the context of one node could not be computed.
type NodeError struct {
	NodeID string
	Errors []error
}

func newNodeError(id string, err error) *NodeError {
	var list glsl.SourceErrors
	if errors.As(err, &list) {
		errs := make([]error, len(list))
		for i, e := range list {
			errs[i] = e
		}
		return &NodeError{NodeID: id, Errors: errs}
	}
	return &NodeError{NodeID: id, Errors: []error{err}}
}

func (e *NodeError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("node %s: %s", e.NodeID, strings.Join(msgs, "; "))
}

// Unwrap returns the underlying errors.
func (e *NodeError) Unwrap() []error {
	return e.Errors
}

// StructuralError reports a graph that is malformed around one node or
// edge. Err is one of the Err* sentinels.
type StructuralError struct {
	Err    error
	NodeID string
	EdgeID string
	Detail string
}

func structuralf(sentinel error, nodeID, edgeID, format string, args ...any) *StructuralError {
	return &StructuralError{Err: sentinel, NodeID: nodeID, EdgeID: edgeID, Detail: fmt.Sprintf(format, args...)}
}

func (e *StructuralError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.NodeID != "" {
		sb.WriteString(" (node " + e.NodeID)
		if e.EdgeID != "" {
			sb.WriteString(", edge " + e.EdgeID)
		}
		sb.WriteString(")")
	}
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	return sb.String()
}

func (e *StructuralError) Unwrap() error { return e.Err }
