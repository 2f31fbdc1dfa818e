// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nodes

import (
	"slices"

	"github.com/gogpu/shadergraph/compiler"
)

// DefaultPreserve lists the attributes, uniforms and varyings a renderer
// binds by name, plus the fragment output.
var DefaultPreserve = []string{
	"position",
	"normal",
	"uv",
	"uv2",
	"vUv",
	"vPosition",
	"vNormal",
	"time",
	"resolution",
	"modelMatrix",
	"viewMatrix",
	"projectionMatrix",
	"modelViewMatrix",
	"normalMatrix",
	"cameraPosition",
	compiler.FragmentOutput,
}

// Engine returns an engine with no hooks that preserves DefaultPreserve
// and extra.
func Engine(extra ...string) *compiler.Engine {
	return &compiler.Engine{
		Name:     "default",
		Preserve: slices.Concat(DefaultPreserve, extra),
		Hooks:    map[string]compiler.NodeHooks{},
	}
}
