// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "strings"

// builtinTypes contains every GLSL type keyword that can start a declaration
// or a constructor call. Based on GLSL 4.60 and GLSL ES 3.20.
var builtinTypes = map[string]struct{}{
	// Basic types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},

	// Vector types
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},
	"dvec2": {}, "dvec3": {}, "dvec4": {},

	// Matrix types
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},
	"dmat2": {}, "dmat3": {}, "dmat4": {},
	"dmat2x2": {}, "dmat2x3": {}, "dmat2x4": {},
	"dmat3x2": {}, "dmat3x3": {}, "dmat3x4": {},
	"dmat4x2": {}, "dmat4x3": {}, "dmat4x4": {},

	// Sampler types
	"sampler": {}, "sampler1D": {}, "sampler2D": {}, "sampler3D": {},
	"samplerCube": {}, "sampler2DRect": {}, "samplerExternalOES": {},
	"sampler1DShadow": {}, "sampler2DShadow": {}, "samplerCubeShadow": {}, "sampler2DRectShadow": {},
	"sampler1DArray": {}, "sampler2DArray": {},
	"sampler1DArrayShadow": {}, "sampler2DArrayShadow": {},
	"samplerCubeArray": {}, "samplerCubeArrayShadow": {},
	"samplerBuffer": {}, "sampler2DMS": {}, "sampler2DMSArray": {},

	// Integer sampler types
	"isampler1D": {}, "isampler2D": {}, "isampler3D": {},
	"isamplerCube": {}, "isampler2DRect": {},
	"isampler1DArray": {}, "isampler2DArray": {},
	"isamplerCubeArray": {},
	"isamplerBuffer":    {}, "isampler2DMS": {}, "isampler2DMSArray": {},

	// Unsigned integer sampler types
	"usampler1D": {}, "usampler2D": {}, "usampler3D": {},
	"usamplerCube": {}, "usampler2DRect": {},
	"usampler1DArray": {}, "usampler2DArray": {},
	"usamplerCubeArray": {},
	"usamplerBuffer":    {}, "usampler2DMS": {}, "usampler2DMSArray": {},

	// Image types
	"image1D": {}, "image2D": {}, "image3D": {},
	"imageCube": {}, "image2DRect": {},
	"image1DArray": {}, "image2DArray": {},
	"imageCubeArray": {},
	"imageBuffer":    {}, "image2DMS": {}, "image2DMSArray": {},
	"iimage2D": {}, "iimage3D": {}, "uimage2D": {}, "uimage3D": {},

	// Atomic counter types
	"atomic_uint": {},
}

// qualifierKeywords are the storage, auxiliary, interpolation, precision,
// invariance and memory qualifiers. The lexer emits them as TokenQualifier.
var qualifierKeywords = map[string]struct{}{
	"const": {}, "uniform": {}, "buffer": {}, "shared": {},
	"in": {}, "out": {}, "inout": {},
	"attribute": {}, "varying": {},
	"centroid": {}, "sample": {}, "patch": {},
	"flat": {}, "smooth": {}, "noperspective": {},
	"highp": {}, "mediump": {}, "lowp": {},
	"invariant": {}, "precise": {},
	"coherent": {}, "volatile": {}, "restrict": {}, "readonly": {}, "writeonly": {},
	"subroutine": {},
}

// precisionRank orders precision qualifiers from lowest to highest.
var precisionRank = map[string]int{
	"lowp":    1,
	"mediump": 2,
	"highp":   3,
}

// IsBuiltinType reports whether name is a GLSL type keyword.
func IsBuiltinType(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

// IsQualifier reports whether name is a GLSL qualifier keyword.
func IsQualifier(name string) bool {
	_, ok := qualifierKeywords[name]
	return ok
}

// IsPrecision reports whether q is one of lowp, mediump or highp.
func IsPrecision(q string) bool {
	_, ok := precisionRank[q]
	return ok
}

// PrecisionRank returns the ordering weight of a precision qualifier, or 0
// when q is not a precision qualifier.
func PrecisionRank(q string) int {
	return precisionRank[q]
}

// IsReservedName reports whether name belongs to the implementation:
// gl_-prefixed built-ins and type keywords can never be renamed.
func IsReservedName(name string) bool {
	return strings.HasPrefix(name, "gl_") || IsBuiltinType(name) || IsQualifier(name)
}
