package graph

import (
	"fmt"
	"slices"
)

// SourceType tells how a source node's text is parsed.
type SourceType uint8

const (
	// SourceProgram is a full translation unit with a main function.
	SourceProgram SourceType = iota
	// SourceExpression is one bare expression.
	SourceExpression
	// SourceFunctionBody is a statement list without an enclosing function.
	SourceFunctionBody
)

var sourceTypeNames = []string{"program", "expression", "function_body"}

func (t SourceType) String() string { return enumString(sourceTypeNames, t) }

func (t SourceType) MarshalText() ([]byte, error) { return enumMarshal("source type", sourceTypeNames, t) }

func (t *SourceType) UnmarshalText(b []byte) error {
	return enumUnmarshal("source type", sourceTypeNames, b, t)
}

// Stage is the pipeline half a node belongs to.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageFragment
)

var stageNames = []string{"", "vertex", "fragment"}

func (s Stage) String() string { return enumString(stageNames, s) }

func (s Stage) MarshalText() ([]byte, error) { return enumMarshal("stage", stageNames, s) }

func (s *Stage) UnmarshalText(b []byte) error { return enumUnmarshal("stage", stageNames, b, s) }

// Other returns the opposite stage.
func (s Stage) Other() Stage {
	switch s {
	case StageVertex:
		return StageFragment
	case StageFragment:
		return StageVertex
	}
	return StageNone
}

// InputKind classifies where an input slot was found.
type InputKind uint8

const (
	InputUniform InputKind = iota
	InputProperty
	InputFiller
)

var inputKindNames = []string{"uniform", "property", "filler"}

func (k InputKind) String() string { return enumString(inputKindNames, k) }

func (k InputKind) MarshalText() ([]byte, error) { return enumMarshal("input kind", inputKindNames, k) }

func (k *InputKind) UnmarshalText(b []byte) error {
	return enumUnmarshal("input kind", inputKindNames, b, k)
}

// InputCategory is what a slot can be fed with.
type InputCategory uint8

const (
	CategoryData InputCategory = iota + 1
	CategoryCode
)

var categoryNames = []string{"", "data", "code"}

func (c InputCategory) String() string { return enumString(categoryNames, c) }

func (c InputCategory) MarshalText() ([]byte, error) { return enumMarshal("category", categoryNames, c) }

func (c *InputCategory) UnmarshalText(b []byte) error {
	return enumUnmarshal("category", categoryNames, b, c)
}

// StrategyType selects a slot discovery algorithm.
type StrategyType uint8

const (
	StrategyUniform StrategyType = iota
	StrategyTexture
	StrategyNamedAttribute
	StrategyAssignmentTo
	StrategyDeclarationOf
	StrategyVariable
	StrategyInject
	StrategyHardCode
)

var strategyNames = []string{
	"uniform", "texture", "named_attribute", "assignment_to",
	"declaration_of", "variable", "inject", "hard_code",
}

func (t StrategyType) String() string { return enumString(strategyNames, t) }

func (t StrategyType) MarshalText() ([]byte, error) { return enumMarshal("strategy", strategyNames, t) }

func (t *StrategyType) UnmarshalText(b []byte) error {
	return enumUnmarshal("strategy", strategyNames, b, t)
}

// InjectMode is the edit applied to a statement matched by inject.
type InjectMode uint8

const (
	InjectReplace InjectMode = iota
	InjectBefore
	InjectAfter
)

var injectModeNames = []string{"replace", "before", "after"}

func (m InjectMode) String() string { return enumString(injectModeNames, m) }

func (m InjectMode) MarshalText() ([]byte, error) { return enumMarshal("inject mode", injectModeNames, m) }

func (m *InjectMode) UnmarshalText(b []byte) error {
	return enumUnmarshal("inject mode", injectModeNames, b, m)
}

func enumString[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%T(%d)", v, v)
}

func enumMarshal[T ~uint8](kind string, names []string, v T) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func enumUnmarshal[T ~uint8](kind string, names []string, b []byte, v *T) error {
	i := slices.Index(names, string(b))
	if i < 0 {
		return fmt.Errorf("unknown %s %q", kind, b)
	}
	*v = T(i)
	return nil
}

// DataType is the semantic type of a value flowing through the graph.
type DataType string

const (
	DataNumber      DataType = "number"
	DataVector2     DataType = "vector2"
	DataVector3     DataType = "vector3"
	DataVector4     DataType = "vector4"
	DataRGB         DataType = "rgb"
	DataRGBA        DataType = "rgba"
	DataMat2        DataType = "mat2"
	DataMat3        DataType = "mat3"
	DataMat4        DataType = "mat4"
	DataMat2x3      DataType = "mat2x3"
	DataMat2x4      DataType = "mat2x4"
	DataMat3x2      DataType = "mat3x2"
	DataMat3x4      DataType = "mat3x4"
	DataMat4x2      DataType = "mat4x2"
	DataMat4x3      DataType = "mat4x3"
	DataTexture     DataType = "texture"
	DataSamplerCube DataType = "samplerCube"
	DataArray       DataType = "array"
)

var glslTypes = map[DataType]string{
	DataNumber:      "float",
	DataVector2:     "vec2",
	DataVector3:     "vec3",
	DataVector4:     "vec4",
	DataRGB:         "vec3",
	DataRGBA:        "vec4",
	DataMat2:        "mat2",
	DataMat3:        "mat3",
	DataMat4:        "mat4",
	DataMat2x3:      "mat2x3",
	DataMat2x4:      "mat2x4",
	DataMat3x2:      "mat3x2",
	DataMat3x4:      "mat3x4",
	DataMat4x2:      "mat4x2",
	DataMat4x3:      "mat4x3",
	DataTexture:     "sampler2D",
	DataSamplerCube: "samplerCube",
}

// GLSLType returns the GLSL type name for t, or "" when t has no single
// GLSL counterpart.
func (t DataType) GLSLType() string { return glslTypes[t] }

// DataTypeOf maps a GLSL type name to its semantic type. Types that cannot
// be fed from the graph report false.
func DataTypeOf(glslType string) (DataType, bool) {
	switch glslType {
	case "float", "int":
		return DataNumber, true
	case "vec2":
		return DataVector2, true
	case "vec3":
		return DataVector3, true
	case "vec4":
		return DataVector4, true
	case "sampler2D":
		return DataTexture, true
	case "samplerCube":
		return DataSamplerCube, true
	case "mat2", "mat2x2":
		return DataMat2, true
	case "mat3", "mat3x3":
		return DataMat3, true
	case "mat4", "mat4x4":
		return DataMat4, true
	case "mat2x3":
		return DataMat2x3, true
	case "mat2x4":
		return DataMat2x4, true
	case "mat3x2":
		return DataMat3x2, true
	case "mat3x4":
		return DataMat3x4, true
	case "mat4x2":
		return DataMat4x2, true
	case "mat4x3":
		return DataMat4x3, true
	}
	return "", false
}
