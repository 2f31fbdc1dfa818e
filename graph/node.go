package graph

import (
	"fmt"
	"slices"
)

// Engine node types with built-in compiler behavior. Any other type is
// compiled as a plain source node unless the engine registers hooks for it.
const (
	TypeOutput = "output"
	TypeBinary = "binary"
	TypeSource = "source"
)

// Node is a graph node: either *SourceNode or *DataNode.
type Node interface {
	NodeID() string
	NodeName() string
	NodeOutputs() []OutputSocket
	isNode()
}

// SourceNode holds GLSL text plus the configuration describing how its
// input slots are found.
type SourceNode struct {
	ID     string
	Name   string
	Type   string
	Source string

	SourceType SourceType
	Stage      Stage
	Config     NodeConfig

	Inputs  []NodeInput
	Outputs []OutputSocket

	// NextStageNodeID links a vertex node to its fragment counterpart and
	// back.
	NextStageNodeID string

	// Backfill names the implicit global the node reads which a consumer
	// may pass in as a parameter instead.
	Backfill *Backfill
}

func (n *SourceNode) NodeID() string              { return n.ID }
func (n *SourceNode) NodeName() string            { return n.Name }
func (n *SourceNode) NodeOutputs() []OutputSocket { return n.Outputs }
func (*SourceNode) isNode()                       {}

// Input returns the slot with the given id.
func (n *SourceNode) Input(id string) (NodeInput, bool) {
	i := slices.IndexFunc(n.Inputs, func(in NodeInput) bool { return in.ID == id })
	if i < 0 {
		return NodeInput{}, false
	}
	return n.Inputs[i], true
}

// HasMain reports whether the node source defines a main function that
// becomes its entry point.
func (n *SourceNode) HasMain() bool {
	return n.SourceType == SourceProgram
}

// Mangled reports whether identifiers of this node are namespaced.
func (n *SourceNode) Mangled() bool {
	return !n.Config.NoMangle && n.SourceType == SourceProgram
}

// DataNode holds one literal value.
type DataNode struct {
	ID    string
	Name  string
	Type  DataType
	Value any

	Outputs []OutputSocket
}

func (n *DataNode) NodeID() string              { return n.ID }
func (n *DataNode) NodeName() string            { return n.Name }
func (n *DataNode) NodeOutputs() []OutputSocket { return n.Outputs }
func (*DataNode) isNode()                       {}

// Number returns the value of a scalar data node.
func (n *DataNode) Number() (float64, bool) {
	return toFloat(n.Value)
}

// Vector returns the components of a vector, color or matrix node.
// A scalar is returned as a one-element vector.
func (n *DataNode) Vector() ([]float64, bool) {
	switch v := n.Value.(type) {
	case []float64:
		return v, true
	case []any:
		out := make([]float64, 0, len(v))
		for _, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	if f, ok := toFloat(n.Value); ok {
		return []float64{f}, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Inputs returns the input slots of n. Data nodes have none.
func Inputs(n Node) []NodeInput {
	switch n := n.(type) {
	case *SourceNode:
		return n.Inputs
	case *DataNode:
		return nil
	}
	panic(fmt.Sprintf("graph: unexpected node type %T", n))
}

// OutputSocket is a named output of a node.
type OutputSocket struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	DataType DataType      `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Category InputCategory `json:"category,omitempty" yaml:"category,omitempty"`
}

// Backfill describes a parameter added to a node's entry point.
type Backfill struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// NodeInput is one substitutable slot of a source node.
type NodeInput struct {
	ID          string          `json:"id" yaml:"id"`
	DisplayName string          `json:"displayName" yaml:"displayName"`
	Kind        InputKind       `json:"kind" yaml:"kind"`
	DataType    DataType        `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Accepts     []InputCategory `json:"accepts,omitempty" yaml:"accepts,omitempty"`
	Bakeable    bool            `json:"bakeable,omitempty" yaml:"bakeable,omitempty"`
	Baked       bool            `json:"baked,omitempty" yaml:"baked,omitempty"`
	Property    string          `json:"property,omitempty" yaml:"property,omitempty"`
}

// AcceptsCategory reports whether c is accepted by the slot.
func (in NodeInput) AcceptsCategory(c InputCategory) bool {
	return slices.Contains(in.Accepts, c)
}

// IsDataOnly reports whether the slot is fed at runtime instead of being
// spliced into code: an unbaked uniform or property slot.
func (in NodeInput) IsDataOnly() bool {
	return (in.Kind == InputUniform || in.Kind == InputProperty) && !in.Baked
}

// Edge connects a producer output to a consumer input slot.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Output string `json:"output" yaml:"output"`
	Input  string `json:"input" yaml:"input"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
}

// EdgeNextStage marks the link between a vertex node and its fragment
// counterpart. It carries no data.
const EdgeNextStage = "next_stage"

// NodeConfig controls parsing, slot discovery and mangling of a node.
type NodeConfig struct {
	// Version is the GLSL dialect of the source: 2 for ES 1.00, 3 for ES 3.00.
	Version    int  `json:"version,omitempty" yaml:"version,omitempty"`
	Preprocess bool `json:"preprocess,omitempty" yaml:"preprocess,omitempty"`
	NoMangle   bool `json:"noMangle,omitempty" yaml:"noMangle,omitempty"`

	Strategies          []Strategy          `json:"strategies,omitempty" yaml:"strategies,omitempty"`
	Uniforms            []UniformDefinition `json:"uniforms,omitempty" yaml:"uniforms,omitempty"`
	Properties          []NodeProperty      `json:"properties,omitempty" yaml:"properties,omitempty"`
	HardCodedProperties map[string]any      `json:"hardCodedProperties,omitempty" yaml:"hardCodedProperties,omitempty"`

	// InputMapping renames discovered slot ids.
	InputMapping map[string]string `json:"inputMapping,omitempty" yaml:"inputMapping,omitempty"`
}

// UniformDefinition declares a uniform the node expects to exist.
type UniformDefinition struct {
	Name  string   `json:"name" yaml:"name"`
	Type  DataType `json:"type" yaml:"type"`
	Value any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// NodeProperty is an engine material property surfaced as a slot. Filling
// the slot is routed through FillerName.
type NodeProperty struct {
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	Type         DataType `json:"type" yaml:"type"`
	Property     string   `json:"property" yaml:"property"`
	FillerName   string   `json:"fillerName,omitempty" yaml:"fillerName,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// Property returns the property owning the named slot.
func (c NodeConfig) Property(name string) (NodeProperty, bool) {
	i := slices.IndexFunc(c.Properties, func(p NodeProperty) bool { return p.Property == name })
	if i < 0 {
		return NodeProperty{}, false
	}
	return c.Properties[i], true
}

// Strategy is one configured slot discovery step.
type Strategy struct {
	Type StrategyType `json:"type" yaml:"type"`

	// Target is the identifier searched by named-attribute, assignment-to
	// and declaration-of.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Index selects the Nth match of assignment-to and declaration-of.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`

	Inject *Inject     `json:"inject,omitempty" yaml:"inject,omitempty"`
	Inputs []NodeInput `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Inject configures the inject strategy.
type Inject struct {
	// Name is the slot id.
	Name string `json:"name" yaml:"name"`

	// Find is matched against the printed text of each statement.
	Find string     `json:"find" yaml:"find"`
	Mode InjectMode `json:"mode" yaml:"mode"`

	// Count caps the number of edited matches; zero edits every match.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
}

func UniformStrategy() Strategy  { return Strategy{Type: StrategyUniform} }
func TextureStrategy() Strategy  { return Strategy{Type: StrategyTexture} }
func VariableStrategy() Strategy { return Strategy{Type: StrategyVariable} }

func NamedAttributeStrategy(name string) Strategy {
	return Strategy{Type: StrategyNamedAttribute, Target: name}
}

func AssignmentToStrategy(target string) Strategy {
	return Strategy{Type: StrategyAssignmentTo, Target: target}
}

func DeclarationOfStrategy(target string) Strategy {
	return Strategy{Type: StrategyDeclarationOf, Target: target}
}

func InjectStrategy(inject Inject) Strategy {
	return Strategy{Type: StrategyInject, Inject: &inject}
}

func HardCodeStrategy(inputs ...NodeInput) Strategy {
	return Strategy{Type: StrategyHardCode, Inputs: inputs}
}
