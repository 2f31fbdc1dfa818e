package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Format is a graph file encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension; anything that is
// not .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

const (
	kindSource = "source"
	kindData   = "data"
)

// nodeRecord is the persisted shape of both node kinds, discriminated by
// Kind.
type nodeRecord struct {
	Kind string `json:"kind" yaml:"kind"`
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Source          string         `json:"source,omitempty" yaml:"source,omitempty"`
	SourceType      SourceType     `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	Stage           Stage          `json:"stage,omitempty" yaml:"stage,omitempty"`
	Config          *NodeConfig    `json:"config,omitempty" yaml:"config,omitempty"`
	Inputs          []NodeInput    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	NextStageNodeID string         `json:"nextStageNodeId,omitempty" yaml:"nextStageNodeId,omitempty"`
	Backfill        *Backfill      `json:"backfill,omitempty" yaml:"backfill,omitempty"`
	Value           any            `json:"value,omitempty" yaml:"value,omitempty"`
	Outputs         []OutputSocket `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

type graphRecord struct {
	Nodes []nodeRecord `json:"nodes" yaml:"nodes"`
	Edges []Edge       `json:"edges" yaml:"edges"`
}

func toRecord(n Node) nodeRecord {
	switch n := n.(type) {
	case *SourceNode:
		cfg := n.Config
		return nodeRecord{
			Kind:            kindSource,
			ID:              n.ID,
			Name:            n.Name,
			Type:            n.Type,
			Source:          n.Source,
			SourceType:      n.SourceType,
			Stage:           n.Stage,
			Config:          &cfg,
			Inputs:          n.Inputs,
			NextStageNodeID: n.NextStageNodeID,
			Backfill:        n.Backfill,
			Outputs:         n.Outputs,
		}
	case *DataNode:
		return nodeRecord{
			Kind:    kindData,
			ID:      n.ID,
			Name:    n.Name,
			Type:    string(n.Type),
			Value:   n.Value,
			Outputs: n.Outputs,
		}
	}
	panic(fmt.Sprintf("graph: unexpected node type %T", n))
}

func (r nodeRecord) node() (Node, error) {
	switch r.Kind {
	case kindSource:
		n := &SourceNode{
			ID:              r.ID,
			Name:            r.Name,
			Type:            r.Type,
			Source:          r.Source,
			SourceType:      r.SourceType,
			Stage:           r.Stage,
			Inputs:          r.Inputs,
			NextStageNodeID: r.NextStageNodeID,
			Backfill:        r.Backfill,
			Outputs:         r.Outputs,
		}
		if r.Config != nil {
			n.Config = *r.Config
		}
		return n, nil
	case kindData:
		return &DataNode{
			ID:      r.ID,
			Name:    r.Name,
			Type:    DataType(r.Type),
			Value:   normalizeValue(r.Value),
			Outputs: r.Outputs,
		}, nil
	}
	return nil, fmt.Errorf("node %q: unknown kind %q", r.ID, r.Kind)
}

// normalizeValue turns decoded numbers into float64 and numeric lists into
// []float64.
func normalizeValue(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []any:
		floats := make([]float64, 0, len(v))
		for _, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return v
			}
			floats = append(floats, f)
		}
		return floats
	}
	return v
}

func record(g *Graph) graphRecord {
	rec := graphRecord{
		Nodes: lo.Map(g.Nodes, func(n Node, _ int) nodeRecord { return toRecord(n) }),
		Edges: g.Edges,
	}
	if rec.Edges == nil {
		rec.Edges = []Edge{}
	}
	return rec
}

// Encode serializes g.
func Encode(g *Graph, f Format) ([]byte, error) {
	rec := record(g)
	switch f {
	case FormatYAML:
		return yaml.Marshal(rec)
	default:
		return json.MarshalIndent(rec, "", "  ")
	}
}

// Decode parses a graph.
func Decode(data []byte, f Format) (*Graph, error) {
	var rec graphRecord
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &rec)
	default:
		err = json.Unmarshal(data, &rec)
	}
	if err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}

	g := New(make([]Node, 0, len(rec.Nodes)), rec.Edges)
	seen := make(map[string]bool, len(rec.Nodes))
	for _, r := range rec.Nodes {
		if seen[r.ID] {
			return nil, fmt.Errorf("decode graph: duplicate node id %q", r.ID)
		}
		seen[r.ID] = true
		n, err := r.node()
		if err != nil {
			return nil, fmt.Errorf("decode graph: %w", err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	return g, nil
}

// Load reads a graph file, choosing the format from its extension.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Save writes g to path, choosing the format from its extension.
func Save(path string, g *Graph) error {
	data, err := Encode(g, FormatFor(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Hash returns the hex sha256 of the canonical JSON encoding of g. Equal
// graphs hash equally regardless of the file format they were read from.
func Hash(g *Graph) (string, error) {
	data, err := json.Marshal(record(g))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
