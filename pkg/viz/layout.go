// Package viz defines the canonical serialization format for computed
// layouts.
//
// Both layout engines export into one discriminated union consumed by the
// render sinks, the HTTP API, and the CLI. The format is deterministic:
// blocks are sorted by element id and trace nodes are emitted in pre-order,
// so exporting the same layout twice yields byte-identical JSON.
package viz

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/codeatlas/codeatlas/pkg/structure"
	"github.com/codeatlas/codeatlas/pkg/trace"
	"github.com/codeatlas/codeatlas/pkg/viewport"
)

// Visualization types.
const (
	VizTypeStructure = "structure"
	VizTypeTrace     = "trace"
)

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeStructure: true,
	VizTypeTrace:     true,
}

// Layout is the unified serialization format for all visualizations.
//
// This is a discriminated union type - check VizType to determine which
// fields are populated:
//
//	Structure ("structure"):
//	  - Blocks: positioned element rectangles
//	  - Columns: column geometry
//	  - Lines: per-line boundary annotations keyed by line number
//	  - Mode: display mode used ("by-kind", "by-position")
//
//	Trace ("trace"):
//	  - Nodes: positioned trace nodes, pivot first
//	  - Links: edges by node index (synthetic pivot connectors flagged)
//	  - Workflow: workflow key
//
// Shared fields: Width/Height (layout extent) and Fit (viewport transform).
type Layout struct {
	VizType string  `json:"viz_type" bson:"viz_type"`
	Width   float64 `json:"width" bson:"width"`
	Height  float64 `json:"height" bson:"height"`

	Fit viewport.Transform `json:"fit" bson:"fit"`

	// Structure-specific
	Mode    string                               `json:"mode,omitempty" bson:"mode,omitempty"`
	Blocks  []Block                              `json:"blocks,omitempty" bson:"blocks,omitempty"`
	Columns []structure.Column                   `json:"columns,omitempty" bson:"columns,omitempty"`
	Lines   map[string][]structure.LineAnnotation `json:"lines,omitempty" bson:"lines,omitempty"`

	// Trace-specific
	Workflow string      `json:"workflow,omitempty" bson:"workflow,omitempty"`
	Nodes    []TraceNode `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Links    []TraceLink `json:"links,omitempty" bson:"links,omitempty"`
}

// IsStructure returns true if this is a structure layout.
func (l *Layout) IsStructure() bool { return l.VizType == VizTypeStructure }

// IsTrace returns true if this is a trace layout.
func (l *Layout) IsTrace() bool { return l.VizType == VizTypeTrace }

// Block is one positioned element rectangle in a structure layout.
type Block struct {
	ElementID int64   `json:"element_id" bson:"element_id"`
	Name      string  `json:"name" bson:"name"`
	Kind      string  `json:"kind" bson:"kind"`
	Column    int     `json:"column" bson:"column"`
	Depth     int     `json:"depth" bson:"depth"`
	StartLine int     `json:"start_line" bson:"start_line"`
	EndLine   int     `json:"end_line" bson:"end_line"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Width     float64 `json:"width" bson:"width"`
	Height    float64 `json:"height" bson:"height"`
}

// TraceNode is one positioned node in a trace layout.
type TraceNode struct {
	Name  string  `json:"name" bson:"name"`
	Path  string  `json:"path,omitempty" bson:"path,omitempty"`
	Kind  string  `json:"kind" bson:"kind"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Depth int     `json:"depth" bson:"depth"`
}

// TraceLink is a rendered edge between two nodes, by index into Nodes.
type TraceLink struct {
	From      int  `json:"from" bson:"from"`
	To        int  `json:"to" bson:"to"`
	Synthetic bool `json:"synthetic,omitempty" bson:"synthetic,omitempty"`
}

// ExportStructure converts a positioned element plan plus its line map and
// fit transform into the serialization format. Blocks are sorted by element
// id for deterministic output.
func ExportStructure(plan *structure.Plan, lines structure.LineMap, fit viewport.Transform) Layout {
	l := Layout{
		VizType: VizTypeStructure,
		Mode:    string(plan.Mode),
		Width:   plan.Width,
		Height:  plan.Height,
		Fit:     fit,
		Columns: plan.Columns,
	}

	plan.Walk(func(n *structure.Node) {
		l.Blocks = append(l.Blocks, Block{
			ElementID: n.Element.ID,
			Name:      n.Element.Name,
			Kind:      string(n.Element.Kind.Normalize()),
			Column:    n.Column,
			Depth:     n.Depth,
			StartLine: n.Element.StartLine,
			EndLine:   n.Element.EndLine,
			X:         n.X,
			Y:         n.Y,
			Width:     n.Width,
			Height:    n.Height,
		})
	})
	sort.Slice(l.Blocks, func(i, j int) bool {
		return l.Blocks[i].ElementID < l.Blocks[j].ElementID
	})

	if len(lines) > 0 {
		l.Lines = make(map[string][]structure.LineAnnotation, len(lines))
		for line, entries := range lines {
			l.Lines[strconv.Itoa(line)] = entries
		}
	}
	return l
}

// ExportTrace converts a positioned diagram plus its fit transform into the
// serialization format. Nodes are emitted pivot-first in pre-order; links
// reference node indices.
func ExportTrace(d *trace.Diagram, fit viewport.Transform) Layout {
	l := Layout{
		VizType:  VizTypeTrace,
		Workflow: d.Workflow,
		Fit:      fit,
	}

	nodes := d.Nodes()
	index := make(map[*trace.Node]int, len(nodes))
	b := viewport.NewBounds()
	for i, n := range nodes {
		index[n] = i
		b.AddPoint(n.X, n.Y)
		l.Nodes = append(l.Nodes, TraceNode{
			Name:  n.Name,
			Path:  n.Path,
			Kind:  string(n.Kind),
			X:     n.X,
			Y:     n.Y,
			Depth: n.Depth,
		})
	}
	l.Width, l.Height = b.Width(), b.Height()

	for _, link := range d.Links {
		from, okFrom := index[link.From]
		to, okTo := index[link.To]
		if !okFrom || !okTo {
			continue
		}
		l.Links = append(l.Links, TraceLink{From: from, To: to, Synthetic: link.Synthetic})
	}
	return l
}

// MarshalLayout serializes a layout to indented JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeLayoutTo(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLayout deserializes JSON bytes to a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// WriteLayout writes a layout as JSON to an io.Writer.
func WriteLayout(l Layout, w io.Writer) error {
	return writeLayoutTo(l, w)
}

// WriteLayoutFile writes a layout to a JSON file with 0644 permissions.
func WriteLayoutFile(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeLayoutTo(l, f)
}

// ReadLayout decodes a JSON layout from an io.Reader.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// ReadLayoutFile reads a JSON file and returns the decoded layout.
func ReadLayoutFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

func writeLayoutTo(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}
