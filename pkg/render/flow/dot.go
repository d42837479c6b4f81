// Package flow renders trace layouts: Graphviz DOT, bespoke SVG, and
// rasterized PNG.
package flow

import (
	"bytes"
	"fmt"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/trace"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// DOT converts a trace layout to Graphviz DOT format. Node positions are
// discarded; Graphviz computes its own. Synthetic pivot connectors render
// dashed to distinguish the stitched upstream trees from real calls.
func DOT(l viz.Layout) (string, error) {
	if !l.IsTrace() {
		return "", apperrors.New(apperrors.ErrCodeInvalidVizType, "flow sink needs a trace layout, got %q", l.VizType)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("\n")

	for i, n := range l.Nodes {
		attrs := fmt.Sprintf("label=%q", nodeLabel(n))
		if n.Kind == string(trace.KindEndpoint) {
			attrs += `, fillcolor="#ffd27f", penwidth=2`
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, attrs)
	}

	buf.WriteString("\n")
	for _, link := range l.Links {
		if link.From < 0 || link.From >= len(l.Nodes) || link.To < 0 || link.To >= len(l.Nodes) {
			continue
		}
		if link.Synthetic {
			fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=grey];\n", link.From, link.To)
		} else {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", link.From, link.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeLabel(n viz.TraceNode) string {
	if n.Path == "" {
		return n.Name
	}
	return n.Name + "\n" + n.Path
}
