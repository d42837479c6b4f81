package flow

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/trace"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// Default frame size when the layout extent is degenerate.
const (
	defaultFrameWidth  = 800
	defaultFrameHeight = 600
)

const flowCSS = `
    .flow-node { fill: white; stroke: #1f2430; stroke-width: 1; rx: 3; }
    .flow-node.endpoint { fill: #ffd27f; stroke-width: 2; }
    .flow-label { font-family: monospace; font-size: 10px; fill: #1f2430; text-anchor: middle; }
    .flow-link { stroke: #1f2430; stroke-width: 1; fill: none; }
    .flow-link.synthetic { stroke: grey; stroke-dasharray: 4 3; }`

// SVGOption configures SVG rendering via [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	nodeWidth  float64
	nodeHeight float64
}

// WithNodeSize overrides the drawn node box size. It should match the
// pitch the layout was computed with.
func WithNodeSize(width, height float64) SVGOption {
	return func(r *svgRenderer) { r.nodeWidth = width; r.nodeHeight = height }
}

// SVG renders a trace layout using its computed positions. The depth axis
// runs left to right: upstream callers on the left, the endpoint pivot in
// the middle, downstream callees on the right.
func SVG(l viz.Layout, opts ...SVGOption) ([]byte, error) {
	if !l.IsTrace() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidVizType, "flow sink needs a trace layout, got %q", l.VizType)
	}

	r := svgRenderer{
		nodeWidth:  trace.DefaultNodeWidth,
		nodeHeight: trace.DefaultNodeHeight,
	}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := int(l.Width), int(l.Height)
	if width <= 0 {
		width = defaultFrameWidth
	}
	if height <= 0 {
		height = defaultFrameHeight
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Style("text/css", flowCSS)
	canvas.Gtransform(fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", l.Fit.TranslateX, l.Fit.TranslateY, l.Fit.Scale))

	// Links under nodes
	for _, link := range l.Links {
		if link.From < 0 || link.From >= len(l.Nodes) || link.To < 0 || link.To >= len(l.Nodes) {
			continue
		}
		from, to := l.Nodes[link.From], l.Nodes[link.To]
		class := "flow-link"
		if link.Synthetic {
			class += " synthetic"
		}
		// Depth axis (Y) maps to screen x, cross axis (X) to screen y
		canvas.Line(int(from.Y), int(from.X), int(to.Y), int(to.X), fmt.Sprintf(`class="%s"`, class))
	}

	// Node boxes are drawn slightly narrower than the pitch so neighbors
	// stay visually separated
	boxW, boxH := r.nodeWidth*0.88, r.nodeHeight*0.8
	for _, n := range l.Nodes {
		class := "flow-node"
		if n.Kind == string(trace.KindEndpoint) {
			class += " endpoint"
		}
		canvas.Rect(int(n.Y-boxW/2), int(n.X-boxH/2), int(boxW), int(boxH), fmt.Sprintf(`class="%s"`, class))
		canvas.Text(int(n.Y), int(n.X+3), nodeText(n, boxW), `class="flow-label"`)
	}

	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}

// nodeText truncates the node name to what fits inside the box.
func nodeText(n viz.TraceNode, boxWidth float64) string {
	cells := int(boxWidth / 6)
	if cells < 2 {
		return ""
	}
	return runewidth.Truncate(n.Name, cells, "…")
}
