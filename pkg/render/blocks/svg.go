// Package blocks renders structure layouts as SVG or JSON.
//
// The SVG sink draws one rectangle per element block, grouped under the
// fit transform so the drawing is centered in its frame. An optional
// line gutter draws the per-line annotation ticks along the left edge.
package blocks

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/structure"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// Default frame size when the layout extent is degenerate.
const (
	defaultFrameWidth  = 800
	defaultFrameHeight = 600
)

// gutterTickWidth is the width of one annotation tick in user units.
const gutterTickWidth = 4

// kindColors maps annotation color classes to fills.
var kindColors = map[string]string{
	"el-function":            "#4c9be8",
	"el-class":               "#b07cd8",
	"el-import":              "#8a9199",
	"el-statement_block":     "#56b386",
	"el-variable_definition": "#d8a657",
	"el-comment_block":       "#a89984",
	"el-other":               "#6b7280",
}

// blockCSS holds the shared block styling; per-kind fills are appended.
const blockCSS = `
    .block { stroke: #1f2430; stroke-width: 1; rx: 2; }
    .block-label { font-family: monospace; font-size: 10px; fill: #1f2430; }
    .gutter-tick { stroke: none; }`

// SVGOption configures SVG rendering via [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title      string
	gutter     bool
	lineHeight float64
}

// WithTitle draws a title above the drawing.
func WithTitle(title string) SVGOption {
	return func(r *svgRenderer) { r.title = title }
}

// WithLineGutter draws the line-annotation ticks along the left edge.
func WithLineGutter() SVGOption {
	return func(r *svgRenderer) { r.gutter = true }
}

// WithLineHeight overrides the line height used for gutter tick placement.
func WithLineHeight(h float64) SVGOption {
	return func(r *svgRenderer) { r.lineHeight = h }
}

// SVG renders a structure layout.
func SVG(l viz.Layout, opts ...SVGOption) ([]byte, error) {
	if !l.IsStructure() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidVizType, "blocks sink needs a structure layout, got %q", l.VizType)
	}

	r := svgRenderer{lineHeight: structure.DefaultLineHeight}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := frameSize(l)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Style("text/css", styleSheet())

	if r.title != "" {
		canvas.Text(8, 16, r.title, `font-family="monospace"`, `font-size="12px"`, `fill="#1f2430"`)
	}

	canvas.Gtransform(transformAttr(l))
	if r.gutter {
		renderGutter(canvas, l, r.lineHeight)
	}
	renderBlocks(canvas, l)
	canvas.Gend()

	canvas.End()
	return buf.Bytes(), nil
}

// frameSize picks the outer SVG frame. The fit transform was computed for
// a container; the layout extent stands in when no sane extent exists.
func frameSize(l viz.Layout) (int, int) {
	w, h := int(l.Width), int(l.Height)
	if w <= 0 {
		w = defaultFrameWidth
	}
	if h <= 0 {
		h = defaultFrameHeight
	}
	return w, h
}

// transformAttr formats the fit transform as an SVG group transform.
func transformAttr(l viz.Layout) string {
	return fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", l.Fit.TranslateX, l.Fit.TranslateY, l.Fit.Scale)
}

func renderBlocks(canvas *svg.SVG, l viz.Layout) {
	for _, b := range l.Blocks {
		class := structureClass(b.Kind)
		canvas.Rect(int(b.X), int(b.Y), int(b.Width), int(b.Height),
			fmt.Sprintf(`class="block %s"`, class),
			fmt.Sprintf(`id="block-%d"`, b.ElementID))

		label := blockLabel(b)
		if label != "" {
			canvas.Text(int(b.X)+4, int(b.Y)+12, label, `class="block-label"`)
		}
	}
}

// blockLabel truncates the name to what fits inside the block.
func blockLabel(b viz.Block) string {
	cells := int(b.Width / 7)
	if cells < 2 {
		return ""
	}
	return runewidth.Truncate(b.Name, cells, "…")
}

// renderGutter draws annotation ticks: one small rect per covering
// element, stacked left to right in depth order.
func renderGutter(canvas *svg.SVG, l viz.Layout, lineHeight float64) {
	lines := make([]int, 0, len(l.Lines))
	for key := range l.Lines {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			continue
		}
		lines = append(lines, n)
	}
	sort.Ints(lines)

	tickHeight := int(lineHeight)
	if tickHeight < 1 {
		tickHeight = 1
	}
	for _, line := range lines {
		y := int(float64(line-1) * lineHeight)
		for i, ann := range l.Lines[strconv.Itoa(line)] {
			x := -gutterTickWidth * (len(l.Lines[strconv.Itoa(line)]) - i)
			canvas.Rect(x, y, gutterTickWidth, tickHeight,
				`class="gutter-tick"`,
				fmt.Sprintf(`fill="%s"`, fillFor(ann.ColorClass)))
		}
	}
}

// structureClass maps a serialized kind back to its annotation class.
func structureClass(kind string) string {
	class := "el-" + kind
	if _, ok := kindColors[class]; !ok {
		return "el-other"
	}
	return class
}

func fillFor(class string) string {
	if fill, ok := kindColors[class]; ok {
		return fill
	}
	return kindColors["el-other"]
}

// styleSheet builds the CSS with one fill rule per kind, in stable order.
func styleSheet() string {
	classes := make([]string, 0, len(kindColors))
	for class := range kindColors {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	var buf bytes.Buffer
	buf.WriteString(blockCSS)
	for _, class := range classes {
		fmt.Fprintf(&buf, "\n    .%s { fill: %s; }", class, kindColors[class])
	}
	return buf.String()
}
