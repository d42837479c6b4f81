package structure

import (
	"fmt"
	"math"
	"sort"

	"github.com/mattn/go-runewidth"
)

// Column is a vertical band of the file view holding a group of elements.
type Column struct {
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// Plan is a fully positioned element forest plus the column geometry it was
// placed into. The Roots are the same nodes the forest holds, with layout
// fields populated.
type Plan struct {
	Roots   []*Node
	Columns []Column
	Mode    DisplayMode
	Width   float64
	Height  float64
}

// Walk visits every positioned node in pre-order.
func (p *Plan) Walk(fn func(n *Node)) {
	for _, r := range p.Roots {
		walk(r, 0, fn)
	}
}

// Layout positions every node of the forest according to opts.
//
// Depth-0 siblings are planned into disjoint vertical slots (descending by
// line count, which only affects visual grouping, never line mapping).
// Deeper nodes are pinned to their true source position and indented per
// depth level. The input forest is mutated in place; calling Layout twice
// with identical input produces identical coordinates.
func Layout(f *Forest, opts Options) (*Plan, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("layout options: %w", err)
	}

	plan := &Plan{Roots: f.Roots, Mode: opts.Mode}
	switch opts.Mode {
	case ModeByPosition:
		layoutByPosition(f, opts, plan)
	default:
		layoutByKind(f, opts, plan)
	}

	plan.Width, plan.Height = planExtent(plan)
	return plan, nil
}

// layoutByKind groups roots into one column per kind, columns ordered
// alphabetically. Within a column roots are independent slot groups.
func layoutByKind(f *Forest, opts Options, plan *Plan) {
	groups := make(map[string][]*Node)
	for _, r := range f.Roots {
		kind := string(r.Element.Kind.Normalize())
		groups[kind] = append(groups[kind], r)
	}

	kinds := make([]string, 0, len(groups))
	for k := range groups {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	x := 0.0
	for col, kind := range kinds {
		roots := groups[kind]
		width := columnWidth(roots, opts)
		plan.Columns = append(plan.Columns, Column{Kind: kind, X: x, Width: width})

		// Descending by line count for visual grouping; id breaks ties so
		// re-layout is deterministic.
		ordered := make([]*Node, len(roots))
		copy(ordered, roots)
		sort.SliceStable(ordered, func(i, j int) bool {
			si, sj := ordered[i].Element.SpanLines(), ordered[j].Element.SpanLines()
			if si != sj {
				return si > sj
			}
			return ordered[i].Element.ID < ordered[j].Element.ID
		})

		planSlots(ordered, opts)
		for _, r := range ordered {
			placeSubtree(r, col, x, width, opts)
		}

		x += width + opts.ColumnGap
	}
}

// layoutByPosition flattens the whole forest into a single column ordered by
// start line. Nesting is ignored for slot assignment (annotation still uses
// it).
func layoutByPosition(f *Forest, opts Options, plan *Plan) {
	var all []*Node
	f.Walk(func(n *Node) { all = append(all, n) })

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Element.StartLine != all[j].Element.StartLine {
			return all[i].Element.StartLine < all[j].Element.StartLine
		}
		return all[i].Element.ID < all[j].Element.ID
	})

	width := columnWidth(all, opts)
	plan.Columns = append(plan.Columns, Column{Kind: "all", X: 0, Width: width})

	planSlots(all, opts)
	for _, n := range all {
		n.Column = 0
		n.X = 0
		n.Width = width
	}
}

// planSlots is the sibling layout planner: it assigns each node in order a
// vertical slot by accumulating prior heights plus the inter-element margin.
// Slot ranges are disjoint by construction.
func planSlots(nodes []*Node, opts Options) {
	y := 0.0
	for _, n := range nodes {
		n.Height = heightFor(n.Element.SpanLines(), opts)
		n.Y = y
		y += n.Height + opts.Margin
	}
}

// placeSubtree positions a depth-0 root's descendants. The root keeps its
// planned slot; every deeper node is pinned at its source line and indented.
func placeSubtree(root *Node, col int, colX, colWidth float64, opts Options) {
	root.Column = col
	root.X = colX
	root.Width = colWidth

	var place func(n *Node, depth int)
	place = func(n *Node, depth int) {
		if depth > maxDepth {
			return
		}
		if depth > 0 {
			indent := indentFor(depth, colWidth, opts)
			n.Column = col
			n.X = colX + indent
			n.Width = colWidth - indent
			n.Y = float64(n.Element.StartLine-1) * opts.LineHeight
			n.Height = heightFor(n.Element.SpanLines(), opts)
		}
		for _, c := range n.Children {
			place(c, depth+1)
		}
	}
	place(root, 0)
}

// heightFor returns max(MinHeight, log2(lineCount+1) * HeightScale): a
// sub-linear height so very large elements don't dominate the canvas, with a
// hard floor for single-line elements.
func heightFor(lineCount int, opts Options) float64 {
	if lineCount < 1 {
		lineCount = 1
	}
	h := math.Log2(float64(lineCount)+1) * opts.HeightScale
	if h < opts.MinHeight {
		return opts.MinHeight
	}
	return h
}

// indentFor increases monotonically with depth and is capped twice: by the
// configured IndentCap and at three quarters of the column width, so
// indentation never consumes the full width.
func indentFor(depth int, colWidth float64, opts Options) float64 {
	indent := float64(depth) * opts.IndentStep
	if indent > opts.IndentCap {
		indent = opts.IndentCap
	}
	if limit := colWidth * 0.75; indent > limit {
		indent = limit
	}
	return indent
}

// columnWidth returns the widest label plus padding, with a floor so empty
// or short-named columns stay clickable.
func columnWidth(nodes []*Node, opts Options) float64 {
	maxLabel := 0
	for _, n := range nodes {
		if w := runewidth.StringWidth(n.Element.Name); w > maxLabel {
			maxLabel = w
		}
	}
	width := float64(maxLabel)*opts.LabelCharWidth + 2*opts.ColumnPadding
	if width < DefaultMinColumnWidth {
		width = DefaultMinColumnWidth
	}
	return width
}

// planExtent computes the bounding width and height over all placed nodes.
func planExtent(plan *Plan) (w, h float64) {
	plan.Walk(func(n *Node) {
		if right := n.X + n.Width; right > w {
			w = right
		}
		if bottom := n.Y + n.Height; bottom > h {
			h = bottom
		}
	})
	return w, h
}
