package trace

import (
	"fmt"
	"math"

	"github.com/codeatlas/codeatlas/pkg/errors"
)

// Default layout values.
const (
	DefaultNodeWidth  = 170.0
	DefaultNodeHeight = 28.0
	DefaultTreeMargin = 12.0
)

// Options configures diagram layout.
type Options struct {
	// NodeWidth is the depth-axis pitch: level d sits at (d+1)*NodeWidth
	// from the pivot.
	NodeWidth float64 `json:"node_width,omitempty"`

	// NodeHeight is the cross-axis pitch between leaf-level siblings.
	NodeHeight float64 `json:"node_height,omitempty"`

	// TreeMargin is the cross-axis gap between stacked upstream trees.
	TreeMargin float64 `json:"tree_margin,omitempty"`

	// MaxDepth bounds traversal depth; nodes past it are laid out as leaves.
	MaxDepth int `json:"max_depth,omitempty"`

	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks option values and fills zero fields with
// defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.TreeMargin == 0 {
		o.TreeMargin = DefaultTreeMargin
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.NodeWidth < 0 || o.NodeHeight < 0 || o.TreeMargin < 0 || o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "trace layout options must be non-negative")
	}
	o.validated = true
	return nil
}

// Layout positions every node of the diagram in place and builds its links.
//
// Each side is laid out independently with the same depth-driven algorithm;
// the downstream tree occupies negative Y, upstream trees positive Y. The
// downstream tree is recentered so its cross-axis midpoint aligns with the
// pivot; upstream trees are stacked by extent plus margin and centered as a
// group. An empty diagram (pivot only) is valid and lays out to exactly one
// node at the origin.
func Layout(d *Diagram, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("trace layout options: %w", err)
	}

	d.Pivot.X, d.Pivot.Y, d.Pivot.Depth = 0, 0, 0
	d.Links = d.Links[:0]

	if d.Downstream != nil {
		layoutTree(d.Downstream, -1, opts)
		recenter(d.Downstream, opts)
		d.Links = append(d.Links, Link{From: d.Pivot, To: d.Downstream, Synthetic: true})
		appendTreeLinks(d.Downstream, 0, opts.MaxDepth, &d.Links)
	}

	if len(d.Upstream) > 0 {
		for _, u := range d.Upstream {
			layoutTree(u, 1, opts)
		}
		stackUpstream(d.Upstream, opts)
		for _, u := range d.Upstream {
			d.Links = append(d.Links, Link{From: d.Pivot, To: u, Synthetic: true})
			appendTreeLinks(u, 0, opts.MaxDepth, &d.Links)
		}
	}
	return nil
}

// layoutTree performs the tidy layout for one side: leaves advance a
// cross-axis cursor by one node-height unit, parents center over their
// children, and every level-d node sits at sign*(d+1)*NodeWidth on the
// depth axis.
func layoutTree(root *Node, sign float64, opts Options) {
	cursor := 0.0
	var place func(n *Node, depth int)
	place = func(n *Node, depth int) {
		n.Depth = depth
		n.Y = sign * float64(depth+1) * opts.NodeWidth

		if len(n.Children) == 0 || depth >= opts.MaxDepth {
			n.X = cursor
			cursor += opts.NodeHeight
			return
		}
		for _, c := range n.Children {
			place(c, depth+1)
		}
		n.X = (n.Children[0].X + n.Children[len(n.Children)-1].X) / 2
	}
	place(root, 0)
}

// recenter shifts a tree so its cross-axis midpoint sits at the pivot (0).
func recenter(root *Node, opts Options) {
	min, max := extent(root, opts.MaxDepth)
	shift(root, -(min+max)/2, opts.MaxDepth)
}

// stackUpstream assigns each independent upstream tree a running cross-axis
// offset: total stack height is the sum of per-tree extents plus one margin
// per gap, and the stack starts at -total/2 so the group is centered around
// the pivot's cross-axis position.
func stackUpstream(trees []*Node, opts Options) {
	extents := make([]float64, len(trees))
	total := 0.0
	for i, u := range trees {
		min, max := extent(u, opts.MaxDepth)
		extents[i] = max - min
		total += extents[i]
	}
	total += opts.TreeMargin * float64(len(trees)-1)

	offset := -total / 2
	for i, u := range trees {
		min, _ := extent(u, opts.MaxDepth)
		shift(u, offset-min, opts.MaxDepth)
		offset += extents[i] + opts.TreeMargin
	}
}

// extent returns the min and max cross-axis position among a tree's nodes.
func extent(root *Node, maxDepth int) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if depth > maxDepth {
			return
		}
		if n.X < min {
			min = n.X
		}
		if n.X > max {
			max = n.X
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
	return min, max
}

func shift(root *Node, dx float64, maxDepth int) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if depth > maxDepth {
			return
		}
		n.X += dx
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}

func appendTreeLinks(root *Node, depth, maxDepth int, links *[]Link) {
	if depth >= maxDepth {
		return
	}
	for _, c := range root.Children {
		*links = append(*links, Link{From: root, To: c})
		appendTreeLinks(c, depth+1, maxDepth, links)
	}
}
