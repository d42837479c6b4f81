package structure

import (
	"github.com/codeatlas/codeatlas/pkg/facts"
)

// maxDepth bounds recursion over the element forest. Parent references are a
// forest by convention only; a cyclic chain in malformed input must not hang
// the layout. Nodes past the bound are treated as leaves.
const maxDepth = 64

// Node is a code element plus its resolved children and computed layout.
// Children are kept in append order, which Compose guarantees to be input
// order (callers provide elements in source order).
type Node struct {
	Element  facts.CodeElement
	Children []*Node

	// Layout attributes, populated by Layout.
	Depth  int
	Column int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Forest is the rooted element forest produced by Compose.
type Forest struct {
	Roots []*Node

	byID map[int64]*Node
}

// Compose builds the nesting forest from a flat element list.
//
// The lookup table is built in one pass, then each element is appended to its
// resolved parent's child list. A ParentID that does not resolve (dangling
// reference) or points at the element itself makes the element a root - never
// an error, never a drop. Elements must arrive in source order; child order
// is append order.
func Compose(elements []facts.CodeElement) *Forest {
	f := &Forest{byID: make(map[int64]*Node, len(elements))}

	nodes := make([]*Node, len(elements))
	for i, e := range elements {
		n := &Node{Element: e}
		nodes[i] = n
		f.byID[e.ID] = n
	}

	for i, e := range elements {
		n := nodes[i]
		if e.ParentID != nil && *e.ParentID != e.ID {
			if parent, ok := f.byID[*e.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		f.Roots = append(f.Roots, n)
	}

	f.promoteCycles(nodes)
	f.assignDepths()
	return f
}

// promoteCycles re-roots elements trapped in parent-reference cycles.
// A mutual cycle (a's parent is b, b's parent is a) leaves every member
// off the root list and invisible to traversal. The first member in input
// order becomes a root and its edge from its parent is cut, so every
// element stays reachable and the forest stays acyclic.
func (f *Forest) promoteCycles(nodes []*Node) {
	reached := make(map[*Node]bool, len(nodes))
	var mark func(n *Node)
	mark = func(n *Node) {
		if reached[n] {
			return
		}
		reached[n] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range f.Roots {
		mark(r)
	}

	for _, n := range nodes {
		if reached[n] {
			continue
		}
		if pid := n.Element.ParentID; pid != nil {
			if parent := f.byID[*pid]; parent != nil {
				parent.Children = removeChild(parent.Children, n)
			}
		}
		f.Roots = append(f.Roots, n)
		mark(n)
	}
}

func removeChild(children []*Node, n *Node) []*Node {
	for i, c := range children {
		if c == n {
			return append(children[:i], children[i+1:]...)
		}
	}
	return children
}

// Node returns the node for an element id, or nil.
func (f *Forest) Node(id int64) *Node {
	return f.byID[id]
}

// Walk visits every node reachable from the roots in pre-order.
// Traversal stops descending past maxDepth, so cyclic child links (possible
// only with malformed parent references) terminate.
func (f *Forest) Walk(fn func(n *Node)) {
	for _, r := range f.Roots {
		walk(r, 0, fn)
	}
}

func walk(n *Node, depth int, fn func(n *Node)) {
	if depth > maxDepth {
		return
	}
	fn(n)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Count returns the number of nodes reachable from the roots.
func (f *Forest) Count() int {
	count := 0
	f.Walk(func(*Node) { count++ })
	return count
}

func (f *Forest) assignDepths() {
	for _, r := range f.Roots {
		setDepth(r, 0)
	}
}

func setDepth(n *Node, depth int) {
	n.Depth = depth
	if depth >= maxDepth {
		return
	}
	for _, c := range n.Children {
		setDepth(c, depth+1)
	}
}
