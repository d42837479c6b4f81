package trace

// NodeKind distinguishes the pivot endpoint from ordinary call nodes.
type NodeKind string

// Node kinds.
const (
	KindEndpoint NodeKind = "endpoint"
	KindCall     NodeKind = "call"
)

// Node is one function in a normalized call-trace diagram.
// X is the cross-axis position; Y is the signed depth-axis position
// (negative = downstream side, positive = upstream side). The sign
// convention is arbitrary but consistent, and side/color selection in the
// renderer depends on it.
type Node struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Kind     NodeKind `json:"kind"`
	Children []*Node  `json:"children,omitempty"`

	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Depth int     `json:"depth"`
}

// Link is a rendered edge. Synthetic links connect the pivot to a side's
// root; they represent "the endpoint invoked / was invoked by this chain"
// and are not data edges.
type Link struct {
	From      *Node
	To        *Node
	Synthetic bool
}

// Diagram is one workflow's normalized and (after Layout) positioned
// call-trace graph. The whole graph is owned by a single rendering pass and
// never shared between calls.
type Diagram struct {
	Workflow   string
	Pivot      *Node
	Downstream *Node
	Upstream   []*Node
	Links      []Link
}

// Nodes returns the pivot plus every node on both sides, pivot first, then
// the downstream tree in pre-order, then each upstream tree in pre-order.
func (d *Diagram) Nodes() []*Node {
	nodes := []*Node{d.Pivot}
	if d.Downstream != nil {
		collect(d.Downstream, 0, &nodes)
	}
	for _, u := range d.Upstream {
		collect(u, 0, &nodes)
	}
	return nodes
}

// Count returns the total node count including the pivot.
func (d *Diagram) Count() int {
	return len(d.Nodes())
}

func collect(n *Node, depth int, out *[]*Node) {
	if depth > defaultMaxDepth {
		return
	}
	*out = append(*out, n)
	for _, c := range n.Children {
		collect(c, depth+1, out)
	}
}
