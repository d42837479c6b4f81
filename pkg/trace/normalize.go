package trace

import (
	"github.com/codeatlas/codeatlas/pkg/facts"
)

// defaultMaxDepth bounds recursion over trace trees. Call traces are acyclic
// by intent, but the tracer can emit pathological chains; anything past the
// bound is treated as a leaf rather than looping.
const defaultMaxDepth = 64

// Normalize converts a workflow's two heterogeneous trace shapes into one
// diagram: the callees-shaped Python trace becomes the downstream tree, each
// non-nil callers-shaped JavaScript trace becomes an upstream tree, and a
// synthetic endpoint pivot anchors both at (0,0).
//
// A nil Python trace yields no downstream side; an empty or nil JS list
// yields no upstream side. Both absent is valid: the diagram then holds only
// the pivot. The remap is purely structural - names and paths pass through
// untouched.
func Normalize(w facts.Workflow) *Diagram {
	d := &Diagram{
		Workflow: w.Name,
		Pivot: &Node{
			Name: w.Endpoint.Name,
			Path: w.Endpoint.Path,
			Kind: KindEndpoint,
		},
	}

	if w.PythonTrace != nil {
		d.Downstream = fromCallees(w.PythonTrace, 0)
	}
	for _, t := range w.JSTraces {
		if t == nil {
			continue
		}
		d.Upstream = append(d.Upstream, fromCallers(t, 0))
	}
	return d
}

func fromCallees(t *facts.CallTree, depth int) *Node {
	n := &Node{Name: t.Name, Path: t.Path, Kind: KindCall}
	if depth >= defaultMaxDepth {
		return n
	}
	for _, c := range t.Callees {
		if c == nil {
			continue
		}
		n.Children = append(n.Children, fromCallees(c, depth+1))
	}
	return n
}

func fromCallers(t *facts.CallTree, depth int) *Node {
	n := &Node{Name: t.Name, Path: t.Path, Kind: KindCall}
	if depth >= defaultMaxDepth {
		return n
	}
	for _, c := range t.Callers {
		if c == nil {
			continue
		}
		n.Children = append(n.Children, fromCallers(c, depth+1))
	}
	return n
}
