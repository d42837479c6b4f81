package trace

import (
	"testing"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

func TestNormalizeBothSides(t *testing.T) {
	w := facts.Workflow{
		Name:     "GET /api/files/{VAR}",
		Endpoint: facts.Endpoint{Name: "get_file", Path: "api/files.py"},
		PythonTrace: &facts.CallTree{
			Name: "get_file",
			Path: "api/files.py",
			Callees: []*facts.CallTree{
				{Name: "load_elements", Path: "db/elements.py"},
				{Name: "load_content", Path: "db/files.py"},
			},
		},
		JSTraces: []*facts.CallTree{
			{
				Name: "fetchFile",
				Path: "static/app.js",
				Callers: []*facts.CallTree{
					{Name: "onFileClick", Path: "static/app.js"},
				},
			},
		},
	}

	d := Normalize(w)

	if d.Pivot.Kind != KindEndpoint || d.Pivot.Name != "get_file" {
		t.Errorf("pivot = %+v, want endpoint get_file", d.Pivot)
	}
	if d.Downstream == nil || len(d.Downstream.Children) != 2 {
		t.Fatalf("downstream should carry the callees as children")
	}
	if len(d.Upstream) != 1 || len(d.Upstream[0].Children) != 1 {
		t.Fatalf("upstream should carry the callers as children")
	}
	if d.Upstream[0].Children[0].Name != "onFileClick" {
		t.Errorf("callers must map to children, got %q", d.Upstream[0].Children[0].Name)
	}
	if d.Downstream.Kind != KindCall || d.Upstream[0].Kind != KindCall {
		t.Error("trace nodes should be call-kind")
	}
}

func TestNormalizeEmptySides(t *testing.T) {
	w := facts.Workflow{
		Name:     "POST /api/projects/parse",
		Endpoint: facts.Endpoint{Name: "parse_project", Path: "api/projects.py"},
	}

	d := Normalize(w)

	if d.Downstream != nil {
		t.Error("nil python trace should yield no downstream tree")
	}
	if len(d.Upstream) != 0 {
		t.Error("nil js traces should yield no upstream trees")
	}
	if d.Count() != 1 {
		t.Errorf("pivot-only diagram should count 1 node, got %d", d.Count())
	}
}

func TestNormalizeSkipsNilListEntries(t *testing.T) {
	w := facts.Workflow{
		Endpoint: facts.Endpoint{Name: "e"},
		JSTraces: []*facts.CallTree{nil, {Name: "caller"}, nil},
	}

	d := Normalize(w)
	if len(d.Upstream) != 1 {
		t.Errorf("nil entries should be skipped, got %d upstream trees", len(d.Upstream))
	}
}

func TestNormalizeDepthBound(t *testing.T) {
	// Build a caller chain far deeper than the guard.
	root := &facts.CallTree{Name: "n0"}
	cur := root
	for i := 1; i < 200; i++ {
		next := &facts.CallTree{Name: "deep"}
		cur.Callers = []*facts.CallTree{next}
		cur = next
	}

	d := Normalize(facts.Workflow{
		Endpoint: facts.Endpoint{Name: "e"},
		JSTraces: []*facts.CallTree{root},
	})

	depth := 0
	for n := d.Upstream[0]; len(n.Children) > 0; n = n.Children[0] {
		depth++
	}
	if depth > defaultMaxDepth {
		t.Errorf("conversion should stop at the depth bound, got chain of %d", depth)
	}
}
