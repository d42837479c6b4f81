package trace_test

import (
	"fmt"

	"github.com/codeatlas/codeatlas/pkg/facts"
	"github.com/codeatlas/codeatlas/pkg/trace"
)

func ExampleNormalize() {
	w := facts.Workflow{
		Name:     "GET /api/files/{VAR}",
		Endpoint: facts.Endpoint{Name: "get_file", Path: "api/files.py"},
		PythonTrace: &facts.CallTree{
			Name:    "get_file",
			Callees: []*facts.CallTree{{Name: "load_elements"}},
		},
		JSTraces: []*facts.CallTree{
			{Name: "fetchFile", Callers: []*facts.CallTree{{Name: "onFileClick"}}},
		},
	}

	d := trace.Normalize(w)
	fmt.Println("pivot:", d.Pivot.Name)
	fmt.Println("nodes:", d.Count())
	// Output:
	// pivot: get_file
	// nodes: 5
}

func ExampleLayout() {
	d := trace.Normalize(facts.Workflow{
		Endpoint:    facts.Endpoint{Name: "get_file"},
		PythonTrace: &facts.CallTree{Name: "get_file", Callees: []*facts.CallTree{{Name: "a"}, {Name: "b"}}},
	})

	if err := trace.Layout(d, trace.Options{NodeWidth: 100, NodeHeight: 20}); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("pivot (%.0f,%.0f)\n", d.Pivot.X, d.Pivot.Y)
	fmt.Printf("downstream root y %.0f\n", d.Downstream.Y)
	// Output:
	// pivot (0,0)
	// downstream root y -100
}
