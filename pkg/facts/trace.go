package facts

// Endpoint identifies the API entry point a workflow pivots around.
type Endpoint struct {
	Name string `json:"name" bson:"name"`
	Path string `json:"path" bson:"path"`
}

// CallTree is the boundary shape for call traces. It is a tagged union over
// two directions: a downstream tree populates Callees (functions this node
// calls), an upstream tree populates Callers (functions that call this node,
// root-to-leaf with the leaf being the most distant caller).
//
// Exactly one side is populated per tree in well-formed input; decoding
// tolerates both present or both absent. pkg/trace maps either side into one
// canonical child-list form.
type CallTree struct {
	Name    string      `json:"name" bson:"name"`
	Path    string      `json:"path" bson:"path"`
	Callees []*CallTree `json:"callees,omitempty" bson:"callees,omitempty"`
	Callers []*CallTree `json:"callers,omitempty" bson:"callers,omitempty"`
}

// Workflow is the per-workflow payload from the full-stack tracer: one
// Python downstream tree and a list of independent JavaScript caller chains
// that all reach the endpoint.
type Workflow struct {
	Name        string      `json:"workflow_name" bson:"workflow_name"`
	Endpoint    Endpoint    `json:"endpoint" bson:"endpoint"`
	PythonTrace *CallTree   `json:"python_trace,omitempty" bson:"python_trace,omitempty"`
	JSTraces    []*CallTree `json:"javascript_trace,omitempty" bson:"javascript_trace,omitempty"`
}
