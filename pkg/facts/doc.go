// Package facts defines the structured input data for CodeAtlas: code
// elements extracted from source files and cross-language call traces.
//
// This is the boundary contract with the parsing pipeline. Everything in this
// package is plain data - the layout engines in pkg/structure and pkg/trace
// consume these types and never reach back to the parser.
//
// # Data Shapes
//
// A file payload carries the raw source plus a flat list of elements:
//
//	{ "content": "...", "elements": [ {"id": 1, "kind": "function", ...} ] }
//
// A workflow payload carries one downstream call tree (callees-shaped) and
// zero or more upstream caller chains (callers-shaped):
//
//	{ "workflow_name": "GET /api/files/{VAR}",
//	  "endpoint": {"name": "get_file", "path": "api/files.py"},
//	  "python_trace": {...}, "javascript_trace": [{...}] }
//
// Both trace shapes decode into CallTree; pkg/trace normalizes them into one
// recursive child-list form.
package facts
