// Package render provides visualization rendering for computed layouts.
//
// # Overview
//
// This package contains the sinks that turn a positioned [viz.Layout] into
// visual outputs:
//
//   - Structure layouts render in the [blocks] subpackage (SVG, JSON)
//   - Trace layouts render in the [flow] subpackage (SVG, DOT, PNG)
//
// Rendering is purely presentational: every sink consumes coordinates the
// layout stage already computed and never repositions anything. The same
// layout therefore renders identically across formats and runs.
//
// # Structure Blocks
//
// The [blocks] subpackage draws a file's element tree as nested rectangles
// grouped into columns, colored by element kind, with an optional line
// annotation gutter:
//
//	svg, err := blocks.SVG(layout, blocks.WithLineGutter())
//
// # Call Flows
//
// The [flow] subpackage draws workflow diagrams: the endpoint pivot in the
// middle, backend callees downstream, frontend callers upstream. DOT output
// feeds graphviz tooling; PNG rasterizes through the graphviz layout
// engine:
//
//	svg, err := flow.SVG(layout)
//	dot, err := flow.DOT(layout)
//	png, err := flow.PNG(ctx, layout)
package render
