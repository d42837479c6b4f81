// Package structure builds and lays out the nesting tree of code elements
// for the file view.
//
// The package implements three stages, all pure transforms:
//
//  1. Compose: turn a flat, parent-referenced element list into a forest.
//     The id-indexed lookup table is the arena; parent/child links are
//     resolved through it, so malformed references cannot create ownership
//     cycles. Dangling parents degrade to roots.
//
//  2. Layout: assign every node a rectangle. Depth-0 siblings are planned
//     into disjoint vertical slots; nested elements are pinned to their true
//     source position ((start_line-1) x line height) and indented by depth.
//     Two display modes are supported: by-kind (one column per element kind)
//     and by-position (one flat column ordered by start line).
//
//  3. Annotate: compute, per source line, the ordered set of element
//     boundaries touching that line (outermost first), driving the gutter
//     indicators next to the source text.
//
// Re-running any stage on identical input yields bit-identical output: all
// orderings are total (ties broken by element id) and no stage keeps state
// between calls.
package structure
