// Package trace composes dual-direction call-trace diagrams.
//
// A workflow arrives as two structurally different shapes: one downstream
// tree whose children come from a "callees" field (the Python call tree
// under an endpoint) and a list of upstream trees whose children come from a
// "callers" field (independent JavaScript call chains reaching that
// endpoint). Normalize maps both into one canonical child-list form anchored
// at a synthetic pivot node.
//
// Layout then positions each side with a depth-driven tidy algorithm: the
// cross axis (X) separates siblings, the depth axis (Y) is signed - negative
// for downstream, positive for upstream. The downstream tree is recentered
// on the pivot; multiple upstream trees are stacked without overlap and
// centered as a group. Synthetic links connect the pivot to each side's
// roots; they are view-only connectors, not data edges.
//
// Both stages are pure: identical input produces bit-identical coordinates.
package trace
