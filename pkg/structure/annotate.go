package structure

import (
	"sort"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

// LineAnnotation describes one element boundary touching a source line.
type LineAnnotation struct {
	ColorClass   string `json:"color_class"`
	Depth        int    `json:"depth"`
	IsRangeStart bool   `json:"is_range_start"`
	IsRangeEnd   bool   `json:"is_range_end"`
}

// LineMap holds, for every line touched by any element, the ordered list of
// boundaries on that line, shallowest (outermost) first.
type LineMap map[int][]LineAnnotation

// Annotate builds the per-line boundary map for a forest.
//
// For a line touched by N nested elements exactly N entries exist. The
// ascending-depth ordering is load-bearing: stacked gutter indicators render
// the outermost element as the outermost visual layer.
func Annotate(f *Forest) LineMap {
	m := make(LineMap)
	for _, r := range f.Roots {
		annotate(r, 0, m)
	}

	for line := range m {
		entries := m[line]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Depth < entries[j].Depth
		})
		m[line] = entries
	}
	return m
}

func annotate(n *Node, depth int, m LineMap) {
	if depth > maxDepth {
		return
	}

	start, end := n.Element.StartLine, n.Element.EndLine
	if end < start {
		// Malformed range: treat as a single line at start.
		end = start
	}
	class := ColorClass(n.Element.Kind)
	for line := start; line <= end; line++ {
		m[line] = append(m[line], LineAnnotation{
			ColorClass:   class,
			Depth:        depth,
			IsRangeStart: line == start,
			IsRangeEnd:   line == end,
		})
	}

	for _, c := range n.Children {
		annotate(c, depth+1, m)
	}
}

// ColorClass derives the CSS color class for an element kind.
// Unknown kinds collapse to the "other" class.
func ColorClass(kind facts.Kind) string {
	return "el-" + string(kind.Normalize())
}
