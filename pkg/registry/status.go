package registry

import (
	"sort"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

// coveredLines counts the lines of a file covered by at least one element.
// Element ranges may overlap and may extend past loc; counting is over the
// union of [start_line, end_line] intervals clipped to [1, loc].
func coveredLines(loc int, els []facts.CodeElement) int {
	if loc <= 0 || len(els) == 0 {
		return 0
	}

	type span struct{ start, end int }
	spans := make([]span, 0, len(els))
	for _, el := range els {
		start, end := el.StartLine, el.EndLine
		if end < start {
			// Malformed range spans its start line only
			end = start
		}
		if start < 1 {
			start = 1
		}
		if end > loc {
			end = loc
		}
		if start > loc || end < 1 {
			continue
		}
		spans = append(spans, span{start, end})
	}
	if len(spans) == 0 {
		return 0
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	covered := 0
	curStart, curEnd := spans[0].start, spans[0].end
	for _, s := range spans[1:] {
		if s.start <= curEnd+1 {
			if s.end > curEnd {
				curEnd = s.end
			}
			continue
		}
		covered += curEnd - curStart + 1
		curStart, curEnd = s.start, s.end
	}
	covered += curEnd - curStart + 1
	return covered
}

// fileStatus builds the coverage record for one file.
func fileStatus(f File, els []facts.CodeElement) FileStatus {
	st := FileStatus{
		FileID: f.ID,
		Path:   f.Path,
		LOC:    f.LOC,
	}
	st.Covered = coveredLines(f.LOC, els)
	if f.LOC > 0 {
		st.Coverage = float64(st.Covered) / float64(f.LOC)
	}
	return st
}
