package structure

import (
	"testing"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

func TestAnnotateNestedBoundaries(t *testing.T) {
	// Line 4 is covered by the depth-0 function (1-10) and
	// the depth-1 block (3-5); the depth-0 entry must come first.
	elements := []facts.CodeElement{
		{ID: 1, Kind: facts.KindFunction, Name: "f", StartLine: 1, EndLine: 10},
		{ID: 2, ParentID: ptr(1), Kind: facts.KindStatementBlock, Name: "if", StartLine: 3, EndLine: 5},
	}

	m := Annotate(Compose(elements))

	line4 := m[4]
	if len(line4) != 2 {
		t.Fatalf("line 4 should carry 2 entries, got %d", len(line4))
	}
	if line4[0].Depth != 0 || line4[1].Depth != 1 {
		t.Errorf("entries should be ordered outer-to-inner, got depths %d, %d", line4[0].Depth, line4[1].Depth)
	}
	if line4[0].IsRangeStart || line4[0].IsRangeEnd {
		t.Error("line 4 is neither start nor end of the function")
	}
	if line4[1].IsRangeStart || line4[1].IsRangeEnd {
		t.Error("line 4 is interior to the block")
	}
}

func TestAnnotateStartEndFlags(t *testing.T) {
	elements := []facts.CodeElement{
		{ID: 1, Kind: facts.KindFunction, Name: "f", StartLine: 2, EndLine: 4},
	}

	m := Annotate(Compose(elements))

	cases := []struct {
		line       int
		start, end bool
	}{
		{2, true, false},
		{3, false, false},
		{4, false, true},
	}
	for _, c := range cases {
		entries := m[c.line]
		if len(entries) != 1 {
			t.Fatalf("line %d: expected 1 entry, got %d", c.line, len(entries))
		}
		if entries[0].IsRangeStart != c.start || entries[0].IsRangeEnd != c.end {
			t.Errorf("line %d flags = (%v,%v), want (%v,%v)",
				c.line, entries[0].IsRangeStart, entries[0].IsRangeEnd, c.start, c.end)
		}
	}
	if len(m[1]) != 0 || len(m[5]) != 0 {
		t.Error("lines outside the range must not be annotated")
	}
}

func TestAnnotateSingleLineElement(t *testing.T) {
	elements := []facts.CodeElement{
		{ID: 1, Kind: facts.KindImport, Name: "os", StartLine: 3, EndLine: 3},
	}

	m := Annotate(Compose(elements))
	entries := m[3]
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].IsRangeStart || !entries[0].IsRangeEnd {
		t.Error("a single-line element starts and ends on the same line")
	}
}

func TestAnnotateMalformedRange(t *testing.T) {
	elements := []facts.CodeElement{
		{ID: 1, Kind: facts.KindFunction, Name: "bad", StartLine: 7, EndLine: 2},
	}

	m := Annotate(Compose(elements))

	if len(m) != 1 {
		t.Fatalf("malformed range should annotate exactly one line, got %d", len(m))
	}
	entries := m[7]
	if len(entries) != 1 || !entries[0].IsRangeStart || !entries[0].IsRangeEnd {
		t.Errorf("malformed range should collapse to a single start/end line: %+v", entries)
	}
}

func TestColorClass(t *testing.T) {
	tests := []struct {
		kind facts.Kind
		want string
	}{
		{facts.KindFunction, "el-function"},
		{facts.KindClass, "el-class"},
		{facts.Kind("event_listener"), "el-other"},
	}
	for _, tt := range tests {
		if got := ColorClass(tt.kind); got != tt.want {
			t.Errorf("ColorClass(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestAnnotateEntryCountMatchesCoverage(t *testing.T) {
	// Three levels of nesting over line 5: function > class body > block.
	elements := []facts.CodeElement{
		{ID: 1, Kind: facts.KindClass, Name: "C", StartLine: 1, EndLine: 20},
		{ID: 2, ParentID: ptr(1), Kind: facts.KindFunction, Name: "m", StartLine: 3, EndLine: 10},
		{ID: 3, ParentID: ptr(2), Kind: facts.KindStatementBlock, Name: "for", StartLine: 5, EndLine: 7},
	}

	m := Annotate(Compose(elements))

	if got := len(m[5]); got != 3 {
		t.Errorf("line 5 covered by 3 nested elements, got %d entries", got)
	}
	for i := 1; i < len(m[5]); i++ {
		if m[5][i].Depth < m[5][i-1].Depth {
			t.Error("entries must be sorted ascending by depth")
		}
	}
}
