package structure

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/codeatlas/codeatlas/pkg/facts"
)

// genElements draws a flat element list with plausible shapes: mostly valid
// nesting, occasionally dangling parents and inverted ranges, which the
// layout layer must tolerate.
func genElements(t *rapid.T) []facts.CodeElement {
	n := rapid.IntRange(1, 40).Draw(t, "count")
	kinds := []facts.Kind{
		facts.KindFunction, facts.KindClass, facts.KindImport,
		facts.KindStatementBlock, facts.KindVariableDefinition,
	}

	elements := make([]facts.CodeElement, n)
	for i := range elements {
		start := rapid.IntRange(1, 200).Draw(t, "start")
		span := rapid.IntRange(0, 60).Draw(t, "span")
		e := facts.CodeElement{
			ID:        int64(i + 1),
			Kind:      kinds[rapid.IntRange(0, len(kinds)-1).Draw(t, "kind")],
			Name:      rapid.StringMatching(`[a-z_]{1,12}`).Draw(t, "name"),
			StartLine: start,
			EndLine:   start + span,
		}
		if i > 0 && rapid.Bool().Draw(t, "nested") {
			parent := int64(rapid.IntRange(1, i).Draw(t, "parent"))
			e.ParentID = &parent
		}
		if rapid.IntRange(0, 19).Draw(t, "dangling") == 0 {
			bogus := int64(9000 + i)
			e.ParentID = &bogus
		}
		if rapid.IntRange(0, 19).Draw(t, "inverted") == 0 {
			e.StartLine, e.EndLine = e.EndLine+1, e.StartLine
		}
		elements[i] = e
	}
	return elements
}

func TestAnnotationCoversEveryLineProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		elements := genElements(t)
		f := Compose(elements)
		m := Annotate(f)

		f.Walk(func(n *Node) {
			start, end := n.Element.StartLine, n.Element.EndLine
			if end < start {
				end = start
			}
			for line := start; line <= end; line++ {
				found := false
				for _, a := range m[line] {
					if a.Depth == n.Depth {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("line %d missing entry at depth %d for element %d",
						line, n.Depth, n.Element.ID)
				}
			}
		})
	})
}

func TestAnnotationDepthOrderedProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := Annotate(Compose(genElements(t)))
		for line, entries := range m {
			for i := 1; i < len(entries); i++ {
				if entries[i].Depth < entries[i-1].Depth {
					t.Fatalf("line %d: depth %d precedes depth %d",
						line, entries[i-1].Depth, entries[i].Depth)
				}
			}
		}
	})
}

func TestSiblingSlotsDisjointProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		elements := genElements(t)
		f := Compose(elements)
		plan, err := Layout(f, Options{Mode: ModeByKind})
		if err != nil {
			t.Fatal(err)
		}

		// Depth-0 siblings grouped per column must occupy disjoint slots.
		byColumn := make(map[int][]*Node)
		for _, r := range plan.Roots {
			byColumn[r.Column] = append(byColumn[r.Column], r)
		}
		for col, roots := range byColumn {
			for i, a := range roots {
				for _, b := range roots[i+1:] {
					if a.Y < b.Y+b.Height && b.Y < a.Y+a.Height {
						t.Fatalf("column %d: roots %d and %d overlap",
							col, a.Element.ID, b.Element.ID)
					}
				}
			}
		}
	})
}

func TestLayoutIdempotentProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		elements := genElements(t)

		run := func() map[int64][4]float64 {
			f := Compose(elements)
			if _, err := Layout(f, Options{}); err != nil {
				t.Fatal(err)
			}
			out := make(map[int64][4]float64)
			f.Walk(func(n *Node) {
				out[n.Element.ID] = [4]float64{n.X, n.Y, n.Width, n.Height}
			})
			return out
		}

		first, second := run(), run()
		if len(first) != len(second) {
			t.Fatalf("node count changed between runs: %d vs %d", len(first), len(second))
		}
		for id, a := range first {
			if second[id] != a {
				t.Fatalf("node %d coordinates differ between identical runs", id)
			}
		}
	})
}
