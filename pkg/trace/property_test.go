package trace

import (
	"testing"

	"pgregory.net/rapid"
)

// genTree draws a random upstream-shaped tree with bounded fan-out and depth.
func genTree(t *rapid.T, depth int) *Node {
	n := &Node{Name: rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "name"), Kind: KindCall}
	if depth >= 4 {
		return n
	}
	kids := rapid.IntRange(0, 3).Draw(t, "kids")
	for i := 0; i < kids; i++ {
		n.Children = append(n.Children, genTree(t, depth+1))
	}
	return n
}

func leafCount(n *Node) int {
	if len(n.Children) == 0 {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += leafCount(c)
	}
	return count
}

func TestUpstreamStackArithmeticProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 5).Draw(t, "trees")
		trees := make([]*Node, count)
		for i := range trees {
			trees[i] = genTree(t, 0)
		}

		d := &Diagram{Pivot: &Node{Name: "e", Kind: KindEndpoint}, Upstream: trees}
		opts := Options{}
		if err := Layout(d, opts); err != nil {
			t.Fatal(err)
		}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}

		const eps = 1e-9

		// Each tree's extent is pinned by its leaf count, and every node
		// sits on the positive depth axis at its level's pitch.
		total := 0.0
		for _, u := range trees {
			min, max := extent(u, opts.MaxDepth)
			if want := float64(leafCount(u)-1) * opts.NodeHeight; (max-min)-want > eps || want-(max-min) > eps {
				t.Fatalf("tree extent = %v, want %v for %d leaves", max-min, want, leafCount(u))
			}
			var visit func(n *Node, depth int)
			visit = func(n *Node, depth int) {
				if want := float64(depth+1) * opts.NodeWidth; n.Y != want {
					t.Fatalf("upstream node at depth %d has Y = %v, want %v", depth, n.Y, want)
				}
				for _, c := range n.Children {
					visit(c, depth+1)
				}
			}
			visit(u, 0)
			total += max - min
		}
		total += opts.TreeMargin * float64(count-1)

		firstMin, _ := extent(trees[0], opts.MaxDepth)
		_, lastMax := extent(trees[count-1], opts.MaxDepth)

		if got := lastMax - firstMin; got-total > eps || total-got > eps {
			t.Fatalf("stack span = %v, want %v", got, total)
		}
		if center := (firstMin + lastMax) / 2; center > eps || -center > eps {
			t.Fatalf("stack center = %v, want 0", center)
		}

		// Consecutive trees must not overlap on the cross axis.
		prevMax := firstMin - opts.TreeMargin
		for _, u := range trees {
			min, max := extent(u, opts.MaxDepth)
			if min < prevMax+opts.TreeMargin-eps {
				t.Fatalf("tree starting at %v overlaps previous ending at %v", min, prevMax)
			}
			prevMax = max
		}
	})
}

func TestLeafSeparationProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := genTree(t, 0)
		d := &Diagram{Pivot: &Node{Kind: KindEndpoint}, Downstream: root}
		opts := Options{}
		if err := Layout(d, opts); err != nil {
			t.Fatal(err)
		}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}

		// Any two leaves must be at least one node-height apart.
		var leaves []*Node
		var visit func(n *Node)
		visit = func(n *Node) {
			if len(n.Children) == 0 {
				leaves = append(leaves, n)
				return
			}
			for _, c := range n.Children {
				visit(c)
			}
		}
		visit(root)

		for i, a := range leaves {
			for _, b := range leaves[i+1:] {
				gap := a.X - b.X
				if gap < 0 {
					gap = -gap
				}
				if gap < opts.NodeHeight-1e-9 {
					t.Fatalf("leaves %.2f apart, want >= %v", gap, opts.NodeHeight)
				}
			}
		}
	})
}
