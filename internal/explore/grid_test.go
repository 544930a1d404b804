package explore

import "testing"

func TestMarkVisitedFirstTimeOnly(t *testing.T) {
	g := NewGrid(DefaultAnchors())

	if !g.MarkVisited(5, 5, 0x00) {
		t.Fatal("first visit should report true")
	}
	if g.MarkVisited(5, 5, 0x00) {
		t.Fatal("repeat visit should report false")
	}
	if got := g.VisitedCount(); got != 1 {
		t.Fatalf("expected 1 visited cell, got %d", got)
	}
}

func TestCellForIsDeterministic(t *testing.T) {
	g := NewGrid(DefaultAnchors())

	r1, c1 := g.CellFor(10, 4, 0x01)
	r2, c2 := g.CellFor(10, 4, 0x01)
	if r1 != r2 || c1 != c2 {
		t.Fatalf("projection not deterministic: (%d,%d) vs (%d,%d)", r1, c1, r2, c2)
	}
}

func TestUnknownMapUsesDefaultAnchor(t *testing.T) {
	g := NewGrid(DefaultAnchors())

	rUnknown, cUnknown := g.CellFor(3, 3, 0xF9)
	anchors := DefaultAnchors()
	anchors.ByMap[0xF9] = anchors.Default
	g2 := NewGrid(anchors)
	rDefault, cDefault := g2.CellFor(3, 3, 0xF9)

	if rUnknown != rDefault || cUnknown != cDefault {
		t.Fatalf("unknown map did not fall back: (%d,%d) vs (%d,%d)",
			rUnknown, cUnknown, rDefault, cDefault)
	}
}

func TestOutOfRangeClampsToBounds(t *testing.T) {
	g := NewGrid(DefaultAnchors())

	// Far beyond any anchor: both axes must clamp, not wrap.
	row, col := g.CellFor(10000, -10000, 0x00)
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		t.Fatalf("clamped cell out of bounds: (%d,%d)", row, col)
	}

	// Clamped cells still register as visits.
	if !g.MarkVisited(10000, -10000, 0x00) {
		t.Fatal("clamped cell should count as a first visit")
	}
}

func TestDistinctCellsAccumulate(t *testing.T) {
	g := NewGrid(DefaultAnchors())

	for x := 0; x < 10; x++ {
		if !g.MarkVisited(x, 0, 0x00) {
			t.Fatalf("cell for x=%d should be new", x)
		}
	}
	if got := g.VisitedCount(); got != 10 {
		t.Fatalf("expected 10 visited cells, got %d", got)
	}
}

func TestReset(t *testing.T) {
	g := NewGrid(DefaultAnchors())
	g.MarkVisited(1, 1, 0x00)
	g.MarkVisited(2, 1, 0x00)

	g.Reset()
	if got := g.VisitedCount(); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
	if !g.MarkVisited(1, 1, 0x00) {
		t.Fatal("cells should be unvisited after reset")
	}
}

func TestLocalViewShape(t *testing.T) {
	g := NewGrid(DefaultAnchors())
	g.MarkVisited(5, 5, 0x00)

	view := g.LocalView(5, 5, 0x00, 4)
	if len(view) != 8 || len(view[0]) != 8 {
		t.Fatalf("expected 8x8 view, got %dx%d", len(view), len(view[0]))
	}
	// Centre cell carries the visit.
	if view[4][4] != visitedCell {
		t.Fatalf("expected centre cell visited, got %d", view[4][4])
	}
}
