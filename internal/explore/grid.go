// Package explore tracks world coverage on a fixed global raster.
// Local in-game coordinates are projected through a per-map anchor
// table onto one shared grid, so revisiting the same tile through a
// different door still counts once.
package explore

// #region constants

// GridSize is the side length of the square global raster.
const GridSize = 384

// coordsPad keeps projected coordinates away from the raster origin
// so maps near the anchor table's edges don't collide at (0, 0).
const coordsPad = 100

const visitedCell = 255

// #endregion constants

// #region grid

// Grid is a byte raster of visited world cells. Cell value 0 means
// unvisited, 255 visited. Not safe for concurrent use; the training
// loop owns it.
type Grid struct {
	size    int
	cells   []byte
	anchors AnchorTable
	visited int
}

// NewGrid builds an all-unvisited grid over the given anchor table.
func NewGrid(anchors AnchorTable) *Grid {
	return &Grid{
		size:    GridSize,
		cells:   make([]byte, GridSize*GridSize),
		anchors: anchors,
	}
}

// #endregion grid

// #region projection

// CellFor projects local coordinates onto the global raster. Pure and
// total: unknown maps use the default anchor, out-of-range results
// clamp to the grid bounds rather than wrap or reject, so boundary
// regions saturate instead of losing signal.
func (g *Grid) CellFor(x, y, mapID int) (row, col int) {
	anchor := g.anchors.Lookup(mapID)

	// Local y grows downward while the raster's row 0 is the top.
	col = anchor.X + x + coordsPad*2
	row = g.size - (anchor.Y - y + coordsPad*2)

	row = clamp(row, 0, g.size-1)
	col = clamp(col, 0, g.size-1)
	return row, col
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion projection

// #region visits

// MarkVisited records a position and reports whether its cell flipped
// from unvisited to visited. Repeat calls for the same cell return
// false.
func (g *Grid) MarkVisited(x, y, mapID int) bool {
	row, col := g.CellFor(x, y, mapID)
	idx := row*g.size + col

	if g.cells[idx] != 0 {
		return false
	}
	g.cells[idx] = visitedCell
	g.visited++
	return true
}

// VisitedCount returns the running total of visited cells.
func (g *Grid) VisitedCount() int {
	return g.visited
}

// Reset clears the grid to all-unvisited. Called once per episode.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = 0
	}
	g.visited = 0
}

// #endregion visits

// #region local-view

// LocalView extracts a (2*radius)x(2*radius) window centred on the
// projected position, zero-padded at the raster edges. Dashboards use
// it to render the neighbourhood.
func (g *Grid) LocalView(x, y, mapID, radius int) [][]byte {
	row, col := g.CellFor(x, y, mapID)

	view := make([][]byte, 2*radius)
	for r := range view {
		view[r] = make([]byte, 2*radius)
		srcRow := row - radius + r
		if srcRow < 0 || srcRow >= g.size {
			continue
		}
		for c := range view[r] {
			srcCol := col - radius + c
			if srcCol < 0 || srcCol >= g.size {
				continue
			}
			view[r][c] = g.cells[srcRow*g.size+srcCol]
		}
	}
	return view
}

// #endregion local-view
