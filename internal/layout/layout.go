// Package layout computes pane grids and the order in which panes are split
// to build them.
package layout

import (
	"fmt"
	"math"

	"github.com/wouterdebie/i2cssh/internal/options"
)

// Fullscreen thresholds for a default-sized terminal profile. A grid with
// at least this many rows or columns does not fit unless maximised.
const (
	FullscreenRows = 12
	FullscreenCols = 16
)

// Geometry is the rows by columns layout of one group.
type Geometry struct {
	Rows               int  `json:"rows"`
	Cols               int  `json:"cols"`
	RequiresFullscreen bool `json:"requires_fullscreen"`
}

// Panes returns the number of panes in the grid.
func (g Geometry) Panes() int {
	return g.Rows * g.Cols
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Cols)
}

// Compute returns the grid for n panes. A positive rows fixes the row count,
// otherwise a positive cols fixes the column count, otherwise the grid is as
// square as possible with rows >= cols. n must be positive.
func Compute(n, rows, cols int) Geometry {
	var g Geometry
	switch {
	case rows > 0:
		g.Rows = rows
		g.Cols = ceilDiv(n, rows)
	case cols > 0:
		g.Cols = cols
		g.Rows = ceilDiv(n, cols)
	default:
		g.Rows = int(math.Ceil(math.Sqrt(float64(n))))
		g.Cols = ceilDiv(n, g.Rows)
	}
	g.RequiresFullscreen = g.Rows >= FullscreenRows || g.Cols >= FullscreenCols
	return g
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Index returns the row-major position of the pane at (col, row).
func Index(col, row, cols int) int {
	return row*cols + col
}

// Split is one pane split. From is the index of the pane being split; the
// new pane always gets the next free index. Vertical places the new pane
// beside From, otherwise below it.
type Split struct {
	From     int  `json:"from"`
	Vertical bool `json:"vertical"`
}

// SplitPlan returns the splits that grow a single pane into g, assigning
// pane indices in row-major order. With direction "column" the first row is
// built with vertical splits and each later row by splitting every pane of
// the row above horizontally; "row" swaps the two.
func SplitPlan(g Geometry, direction string) []Split {
	first := direction != options.DirectionRow
	plan := make([]Split, 0, g.Panes()-1)

	// First row: split the most recent pane cols-1 times.
	for col := 1; col < g.Cols; col++ {
		plan = append(plan, Split{From: col - 1, Vertical: first})
	}

	// Later rows: walk the row above left to right, splitting each pane.
	for row := 1; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			plan = append(plan, Split{From: Index(col, row-1, g.Cols), Vertical: !first})
		}
	}
	return plan
}
