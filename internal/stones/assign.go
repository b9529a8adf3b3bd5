// Package stones maps detected stone centres in rectified coordinates to
// the nearest grid intersection, producing a 19x19 board state.
package stones

import (
	"github.com/kifurecon/boardscribe/internal/geometry"
	"github.com/kifurecon/boardscribe/internal/grid"
	"github.com/kifurecon/boardscribe/internal/state"
)

// Assign maps black and white stone centres onto g's intersections,
// returning the resulting board. Black is processed before white so that
// a centre ambiguously close to two stones' claims resolves deterministically
// in white's favour when both land on the same intersection.
func Assign(g grid.Grid, blackCentres, whiteCentres []geometry.Point) state.Board {
	var b state.Board

	for _, c := range blackCentres {
		row, col := nearest(g, c)
		b[row][col] = state.Black
	}
	for _, c := range whiteCentres {
		row, col := nearest(g, c)
		b[row][col] = state.White
	}

	return b
}

// nearest finds the intersection closest to p by Euclidean distance,
// breaking ties by lexicographic (row, col) order.
func nearest(g grid.Grid, p geometry.Point) (row, col int) {
	bestRow, bestCol := 0, 0
	bestDist := distSq(g.Intersections[0][0], p)

	for r := 0; r < grid.Lines; r++ {
		for c := 0; c < grid.Lines; c++ {
			d := distSq(g.Intersections[r][c], p)
			if d < bestDist || (d == bestDist && lexLess(r, c, bestRow, bestCol)) {
				bestDist = d
				bestRow, bestCol = r, c
			}
		}
	}
	return bestRow, bestCol
}

func distSq(a, b geometry.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func lexLess(r1, c1, r2, c2 int) bool {
	if r1 != r2 {
		return r1 < r2
	}
	return c1 < c2
}
