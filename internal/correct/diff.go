// Package correct implements the two reconstruction strategies: the
// heuristic "noAI" corrector and the hybrid "withAI" corrector.
package correct

import "github.com/kifurecon/boardscribe/internal/state"

// Cell is a board coordinate.
type Cell struct {
	Row, Col int
}

// Diff describes the stones added and removed between two consecutive
// board states, split by colour.
type Diff struct {
	AddedBlack, AddedWhite     []Cell
	RemovedBlack, RemovedWhite []Cell
}

// TotalAdded returns the combined count of added stones of both colours.
func (d Diff) TotalAdded() int {
	return len(d.AddedBlack) + len(d.AddedWhite)
}

// Added returns the added cells for a colour.
func (d Diff) Added(c state.Colour) []Cell {
	if c == state.Black {
		return d.AddedBlack
	}
	return d.AddedWhite
}

// Removed returns the removed cells for a colour.
func (d Diff) Removed(c state.Colour) []Cell {
	if c == state.Black {
		return d.RemovedBlack
	}
	return d.RemovedWhite
}

// ComputeDiff compares two states and returns the added/removed cells per
// colour.
func ComputeDiff(prev, next state.Board) Diff {
	var d Diff
	for r := 0; r < state.Size; r++ {
		for c := 0; c < state.Size; c++ {
			p, n := prev[r][c], next[r][c]
			if p == n {
				continue
			}
			cell := Cell{Row: r, Col: c}
			if p == state.Empty {
				if n == state.Black {
					d.AddedBlack = append(d.AddedBlack, cell)
				} else {
					d.AddedWhite = append(d.AddedWhite, cell)
				}
			} else if n == state.Empty {
				if p == state.Black {
					d.RemovedBlack = append(d.RemovedBlack, cell)
				} else {
					d.RemovedWhite = append(d.RemovedWhite, cell)
				}
			} else {
				// Colour flip without passing through empty: treat as a
				// removal of the old colour and an addition of the new
				// one, the way a displaced or mis-classified stone would
				// present.
				if p == state.Black {
					d.RemovedBlack = append(d.RemovedBlack, cell)
					d.AddedWhite = append(d.AddedWhite, cell)
				} else {
					d.RemovedWhite = append(d.RemovedWhite, cell)
					d.AddedBlack = append(d.AddedBlack, cell)
				}
			}
		}
	}
	return d
}

func manhattan(a, b Cell) int {
	return absInt(a.Row-b.Row) + absInt(a.Col-b.Col)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
