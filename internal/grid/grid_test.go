package grid

import (
	"testing"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

// syntheticPoints builds a perfect 19x19 lattice of empty points spaced
// evenly across the canvas, the easiest case the fitter must handle.
func syntheticPoints() []geometry.Point {
	step := float64(Canvas) / float64(Lines-1)
	var pts []geometry.Point
	for row := 0; row < Lines; row++ {
		for col := 0; col < Lines; col++ {
			pts = append(pts, geometry.Point{X: float64(col) * step, Y: float64(row) * step})
		}
	}
	return pts
}

func TestFitPerfectLatticeProducesExactly19x19(t *testing.T) {
	g, err := Fit(syntheticPoints())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for row := 0; row < Lines; row++ {
		for col := 0; col < Lines; col++ {
			p := g.Intersections[row][col]
			if p.X < 0 || p.X > Canvas || p.Y < 0 || p.Y > Canvas {
				t.Fatalf("intersection (%d,%d) = %+v outside canvas", row, col, p)
			}
		}
	}
}

func TestFitIntersectionsHaveDistinctIndices(t *testing.T) {
	g, err := Fit(syntheticPoints())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	seen := make(map[geometry.Point][2]int)
	for row := 0; row < Lines; row++ {
		for col := 0; col < Lines; col++ {
			p := g.Intersections[row][col]
			if prev, dup := seen[p]; dup {
				t.Fatalf("intersection %+v indexed at both %v and %v", p, prev, [2]int{row, col})
			}
			seen[p] = [2]int{row, col}
		}
	}
	if len(seen) != Lines*Lines {
		t.Fatalf("expected %d distinct indices, got %d", Lines*Lines, len(seen))
	}
}

func TestFitRowsAscendingByX(t *testing.T) {
	g, err := Fit(syntheticPoints())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for row := 0; row < Lines; row++ {
		for col := 1; col < Lines; col++ {
			if g.Intersections[row][col].X <= g.Intersections[row][col-1].X {
				t.Fatalf("row %d not ascending in x at col %d", row, col)
			}
		}
	}
}

func TestFitEmptyPointsFails(t *testing.T) {
	if _, err := Fit(nil); err == nil {
		t.Fatal("expected GridFailure on empty input")
	}
}

func TestFitMissingLineIsRestored(t *testing.T) {
	pts := syntheticPoints()

	step := float64(Canvas) / float64(Lines-1)
	missingX := 9 * step // drop the 10th vertical line's column entirely

	var filtered []geometry.Point
	for _, p := range pts {
		if p.X == missingX {
			continue
		}
		filtered = append(filtered, p)
	}

	g, err := Fit(filtered)
	if err != nil {
		t.Fatalf("Fit with one missing column: %v", err)
	}
	for row := 0; row < Lines; row++ {
		for col := 0; col < Lines-1; col++ {
			if g.Intersections[row][col].X >= g.Intersections[row][col+1].X {
				t.Fatalf("row %d: columns not strictly ascending after restore", row)
			}
		}
	}
}
