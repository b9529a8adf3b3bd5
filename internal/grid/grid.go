// Package grid fits the 19 vertical and 19 horizontal grid lines from a
// rectified frame's empty-point detections, restoring missing lines and
// discarding spurious ones, then computes the 361 lattice intersections
// and the pixel-to-(col,row) map the stone assigner needs.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

// Lines is the fixed dimension of a complete grid axis.
const Lines = 19

// Canvas is the rectified frame's edge length; lines must lie within
// [0, Canvas] on their perpendicular axis.
const Canvas = 600

// GridFailure is returned when a rectified frame's empty points cannot be
// fit to exactly 19 vertical and 19 horizontal lines.
type GridFailure struct {
	Reason string
}

func (e *GridFailure) Error() string {
	return fmt.Sprintf("grid: %s", e.Reason)
}

// Grid is the fitted 19x19 lattice: ascending-x-intercept vertical lines,
// ascending-y-intercept horizontal lines, and the pixel->(col,row) map.
type Grid struct {
	Vertical   [Lines]geometry.Line
	Horizontal [Lines]geometry.Line

	// Intersections holds the 361 lattice points indexed [row][col].
	Intersections [Lines][Lines]geometry.Point
}

// Fit builds a Grid from a rectified frame's empty-intersection points.
func Fit(points []geometry.Point) (Grid, error) {
	if len(points) == 0 {
		return Grid{}, &GridFailure{Reason: "no empty points"}
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	vertical, err := fitAxis(points, xs, true)
	if err != nil {
		return Grid{}, fmt.Errorf("vertical lines: %w", err)
	}
	horizontal, err := fitAxis(points, ys, false)
	if err != nil {
		return Grid{}, fmt.Errorf("horizontal lines: %w", err)
	}

	vertical, err = restoreAndTrim(vertical, true)
	if err != nil {
		return Grid{}, fmt.Errorf("restore vertical: %w", err)
	}
	horizontal, err = restoreAndTrim(horizontal, false)
	if err != nil {
		return Grid{}, fmt.Errorf("restore horizontal: %w", err)
	}

	if len(vertical) != Lines || len(horizontal) != Lines {
		return Grid{}, &GridFailure{Reason: fmt.Sprintf(
			"got %d vertical, %d horizontal lines", len(vertical), len(horizontal))}
	}

	var g Grid
	copy(g.Vertical[:], vertical)
	copy(g.Horizontal[:], horizontal)

	if err := g.computeIntersections(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// fitAxis clusters points by their perpendicular-axis coordinate into 19
// groups and fits a line through each cluster.
func fitAxis(points []geometry.Point, axisValues []float64, vertical bool) ([]geometry.Line, error) {
	clusters := geometry.Cluster1D(axisValues, Lines)
	if len(clusters) == 0 {
		return nil, errors.New("no clusters")
	}

	// Clusters of confident size (>2 points) seed a weighted-mean slope
	// for clusters too sparse to fit their own.
	var weightedSlopeSum, weightSum float64
	slopes := make([]float64, len(clusters))
	haveSlope := make([]bool, len(clusters))

	for i, cluster := range clusters {
		members := membersOf(points, axisValues, cluster)
		if len(members) > 2 {
			s := fitSlope(members, vertical)
			slopes[i] = s
			haveSlope[i] = true
			weightedSlopeSum += s * float64(len(members))
			weightSum += float64(len(members))
		}
	}

	fallbackSlope := 0.0
	if weightSum > 0 {
		fallbackSlope = weightedSlopeSum / weightSum
	}

	lines := make([]geometry.Line, 0, len(clusters))
	for i, cluster := range clusters {
		members := membersOf(points, axisValues, cluster)
		if len(members) == 0 {
			continue
		}
		slope := fallbackSlope
		if haveSlope[i] {
			slope = slopes[i]
		}
		lines = append(lines, lineFromSlope(members[0], slope, vertical))
	}
	return lines, nil
}

// membersOf returns the points whose axis value appears in cluster.
func membersOf(points []geometry.Point, axisValues []float64, cluster []float64) []geometry.Point {
	want := make(map[float64]int)
	for _, v := range cluster {
		want[v]++
	}
	var out []geometry.Point
	for i, v := range axisValues {
		if want[v] > 0 {
			out = append(out, points[i])
			want[v]--
		}
	}
	return out
}

// fitSlope performs a 1-D least-squares fit of the line through members in
// the dominant axis, returning dx/dy for vertical lines (x = slope*y + c)
// and dy/dx for horizontal lines (y = slope*x + c), the slope convention
// lineFromSlope expects.
func fitSlope(members []geometry.Point, vertical bool) float64 {
	n := float64(len(members))
	var sumA, sumB, sumAB, sumAA float64
	for _, p := range members {
		a, b := p.Y, p.X
		if vertical {
			a, b = p.Y, p.X // regress x on y: x = slope*y + c
		} else {
			a, b = p.X, p.Y // regress y on x: y = slope*x + c
		}
		sumA += a
		sumB += b
		sumAB += a * b
		sumAA += a * a
	}
	denom := n*sumAA - sumA*sumA
	if denom == 0 {
		return 0
	}
	return (n*sumAB - sumA*sumB) / denom
}

// lineFromSlope builds a full-canvas Line anchored at anchor with the given
// slope, in the axis convention fitSlope uses.
func lineFromSlope(anchor geometry.Point, slope float64, vertical bool) geometry.Line {
	if vertical {
		// x = slope*y + c, anchored so x(anchor.Y) = anchor.X.
		c := anchor.X - slope*anchor.Y
		x1 := slope*0 + c
		x2 := slope*Canvas + c
		return geometry.NewLine(roundHalfAway(x1), 0, roundHalfAway(x2), Canvas)
	}
	// y = slope*x + c, anchored so y(anchor.X) = anchor.Y.
	c := anchor.Y - slope*anchor.X
	y1 := slope*0 + c
	y2 := slope*Canvas + c
	return geometry.NewLine(0, roundHalfAway(y1), Canvas, roundHalfAway(y2))
}

func roundHalfAway(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}

// axisIntercept returns the line's coordinate on the axis perpendicular to
// its orientation: x-intercept for vertical lines, y-intercept for
// horizontal lines.
func axisIntercept(l geometry.Line, vertical bool) float64 {
	if vertical {
		return float64(l.X1+l.X2) / 2
	}
	return float64(l.Y1+l.Y2) / 2
}

// restoreAndTrim sorts lines along the perpendicular axis, infers the
// modal spacing, inserts synthetic lines across gaps that are an
// approximate multiple of the modal spacing, discards lines that don't
// fit any multiple, and pads a boundary line at either end if needed.
func restoreAndTrim(lines []geometry.Line, vertical bool) ([]geometry.Line, error) {
	if len(lines) == 0 {
		return nil, errors.New("no lines to restore")
	}

	sort.Slice(lines, func(i, j int) bool {
		return axisIntercept(lines[i], vertical) < axisIntercept(lines[j], vertical)
	})

	spacings := make([]float64, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		spacings = append(spacings, axisIntercept(lines[i], vertical)-axisIntercept(lines[i-1], vertical))
	}
	modal := geometry.ModalSpacing(spacings, 2)
	if modal <= 0 {
		modal = Canvas / float64(Lines-1)
	}

	const tol = 0.35 // fraction of modal spacing tolerated as multiple error

	out := []geometry.Line{lines[0]}
	for i := 1; i < len(lines); i++ {
		prev := axisIntercept(out[len(out)-1], vertical)
		cur := axisIntercept(lines[i], vertical)
		gap := cur - prev
		if gap <= 0 {
			continue
		}

		k := gap / modal
		nearest := roundHalfAway(k)
		if nearest < 1 {
			nearest = 1
		}
		if absF(k-float64(nearest)) <= tol {
			for j := 1; j < nearest; j++ {
				frac := float64(j) / float64(nearest)
				out = append(out, interpolate(out[len(out)-1], lines[i], frac, vertical))
			}
			out = append(out, lines[i])
		}
		// else: discard lines[i] as spurious, re-examine from out's tail.
	}

	if len(out) > 0 {
		first := axisIntercept(out[0], vertical)
		if first > modal {
			out = append([]geometry.Line{offsetLine(out[0], -modal, vertical)}, out...)
		}
		last := axisIntercept(out[len(out)-1], vertical)
		if Canvas-last > modal {
			out = append(out, offsetLine(out[len(out)-1], modal, vertical))
		}
	}

	return out, nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// interpolate builds a synthetic line frac of the way from a to b along
// the perpendicular axis, keeping each endpoint's full-canvas span.
func interpolate(a, b geometry.Line, frac float64, vertical bool) geometry.Line {
	if vertical {
		x1 := float64(a.X1) + frac*float64(b.X1-a.X1)
		x2 := float64(a.X2) + frac*float64(b.X2-a.X2)
		return geometry.NewLine(roundHalfAway(x1), a.Y1, roundHalfAway(x2), a.Y2)
	}
	y1 := float64(a.Y1) + frac*float64(b.Y1-a.Y1)
	y2 := float64(a.Y2) + frac*float64(b.Y2-a.Y2)
	return geometry.NewLine(a.X1, roundHalfAway(y1), a.X2, roundHalfAway(y2))
}

func offsetLine(l geometry.Line, delta float64, vertical bool) geometry.Line {
	if vertical {
		return geometry.NewLine(l.X1+roundHalfAway(delta), l.Y1, l.X2+roundHalfAway(delta), l.Y2)
	}
	return geometry.NewLine(l.X1, l.Y1+roundHalfAway(delta), l.X2, l.Y2+roundHalfAway(delta))
}

// computeIntersections fills Intersections from g.Vertical and
// g.Horizontal, requiring every one of the 361 pairs to fall inside the
// canvas.
func (g *Grid) computeIntersections() error {
	type pt struct {
		x, y int
	}
	var all []pt
	for _, v := range g.Vertical {
		for _, h := range g.Horizontal {
			x, y, ok := geometry.Intersect(v, h)
			if !ok {
				return &GridFailure{Reason: "parallel grid lines"}
			}
			if x < 0 || x > Canvas || y < 0 || y > Canvas {
				return &GridFailure{Reason: "intersection outside canvas"}
			}
			all = append(all, pt{x, y})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].y != all[j].y {
			return all[i].y < all[j].y
		}
		return all[i].x < all[j].x
	})

	if len(all) != Lines*Lines {
		return &GridFailure{Reason: fmt.Sprintf("expected %d intersections, got %d", Lines*Lines, len(all))}
	}

	for row := 0; row < Lines; row++ {
		rowPts := all[row*Lines : (row+1)*Lines]
		sort.Slice(rowPts, func(i, j int) bool { return rowPts[i].x < rowPts[j].x })
		for col, p := range rowPts {
			g.Intersections[row][col] = geometry.Point{X: float64(p.x), Y: float64(p.y)}
		}
	}
	return nil
}
