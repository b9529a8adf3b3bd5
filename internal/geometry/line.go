// Package geometry provides the low-level kernel the rest of the
// reconstruction pipeline builds on: line equations, intersections,
// non-max suppression, 1-D clustering and perspective transforms over the
// rectified 600x600 coordinate system.
package geometry

import "math"

// Line is an oriented segment in rectified pixel coordinates, stored so
// that (X1+Y1) <= (X2+Y2).
type Line struct {
	X1, Y1, X2, Y2 int
}

// NewLine builds a Line, applying the canonical orientation.
func NewLine(x1, y1, x2, y2 int) Line {
	l := Line{X1: x1, Y1: y1, X2: x2, Y2: y2}
	return l.Normalised()
}

// Normalised returns the line reoriented so (x1+y1) <= (x2+y2).
func (l Line) Normalised() Line {
	if l.X1+l.Y1 <= l.X2+l.Y2 {
		return l
	}
	return Line{X1: l.X2, Y1: l.Y2, X2: l.X1, Y2: l.Y1}
}

// IsVertical reports whether a known grid line is "vertical":
// |dx| < 50 and |dy| > 50.
func (l Line) IsVertical() bool {
	dx := abs(l.X2 - l.X1)
	dy := abs(l.Y2 - l.Y1)
	return dx < 50 && dy > 50
}

// Equation returns the line's slope/intercept form. ok is false when the
// line is vertical (infinite slope); xIntercept then holds the x value at
// which the line crosses y=0's perpendicular axis (the line's x position).
func (l Line) Equation() (slope, intercept float64, xIntercept float64, ok bool) {
	dx := float64(l.X2 - l.X1)
	if dx == 0 {
		return 0, 0, float64(l.X1), false
	}
	dy := float64(l.Y2 - l.Y1)
	slope = dy / dx
	intercept = float64(l.Y1) - slope*float64(l.X1)
	return slope, intercept, 0, true
}

// Intersect computes the integer intersection point of two lines.
// The result is undefined (ok=false) only when the lines are parallel.
func Intersect(a, b Line) (x, y int, ok bool) {
	as, ai, ax, aFinite := a.Equation()
	bs, bi, bx, bFinite := b.Equation()

	switch {
	case aFinite && bFinite:
		if as == bs {
			return 0, 0, false
		}
		fx := (bi - ai) / (as - bs)
		fy := as*fx + ai
		return roundHalfAway(fx), roundHalfAway(fy), true
	case !aFinite && !bFinite:
		return 0, 0, false
	case !aFinite && bFinite:
		fy := bs*ax + bi
		return roundHalfAway(ax), roundHalfAway(fy), true
	default: // aFinite && !bFinite
		fy := as*bx + ai
		return roundHalfAway(bx), roundHalfAway(fy), true
	}
}

// AreSimilar reports whether two lines' four coordinates each differ by
// at most tau (10 by default).
func AreSimilar(a, b Line, tau int) bool {
	return abs(a.X1-b.X1) <= tau && abs(a.Y1-b.Y1) <= tau &&
		abs(a.X2-b.X2) <= tau && abs(a.Y2-b.Y2) <= tau
}

// RemoveDuplicates groups lines under the AreSimilar relation and emits
// the per-group coordinate mean, one representative line per group.
func RemoveDuplicates(lines []Line, tau int) []Line {
	assigned := make([]bool, len(lines))
	var out []Line

	for i := range lines {
		if assigned[i] {
			continue
		}
		group := []Line{lines[i]}
		assigned[i] = true
		for j := i + 1; j < len(lines); j++ {
			if assigned[j] {
				continue
			}
			if AreSimilar(lines[i], lines[j], tau) {
				group = append(group, lines[j])
				assigned[j] = true
			}
		}
		out = append(out, meanLine(group))
	}
	return out
}

func meanLine(group []Line) Line {
	var sx1, sy1, sx2, sy2 int
	for _, l := range group {
		sx1 += l.X1
		sy1 += l.Y1
		sx2 += l.X2
		sy2 += l.Y2
	}
	n := len(group)
	return NewLine(sx1/n, sy1/n, sx2/n, sy2/n)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func roundHalfAway(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return int(math.Ceil(v - 0.5))
}
