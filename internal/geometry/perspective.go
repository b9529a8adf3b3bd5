package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Point is a 2-D point in pixel coordinates.
type Point struct {
	X, Y float64
}

// Homography is a 3x3 projective transform.
type Homography struct {
	m *mat.Dense
}

// ComputeHomography solves for the 3x3 homography mapping src[i] -> dst[i]
// for exactly four correspondences, using the standard 8-unknown direct
// linear transform formulated as a dense linear solve in double precision.
func ComputeHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		row := 2 * i
		a.SetRow(row, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(row, u)

		a.SetRow(row+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(row+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("solve homography: %w", err)
	}

	m := mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	})

	return Homography{m: m}, nil
}

// Matrix returns the homography's 3x3 entries in row-major order, for
// callers (such as a gocv warp) that need the raw transform rather than
// Apply's per-point convenience.
func (h Homography) Matrix() [9]float64 {
	var m [9]float64
	for i := 0; i < 9; i++ {
		m[i] = h.m.At(i/3, i%3)
	}
	return m
}

// Apply maps a single point through the homography.
func (h Homography) Apply(p Point) Point {
	num := mat.NewVecDense(3, []float64{p.X, p.Y, 1})
	var res mat.VecDense
	res.MulVec(h.m, num)

	w := res.AtVec(2)
	if w == 0 {
		w = 1e-9
	}
	return Point{X: res.AtVec(0) / w, Y: res.AtVec(1) / w}
}

// PerspectiveTransformPoints maps a batch of points through H, rounding
// each result half-away-from-zero to integer pixel coordinates only at
// this boundary.
func PerspectiveTransformPoints(pts []Point, h Homography) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		mapped := h.Apply(p)
		out[i] = Point{
			X: float64(roundHalfAway(mapped.X)),
			Y: float64(roundHalfAway(mapped.Y)),
		}
	}
	return out
}
