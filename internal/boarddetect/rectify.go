package boarddetect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

// CanvasSize is the fixed dimension of the rectified, top-down canonical
// frame every downstream component (grid fitter, stone assigner) works in.
const CanvasSize = 600

// paddedCanvasSize is the double_transform pre-warp target: padded so a
// second detection pass sees full corner context even when the original
// corners sat near the frame edge.
const paddedCanvasSize = 660

// Homography computes the 3x3 projective transform mapping the detector's
// four ordered corners (tl, tr, br, bl) to the corners of a size x size
// square canvas.
func Homography(corners [4]Point, size float64) (geometry.Homography, error) {
	dst := [4]Point{
		{X: 0, Y: 0},
		{X: size, Y: 0},
		{X: size, Y: size},
		{X: 0, Y: size},
	}
	return geometry.ComputeHomography(corners, dst)
}

// Rectify warps frame into a CanvasSize x CanvasSize canonical view using
// the homography computed from result's ordered corners.
func Rectify(frame gocv.Mat, result Result) (gocv.Mat, error) {
	h, err := Homography(result.Corners, CanvasSize)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("boarddetect: compute homography: %w", err)
	}

	m := toGocvMatrix(h)
	defer m.Close()

	rectified := gocv.NewMat()
	gocv.WarpPerspective(frame, &rectified, m, image.Pt(CanvasSize, CanvasSize))
	return rectified, nil
}

// RectifyDouble implements the optional double_transform flow: pre-warp
// the frame to a padded (CanvasSize+60) canvas, mapping the first-pass
// corners to a CanvasSize square inset 30 pixels from each edge, invoke
// redetect on the padded frame to get sharper corners, then
// rectify a second time with zero padding to the final canonical canvas.
func RectifyDouble(frame gocv.Mat, first Result, redetect func(gocv.Mat) (Result, error)) (gocv.Mat, error) {
	pad := float64(paddedCanvasSize-CanvasSize) / 2
	dst := [4]Point{
		{X: pad, Y: pad},
		{X: pad + CanvasSize, Y: pad},
		{X: pad + CanvasSize, Y: pad + CanvasSize},
		{X: pad, Y: pad + CanvasSize},
	}
	h, err := geometry.ComputeHomography(first.Corners, dst)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("boarddetect: compute padded homography: %w", err)
	}
	m := toGocvMatrix(h)
	padded := gocv.NewMat()
	gocv.WarpPerspective(frame, &padded, m, image.Pt(paddedCanvasSize, paddedCanvasSize))
	m.Close()
	defer padded.Close()

	second, err := redetect(padded)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("boarddetect: redetect on padded frame: %w", err)
	}

	return Rectify(padded, second)
}

// toGocvMatrix copies the double-precision homography gonum solved into a
// 3x3 CV64F gocv.Mat, the form WarpPerspective expects. The gonum solve
// remains the numerics of record; this is a format conversion only.
func toGocvMatrix(h geometry.Homography) gocv.Mat {
	entries := h.Matrix()
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.SetDoubleAt(i, j, entries[i*3+j])
		}
	}
	return m
}
