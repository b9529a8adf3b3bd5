package boarddetect

import (
	"errors"
	"fmt"
	"sort"

	"gocv.io/x/gocv"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

// Errors returned by Detect's per-frame contract.
var (
	ErrBoardAbsent    = errors.New("boarddetect: no board detected")
	ErrBadCornerCount = errors.New("boarddetect: corner count after NMS is not 4")
	ErrBadClassCount  = errors.New("boarddetect: no empty intersections detected")
)

// Point is a detection centre in the original frame's coordinate space.
type Point = geometry.Point

// Result is one frame's fully assembled detection: the board box, the four
// ordered corner centres (tl, tr, br, bl), and the empty/stone point sets.
type Result struct {
	BoardBox     geometry.Box
	Corners      [4]Point
	EmptyPoints  []Point
	BlackCentres []Point
	WhiteCentres []Point
}

// Detector assembles raw Model.Detect boxes into a Result: NMS on
// corners, intersect with the board box, order corners, and collect the
// remaining classes as point sets (box centres).
type Detector struct {
	model      *Model
	nmsOverlap float64
}

// NewDetector wraps a Model with the geometry post-processing it needs.
func NewDetector(model *Model, nmsOverlap float64) *Detector {
	return &Detector{model: model, nmsOverlap: nmsOverlap}
}

// DetectFrame runs the wrapped model on frame and assembles the Result.
func (d *Detector) DetectFrame(frame gocv.Mat) (Result, error) {
	return d.Detect(func() ([]Box, error) { return d.model.Detect(frame) })
}

// Detect assembles raw detector output (however obtained — DetectFrame's
// closure, or a test's fixed box list) into a Result.
func (d *Detector) Detect(frameDetect func() ([]Box, error)) (Result, error) {
	boxes, err := frameDetect()
	if err != nil {
		return Result{}, fmt.Errorf("boarddetect: %w", err)
	}

	var boardBoxes, cornerBoxes []geometry.Box
	var emptyPts, blackPts, whitePts []Point

	for _, b := range boxes {
		switch Class(b.Class) {
		case ClassBoard:
			boardBoxes = append(boardBoxes, b.Box)
		case ClassCorner:
			cornerBoxes = append(cornerBoxes, b.Box)
		case ClassEmptyIntersection, ClassEmptyCorner, ClassEmptyEdge:
			emptyPts = append(emptyPts, centre(b.Box))
		case ClassBlackStone:
			blackPts = append(blackPts, centre(b.Box))
		case ClassWhiteStone:
			whitePts = append(whitePts, centre(b.Box))
		}
	}

	if len(boardBoxes) == 0 {
		return Result{}, ErrBoardAbsent
	}
	board := highestScoring(boardBoxes)

	nmsCorners := geometry.NonMaxSuppression(cornerBoxes, d.nmsOverlap)
	surviving := intersectWithBoard(nmsCorners, board)
	if len(surviving) != 4 {
		return Result{}, fmt.Errorf("%w: got %d", ErrBadCornerCount, len(surviving))
	}

	ordered := orderCorners(surviving)

	if len(emptyPts) == 0 {
		return Result{}, ErrBadClassCount
	}

	return Result{
		BoardBox:     board,
		Corners:      ordered,
		EmptyPoints:  emptyPts,
		BlackCentres: blackPts,
		WhiteCentres: whitePts,
	}, nil
}

func centre(b geometry.Box) Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

func highestScoring(boxes []geometry.Box) geometry.Box {
	best := boxes[0]
	for _, b := range boxes[1:] {
		if b.Score > best.Score {
			best = b
		}
	}
	return best
}

// intersectWithBoard keeps only corner boxes whose centre lies inside the
// board box.
func intersectWithBoard(corners []geometry.Box, board geometry.Box) []geometry.Box {
	var out []geometry.Box
	for _, c := range corners {
		cx, cy := (c.X1+c.X2)/2, (c.Y1+c.Y2)/2
		if cx >= board.X1 && cx <= board.X2 && cy >= board.Y1 && cy <= board.Y2 {
			out = append(out, c)
		}
	}
	return out
}

// orderCorners sorts 4 surviving corner boxes into tl, tr, br, bl: split by
// y into top/bottom pairs, then order each pair by x (ascending for the
// top row, descending for the bottom row).
func orderCorners(corners []geometry.Box) [4]Point {
	sort.Slice(corners, func(i, j int) bool {
		return corners[i].Y1 < corners[j].Y1
	})

	top := corners[:2]
	bottom := corners[2:]

	sort.Slice(top, func(i, j int) bool { return top[i].X1 < top[j].X1 })
	sort.Slice(bottom, func(i, j int) bool { return bottom[i].X1 > bottom[j].X1 })

	return [4]Point{
		centre(top[0]),    // tl
		centre(top[1]),    // tr
		centre(bottom[0]), // br
		centre(bottom[1]), // bl
	}
}
