package boarddetect

import (
	"testing"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

func box(class int, x1, y1, x2, y2, score float64) Box {
	return Box{geometry.Box{X1: x1, Y1: y1, X2: x2, Y2: y2, Score: score, Class: class}}
}

func TestDetectAssemblesOrderedResult(t *testing.T) {
	d := NewDetector(nil, 0.5)

	boxes := []Box{
		box(int(ClassBoard), 0, 0, 600, 600, 0.9),
		box(int(ClassCorner), 0, 0, 20, 20, 0.9),       // tl
		box(int(ClassCorner), 580, 0, 600, 20, 0.9),    // tr
		box(int(ClassCorner), 580, 580, 600, 600, 0.9), // br
		box(int(ClassCorner), 0, 580, 20, 600, 0.9),    // bl
		box(int(ClassBlackStone), 100, 100, 110, 110, 0.8),
		box(int(ClassWhiteStone), 200, 200, 210, 210, 0.8),
		box(int(ClassEmptyIntersection), 300, 300, 310, 310, 0.8),
	}

	result, err := d.Detect(func() ([]Box, error) { return boxes, nil })
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(result.BlackCentres) != 1 || len(result.WhiteCentres) != 1 || len(result.EmptyPoints) != 1 {
		t.Fatalf("unexpected point set sizes: %+v", result)
	}

	want := [4]Point{
		{X: 10, Y: 10},
		{X: 590, Y: 10},
		{X: 590, Y: 590},
		{X: 10, Y: 590},
	}
	if result.Corners != want {
		t.Errorf("corner ordering mismatch: got %+v, want %+v", result.Corners, want)
	}
}

func TestDetectFailsWithoutBoard(t *testing.T) {
	d := NewDetector(nil, 0.5)
	_, err := d.Detect(func() ([]Box, error) { return nil, nil })
	if err != ErrBoardAbsent {
		t.Errorf("expected ErrBoardAbsent, got %v", err)
	}
}

func TestDetectFailsWithoutEmptyPoints(t *testing.T) {
	d := NewDetector(nil, 0.5)
	boxes := []Box{
		box(int(ClassBoard), 0, 0, 600, 600, 0.9),
		box(int(ClassCorner), 0, 0, 20, 20, 0.9),
		box(int(ClassCorner), 580, 0, 600, 20, 0.9),
		box(int(ClassCorner), 580, 580, 600, 600, 0.9),
		box(int(ClassCorner), 0, 580, 20, 600, 0.9),
	}
	_, err := d.Detect(func() ([]Box, error) { return boxes, nil })
	if err != ErrBadClassCount {
		t.Errorf("expected ErrBadClassCount, got %v", err)
	}
}

func TestDetectFailsOnBadCornerCount(t *testing.T) {
	d := NewDetector(nil, 0.5)
	boxes := []Box{
		box(int(ClassBoard), 0, 0, 600, 600, 0.9),
		box(int(ClassCorner), 0, 0, 20, 20, 0.9),
		box(int(ClassCorner), 580, 0, 600, 20, 0.9),
	}
	_, err := d.Detect(func() ([]Box, error) { return boxes, nil })
	if err == nil {
		t.Fatal("expected bad corner count error")
	}
}
