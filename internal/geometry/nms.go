package geometry

import (
	"math"
	"sort"
)

// Box is an axis-aligned detection box with a confidence score and class
// label, the shape object detectors emit.
type Box struct {
	X1, Y1, X2, Y2 float64
	Score          float64
	Class          int
}

func (b Box) area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

func iou(a, b Box) float64 {
	x1 := math.Max(a.X1, b.X1)
	y1 := math.Max(a.Y1, b.Y1)
	x2 := math.Min(a.X2, b.X2)
	y2 := math.Min(a.Y2, b.Y2)

	interW := math.Max(0, x2-x1)
	interH := math.Max(0, y2-y1)
	inter := interW * interH

	union := a.area() + b.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// NonMaxSuppression performs box NMS over the boxes sorted by y2
// ascending: of any two surviving boxes whose IoU exceeds ov, the one
// with the lower score is dropped (on equal scores, the earlier one in
// y2 order is kept).
func NonMaxSuppression(boxes []Box, ov float64) []Box {
	if len(boxes) == 0 {
		return nil
	}

	ordered := make([]Box, len(boxes))
	copy(ordered, boxes)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Y2 < ordered[j].Y2
	})

	keep := make([]bool, len(ordered))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(ordered); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(ordered); j++ {
			if !keep[j] {
				continue
			}
			if iou(ordered[i], ordered[j]) > ov {
				// Lower score between the overlapping pair is dropped;
				// ties favour the one already kept.
				if ordered[j].Score > ordered[i].Score {
					keep[i] = false
					break
				}
				keep[j] = false
			}
		}
	}

	var out []Box
	for i, b := range ordered {
		if keep[i] {
			out = append(out, b)
		}
	}
	return out
}
