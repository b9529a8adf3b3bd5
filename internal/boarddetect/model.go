// Package boarddetect wraps the externally supplied object-detection
// model and turns its raw output into an ordered detection result:
// board box, four ordered corner boxes, and the empty/stone point sets
// a frame needs for grid fitting and stone assignment.
package boarddetect

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/kifurecon/boardscribe/internal/geometry"
)

// Class identifies one of the detector's 7 output classes.
type Class int

const (
	ClassBlackStone Class = iota
	ClassBoard
	ClassCorner
	ClassEmptyIntersection
	ClassEmptyCorner
	ClassEmptyEdge
	ClassWhiteStone
)

const (
	modelWidth  = 640
	modelHeight = 640
	numClasses  = 7
	// boxStride is per detection: 4 bbox coordinates + numClasses scores.
	boxStride = 4 + numClasses
)

// Model wraps an ONNX Runtime session for the pretrained board/corner/stone
// detector. It is an external resource the pipeline never trains or
// mutates, only queries.
type Model struct {
	session           *ort.DynamicAdvancedSession
	confidenceFloor   float64
	maxDetectionCount int
}

// New loads the detector from an ONNX model file. confidenceFloor filters
// raw detections before NMS; maxDetectionCount bounds the raw output rows
// the model is expected to produce (matching its export shape).
func New(modelPath string, confidenceFloor float64, maxDetectionCount int) (*Model, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{"images"}, []string{"output"}, opts)
	if err != nil {
		return nil, fmt.Errorf("load detector session: %w", err)
	}

	return &Model{
		session:           session,
		confidenceFloor:   confidenceFloor,
		maxDetectionCount: maxDetectionCount,
	}, nil
}

// Close releases the ONNX Runtime session.
func (m *Model) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Destroy()
}

// Box is a raw detection before any NMS or role assignment.
type Box struct {
	geometry.Box
}

// Detect runs the model on one BGR frame and returns every box above the
// confidence floor, labelled by class.
func (m *Model) Detect(frame gocv.Mat) ([]Box, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("boarddetect: empty frame")
	}

	input, origW, origH, err := m.preprocess(frame)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.maxDetectionCount), int64(boxStride)))
	if err != nil {
		return nil, fmt.Errorf("allocate detector output: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("run detector: %w", err)
	}

	return m.postprocess(output.GetData(), origW, origH), nil
}

func (m *Model) preprocess(frame gocv.Mat) (*ort.Tensor[float32], int, int, error) {
	origW, origH := frame.Cols(), frame.Rows()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, image.Pt(modelWidth, modelHeight), 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	data := make([]float32, 3*modelHeight*modelWidth)
	idx := 0
	for c := 0; c < 3; c++ {
		for y := 0; y < modelHeight; y++ {
			for x := 0; x < modelWidth; x++ {
				v := rgb.GetVecbAt(y, x)[c]
				data[idx] = float32(v) / 255.0
				idx++
			}
		}
	}

	shape := ort.NewShape(1, 3, int64(modelHeight), int64(modelWidth))
	tensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("build detector input tensor: %w", err)
	}
	return tensor, origW, origH, nil
}

// postprocess decodes raw (cx,cy,w,h,class-scores...) rows into Boxes in
// original-frame coordinates, filtering by confidenceFloor.
func (m *Model) postprocess(data []float32, origW, origH int) []Box {
	scaleX := float64(origW) / float64(modelWidth)
	scaleY := float64(origH) / float64(modelHeight)

	var boxes []Box
	for i := 0; i < m.maxDetectionCount; i++ {
		offset := i * boxStride
		if offset+boxStride > len(data) {
			break
		}

		cx, cy := float64(data[offset]), float64(data[offset+1])
		w, h := float64(data[offset+2]), float64(data[offset+3])

		bestClass, bestScore := 0, 0.0
		for c := 0; c < numClasses; c++ {
			score := float64(data[offset+4+c])
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestScore < m.confidenceFloor {
			continue
		}

		x1 := (cx - w/2) * scaleX
		y1 := (cy - h/2) * scaleY
		x2 := (cx + w/2) * scaleX
		y2 := (cy + h/2) * scaleY

		boxes = append(boxes, Box{geometry.Box{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Score: bestScore,
			Class: bestClass,
		}})
	}
	return boxes
}
