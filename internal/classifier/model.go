// Package classifier implements the per-cell move-probability model the
// hybrid corrector queries during gap filling: a small convolutional
// network over a 19x19x1 board with a 2-unit softmax head, where column
// 0 is "this candidate is the correct next black move" and column 1 is
// the white counterpart.
package classifier

import (
	"encoding/gob"
	"fmt"
	"os"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/kifurecon/boardscribe/internal/state"
)

// BoardDim is the fixed spatial size of the classifier's input.
const BoardDim = state.Size

// Model wraps a gorgonia computation graph producing, for a single
// candidate 19x19 board, the probability that it is the correct next
// move for each colour.
type Model struct {
	g     *gorgonia.ExprGraph
	vm    gorgonia.VM
	input *gorgonia.Node

	conv1W, conv1B *gorgonia.Node
	conv2W, conv2B *gorgonia.Node
	fc1W, fc1B     *gorgonia.Node
	fc2W, fc2B     *gorgonia.Node
	fc3W, fc3B     *gorgonia.Node

	output *gorgonia.Node

	hiddenSize int
}

// New builds the classifier graph. hiddenSize controls the two dense
// layers' width (the reference chess model uses 256).
func New(hiddenSize int) (*Model, error) {
	g := gorgonia.NewGraph()

	input := gorgonia.NewTensor(g, tensor.Float64, 4, gorgonia.WithShape(1, 1, BoardDim, BoardDim), gorgonia.WithName("input"))

	conv1W := gorgonia.NewTensor(g, tensor.Float64, 4, gorgonia.WithShape(16, 1, 3, 3), gorgonia.WithName("conv1_w"), gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	conv1B := gorgonia.NewTensor(g, tensor.Float64, 1, gorgonia.WithShape(16), gorgonia.WithName("conv1_b"), gorgonia.WithInit(gorgonia.Zeroes()))

	conv2W := gorgonia.NewTensor(g, tensor.Float64, 4, gorgonia.WithShape(32, 16, 3, 3), gorgonia.WithName("conv2_w"), gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	conv2B := gorgonia.NewTensor(g, tensor.Float64, 1, gorgonia.WithShape(32), gorgonia.WithName("conv2_b"), gorgonia.WithInit(gorgonia.Zeroes()))

	conv1, err := gorgonia.Conv2d(input, conv1W, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, fmt.Errorf("conv1: %w", err)
	}
	conv1 = gorgonia.Must(gorgonia.BroadcastAdd(conv1, conv1B, nil, []byte{0, 2, 3}))
	conv1 = gorgonia.Must(gorgonia.Rectify(conv1))
	pool1, err := gorgonia.MaxPool2D(conv1, tensor.Shape{2, 2}, []int{0, 0}, []int{2, 2})
	if err != nil {
		return nil, fmt.Errorf("pool1: %w", err)
	}

	conv2, err := gorgonia.Conv2d(pool1, conv2W, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, fmt.Errorf("conv2: %w", err)
	}
	conv2 = gorgonia.Must(gorgonia.BroadcastAdd(conv2, conv2B, nil, []byte{0, 2, 3}))
	conv2 = gorgonia.Must(gorgonia.Rectify(conv2))
	pool2, err := gorgonia.MaxPool2D(conv2, tensor.Shape{2, 2}, []int{0, 0}, []int{2, 2})
	if err != nil {
		return nil, fmt.Errorf("pool2: %w", err)
	}

	// 19 -> 9 (pool1) -> 4 (pool2), 32 channels.
	const flatSize = 32 * 4 * 4
	flat := gorgonia.Must(gorgonia.Reshape(pool2, tensor.Shape{1, flatSize}))

	fc1W := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(flatSize, hiddenSize), gorgonia.WithName("fc1_w"), gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	fc1B := gorgonia.NewVector(g, tensor.Float64, gorgonia.WithShape(hiddenSize), gorgonia.WithName("fc1_b"), gorgonia.WithInit(gorgonia.Zeroes()))
	fc1 := gorgonia.Must(gorgonia.Mul(flat, fc1W))
	fc1 = gorgonia.Must(gorgonia.BroadcastAdd(fc1, fc1B, nil, []byte{0}))
	fc1 = gorgonia.Must(gorgonia.Rectify(fc1))

	fc2W := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(hiddenSize, hiddenSize), gorgonia.WithName("fc2_w"), gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	fc2B := gorgonia.NewVector(g, tensor.Float64, gorgonia.WithShape(hiddenSize), gorgonia.WithName("fc2_b"), gorgonia.WithInit(gorgonia.Zeroes()))
	fc2 := gorgonia.Must(gorgonia.Mul(fc1, fc2W))
	fc2 = gorgonia.Must(gorgonia.BroadcastAdd(fc2, fc2B, nil, []byte{0}))
	fc2 = gorgonia.Must(gorgonia.Rectify(fc2))

	fc3W := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(hiddenSize, 2), gorgonia.WithName("fc3_w"), gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	fc3B := gorgonia.NewVector(g, tensor.Float64, gorgonia.WithShape(2), gorgonia.WithName("fc3_b"), gorgonia.WithInit(gorgonia.Zeroes()))
	fc3 := gorgonia.Must(gorgonia.Mul(fc2, fc3W))
	output := gorgonia.Must(gorgonia.BroadcastAdd(fc3, fc3B, nil, []byte{0}))
	output = gorgonia.Must(gorgonia.SoftMax(output))

	vm := gorgonia.NewTapeMachine(g)

	return &Model{
		g:          g,
		vm:         vm,
		input:      input,
		conv1W:     conv1W,
		conv1B:     conv1B,
		conv2W:     conv2W,
		conv2B:     conv2B,
		fc1W:       fc1W,
		fc1B:       fc1B,
		fc2W:       fc2W,
		fc2B:       fc2B,
		fc3W:       fc3W,
		fc3B:       fc3B,
		output:     output,
		hiddenSize: hiddenSize,
	}, nil
}

// boardToFloat64 encodes a board as a single-channel {0,1,2} tensor.
func boardToFloat64(b state.Board) []float64 {
	data := make([]float64, BoardDim*BoardDim)
	for r := 0; r < BoardDim; r++ {
		for c := 0; c < BoardDim; c++ {
			data[r*BoardDim+c] = float64(b[r][c])
		}
	}
	return data
}

// Predict scores one candidate board, returning (P(correct black move),
// P(correct white move)).
func (m *Model) Predict(b state.Board) (probBlack, probWhite float64, err error) {
	data := boardToFloat64(b)
	inputTensor := tensor.New(
		tensor.WithShape(1, 1, BoardDim, BoardDim),
		tensor.WithBacking(data),
	)

	if err := gorgonia.Let(m.input, inputTensor); err != nil {
		return 0, 0, fmt.Errorf("set classifier input: %w", err)
	}
	if err := m.vm.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("run classifier: %w", err)
	}
	defer m.vm.Reset()

	val := m.output.Value()
	if val == nil {
		return 0, 0, fmt.Errorf("classifier produced no output")
	}
	out := val.Data().([]float64)
	if len(out) != 2 {
		return 0, 0, fmt.Errorf("unexpected classifier output width %d", len(out))
	}
	return out[0], out[1], nil
}

// PredictBatch scores multiple candidate boards, matching the (N,19,19,1)
// batched classifier contract at the call-site level — each candidate is
// queried against the same graph in turn, which is equivalent for this
// model since there is no cross-sample normalization in the forward pass.
func (m *Model) PredictBatch(boards []state.Board) ([][2]float64, error) {
	out := make([][2]float64, len(boards))
	for i, b := range boards {
		pb, pw, err := m.Predict(b)
		if err != nil {
			return nil, fmt.Errorf("predict candidate %d: %w", i, err)
		}
		out[i] = [2]float64{pb, pw}
	}
	return out, nil
}

// Learnables returns the model's trainable parameters.
func (m *Model) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{
		m.conv1W, m.conv1B,
		m.conv2W, m.conv2B,
		m.fc1W, m.fc1B,
		m.fc2W, m.fc2B,
		m.fc3W, m.fc3B,
	}
}

// Save persists the model weights.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	for _, w := range m.Learnables() {
		val := w.Value()
		if val == nil {
			continue
		}
		data := val.Data().([]float64)
		shape := val.Shape()
		if err := enc.Encode(shape); err != nil {
			return fmt.Errorf("encode shape: %w", err)
		}
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode weights: %w", err)
		}
	}
	return nil
}

// Load restores model weights previously written by Save.
func (m *Model) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open weights file: %w", err)
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	for _, w := range m.Learnables() {
		var shape tensor.Shape
		var data []float64
		if err := dec.Decode(&shape); err != nil {
			return fmt.Errorf("decode shape: %w", err)
		}
		if err := dec.Decode(&data); err != nil {
			return fmt.Errorf("decode weights: %w", err)
		}
		t := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
		if err := gorgonia.Let(w, t); err != nil {
			return fmt.Errorf("set weight: %w", err)
		}
	}
	return nil
}

// Close releases the VM's resources.
func (m *Model) Close() error {
	return m.vm.Close()
}
