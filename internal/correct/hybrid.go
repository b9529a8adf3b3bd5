package correct

import (
	"github.com/kifurecon/boardscribe/internal/state"
)

// Classifier is the per-cell probability model the hybrid corrector
// queries during gap filling: given a batch of candidate boards, it
// returns, for each, (P(correct black move), P(correct white move)).
type Classifier interface {
	PredictBatch(boards []state.Board) ([][2]float64, error)
}

// GapFill records one resolved gap for diagnostics: where in the
// sequence it started, how many candidate cells the endpoints offered,
// and how many moves were committed.
type GapFill struct {
	SequenceIndex  int
	CandidateCount int
	MovesEmitted   int
}

// Hybrid implements the withAI corrector: it walks the state sequence
// like Heuristic, but resolves ambiguous ("gap") transitions by
// synthesising intermediate states with the classifier rather than
// discarding them.
type Hybrid struct {
	model Classifier
	fills []GapFill
}

// NewHybrid constructs a Hybrid corrector bound to a classifier model.
func NewHybrid(model Classifier) *Hybrid {
	return &Hybrid{model: model}
}

// Run walks seq, mutating it with synthetic states where gaps are filled,
// and returns the reconstructed move list.
func (h *Hybrid) Run(seq *state.Sequence) []state.Move {
	var moves []state.Move
	side := state.Black

	iterations := 0
	iterCap := 10 * seq.Len()
	if iterCap == 0 {
		iterCap = 10
	}

	i := 1
	for i < seq.Len() && iterations < iterCap {
		iterations++

		prev := seq.At(i - 1)
		cur := seq.At(i)
		d := ComputeDiff(prev, cur)

		if d.TotalAdded() == 0 {
			i++
			continue
		}

		addSide := d.Added(side)
		addOther := d.Added(side.Opponent())
		if len(addSide) == 1 && len(addOther) == 0 {
			moves = append(moves, state.Move{Row: addSide[0].Row, Col: addSide[0].Col, Colour: side})
			side = side.Opponent()
			i++
			continue
		}

		gapMoves, postIdx := h.fillGap(seq, i, h.gapStartSide(seq, i))
		moves = append(moves, gapMoves...)
		if n := len(gapMoves); n > 0 {
			side = gapMoves[n-1].Colour.Opponent()
		}
		i = postIdx + 1
	}

	return moves
}

// GapFills returns the diagnostics for every gap Run resolved, in order.
func (h *Hybrid) GapFills() []GapFill { return h.fills }

// gapStartSide looks two transitions back to decide whose move created
// the current gap; defaults to black at i=1.
func (h *Hybrid) gapStartSide(seq *state.Sequence, i int) state.Colour {
	if i < 2 {
		return state.Black
	}
	d := ComputeDiff(seq.At(i-2), seq.At(i-1))
	if len(d.AddedBlack) > 0 {
		return state.White
	}
	return state.Black
}

// fillGap resolves the ambiguous transition starting at index i (pair
// seq[i-1], seq[i]). The post-gap endpoint is seq[i+1] when present,
// otherwise seq[i] itself (sequence tail). It inserts one synthetic state
// per committed move but the last, and returns the moves synthesised and
// the post-gap state's index after insertion.
func (h *Hybrid) fillGap(seq *state.Sequence, i int, startSide state.Colour) ([]state.Move, int) {
	prev := seq.At(i - 1)

	postIdx := i
	if i+1 < seq.Len() {
		postIdx = i + 1
	}
	post := seq.At(postIdx)

	gapDiff := ComputeDiff(prev, post)
	pools := map[state.Colour][]Cell{
		state.Black: append([]Cell(nil), gapDiff.AddedBlack...),
		state.White: append([]Cell(nil), gapDiff.AddedWhite...),
	}
	candidateCount := len(pools[state.Black]) + len(pools[state.White])

	synth := prev
	side := startSide
	var moves []state.Move
	var boards []state.Board

	for len(pools[state.Black])+len(pools[state.White]) > 0 {
		pool := pools[side]
		if len(pool) == 0 {
			side = side.Opponent()
			pool = pools[side]
			if len(pool) == 0 {
				break
			}
		}

		chosen := h.pickCandidate(synth, pool, side)

		synth[chosen.cell.Row][chosen.cell.Col] = side
		moves = append(moves, state.Move{Row: chosen.cell.Row, Col: chosen.cell.Col, Colour: side})
		boards = append(boards, synth)

		pools[side] = removeCell(pools[side], chosen.index)
		side = side.Opponent()
	}

	// Insert a synthetic state for every committed move but the last,
	// which coincides with the frozen post-gap state already present.
	insertAt := i - 1
	for k := 0; k < len(boards)-1; k++ {
		seq.InsertSynthetic(insertAt, boards[k])
		insertAt++
	}
	newPostIdx := postIdx + maxInt(len(boards)-1, 0)

	h.fills = append(h.fills, GapFill{
		SequenceIndex:  i,
		CandidateCount: candidateCount,
		MovesEmitted:   len(moves),
	})

	return moves, newPostIdx
}

type candidate struct {
	cell  Cell
	index int
}

// pickCandidate queries the classifier over every candidate in pool,
// hypothetically placed on synth, and returns the one maximising the
// side-to-move's probability channel. It queries the model even for a
// single-candidate pool: a gap with one stone per colour still calls
// PredictBatch once per colour, matching the corrector's "queries the
// classifier twice" scenario. On a classifier error, it falls back to
// the first candidate deterministically.
func (h *Hybrid) pickCandidate(synth state.Board, pool []Cell, side state.Colour) candidate {
	if h.model == nil {
		return candidate{cell: pool[0], index: 0}
	}

	hypotheticals := make([]state.Board, len(pool))
	for i, cell := range pool {
		hb := synth
		hb[cell.Row][cell.Col] = side
		hypotheticals[i] = hb
	}

	probs, err := h.model.PredictBatch(hypotheticals)
	if err != nil || len(probs) != len(pool) {
		return candidate{cell: pool[0], index: 0}
	}

	channel := 0
	if side == state.White {
		channel = 1
	}

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i][channel] > probs[best][channel] {
			best = i
		}
	}
	return candidate{cell: pool[best], index: best}
}

func removeCell(cells []Cell, idx int) []Cell {
	out := append([]Cell(nil), cells[:idx]...)
	return append(out, cells[idx+1:]...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
