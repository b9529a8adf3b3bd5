package correct

import "github.com/kifurecon/boardscribe/internal/state"

// Heuristic implements the noAI corrector: a purely rule-based walk over
// consecutive state pairs with no model dependency.
type Heuristic struct{}

// NewHeuristic constructs a Heuristic corrector.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Run walks the sequence's consecutive pairs and returns the reconstructed
// move list.
func (h *Heuristic) Run(seq *state.Sequence) []state.Move {
	var moves []state.Move
	turn := state.Black

	for i := 1; i < seq.Len(); i++ {
		prev, next := seq.At(i-1), seq.At(i)
		d := ComputeDiff(prev, next)
		moves, turn = h.applyTransition(moves, d, turn)
	}

	return moves
}

func (h *Heuristic) applyTransition(moves []state.Move, d Diff, turn state.Colour) ([]state.Move, state.Colour) {
	opponent := turn.Opponent()
	addTurn := d.Added(turn)
	addOpp := d.Added(opponent)

	switch {
	case d.TotalAdded() == 0:
		// Rule 1: capture or steady state, no move emitted.
		return moves, turn

	case len(addTurn)-len(addOpp) == 1:
		// Rule 2: turn plays first, then alternate opponent/turn.
		moves = append(moves, state.Move{Row: addTurn[0].Row, Col: addTurn[0].Col, Colour: turn})
		for i := 0; i < len(addOpp); i++ {
			moves = append(moves, state.Move{Row: addOpp[i].Row, Col: addOpp[i].Col, Colour: opponent})
			if i+1 < len(addTurn) {
				moves = append(moves, state.Move{Row: addTurn[i+1].Row, Col: addTurn[i+1].Col, Colour: turn})
			}
		}
		return moves, opponent

	case len(addTurn) == len(addOpp) && len(addTurn) >= 1:
		// Rule 3: equal counts, emit pairs (turn, opponent), turn unchanged.
		for i := 0; i < len(addTurn); i++ {
			moves = append(moves, state.Move{Row: addTurn[i].Row, Col: addTurn[i].Col, Colour: turn})
			moves = append(moves, state.Move{Row: addOpp[i].Row, Col: addOpp[i].Col, Colour: opponent})
		}
		return moves, turn

	default:
		// Rule 4: displacement, checked before rule-violation fallback.
		if applied, newMoves := h.tryDisplacement(moves, d); applied {
			return newMoves, turn
		}
		// Rule 5: rule-violation-like transition, silently skipped.
		return moves, turn
	}
}

// tryDisplacement handles the case where, for some colour, the same
// number of stones were added as removed: it finds the permutation of
// added cells minimising total Manhattan distance to the removed cells,
// then overwrites the last occurrence of each removed stone in the move
// list with its matched replacement.
func (h *Heuristic) tryDisplacement(moves []state.Move, d Diff) (bool, []state.Move) {
	any := false

	for _, c := range []state.Colour{state.Black, state.White} {
		added := d.Added(c)
		removed := d.Removed(c)
		if len(added) == 0 || len(added) != len(removed) {
			continue
		}
		any = true

		perm := bestPermutation(added, removed)
		for i, rem := range removed {
			replacement := added[perm[i]]
			idx := lastIndexOf(moves, rem, c)
			if idx >= 0 {
				moves[idx] = state.Move{Row: replacement.Row, Col: replacement.Col, Colour: c}
			}
		}
	}

	return any, moves
}

func lastIndexOf(moves []state.Move, cell Cell, c state.Colour) int {
	for i := len(moves) - 1; i >= 0; i-- {
		if moves[i].Colour == c && moves[i].Row == cell.Row && moves[i].Col == cell.Col {
			return i
		}
	}
	return -1
}

// bestPermutation returns, for each index i of removed, the index into
// added that minimises the total Manhattan distance, found by full
// enumeration — acceptable because the displaced-stone count is bounded
// small in practice.
func bestPermutation(added, removed []Cell) []int {
	n := len(added)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	best := append([]int(nil), indices...)
	bestCost := permCost(added, removed, best)

	permute(indices, 0, func(p []int) {
		cost := permCost(added, removed, p)
		if cost < bestCost {
			bestCost = cost
			best = append([]int(nil), p...)
		}
	})

	return best
}

func permCost(added, removed []Cell, perm []int) int {
	cost := 0
	for i, rem := range removed {
		cost += manhattan(added[perm[i]], rem)
	}
	return cost
}

// permute invokes visit on every permutation of indices by recursive
// swap-and-restore enumeration.
func permute(indices []int, k int, visit func([]int)) {
	if k == len(indices) {
		visit(indices)
		return
	}
	for i := k; i < len(indices); i++ {
		indices[k], indices[i] = indices[i], indices[k]
		permute(indices, k+1, visit)
		indices[k], indices[i] = indices[i], indices[k]
	}
}
