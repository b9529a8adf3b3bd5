// Package bootstrap decides, from the first usable frame, how a state
// sequence begins: either as an explicit opening move list (strict mode)
// or as a bare record that reconstruction happens later from the state
// stream alone (transparent mode).
package bootstrap

import (
	"errors"
	"sort"

	"github.com/kifurecon/boardscribe/internal/state"
)

// Mode selects how the initialiser handles the first usable frame.
type Mode int

const (
	// Transparent records only that the sequence has begun; the move
	// list is produced at end-of-stream by the correctors.
	Transparent Mode = iota
	// Strict attempts to construct an explicit opening move list from a
	// sparse first frame (fewer than 10 stones).
	Strict
)

// ErrTooManyStones is returned by Strict when the first frame shows 10 or
// more stones; the caller may retry with Transparent.
var ErrTooManyStones = errors.New("bootstrap: first frame has 10 or more stones, strict mode cannot order them")

// strictStoneLimit is the stone count at which strict mode gives up
// (it orders at most strictStoneLimit-1 stones); at or above this,
// ordering by corner distance alone is too unreliable.
const strictStoneLimit = 10

// FirstMoveColour selects which colour strict mode assumes moves first,
// supporting handicap games where White plays the opening move.
type FirstMoveColour state.Colour

const (
	BlackFirst FirstMoveColour = FirstMoveColour(state.Black)
	WhiteFirst FirstMoveColour = FirstMoveColour(state.White)
)

// Initialiser decides how a state sequence starts.
type Initialiser struct {
	mode            Mode
	firstMoveColour FirstMoveColour
}

// New builds an Initialiser in mode, with firstMoveColour giving the side
// strict mode assumes moves first (BlackFirst unless a handicap game
// requires otherwise).
func New(mode Mode, firstMoveColour FirstMoveColour) *Initialiser {
	return &Initialiser{mode: mode, firstMoveColour: firstMoveColour}
}

// Result is the outcome of running the initialiser on one frame.
type Result struct {
	// Moves holds the strict-mode opening move list; nil in transparent
	// mode.
	Moves []state.Move
	// Transparent is true when the sequence starts with no explicit
	// opening move list.
	Transparent bool
}

// stonePos is a detected stone with its board position and colour.
type stonePos struct {
	row, col int
	colour   state.Colour
}

// Run attempts to initialise from board, the first usable frame's
// assigned state.
func (init *Initialiser) Run(board state.Board) (Result, error) {
	if init.mode == Transparent {
		return Result{Transparent: true}, nil
	}

	stones := collectStones(board)
	if len(stones) >= strictStoneLimit {
		return Result{}, ErrTooManyStones
	}

	sort.SliceStable(stones, func(i, j int) bool {
		return manhattanToNearestCorner(stones[i]) < manhattanToNearestCorner(stones[j])
	})

	var moves []state.Move
	sideToMove := state.Colour(init.firstMoveColour)
	passes := 0

	for _, s := range stones {
		for s.colour != sideToMove {
			moves = append(moves, state.Pass(sideToMove))
			passes++
			sideToMove = sideToMove.Opponent()
		}
		moves = append(moves, state.Move{Row: s.row, Col: s.col, Colour: s.colour})
		sideToMove = sideToMove.Opponent()
	}

	return Result{Moves: moves}, nil
}

func collectStones(b state.Board) []stonePos {
	var out []stonePos
	for r := 0; r < state.Size; r++ {
		for c := 0; c < state.Size; c++ {
			if b[r][c] != state.Empty {
				out = append(out, stonePos{row: r, col: c, colour: b[r][c]})
			}
		}
	}
	return out
}

// manhattanToNearestCorner returns s's Manhattan distance to the nearest
// of the board's four corners.
func manhattanToNearestCorner(s stonePos) int {
	const last = state.Size - 1
	corners := [4][2]int{{0, 0}, {0, last}, {last, 0}, {last, last}}

	best := manhattan(s.row, s.col, corners[0][0], corners[0][1])
	for _, c := range corners[1:] {
		if d := manhattan(s.row, s.col, c[0], c[1]); d < best {
			best = d
		}
	}
	return best
}

func manhattan(r1, c1, r2, c2 int) int {
	return absInt(r1-r2) + absInt(c1-c2)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
