// Package state defines the board-state value type and the append-only
// sequence of observed states the correctors walk over.
package state

import "fmt"

// Colour identifies a stone colour, or the absence of one.
type Colour int

const (
	Empty Colour = iota
	Black
	White
)

// Size is the fixed board dimension this pipeline reconstructs (19x19 Go).
const Size = 19

// Board is a value-typed 19x19 grid of {Empty, Black, White}.
type Board [Size][Size]Colour

// Layered is the 19x19x2 one-hot representation: channel 0 is black,
// channel 1 is white. At most one channel is set per cell.
type Layered [2][Size][Size]uint8

// ToLayered derives the one-hot representation in O(361).
func (b Board) ToLayered() Layered {
	var l Layered
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case Black:
				l[0][r][c] = 1
			case White:
				l[1][r][c] = 1
			}
		}
	}
	return l
}

// ToBoard derives the flat board from a layered representation in O(361).
func (l Layered) ToBoard() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch {
			case l[0][r][c] == 1:
				b[r][c] = Black
			case l[1][r][c] == 1:
				b[r][c] = White
			}
		}
	}
	return b
}

// Count returns the number of non-empty cells.
func (b Board) Count() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Move is a single placement, or a pass when Row/Col are both -1.
type Move struct {
	Row, Col int
	Colour   Colour
}

// IsPass reports whether this move is a pass.
func (m Move) IsPass() bool {
	return m.Row == -1 && m.Col == -1
}

// Pass constructs a pass move for the given colour.
func Pass(c Colour) Move {
	return Move{Row: -1, Col: -1, Colour: c}
}

func (m Move) String() string {
	if m.IsPass() {
		return fmt.Sprintf("%s pass", m.Colour)
	}
	return fmt.Sprintf("%s(%d,%d)", m.Colour, m.Row, m.Col)
}

func (c Colour) String() string {
	switch c {
	case Black:
		return "B"
	case White:
		return "W"
	default:
		return "."
	}
}

// Opponent returns the other playing colour; Empty maps to itself.
func (c Colour) Opponent() Colour {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// Sequence is the ordered, append-only list of observed board states. The
// frame scheduler appends in capture order; only the hybrid corrector may
// insert synthetic intermediate states, and it never reorders real
// observations.
type Sequence struct {
	states    []Board
	synthetic []bool
}

// NewSequence creates an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds a real, observed state to the end of the sequence.
func (s *Sequence) Append(b Board) {
	s.states = append(s.states, b)
	s.synthetic = append(s.synthetic, false)
}

// InsertSynthetic inserts a synthetic state immediately after index i,
// shifting subsequent elements. Used only by the hybrid corrector.
func (s *Sequence) InsertSynthetic(i int, b Board) {
	pos := i + 1
	s.states = append(s.states, Board{})
	copy(s.states[pos+1:], s.states[pos:])
	s.states[pos] = b

	s.synthetic = append(s.synthetic, false)
	copy(s.synthetic[pos+1:], s.synthetic[pos:])
	s.synthetic[pos] = true
}

// Len returns the number of states (real and synthetic).
func (s *Sequence) Len() int { return len(s.states) }

// At returns the state at index i.
func (s *Sequence) At(i int) Board { return s.states[i] }

// IsSynthetic reports whether the state at index i was inserted by the
// hybrid corrector rather than observed.
func (s *Sequence) IsSynthetic(i int) bool { return s.synthetic[i] }

// RealObservations returns the subsequence of non-synthetic states, in
// order — used to verify that gap-filling never reorders real frames.
func (s *Sequence) RealObservations() []Board {
	var out []Board
	for i, synth := range s.synthetic {
		if !synth {
			out = append(out, s.states[i])
		}
	}
	return out
}
