package rules

import "github.com/kifurecon/boardscribe/internal/state"

// Violation records one move a replay rejected.
type Violation struct {
	Index int
	Move  state.Move
	Tag   Tag
}

// Replay plays moves against a fresh Game starting with first to move,
// skipping (not applying) any move the rules reject and recording it as
// a Violation tagged with why. It never stops at the first violation —
// it's a test harness for auditing a corrector's output, not a legality
// gate on the reconstruction path.
func Replay(moves []state.Move, first state.Colour) []Violation {
	g := NewGame(first)
	var violations []Violation
	for i, m := range moves {
		if err := g.Play(m); err != nil {
			if illegal, ok := err.(*IllegalMove); ok {
				violations = append(violations, Violation{Index: i, Move: m, Tag: illegal.Tag})
			}
		}
	}
	return violations
}
