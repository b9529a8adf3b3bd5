package bootstrap

import (
	"testing"

	"github.com/kifurecon/boardscribe/internal/state"
)

func TestTransparentModeRecordsNoMoves(t *testing.T) {
	init := New(Transparent, BlackFirst)
	var board state.Board
	board[3][3] = state.Black

	result, err := init.Run(board)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Transparent || result.Moves != nil {
		t.Errorf("expected transparent result with no moves, got %+v", result)
	}
}

func TestStrictModeFailsAtTenStones(t *testing.T) {
	init := New(Strict, BlackFirst)
	var board state.Board
	for i := 0; i < 10; i++ {
		board[i][0] = state.Black
	}

	if _, err := init.Run(board); err != ErrTooManyStones {
		t.Errorf("expected ErrTooManyStones, got %v", err)
	}
}

func TestStrictModeFourCornerStonesPassesBounded(t *testing.T) {
	init := New(Strict, BlackFirst)
	var board state.Board
	board[3][3] = state.Black
	board[15][3] = state.White
	board[15][15] = state.Black
	board[3][15] = state.White

	result, err := init.Run(board)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	passes := 0
	placements := 0
	for _, m := range result.Moves {
		if m.IsPass() {
			passes++
		} else {
			placements++
		}
	}
	if passes > 2 {
		t.Errorf("expected at most 2 passes, got %d", passes)
	}
	if placements != 4 {
		t.Errorf("expected 4 placements, got %d", placements)
	}
}

func TestStrictModeAlternatesColourAfterPass(t *testing.T) {
	init := New(Strict, BlackFirst)
	var board state.Board
	// Only white stones: every placement must be preceded by a black pass.
	board[0][0] = state.White
	board[18][18] = state.White

	result, err := init.Run(board)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Moves) == 0 || !result.Moves[0].IsPass() {
		t.Fatalf("expected leading pass, got %+v", result.Moves)
	}
}
