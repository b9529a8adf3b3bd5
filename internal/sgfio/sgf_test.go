package sgfio

import (
	"reflect"
	"testing"

	"github.com/kifurecon/boardscribe/internal/state"
)

func TestEmitScenarioOne(t *testing.T) {
	moves := []state.Move{
		{Row: 3, Col: 3, Colour: state.Black},
		{Row: 15, Col: 15, Colour: state.White},
		{Row: 3, Col: 15, Colour: state.Black},
	}

	got := Emit(moves)
	want := "(;GM[1]SZ[19];B[dp];W[pd];B[pp])"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseEmitRoundTrip(t *testing.T) {
	moves := []state.Move{
		{Row: 3, Col: 3, Colour: state.Black},
		{Row: 15, Col: 15, Colour: state.White},
		state.Pass(state.Black),
		{Row: 0, Col: 18, Colour: state.White},
	}

	sgf := Emit(moves)
	parsed, err := Parse(sgf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !reflect.DeepEqual(parsed, moves) {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, moves)
	}
}

func TestParseRejectsOutOfRange(t *testing.T) {
	if _, err := Parse("(;GM[1]SZ[19];B[zz])"); err == nil {
		t.Error("expected error for out-of-range coordinate")
	}
}

func TestParseEmptySGF(t *testing.T) {
	moves, err := Parse("(;GM[1]SZ[19])")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(moves) != 0 {
		t.Errorf("expected no moves, got %d", len(moves))
	}
}
