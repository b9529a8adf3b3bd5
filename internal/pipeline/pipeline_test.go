package pipeline

import (
	"testing"

	"go.uber.org/zap"

	"github.com/kifurecon/boardscribe/internal/scheduler"
	"github.com/kifurecon/boardscribe/internal/state"
)

func TestReconstructMovesFallsBackToHeuristicWithoutClassifier(t *testing.T) {
	seq := state.NewSequence()
	seq.Append(state.Board{})
	var b state.Board
	b[3][3] = state.Black
	seq.Append(b)

	moves, gapFills := reconstructMoves(seq, nil, zap.NewNop())
	if len(moves) != 1 || moves[0].Row != 3 || moves[0].Col != 3 {
		t.Fatalf("expected single move (3,3,Black), got %+v", moves)
	}
	if gapFills != nil {
		t.Errorf("heuristic-only reconstruction should report no gap fills, got %+v", gapFills)
	}
}

func TestScanFailureResultEscalatesWhenEveryFrameFails(t *testing.T) {
	seq := state.NewSequence()
	seq.Append(state.Board{}) // only the init frame survived

	res, escalate := scanFailureResult(scheduler.Result{
		Sequence: seq,
		Failures: []scheduler.FrameFailure{
			{FrameIndex: 2, Kind: "grid", Reason: "grid: too few vertical lines"},
			{FrameIndex: 5, Kind: "grid", Reason: "grid: too few vertical lines"},
		},
	})
	if !escalate {
		t.Fatal("expected escalation when every post-init frame failed")
	}
	if res.Outcome != GridFailure || res.FrameIndex != 2 {
		t.Errorf("expected GridFailure at frame 2, got %+v", res)
	}
	if res.SkippedFrames != 2 {
		t.Errorf("expected 2 skipped frames, got %d", res.SkippedFrames)
	}

	res, escalate = scanFailureResult(scheduler.Result{
		Sequence: seq,
		Failures: []scheduler.FrameFailure{
			{FrameIndex: 2, Kind: "detection", Reason: "detect: boarddetect: no board detected"},
		},
	})
	if !escalate || res.Outcome != DetectionFailure {
		t.Errorf("expected DetectionFailure escalation, got %+v escalate=%v", res, escalate)
	}
}

func TestScanFailureResultDoesNotEscalateWithRealFrames(t *testing.T) {
	seq := state.NewSequence()
	seq.Append(state.Board{})
	seq.Append(state.Board{})

	_, escalate := scanFailureResult(scheduler.Result{
		Sequence: seq,
		Failures: []scheduler.FrameFailure{
			{FrameIndex: 2, Kind: "grid", Reason: "grid: too few vertical lines"},
		},
	})
	if escalate {
		t.Error("expected no escalation once at least one real frame was processed")
	}
}

func TestReconstructMovesSingleStateSequenceEmitsNothing(t *testing.T) {
	seq := state.NewSequence()
	seq.Append(state.Board{})

	// A single-state sequence: no transitions exist, so both the
	// heuristic and hybrid correctors legitimately emit nothing.
	moves, _ := reconstructMoves(seq, nil, zap.NewNop())
	if len(moves) != 0 {
		t.Fatalf("expected no moves for a single-state sequence, got %+v", moves)
	}
}
