// Package pipeline wires the detector, grid fitter, stone assigner,
// scheduler, initialiser, correctors, and SGF emitter into the single
// entry point a caller (CLI or HTTP handler) invokes to reconstruct one
// game.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/kifurecon/boardscribe/internal/boarddetect"
	"github.com/kifurecon/boardscribe/internal/bootstrap"
	"github.com/kifurecon/boardscribe/internal/classifier"
	"github.com/kifurecon/boardscribe/internal/config"
	"github.com/kifurecon/boardscribe/internal/correct"
	"github.com/kifurecon/boardscribe/internal/grid"
	"github.com/kifurecon/boardscribe/internal/logging"
	"github.com/kifurecon/boardscribe/internal/scheduler"
	"github.com/kifurecon/boardscribe/internal/sgfio"
	"github.com/kifurecon/boardscribe/internal/state"
	"github.com/kifurecon/boardscribe/internal/stones"
	"github.com/kifurecon/boardscribe/internal/trace"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	Ok               Outcome = "Ok"
	InitFailure      Outcome = "InitFailure"
	GridFailure      Outcome = "GridFailure"
	DetectionFailure Outcome = "DetectionFailure"
	ModelError       Outcome = "ModelError"
	Cancelled        Outcome = "Cancelled"
)

// Result is what Run returns to its caller.
type Result struct {
	Outcome       Outcome
	SGF           string
	FrameIndex    int // meaningful for GridFailure / DetectionFailure
	Reason        string
	SkippedFrames int
}

// Run executes one full reconstruction: video in, SGF out. The file at
// outSGFPath is written only on Ok; every other outcome leaves it
// untouched.
func Run(ctx context.Context, videoPath, outSGFPath string, cfg *config.Config) (Result, error) {
	logger, err := buildLogger(cfg)
	if err != nil {
		return Result{}, err
	}
	defer logger.Sync()

	model, err := boarddetect.New(cfg.Detector.ModelPath, cfg.Detector.ConfidenceFloor, cfg.Detector.MaxDetectionCount)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: load detector model: %w", err)
	}
	defer model.Close()

	detector := boarddetect.NewDetector(model, cfg.Detector.NMSOverlap)

	var cls correct.Classifier
	if cfg.Detector.ClassifierPath != "" {
		m, err := classifier.New(256)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: build classifier graph: %w", err)
		}
		defer m.Close()
		if err := m.Load(cfg.Detector.ClassifierPath); err != nil {
			return Result{}, fmt.Errorf("pipeline: load classifier weights: %w", err)
		}
		cls = m
	}

	var tracer *trace.Store
	if cfg.Trace.Enabled {
		tracer, err = trace.Open(cfg.Trace.DBPath)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: open trace store: %w", err)
		}
		defer tracer.Close()
	}

	mode := bootstrap.Transparent
	if cfg.Mode.Strategy == "strict" {
		mode = bootstrap.Strict
	}
	firstMove := bootstrap.BlackFirst
	if cfg.Mode.FirstMoveColour == "white" {
		firstMove = bootstrap.WhiteFirst
	}
	init := bootstrap.New(mode, firstMove)

	process := func(frame gocv.Mat) (state.Board, error) {
		return processFrame(detector, frame, cfg.Detector.DoubleTransform)
	}

	sched := scheduler.New(init, process, logger, scheduler.Options{
		AnalysisIntervalSeconds: cfg.Scheduler.AnalysisIntervalSeconds,
		MaxInitFrames:           cfg.Scheduler.MaxInitFrames,
	})

	startedAt := time.Now().Unix()

	schedResult, err := sched.Run(ctx, videoPath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{Outcome: Cancelled}, nil
		}
		if errors.Is(err, scheduler.ErrInitFailure) {
			return Result{Outcome: InitFailure}, nil
		}
		return Result{Outcome: InitFailure, Reason: err.Error()}, nil
	}

	if res, escalate := scanFailureResult(schedResult); escalate {
		recordRun(tracer, videoPath, startedAt, schedResult, nil, res.Outcome)
		return res, nil
	}

	moves, gapFills := reconstructMoves(schedResult.Sequence, cls, logger)
	sgf := sgfio.Emit(moves)

	if sgf == "" || len(moves) == 0 {
		// Fall back to the heuristic corrector before giving up.
		heuristicMoves := correct.NewHeuristic().Run(schedResult.Sequence)
		sgf = sgfio.Emit(heuristicMoves)
		if sgf == "" || len(heuristicMoves) == 0 {
			recordRun(tracer, videoPath, startedAt, schedResult, gapFills, ModelError)
			return Result{Outcome: ModelError, Reason: "empty_sgf"}, nil
		}
	}

	if err := os.WriteFile(outSGFPath, []byte(sgf), 0644); err != nil {
		return Result{}, fmt.Errorf("pipeline: write sgf: %w", err)
	}

	recordRun(tracer, videoPath, startedAt, schedResult, gapFills, Ok)

	return Result{
		Outcome:       Ok,
		SGF:           sgf,
		SkippedFrames: schedResult.SkippedFrames(),
	}, nil
}

// recordRun writes one diagnostics record when tracing is enabled. A
// trace write failure never affects the pipeline outcome.
func recordRun(tracer *trace.Store, videoPath string, startedAt int64, schedResult scheduler.Result, gapFills []correct.GapFill, outcome Outcome) {
	if tracer == nil {
		return
	}

	skips := make([]trace.SkipRecord, 0, len(schedResult.Failures))
	for _, f := range schedResult.Failures {
		skips = append(skips, trace.SkipRecord{FrameIndex: f.FrameIndex, Reason: f.Reason})
	}
	fills := make([]trace.GapFillRecord, 0, len(gapFills))
	for _, gf := range gapFills {
		fills = append(fills, trace.GapFillRecord{
			SequenceIndex:  gf.SequenceIndex,
			CandidateCount: gf.CandidateCount,
			MovesEmitted:   gf.MovesEmitted,
		})
	}

	_ = tracer.RecordRun(trace.Run{
		VideoPath:     videoPath,
		StartedAt:     startedAt,
		FramesRead:    schedResult.Sequence.Len(),
		FramesSkipped: skips,
		GapFills:      fills,
		Outcome:       string(outcome),
	})
}

// scanFailureResult escalates to GridFailure/DetectionFailure when every
// post-init frame failed: the sequence holds nothing but the initial
// frame and there's no real observation to reconstruct moves from. Per-
// frame errors are otherwise locally recovered by the scheduler and
// never reach this far.
func scanFailureResult(schedResult scheduler.Result) (Result, bool) {
	if schedResult.Sequence.Len() > 1 || len(schedResult.Failures) == 0 {
		return Result{}, false
	}
	first := schedResult.Failures[0]
	outcome := DetectionFailure
	if first.Kind == "grid" {
		outcome = GridFailure
	}
	return Result{
		Outcome:       outcome,
		FrameIndex:    first.FrameIndex,
		Reason:        first.Reason,
		SkippedFrames: schedResult.SkippedFrames(),
	}, true
}

// reconstructMoves runs the hybrid corrector when a classifier is
// available, else falls back directly to the heuristic corrector.
func reconstructMoves(seq *state.Sequence, cls correct.Classifier, logger *zap.Logger) ([]state.Move, []correct.GapFill) {
	if cls == nil {
		return correct.NewHeuristic().Run(seq), nil
	}

	hybrid := correct.NewHybrid(cls)
	moves := hybrid.Run(seq)
	if len(moves) == 0 {
		logger.Warn("hybrid corrector produced no moves, falling back to heuristic")
		return correct.NewHeuristic().Run(seq), hybrid.GapFills()
	}
	return moves, hybrid.GapFills()
}

// processFrame runs the detector, rectifies, fits the grid, and assigns
// stones for a single frame.
func processFrame(detector *boarddetect.Detector, frame gocv.Mat, doubleTransform bool) (state.Board, error) {
	result, err := detector.DetectFrame(frame)
	if err != nil {
		return state.Board{}, fmt.Errorf("detect: %w", err)
	}

	var rectified gocv.Mat
	if doubleTransform {
		rectified, err = boarddetect.RectifyDouble(frame, result, detector.DetectFrame)
	} else {
		rectified, err = boarddetect.Rectify(frame, result)
	}
	if err != nil {
		return state.Board{}, fmt.Errorf("rectify: %w", err)
	}
	defer rectified.Close()

	rectifiedResult, err := detector.DetectFrame(rectified)
	if err != nil {
		return state.Board{}, fmt.Errorf("detect rectified: %w", err)
	}

	g, err := grid.Fit(rectifiedResult.EmptyPoints)
	if err != nil {
		return state.Board{}, fmt.Errorf("grid: %w", err)
	}

	board := stones.Assign(g, rectifiedResult.BlackCentres, rectifiedResult.WhiteCentres)
	return board, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.Path)
}
