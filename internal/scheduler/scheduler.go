// Package scheduler drives the per-frame pipeline: opening the source
// video, subsampling at the configured analysis interval, running
// initialisation until it succeeds or exhausts its frame budget, then
// appending detected states to the sequence for the remainder of the
// stream.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/kifurecon/boardscribe/internal/bootstrap"
	"github.com/kifurecon/boardscribe/internal/grid"
	"github.com/kifurecon/boardscribe/internal/state"
)

// defaultFPS is assumed when the video capture cannot report its frame rate.
const defaultFPS = 30.0

// DefaultMaxInitFrames bounds the initialisation scan when the caller
// doesn't override it.
const DefaultMaxInitFrames = 300

// ErrInitFailure is returned when the initialiser fails on every frame
// within the init frame budget.
var ErrInitFailure = fmt.Errorf("scheduler: initialisation failed within frame budget")

// FrameProcessor assigns a board state to one decoded frame, returning an
// error for any frame the scheduler should skip (detection, grid, or
// assignment failure).
type FrameProcessor func(frame gocv.Mat) (state.Board, error)

// Options configures one scheduler run.
type Options struct {
	AnalysisIntervalSeconds float64
	MaxInitFrames           int
}

// DefaultOptions returns the default analysis settings.
func DefaultOptions() Options {
	return Options{
		AnalysisIntervalSeconds: 0.1,
		MaxInitFrames:           DefaultMaxInitFrames,
	}
}

// FrameFailure records one analysed frame the scheduler skipped, and why.
type FrameFailure struct {
	FrameIndex int
	Kind       string // "grid" or "detection"
	Reason     string
}

// Result is what Run hands back to the pipeline: the accumulated state
// sequence, the initialiser's verdict, and the per-frame failures.
//
// A per-frame processing error is locally recovered by skipping the
// frame: it never fails Run by itself. Failures records each one in
// capture order so the pipeline can both report the skip count and
// escalate to a GridFailure/DetectionFailure outcome in the one case
// that does matter: every post-init frame failed and the sequence holds
// nothing but the initial frame.
type Result struct {
	Sequence *state.Sequence
	Init     bootstrap.Result
	Failures []FrameFailure
}

// SkippedFrames returns the number of analysed frames skipped after a
// per-frame processing error.
func (r Result) SkippedFrames() int { return len(r.Failures) }

// Scheduler owns a video capture handle and drives initialisation plus
// the main per-frame loop.
type Scheduler struct {
	init    *bootstrap.Initialiser
	process FrameProcessor
	logger  *zap.Logger
	opts    Options
}

// New builds a Scheduler. logger may be nil, in which case a no-op
// logger is used.
func New(init *bootstrap.Initialiser, process FrameProcessor, logger *zap.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{init: init, process: process, logger: logger, opts: opts}
}

// Run opens videoPath, subsamples frames at the configured interval, runs
// initialisation until it succeeds or the frame budget is exhausted, then
// appends every subsequent analysed frame's state to the returned
// sequence. The capture handle is released on every exit path.
func (s *Scheduler) Run(ctx context.Context, videoPath string) (Result, error) {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return Result{}, fmt.Errorf("scheduler: open video: %w", err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return Result{}, fmt.Errorf("scheduler: video not opened: %s", videoPath)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}
	stride := maxInt(1, roundHalfAway(fps*s.opts.AnalysisIntervalSeconds))

	maxInitFrames := s.opts.MaxInitFrames
	if maxInitFrames <= 0 {
		maxInitFrames = DefaultMaxInitFrames
	}

	seq := state.NewSequence()
	frame := gocv.NewMat()
	defer frame.Close()

	initResult, initBoard, initialised, frameIndex, err := s.runInit(ctx, capture, &frame, maxInitFrames)
	if err != nil {
		return Result{}, err
	}
	if !initialised {
		return Result{}, ErrInitFailure
	}
	seq.Append(initBoard)

	counter := 0
	result := Result{Sequence: seq, Init: initResult}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if ok := capture.Read(&frame); !ok {
			break
		}
		frameIndex++
		counter++
		if counter%stride != 0 {
			continue
		}

		board, err := s.process(frame)
		if err != nil {
			s.logger.Warn("skipping frame", zap.Int("frame_index", frameIndex), zap.Error(err))
			result.Failures = append(result.Failures, FrameFailure{
				FrameIndex: frameIndex,
				Kind:       classifyFailure(err),
				Reason:     err.Error(),
			})
			continue
		}
		seq.Append(board)
	}

	return result, nil
}

// classifyFailure splits per-frame processing errors into the grid vs
// detection buckets: a *grid.GridFailure means the rectified frame's
// lines couldn't be fit, anything else (board absent, bad corner count,
// homography failure) is a detection failure.
func classifyFailure(err error) string {
	var gf *grid.GridFailure
	if errors.As(err, &gf) {
		return "grid"
	}
	return "detection"
}

// runInit scans up to maxInitFrames frames, invoking the initialiser on
// each successfully processed one until it succeeds.
func (s *Scheduler) runInit(ctx context.Context, capture *gocv.VideoCapture, frame *gocv.Mat, maxInitFrames int) (bootstrap.Result, state.Board, bool, int, error) {
	for frameIndex := 0; frameIndex < maxInitFrames; frameIndex++ {
		select {
		case <-ctx.Done():
			return bootstrap.Result{}, state.Board{}, false, frameIndex, ctx.Err()
		default:
		}

		if ok := capture.Read(frame); !ok {
			return bootstrap.Result{}, state.Board{}, false, frameIndex, nil
		}

		board, err := s.process(*frame)
		if err != nil {
			s.logger.Warn("init: skipping frame", zap.Int("frame_index", frameIndex), zap.Error(err))
			continue
		}

		result, err := s.init.Run(board)
		if err != nil {
			s.logger.Debug("init: frame rejected", zap.Int("frame_index", frameIndex), zap.Error(err))
			continue
		}
		return result, board, true, frameIndex, nil
	}
	return bootstrap.Result{}, state.Board{}, false, maxInitFrames, nil
}

func roundHalfAway(v float64) int {
	return int(math.Round(v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
