package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kifurecon/boardscribe/internal/config"
	"github.com/kifurecon/boardscribe/internal/pipeline"
)

func main() {
	videoPath := flag.String("video", "", "Path to the source video file")
	detectorPath := flag.String("detector", "", "Path to the ONNX board/stone detector model")
	classifierPath := flag.String("classifier", "", "Path to the per-cell classifier weights (omit to use the heuristic corrector only)")
	outPath := flag.String("out", "game.sgf", "Path to write the reconstructed SGF")
	configPath := flag.String("config", "", "Path to a JSON config file; overrides flags below when set")
	interval := flag.Float64("interval", 0.1, "Analysis interval in seconds")
	maxInitFrames := flag.Int("max-init-frames", 300, "Maximum frames scanned during initialisation")
	strict := flag.Bool("strict", false, "Use strict-mode initialisation instead of transparent")
	doubleTransform := flag.Bool("double-transform", false, "Pre-warp and re-detect before the final rectification")
	confidenceFloor := flag.Float64("confidence-floor", 0.15, "Minimum detector confidence")
	logLevel := flag.String("log-level", "info", "Logger level: debug, info, warn, error")

	flag.Parse()

	if *videoPath == "" || *detectorPath == "" {
		fmt.Println("Usage: reconstruct -video <path> -detector <path> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg.Detector.ModelPath = *detectorPath
		cfg.Detector.ClassifierPath = *classifierPath
		cfg.Detector.ConfidenceFloor = *confidenceFloor
		cfg.Detector.DoubleTransform = *doubleTransform
		cfg.Scheduler.AnalysisIntervalSeconds = *interval
		cfg.Scheduler.MaxInitFrames = *maxInitFrames
		cfg.Logging.Level = *logLevel
		if *strict {
			cfg.Mode.Strategy = "strict"
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, *videoPath, *outPath, cfg)
	if err != nil {
		log.Fatalf("reconstruction failed: %v", err)
	}

	switch result.Outcome {
	case pipeline.Ok:
		fmt.Printf("wrote %s (%d frames skipped)\n", *outPath, result.SkippedFrames)
	default:
		fmt.Printf("reconstruction did not complete: %s %s\n", result.Outcome, result.Reason)
		os.Exit(1)
	}
}
