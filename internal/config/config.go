// Package config loads and validates the pipeline's run-time options:
// model paths, the capture/analysis interval, the initialiser mode, and
// the optional diagnostics store.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for one reconstruction run.
type Config struct {
	AppName string `json:"app_name"`
	Version string `json:"version"`

	Detector  DetectorConfig  `json:"detector"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Mode      ModeConfig      `json:"mode"`
	Logging   LoggingConfig   `json:"logging"`
	Trace     TraceConfig     `json:"trace"`
}

// DetectorConfig locates the external models and tunes detection.
type DetectorConfig struct {
	ModelPath         string  `json:"model_path"`
	ClassifierPath    string  `json:"classifier_path"`
	ConfidenceFloor   float64 `json:"confidence_floor"`
	MaxDetectionCount int     `json:"max_detection_count"`
	NMSOverlap        float64 `json:"nms_overlap"`
	DoubleTransform   bool    `json:"double_transform"`
}

// SchedulerConfig controls frame subsampling and the init scan budget.
type SchedulerConfig struct {
	AnalysisIntervalSeconds float64 `json:"analysis_interval_seconds"`
	MaxInitFrames           int     `json:"max_init_frames"`
}

// ModeConfig selects the initialiser's strategy.
type ModeConfig struct {
	// Strategy is one of "strict" or "transparent".
	Strategy string `json:"strategy"`
	// FirstMoveColour is "black" or "white"; black unless a handicap
	// game requires otherwise.
	FirstMoveColour string `json:"first_move_colour"`
}

// LoggingConfig selects the primary logger's verbosity and destination.
type LoggingConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// TraceConfig enables the optional bbolt diagnostics store.
type TraceConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db_path"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path, creating its directory if
// needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the standard option defaults.
func DefaultConfig() *Config {
	return &Config{
		AppName: "boardscribe",
		Version: "1.0.0",
		Detector: DetectorConfig{
			ConfidenceFloor:   0.15,
			MaxDetectionCount: 400,
			NMSOverlap:        0.5,
			DoubleTransform:   false,
		},
		Scheduler: SchedulerConfig{
			AnalysisIntervalSeconds: 0.1,
			MaxInitFrames:           300,
		},
		Mode: ModeConfig{
			Strategy:        "transparent",
			FirstMoveColour: "black",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			Enabled: false,
		},
	}
}

// LoadOrDefault loads configuration from path, falling back to
// DefaultConfig if the file cannot be read.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Detector.ModelPath == "" {
		return fmt.Errorf("config: detector.model_path is required")
	}
	if c.Detector.ConfidenceFloor < 0 || c.Detector.ConfidenceFloor > 1 {
		return fmt.Errorf("config: invalid detector.confidence_floor: %f", c.Detector.ConfidenceFloor)
	}
	if c.Detector.NMSOverlap <= 0 || c.Detector.NMSOverlap > 1 {
		return fmt.Errorf("config: invalid detector.nms_overlap: %f", c.Detector.NMSOverlap)
	}
	if c.Scheduler.AnalysisIntervalSeconds <= 0 {
		return fmt.Errorf("config: invalid scheduler.analysis_interval_seconds: %f", c.Scheduler.AnalysisIntervalSeconds)
	}
	if c.Scheduler.MaxInitFrames <= 0 {
		return fmt.Errorf("config: invalid scheduler.max_init_frames: %d", c.Scheduler.MaxInitFrames)
	}
	switch c.Mode.Strategy {
	case "strict", "transparent":
	default:
		return fmt.Errorf("config: invalid mode.strategy: %q", c.Mode.Strategy)
	}
	switch c.Mode.FirstMoveColour {
	case "black", "white":
	default:
		return fmt.Errorf("config: invalid mode.first_move_colour: %q", c.Mode.FirstMoveColour)
	}
	if c.Trace.Enabled && c.Trace.DBPath == "" {
		return fmt.Errorf("config: trace.db_path is required when trace.enabled is true")
	}
	return nil
}

// EnsureDirectories creates every directory this config will write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Logging.Path),
	}
	if c.Trace.Enabled {
		dirs = append(dirs, filepath.Dir(c.Trace.DBPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: create directory %s: %w", dir, err)
		}
	}
	return nil
}
