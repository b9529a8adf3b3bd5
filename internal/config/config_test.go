package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Detector.ModelPath = "detector.onnx"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.AppName != "boardscribe" {
		t.Errorf("expected AppName 'boardscribe', got %s", cfg.AppName)
	}
	if cfg.Version == "" {
		t.Error("Version not set")
	}
	if cfg.Detector.ConfidenceFloor != 0.15 {
		t.Errorf("expected confidence floor 0.15, got %f", cfg.Detector.ConfidenceFloor)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config failed validation: %v", err)
	}

	cfg.Detector.ModelPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing detector model path")
	}
	cfg.Detector.ModelPath = "detector.onnx"

	cfg.Detector.ConfidenceFloor = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid confidence floor")
	}
	cfg.Detector.ConfidenceFloor = 0.15

	cfg.Scheduler.AnalysisIntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid analysis interval")
	}
	cfg.Scheduler.AnalysisIntervalSeconds = 0.1

	cfg.Mode.Strategy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid mode strategy")
	}
	cfg.Mode.Strategy = "transparent"

	cfg.Trace.Enabled = true
	cfg.Trace.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled trace with empty db path")
	}
}

func TestConfigSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	cfg := validConfig()
	cfg.AppName = "TestApp"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.AppName != "TestApp" {
		t.Errorf("expected AppName 'TestApp', got %s", loaded.AppName)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault("nonexistent.json")
	if cfg == nil {
		t.Fatal("LoadOrDefault returned nil")
	}
	if cfg.AppName != "boardscribe" {
		t.Error("LoadOrDefault did not return default config")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testCfg := validConfig()
	testCfg.AppName = "CustomName"
	if err := testCfg.Save(configPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := LoadOrDefault(configPath)
	if loaded.AppName != "CustomName" {
		t.Error("LoadOrDefault did not load existing config")
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := validConfig()
	cfg.Logging.Path = filepath.Join(tmpDir, "logs", "test.log")
	cfg.Trace.Enabled = true
	cfg.Trace.DBPath = filepath.Join(tmpDir, "data", "test.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to ensure directories: %v", err)
	}

	dirs := []string{
		filepath.Join(tmpDir, "logs"),
		filepath.Join(tmpDir, "data"),
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("directory was not created: %s", dir)
		}
	}
}

func TestConfigFieldsPresent(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scheduler.AnalysisIntervalSeconds == 0 {
		t.Error("scheduler config not initialized")
	}
	if cfg.Detector.MaxDetectionCount == 0 {
		t.Error("detector config not initialized")
	}
	if cfg.Mode.Strategy == "" {
		t.Error("mode config not initialized")
	}
	if cfg.Logging.Level == "" {
		t.Error("logging config not initialized")
	}
}
