package config

import (
	"testing"
)

func TestEnvOverrides_StateDir(t *testing.T) {
	cfg := &Config{StateDir: "original"}
	t.Setenv("PLANGATE_STATE_DIR", "/var/lib/plangate")

	applyEnvOverrides(cfg)

	if cfg.StateDir != "/var/lib/plangate" {
		t.Errorf("expected StateDir to be '/var/lib/plangate', got '%s'", cfg.StateDir)
	}
}

func TestEnvOverrides_QuickTimeout(t *testing.T) {
	cfg := &Config{Review: ReviewConfig{QuickTimeout: "10s"}}
	t.Setenv("PLANGATE_QUICK_TIMEOUT", "30s")

	applyEnvOverrides(cfg)

	if cfg.Review.QuickTimeout != "30s" {
		t.Errorf("expected Review.QuickTimeout to be '30s', got '%s'", cfg.Review.QuickTimeout)
	}
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	t.Setenv("PLANGATE_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestEnvOverrides_EmptyNoChange(t *testing.T) {
	cfg := &Config{
		StateDir: "original-state",
		Metrics:  MetricsConfig{SQLitePath: "original.db"},
		Pager:    PagerConfig{Mode: PagerTUI},
		LogLevel: "original-level",
	}
	t.Setenv("PLANGATE_STATE_DIR", "")
	t.Setenv("PLANGATE_METRICS_DB", "")
	t.Setenv("PLANGATE_PAGER", "")
	t.Setenv("PLANGATE_LOG_LEVEL", "")

	applyEnvOverrides(cfg)

	if cfg.StateDir != "original-state" {
		t.Errorf("expected StateDir unchanged, got '%s'", cfg.StateDir)
	}
	if cfg.Metrics.SQLitePath != "original.db" {
		t.Errorf("expected Metrics.SQLitePath unchanged, got '%s'", cfg.Metrics.SQLitePath)
	}
	if cfg.Pager.Mode != PagerTUI {
		t.Errorf("expected Pager.Mode unchanged, got '%s'", cfg.Pager.Mode)
	}
	if cfg.LogLevel != "original-level" {
		t.Errorf("expected LogLevel unchanged, got '%s'", cfg.LogLevel)
	}
}
