package config

import "testing"

func TestDefaultConfig_StateDir(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.StateDir != ".plangate/state" {
		t.Errorf("expected StateDir to be '.plangate/state', got %q", cfg.StateDir)
	}
}

func TestDefaultConfig_Review(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Review.QuickTimeout != "10s" {
		t.Errorf("expected Review.QuickTimeout to be '10s', got %q", cfg.Review.QuickTimeout)
	}
	if cfg.Review.CancelKey != "c" {
		t.Errorf("expected Review.CancelKey to be 'c', got %q", cfg.Review.CancelKey)
	}
	if cfg.Review.AutoProceedMax != 3 || cfg.Review.QuickMax != 6 {
		t.Errorf("expected thresholds 3/6, got %d/%d", cfg.Review.AutoProceedMax, cfg.Review.QuickMax)
	}
	if cfg.Review.InvalidInputLimit != 3 {
		t.Errorf("expected Review.InvalidInputLimit to be 3, got %d", cfg.Review.InvalidInputLimit)
	}
}

func TestDefaultConfig_Metrics(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Metrics.SQLitePath != "metrics.db" {
		t.Errorf("expected Metrics.SQLitePath to be 'metrics.db', got %q", cfg.Metrics.SQLitePath)
	}
}

func TestDefaultConfig_Escalation(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Escalation.Terminal {
		t.Error("expected terminal escalation by default")
	}
	if cfg.Escalation.WebhookURL != "" {
		t.Errorf("expected no webhook by default, got %q", cfg.Escalation.WebhookURL)
	}
}

func TestDefaultConfig_LogLevel(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel to be 'info', got %q", cfg.LogLevel)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := validateConfig(DefaultConfig()); err != nil {
		t.Errorf("expected defaults to validate, got: %v", err)
	}
}
