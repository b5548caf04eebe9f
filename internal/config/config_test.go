package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFile creates a file with the given content for testing
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedState := filepath.Join(dir, DefaultStateDir)
	if cfg.StateDir != expectedState {
		t.Errorf("expected StateDir to be %q, got %q", expectedState, cfg.StateDir)
	}
	expectedDB := filepath.Join(expectedState, DefaultMetricsDB)
	if cfg.Metrics.SQLitePath != expectedDB {
		t.Errorf("expected Metrics.SQLitePath to be %q, got %q", expectedDB, cfg.Metrics.SQLitePath)
	}
	if cfg.Review.QuickTimeout != DefaultQuickTimeout {
		t.Errorf("expected Review.QuickTimeout to be %q, got %q", DefaultQuickTimeout, cfg.Review.QuickTimeout)
	}
	if cfg.Review.AutoProceedMax != DefaultAutoProceedMax {
		t.Errorf("expected Review.AutoProceedMax to be %d, got %d", DefaultAutoProceedMax, cfg.Review.AutoProceedMax)
	}
	if cfg.Review.QuickMax != DefaultQuickMax {
		t.Errorf("expected Review.QuickMax to be %d, got %d", DefaultQuickMax, cfg.Review.QuickMax)
	}
	if cfg.Pager.Mode != PagerAuto {
		t.Errorf("expected Pager.Mode to be %q, got %q", PagerAuto, cfg.Pager.Mode)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected LogLevel to be %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	dir := t.TempDir()

	configContent := `
state_dir: /tmp/plangate-state
review:
  quick_timeout: 5s
  cancel_key: x
  auto_proceed_max: 2
  quick_max: 5
  invalid_input_limit: 4
triggers:
  protected_paths:
    - "migrations/**"
    - "**/auth/*.go"
scoring:
  dependency_factor: true
metrics:
  enabled: false
escalation:
  terminal: false
  webhook_url: https://hooks.example.com/review
pager:
  mode: inline
log_level: debug
`
	writeFile(t, filepath.Join(dir, ConfigFileYAML), configContent)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StateDir != "/tmp/plangate-state" {
		t.Errorf("expected StateDir to be '/tmp/plangate-state', got %q", cfg.StateDir)
	}
	d, err := cfg.QuickTimeoutDuration()
	if err != nil || d != 5*time.Second {
		t.Errorf("expected quick timeout 5s, got %v (err %v)", d, err)
	}
	if cfg.CancelRune() != 'x' {
		t.Errorf("expected cancel key 'x', got %q", cfg.CancelRune())
	}
	if cfg.Review.AutoProceedMax != 2 || cfg.Review.QuickMax != 5 {
		t.Errorf("expected thresholds 2/5, got %d/%d", cfg.Review.AutoProceedMax, cfg.Review.QuickMax)
	}
	if cfg.Review.InvalidInputLimit != 4 {
		t.Errorf("expected InvalidInputLimit 4, got %d", cfg.Review.InvalidInputLimit)
	}
	if len(cfg.Triggers.ProtectedPaths) != 2 {
		t.Errorf("expected 2 protected paths, got %v", cfg.Triggers.ProtectedPaths)
	}
	if !cfg.Scoring.DependencyFactor {
		t.Error("expected dependency factor to be enabled")
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
	if cfg.Escalation.Terminal {
		t.Error("expected terminal escalation to be disabled")
	}
	if cfg.Escalation.WebhookURL != "https://hooks.example.com/review" {
		t.Errorf("unexpected webhook url %q", cfg.Escalation.WebhookURL)
	}
	if cfg.Pager.Mode != PagerInline {
		t.Errorf("expected Pager.Mode inline, got %q", cfg.Pager.Mode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be 'debug', got %q", cfg.LogLevel)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	dir := t.TempDir()

	configContent := `
log_level = "warn"

[review]
quick_timeout = "15s"
quick_max = 7

[triggers]
protected_paths = ["infra/**"]

[pager]
mode = "exec"
command = "most"
`
	writeFile(t, filepath.Join(dir, ConfigFileTOML), configContent)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("expected LogLevel 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Review.QuickTimeout != "15s" {
		t.Errorf("expected quick timeout '15s', got %q", cfg.Review.QuickTimeout)
	}
	if cfg.Review.QuickMax != 7 {
		t.Errorf("expected QuickMax 7, got %d", cfg.Review.QuickMax)
	}
	// unset keys keep their defaults
	if cfg.Review.AutoProceedMax != DefaultAutoProceedMax {
		t.Errorf("expected default AutoProceedMax, got %d", cfg.Review.AutoProceedMax)
	}
	if cfg.Pager.Mode != PagerExec || cfg.Pager.Command != "most" {
		t.Errorf("unexpected pager config %+v", cfg.Pager)
	}
	if len(cfg.Triggers.ProtectedPaths) != 1 || cfg.Triggers.ProtectedPaths[0] != "infra/**" {
		t.Errorf("unexpected protected paths %v", cfg.Triggers.ProtectedPaths)
	}
}

func TestLoadConfig_YAMLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileYAML), "log_level: error\n")
	writeFile(t, filepath.Join(dir, ConfigFileTOML), "log_level = \"debug\"\n")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected YAML value 'error', got %q", cfg.LogLevel)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()

	configContent := `
state_dir: file-state
review:
  quick_timeout: 20s
log_level: info
`
	writeFile(t, filepath.Join(dir, ConfigFileYAML), configContent)

	t.Setenv("PLANGATE_STATE_DIR", "env-state")
	t.Setenv("PLANGATE_QUICK_TIMEOUT", "3s")
	t.Setenv("PLANGATE_LOG_LEVEL", "error")
	t.Setenv("PLANGATE_METRICS_DB", "/tmp/decisions.db")
	t.Setenv("PLANGATE_PAGER", "inline")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedState := filepath.Join(dir, "env-state")
	if cfg.StateDir != expectedState {
		t.Errorf("expected StateDir to be %q, got %q", expectedState, cfg.StateDir)
	}
	if cfg.Review.QuickTimeout != "3s" {
		t.Errorf("expected QuickTimeout '3s', got %q", cfg.Review.QuickTimeout)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected LogLevel to be 'error', got %q", cfg.LogLevel)
	}
	if cfg.Metrics.SQLitePath != "/tmp/decisions.db" {
		t.Errorf("expected absolute metrics path to be kept, got %q", cfg.Metrics.SQLitePath)
	}
	if cfg.Pager.Mode != PagerInline {
		t.Errorf("expected Pager.Mode inline, got %q", cfg.Pager.Mode)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileYAML), "review: [unclosed")

	_, err := LoadConfig(dir)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse config error, got: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileYAML), "log_level: loud\nreview:\n  quick_timeout: soon\n")

	_, err := LoadConfig(dir)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !strings.Contains(err.Error(), "log_level") || !strings.Contains(err.Error(), "review.quick_timeout") {
		t.Errorf("expected both failures reported, got: %v", err)
	}
}

func TestCancelRune_Default(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Review.CancelKey = ""
	if cfg.CancelRune() != 'c' {
		t.Errorf("expected default cancel key 'c', got %q", cfg.CancelRune())
	}
}
