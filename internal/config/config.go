package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PagerMode selects how the full plan is displayed
type PagerMode string

const (
	// PagerAuto uses the TUI pager on a terminal, then $PAGER, then inline
	PagerAuto   PagerMode = "auto"
	PagerTUI    PagerMode = "tui"
	PagerExec   PagerMode = "exec"
	PagerInline PagerMode = "inline"
)

// Config holds all configuration for plangate.
// It is immutable after creation via LoadConfig().
type Config struct {
	// StateDir holds plans, review metadata, sessions and versions.
	// Relative paths are resolved from the repository root.
	StateDir string `yaml:"state_dir" toml:"state_dir"`

	// Review controls the checkpoint sessions
	Review ReviewConfig `yaml:"review" toml:"review"`

	// Triggers extends the forced-review detectors
	Triggers TriggersConfig `yaml:"triggers" toml:"triggers"`

	// Scoring selects optional complexity factors
	Scoring ScoringConfig `yaml:"scoring" toml:"scoring"`

	// Metrics controls decision recording
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Escalation controls where fail-safe and cancel notices go
	Escalation EscalationConfig `yaml:"escalation" toml:"escalation"`

	// Pager controls plan display
	Pager PagerConfig `yaml:"pager" toml:"pager"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// ReviewConfig controls the quick and full review sessions.
type ReviewConfig struct {
	// QuickTimeout is how long the quick review waits before auto-approving
	QuickTimeout string `yaml:"quick_timeout" toml:"quick_timeout"`

	// CancelKey is the key that cancels a quick review (case-insensitive)
	CancelKey string `yaml:"cancel_key" toml:"cancel_key"`

	// AutoProceedMax is the highest score that proceeds without review
	AutoProceedMax int `yaml:"auto_proceed_max" toml:"auto_proceed_max"`

	// QuickMax is the highest score that gets the optional checkpoint
	QuickMax int `yaml:"quick_max" toml:"quick_max"`

	// InvalidInputLimit is how many bad entries in a row trigger a warning
	InvalidInputLimit int `yaml:"invalid_input_limit" toml:"invalid_input_limit"`
}

// TriggersConfig extends the forced-review triggers.
type TriggersConfig struct {
	// ProtectedPaths are doublestar globs; a plan touching one forces review
	ProtectedPaths []string `yaml:"protected_paths" toml:"protected_paths"`

	// SecurityKeywords are added to the built-in security keyword list
	SecurityKeywords []string `yaml:"security_keywords" toml:"security_keywords"`

	// SchemaKeywords are added to the built-in schema keyword list
	SchemaKeywords []string `yaml:"schema_keywords" toml:"schema_keywords"`
}

// ScoringConfig selects optional factors.
type ScoringConfig struct {
	// DependencyFactor enables the dependency_complexity factor
	DependencyFactor bool `yaml:"dependency_factor" toml:"dependency_factor"`
}

// MetricsConfig controls where review decisions are recorded.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// SQLitePath is the decision database. Relative paths resolve from StateDir.
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`

	// PrometheusTextfile, when set, is rewritten after every decision
	PrometheusTextfile string `yaml:"prometheus_textfile,omitempty" toml:"prometheus_textfile"`
}

// EscalationConfig controls escalation notices.
type EscalationConfig struct {
	// Terminal prints notices to stderr
	Terminal bool `yaml:"terminal" toml:"terminal"`

	// WebhookURL, when set, receives notices as JSON POSTs
	WebhookURL string `yaml:"webhook_url,omitempty" toml:"webhook_url"`

	// SlackWebhook, when set, receives notices as Slack messages
	SlackWebhook string `yaml:"slack_webhook,omitempty" toml:"slack_webhook"`
}

// PagerConfig controls plan display.
type PagerConfig struct {
	Mode PagerMode `yaml:"mode" toml:"mode"`

	// Command overrides $PAGER for the exec pager
	Command string `yaml:"command,omitempty" toml:"command"`
}

// QuickTimeoutDuration parses the quick review timeout as a Duration.
func (c *Config) QuickTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.Review.QuickTimeout)
}

// CancelRune returns the configured cancel key as a rune
func (c *Config) CancelRune() rune {
	for _, r := range c.Review.CancelKey {
		return r
	}
	return rune(DefaultCancelKey[0])
}

// LoadConfig loads configuration from the repository root.
// It applies defaults, then file values (.plangate.yaml, else
// .plangate.toml), then environment overrides, then validates.
//
// Parameters:
//   - repoRoot: absolute path to the repository root directory
//
// Returns the validated Config or an error if validation fails.
func LoadConfig(repoRoot string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFile(repoRoot, cfg); err != nil {
		return nil, err
	}
	// Note: missing config file is not an error (use defaults)

	applyEnvOverrides(cfg)

	// Resolve relative paths
	if !filepath.IsAbs(cfg.StateDir) {
		cfg.StateDir = filepath.Join(repoRoot, cfg.StateDir)
	}
	if cfg.Metrics.SQLitePath != "" && !filepath.IsAbs(cfg.Metrics.SQLitePath) {
		cfg.Metrics.SQLitePath = filepath.Join(cfg.StateDir, cfg.Metrics.SQLitePath)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadFile(repoRoot string, cfg *Config) error {
	yamlPath := filepath.Join(repoRoot, ConfigFileYAML)
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		return nil
	}

	tomlPath := filepath.Join(repoRoot, ConfigFileTOML)
	if data, err := os.ReadFile(tomlPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}
