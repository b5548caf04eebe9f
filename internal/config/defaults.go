package config

const (
	ConfigFileYAML = ".plangate.yaml"
	ConfigFileTOML = ".plangate.toml"

	DefaultStateDir          = ".plangate/state"
	DefaultQuickTimeout      = "10s"
	DefaultCancelKey         = "c"
	DefaultAutoProceedMax    = 3
	DefaultQuickMax          = 6
	DefaultInvalidInputLimit = 3
	DefaultMetricsDB         = "metrics.db"
	DefaultLogLevel          = "info"
)

// DefaultReviewConfig returns the review thresholds and prompt settings.
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		QuickTimeout:      DefaultQuickTimeout,
		CancelKey:         DefaultCancelKey,
		AutoProceedMax:    DefaultAutoProceedMax,
		QuickMax:          DefaultQuickMax,
		InvalidInputLimit: DefaultInvalidInputLimit,
	}
}

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		StateDir: DefaultStateDir,
		Review:   DefaultReviewConfig(),
		Metrics: MetricsConfig{
			Enabled:    true,
			SQLitePath: DefaultMetricsDB,
		},
		Escalation: EscalationConfig{
			Terminal: true,
		},
		Pager: PagerConfig{
			Mode: PagerAuto,
		},
		LogLevel: DefaultLogLevel,
	}
}
