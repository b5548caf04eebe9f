package config

import "os"

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "PLANGATE_STATE_DIR",
		apply: func(c *Config, v string) {
			c.StateDir = v
		},
	},
	{
		envVar: "PLANGATE_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
	{
		envVar: "PLANGATE_QUICK_TIMEOUT",
		apply: func(c *Config, v string) {
			c.Review.QuickTimeout = v
		},
	},
	{
		envVar: "PLANGATE_METRICS_DB",
		apply: func(c *Config, v string) {
			c.Metrics.SQLitePath = v
		},
	},
	{
		envVar: "PLANGATE_PAGER",
		apply: func(c *Config, v string) {
			c.Pager.Mode = PagerMode(v)
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
