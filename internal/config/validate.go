package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.StateDir == "" {
		errs = append(errs, &ValidationError{
			Field:   "state_dir",
			Value:   cfg.StateDir,
			Message: "must not be empty",
		})
	}

	// Review.QuickTimeout must be a positive Go duration string
	if d, err := time.ParseDuration(cfg.Review.QuickTimeout); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "review.quick_timeout",
			Value:   cfg.Review.QuickTimeout,
			Message: fmt.Sprintf("invalid duration: %v", err),
		})
	} else if d <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "review.quick_timeout",
			Value:   cfg.Review.QuickTimeout,
			Message: "must be positive",
		})
	}

	// Review.CancelKey must be a single character other than Enter
	if utf8.RuneCountInString(cfg.Review.CancelKey) != 1 ||
		cfg.Review.CancelKey == "\r" || cfg.Review.CancelKey == "\n" {
		errs = append(errs, &ValidationError{
			Field:   "review.cancel_key",
			Value:   cfg.Review.CancelKey,
			Message: "must be a single non-Enter character",
		})
	}

	// Thresholds must partition 1..10 into three non-empty bands
	if cfg.Review.AutoProceedMax < 0 || cfg.Review.AutoProceedMax >= cfg.Review.QuickMax || cfg.Review.QuickMax >= 10 {
		errs = append(errs, &ValidationError{
			Field:   "review.auto_proceed_max",
			Value:   fmt.Sprintf("%d/%d", cfg.Review.AutoProceedMax, cfg.Review.QuickMax),
			Message: "must satisfy 0 <= auto_proceed_max < quick_max < 10",
		})
	}

	if cfg.Review.InvalidInputLimit < 1 {
		errs = append(errs, &ValidationError{
			Field:   "review.invalid_input_limit",
			Value:   cfg.Review.InvalidInputLimit,
			Message: "must be at least 1",
		})
	}

	for i, pattern := range cfg.Triggers.ProtectedPaths {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("triggers.protected_paths[%d]", i),
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.SQLitePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "metrics.sqlite_path",
			Value:   cfg.Metrics.SQLitePath,
			Message: "must be set when metrics are enabled",
		})
	}

	for field, raw := range map[string]string{
		"escalation.webhook_url":   cfg.Escalation.WebhookURL,
		"escalation.slack_webhook": cfg.Escalation.SlackWebhook,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, &ValidationError{
				Field:   field,
				Value:   raw,
				Message: "must be an http(s) URL",
			})
		}
	}

	switch cfg.Pager.Mode {
	case PagerAuto, PagerTUI, PagerExec, PagerInline:
	default:
		errs = append(errs, &ValidationError{
			Field:   "pager.mode",
			Value:   cfg.Pager.Mode,
			Message: "must be one of: auto, tui, exec, inline",
		})
	}

	// LogLevel must be one of: debug, info, warn, error (case-sensitive)
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
