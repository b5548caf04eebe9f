package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/RevCBH/plangate/internal/complexity"
)

// Action is what the workflow does next
type Action string

const (
	ActionProceed        Action = "proceed"
	ActionReviewRequired Action = "review_required"
)

// Routing targets
const (
	TargetImplementation = "Phase 3"
	TargetOptional       = "Phase 2.6 Checkpoint (Optional)"
	TargetRequired       = "Phase 2.6 Checkpoint (Required)"
	TargetErrorRecovery  = "Phase 2.6 Checkpoint (Required - Error Recovery)"
)

// Decision is the immutable result of routing one evaluation
type Decision struct {
	Action       Action
	Score        *complexity.Score
	Target       string
	Summary      string
	AutoApproved bool
	Timestamp    time.Time

	// Error is set when the decision came from the fail-safe path
	Error string
}

// Mode returns the review mode the decision routes to
func (d Decision) Mode() complexity.ReviewMode {
	if d.Score == nil {
		return complexity.ModeFullRequired
	}
	return d.Score.Mode
}

// IsFailSafe reports whether routing or scoring failed
func (d Decision) IsFailSafe() bool {
	return d.Error != ""
}

// Router turns scores into review decisions
type Router struct {
	logger     *slog.Logger
	fmt        *Formatter
	thresholds complexity.Thresholds
}

// Option configures a Router
type Option func(*Router)

// WithThresholds overrides the score bands
func WithThresholds(t complexity.Thresholds) Option {
	return func(r *Router) {
		r.thresholds = t
	}
}

// New creates a router
func New(logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		logger:     logger,
		fmt:        NewFormatter(),
		thresholds: complexity.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route builds the decision for a score. It never fails: a nil score, a
// fail-safe score or a panic while building the decision all produce the
// required error-recovery checkpoint.
func (r *Router) Route(score *complexity.Score, ec complexity.EvaluationContext) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			d = r.failSafe(score, ec, fmt.Errorf("routing panic: %v", rec))
		}
	}()

	if score == nil {
		return r.failSafe(nil, ec, fmt.Errorf("no complexity score to route"))
	}
	if score.IsFailSafe() {
		return r.failSafe(score, ec, fmt.Errorf("%s", score.Error()))
	}

	// The mode is recomputed so a tampered Score cannot route around triggers
	mode := r.thresholds.Mode(score.Total, score.Triggers)
	if score.Mode != mode {
		routed := *score
		routed.Mode = mode
		score = &routed
	}

	switch mode {
	case complexity.ModeAutoProceed:
		d = Decision{
			Action:       ActionProceed,
			Score:        score,
			Target:       TargetImplementation,
			Summary:      r.fmt.AutoProceedSummary(score, ec.TaskID),
			AutoApproved: true,
		}
	case complexity.ModeQuickOptional:
		d = Decision{
			Action:  ActionReviewRequired,
			Score:   score,
			Target:  TargetOptional,
			Summary: r.fmt.QuickOptionalSummary(score, ec.TaskID),
		}
	default:
		d = Decision{
			Action:  ActionReviewRequired,
			Score:   score,
			Target:  TargetRequired,
			Summary: r.fmt.FullRequiredSummary(score, ec.TaskID),
		}
	}
	d.Timestamp = time.Now()

	r.logger.Info("review routed",
		"task", ec.TaskID, "score", score.Total, "mode", mode,
		"target", d.Target, "triggers", len(score.Triggers))

	return d
}

func (r *Router) failSafe(score *complexity.Score, ec complexity.EvaluationContext, err error) Decision {
	r.logger.Warn("creating fail-safe routing decision", "task", ec.TaskID, "error", err)

	if score == nil || !score.IsFailSafe() {
		score = complexity.FailSafeScore(err)
	}

	return Decision{
		Action:    ActionReviewRequired,
		Score:     score,
		Target:    TargetErrorRecovery,
		Summary:   r.fmt.FailSafeSummary(ec.TaskID, err),
		Timestamp: time.Now(),
		Error:     err.Error(),
	}
}
