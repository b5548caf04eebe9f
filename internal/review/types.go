package review

import (
	"context"
	"errors"
	"time"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/modify"
	"github.com/RevCBH/plangate/internal/plan"
)

// ErrReviewCancelled is returned to callers that treat a cancelled review
// as a failed command
var ErrReviewCancelled = errors.New("review cancelled")

// ReviewConfig configures the interactive sessions
type ReviewConfig struct {
	QuickTimeout      time.Duration // Quick review countdown (default: 10s)
	CancelKey         rune          // Cancel key during the countdown (default: 'c')
	InvalidInputLimit int           // Consecutive invalid choices before a warning (default: 3)
	Width             int           // Checkpoint width, clamped to 70-120 (0: detect)
	Author            string        // Recorded as approved_by and version author
}

// DefaultReviewConfig returns sensible defaults
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		QuickTimeout:      10 * time.Second,
		CancelKey:         'c',
		InvalidInputLimit: 3,
		Author:            "user",
	}
}

// Outcome is how a review ended
type Outcome string

const (
	OutcomeAutoApproved Outcome = "auto_approved"
	OutcomeEscalated    Outcome = "escalated"
	OutcomeApproved     Outcome = "approved"
	OutcomeCancelled    Outcome = "cancelled"
)

// Result is the outcome of one review, ready to be persisted
type Result struct {
	Outcome Outcome

	// Plan is the final plan, including any applied modifications
	Plan *plan.Plan

	// Score is the score of the final plan
	Score *complexity.Score

	// Metadata holds the task metadata updates for the outcome
	Metadata map[string]any

	Escalated bool

	// Forced is true when the review ended through an interrupt
	Forced bool

	// Versions lists plan versions created during the review
	Versions []int

	Duration time.Duration
}

// Approved reports whether implementation may proceed
func (r Result) Approved() bool {
	return r.Outcome == OutcomeApproved || r.Outcome == OutcomeAutoApproved
}

// HumanOverride reports whether a human changed the automatic outcome
func (r Result) HumanOverride() bool {
	return r.Escalated || r.Outcome == OutcomeCancelled || len(r.Versions) > 0
}

// Publisher abstracts event publishing for testing
type Publisher interface {
	Emit(e events.Event)
}

// Rescorer re-evaluates a modified plan
type Rescorer interface {
	Calculate(ctx context.Context, p *plan.Plan, ec complexity.EvaluationContext) (*complexity.Score, []complexity.FactorResult)
}

// AuditStore persists modification and Q&A sessions
type AuditStore interface {
	SaveSession(sess *modify.Session) (string, error)
	SaveQASession(taskID, sessionID string, record any) (string, error)
}

type nopPublisher struct{}

func (nopPublisher) Emit(events.Event) {}
