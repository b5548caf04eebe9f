package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Outcome is how a review ended
type Outcome string

const (
	OutcomeAutoApproved Outcome = "auto_approved"
	OutcomeApproved     Outcome = "approved"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeEvaluated    Outcome = "evaluated"
)

// Record is one review decision
type Record struct {
	Task  string
	Mode  string
	Score int

	// Forced is true when a trigger forced full review
	Forced bool

	// FailSafe is true when scoring or routing fell back to full review
	FailSafe bool

	// Duration is the wall time the operator spent in the session
	Duration time.Duration

	// HumanOverride is true when a human changed the automatic outcome:
	// escalating or cancelling a quick review, or modifying the plan
	HumanOverride bool

	Outcome Outcome
	At      time.Time
}

// Sink stores decision records
type Sink interface {
	Record(ctx context.Context, r Record) error
	Close() error
}

// Nop discards records
type Nop struct{}

func (Nop) Record(context.Context, Record) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi writes to every sink and joins the failures
type Multi []Sink

func (m Multi) Record(ctx context.Context, r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder is the fire-and-forget front of a Sink: failures are logged
// and never reach the review flow.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder wraps sink; a nil sink records nothing
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	if sink == nil {
		sink = Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record stores r, stamping the time if unset. A panicking sink is logged
// like a failing one.
func (rc *Recorder) Record(ctx context.Context, r Record) {
	defer func() {
		if rec := recover(); rec != nil {
			rc.logger.Warn("metrics sink panicked", "task", r.Task, "panic", rec)
		}
	}()
	if r.At.IsZero() {
		r.At = rc.now()
	}
	if err := rc.sink.Record(ctx, r); err != nil {
		rc.logger.Warn("failed to record review metrics", "task", r.Task, "error", err)
	}
}

// Close closes the underlying sink, logging any failure
func (rc *Recorder) Close() {
	defer func() {
		if rec := recover(); rec != nil {
			rc.logger.Warn("metrics sink panicked on close", "panic", rec)
		}
	}()
	if err := rc.sink.Close(); err != nil {
		rc.logger.Warn("failed to close metrics sink", "error", err)
	}
}
