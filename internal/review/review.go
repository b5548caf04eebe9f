package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/modify"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
	"github.com/RevCBH/plangate/internal/router"
	"github.com/RevCBH/plangate/internal/version"
)

// Terminal groups the operator's input and output streams
type Terminal struct {
	Out   io.Writer
	Keys  prompt.KeySource // Raw keys for the quick review countdown
	Lines LineReader       // Line input for menus and questions
}

// Reviewer drives the interactive review selected by a routing decision
type Reviewer struct {
	config    ReviewConfig
	publisher Publisher
	term      Terminal

	pager    Pager
	scorer   Rescorer
	versions *version.Manager
	audit    AuditStore
	applier  *modify.Applier
	styles   Styles
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Reviewer
type Option func(*Reviewer)

// WithPager sets the pager used by the View command
func WithPager(p Pager) Option {
	return func(r *Reviewer) { r.pager = p }
}

// WithScorer sets the scorer used after modifications
func WithScorer(s Rescorer) Option {
	return func(r *Reviewer) { r.scorer = s }
}

// WithVersions enables plan versioning for applied modifications
func WithVersions(m *version.Manager) Option {
	return func(r *Reviewer) { r.versions = m }
}

// WithAudit persists modification and Q&A sessions
func WithAudit(a AuditStore) Option {
	return func(r *Reviewer) { r.audit = a }
}

// WithStyles overrides the default styles
func WithStyles(s Styles) Option {
	return func(r *Reviewer) { r.styles = s }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Reviewer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReviewer creates a new Reviewer with the given configuration
func NewReviewer(config ReviewConfig, publisher Publisher, term Terminal, opts ...Option) *Reviewer {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	r := &Reviewer{
		config:    config,
		publisher: publisher,
		term:      term,
		styles:    DefaultStyles(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pager == nil {
		r.pager = &InlinePager{Out: term.Out}
	}
	if r.applier == nil {
		r.applier = modify.NewApplier(r.logger)
	}
	if r.config.InvalidInputLimit <= 0 {
		r.config.InvalidInputLimit = DefaultReviewConfig().InvalidInputLimit
	}
	if r.config.Author == "" {
		r.config.Author = DefaultReviewConfig().Author
	}
	return r
}

// Run executes the review the decision routes to. Auto-proceed decisions
// are approved without interaction. Errors are returned only when the
// terminal itself fails.
func (r *Reviewer) Run(ctx context.Context, d router.Decision, p *plan.Plan, ec complexity.EvaluationContext) (Result, error) {
	start := r.now()
	score := d.Score
	if score == nil {
		score = complexity.FailSafeScore(errors.New("no complexity score"))
	}

	var (
		res Result
		err error
	)
	switch d.Mode() {
	case complexity.ModeAutoProceed:
		res = Result{
			Outcome:  OutcomeAutoApproved,
			Plan:     p,
			Score:    score,
			Metadata: AutoProceedMetadata(score, r.now()),
		}
	case complexity.ModeQuickOptional:
		res, err = r.quickThenFull(ctx, p, score, ec)
	default:
		res, err = r.Full(ctx, p, score, ec, false)
	}
	if err != nil {
		return res, err
	}

	res.Duration = r.now().Sub(start)
	r.publishOutcome(p.TaskID, res)
	return res, nil
}

func (r *Reviewer) quickThenFull(ctx context.Context, p *plan.Plan, score *complexity.Score, ec complexity.EvaluationContext) (Result, error) {
	outcome, interrupted := r.Quick(ctx, p, score)

	switch outcome {
	case prompt.OutcomeTimeout:
		return Result{
			Outcome:  OutcomeAutoApproved,
			Plan:     p,
			Score:    score,
			Metadata: QuickMetadata(ActionAutoApproved, score, r.now()),
		}, nil

	case prompt.OutcomeCancel:
		return Result{
			Outcome:  OutcomeCancelled,
			Plan:     p,
			Score:    score,
			Metadata: QuickMetadata(ActionCancelled, score, r.now()),
		}, nil
	}

	escalation := QuickMetadata(ActionEscalatedToFull, score, r.now())
	r.publisher.Emit(events.NewEvent(events.ReviewEscalated, p.TaskID).WithPayload(map[string]any{
		"interrupted": interrupted,
	}))

	var (
		res Result
		err error
	)
	if interrupted {
		fmt.Fprintf(r.term.Out, "\n\n%s Interrupt detected. Treating as cancellation request...\n", IconWarning)
		res = r.cancelled(p, score, true)
		res.Escalated = true
	} else {
		res, err = r.Full(ctx, p, score, ec, true)
	}
	res.Metadata = mergeMetadata(escalation, res.Metadata)
	return res, err
}

// Quick shows the summary card and runs the countdown. Any failure to
// prompt escalates to full review; an interrupt also escalates and is
// reported so the caller can force-cancel.
func (r *Reviewer) Quick(ctx context.Context, p *plan.Plan, score *complexity.Score) (outcome prompt.Outcome, interrupted bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("quick review failed, escalating", "task", p.TaskID, "panic", rec)
			fmt.Fprintln(r.term.Out, "\nError during quick review. Escalating to full review for safety...")
			outcome, interrupted = prompt.OutcomeConfirm, false
		}
	}()

	renderQuickCard(r.term.Out, p, score, r.styles)

	if r.term.Keys == nil {
		r.logger.Warn("no key source for quick review, escalating", "task", p.TaskID)
		return prompt.OutcomeConfirm, false
	}

	cancelKey := r.config.CancelKey
	timeout := r.config.QuickTimeout
	if timeout <= 0 {
		timeout = DefaultReviewConfig().QuickTimeout
	}

	tp := prompt.New(r.term.Keys, r.term.Out, r.logger)
	res, err := tp.Run(ctx, prompt.Options{
		Duration:  timeout,
		CancelKey: cancelKey,
		Message: fmt.Sprintf("\nQuick review mode active.\nPress [Enter] to see full review, [%c] to cancel, or wait to auto-proceed\n",
			displayKey(cancelKey)),
		Countdown: "Auto-approving in %ds...",
	})
	switch {
	case errors.Is(err, prompt.ErrInterrupted):
		return prompt.OutcomeConfirm, true
	case err != nil:
		r.logger.Warn("quick review prompt failed, escalating", "task", p.TaskID, "error", err)
		return prompt.OutcomeConfirm, false
	}

	r.logger.Info("quick review finished", "task", p.TaskID, "outcome", res)
	return res, false
}

func displayKey(k rune) rune {
	if k == 0 {
		k = prompt.DefaultCancelKey
	}
	if k >= 'a' && k <= 'z' {
		k -= 'a' - 'A'
	}
	return k
}

func (r *Reviewer) cancelled(p *plan.Plan, score *complexity.Score, forced bool) Result {
	fmt.Fprintf(r.term.Out, "\n%s Task cancelled. Moving to backlog...\n", IconCancelled)
	return Result{
		Outcome:  OutcomeCancelled,
		Plan:     p,
		Score:    score,
		Metadata: CancellationMetadata(forced, r.now()),
		Forced:   forced,
	}
}

func (r *Reviewer) publishOutcome(task string, res Result) {
	switch res.Outcome {
	case OutcomeApproved, OutcomeAutoApproved:
		r.publisher.Emit(events.NewEvent(events.ReviewApproved, task).WithPayload(map[string]any{
			"mode":  string(res.Score.Mode),
			"auto":  res.Outcome == OutcomeAutoApproved,
			"score": res.Score.Total,
		}))
	case OutcomeCancelled:
		r.publisher.Emit(events.NewEvent(events.ReviewCancelled, task).WithPayload(map[string]any{
			"reason": res.Metadata["cancellation_reason"],
			"forced": res.Forced,
		}))
	}
}
