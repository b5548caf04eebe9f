package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
)

// fullSession is one pass through the full review checkpoint. It owns the
// working plan until the review ends.
type fullSession struct {
	r         *Reviewer
	plan      *plan.Plan
	score     *complexity.Score
	ec        complexity.EvaluationContext
	escalated bool
	start     time.Time
	versions  []int
}

// Full runs the menu-driven checkpoint until the plan is approved or
// cancelled. Interrupts and end of input cancel without confirmation.
func (r *Reviewer) Full(ctx context.Context, p *plan.Plan, score *complexity.Score, ec complexity.EvaluationContext, escalated bool) (Result, error) {
	s := &fullSession{
		r:         r,
		plan:      p,
		score:     score,
		ec:        ec,
		escalated: escalated,
		start:     r.now(),
	}
	return s.run(ctx)
}

func (s *fullSession) out() io.Writer {
	return s.r.term.Out
}

func (s *fullSession) render() {
	checkpoint{
		w:         s.out(),
		plan:      s.plan,
		score:     s.score,
		escalated: s.escalated,
		width:     ClampWidth(s.r.config.Width),
		styles:    s.r.styles,
	}.render()
}

// isEndOfInput reports whether err means the operator can no longer answer
func isEndOfInput(err error) bool {
	return errors.Is(err, prompt.ErrInterrupted) || errors.Is(err, io.EOF)
}

func (s *fullSession) run(ctx context.Context) (Result, error) {
	if s.r.term.Lines == nil {
		return Result{}, errors.New("full review needs line input")
	}

	s.render()
	invalid := 0

	for {
		if ctx.Err() != nil {
			return s.interrupted(), nil
		}

		choice, err := readChoice(s.r.term.Lines, "Your choice (A/M/V/Q/C): ")
		if isEndOfInput(err) {
			return s.interrupted(), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("read review choice: %w", err)
		}

		switch choice {
		case "a":
			return s.approve(), nil

		case "c":
			invalid = 0
			res, done, err := s.cancel()
			if err != nil {
				return Result{}, err
			}
			if done {
				return res, nil
			}

		case "m":
			invalid = 0
			if err := s.modify(ctx); err != nil {
				return Result{}, err
			}
			s.render()

		case "v":
			invalid = 0
			s.view(ctx)

		case "q":
			invalid = 0
			s.question(ctx)
			s.render()

		default:
			invalid++
			if choice == "" {
				fmt.Fprintf(s.out(), "\n%s Please enter a choice (A/M/V/Q/C)\n", IconWarning)
			} else {
				fmt.Fprintf(s.out(), "\n%s Invalid choice: '%s'\n", IconCancelled, choice)
				fmt.Fprintln(s.out(), "Please enter A (Approve), M (Modify), V (View), Q (Question), or C (Cancel)")
			}
			if invalid >= s.r.config.InvalidInputLimit {
				fmt.Fprintf(s.out(), "%s\n", s.r.styles.Warning.Render(
					fmt.Sprintf("%s %d invalid attempts. Please review options carefully.", IconWarning, invalid)))
			}
		}
	}
}

func (s *fullSession) result(outcome Outcome, metadata map[string]any) Result {
	return Result{
		Outcome:   outcome,
		Plan:      s.plan,
		Score:     s.score,
		Metadata:  metadata,
		Escalated: s.escalated,
		Versions:  s.versions,
	}
}

func (s *fullSession) approve() Result {
	fmt.Fprintf(s.out(), "\n%s %s\n", IconApproved, s.r.styles.Success.Render("Plan approved!"))
	fmt.Fprintln(s.out(), "Proceeding to Phase 3 (Implementation)...")

	now := s.r.now()
	s.r.logger.Info("plan approved", "task", s.plan.TaskID, "score", s.score.Total, "escalated", s.escalated)
	return s.result(OutcomeApproved,
		ApprovalMetadata(s.score, s.escalated, s.r.config.Author, now.Sub(s.start), now))
}

// cancel asks for confirmation. done is false when the operator declines.
func (s *fullSession) cancel() (res Result, done bool, err error) {
	fmt.Fprintf(s.out(), "\n%s Are you sure you want to cancel this task?\n", IconWarning)
	fmt.Fprintln(s.out(), "All work completed so far will be saved.")

	ok, err := confirm(s.r.term.Lines, "Confirm cancellation? [y/N]: ")
	if isEndOfInput(err) {
		return s.interrupted(), true, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("read cancellation confirmation: %w", err)
	}
	if !ok {
		fmt.Fprintln(s.out(), "\nCancellation aborted. Returning to checkpoint...")
		return Result{}, false, nil
	}
	return s.cancelled(false), true, nil
}

// interrupted cancels without confirmation
func (s *fullSession) interrupted() Result {
	fmt.Fprintf(s.out(), "\n\n%s Interrupt detected. Treating as cancellation request...\n", IconWarning)
	return s.cancelled(true)
}

func (s *fullSession) cancelled(forced bool) Result {
	res := s.r.cancelled(s.plan, s.score, forced)
	res.Escalated = s.escalated
	res.Versions = s.versions
	return res
}

func (s *fullSession) view(ctx context.Context) {
	fmt.Fprintln(s.out(), "\n📖 Opening implementation plan in pager...")

	content := FormatPlan(s.plan, s.score)
	title := "Implementation Plan: " + s.plan.TaskID
	if err := s.r.pager.Show(ctx, title, content); err != nil {
		s.r.logger.Warn("pager failed, printing inline", "error", err)
		fmt.Fprintf(s.out(), "%s Could not open pager, displaying inline instead:\n\n", IconWarning)
		fmt.Fprintln(s.out(), content)
	}
}

func (s *fullSession) question(ctx context.Context) {
	qa := &QA{
		lines:     s.r.term.Lines,
		out:       s.out(),
		audit:     s.r.audit,
		publisher: s.r.publisher,
		logger:    s.r.logger,
		now:       s.r.now,
	}
	qa.Run(ctx, s.plan, s.score)
}
