package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/metrics"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
	"github.com/RevCBH/plangate/internal/review"
	"github.com/RevCBH/plangate/internal/router"
	"github.com/RevCBH/plangate/internal/version"
)

// Metadata values for the design-only workflow
const (
	StatusDesignApproved = "design_approved"
	designApproved       = "approved"
)

// ReviewOptions holds flags for the review command
type ReviewOptions struct {
	Flags    ReviewFlags
	PlanFile string // Import this plan file instead of the stored plan
}

// NewReviewCmd creates the review command
func NewReviewCmd(app *App) *cobra.Command {
	opts := ReviewOptions{}

	cmd := &cobra.Command{
		Use:   "review <task>",
		Short: "Score a plan and run the review it needs",
		Long: `Review scores the task's plan, routes it to auto-proceed, quick review or
full review, and records the outcome in the task's metadata.

Exit status is 2 when the review is cancelled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Review(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "Import the plan from a markdown or YAML file")
	cmd.Flags().BoolVar(&opts.Flags.Review, "review", false, "Force full review regardless of complexity")
	cmd.Flags().BoolVar(&opts.Flags.SkipReview, "skip-review", false, "Skip the checkpoint unless a full review is required")
	cmd.Flags().BoolVar(&opts.Flags.AutoProceed, "auto-proceed", false, "Approve quick reviews without the countdown")
	cmd.Flags().BoolVar(&opts.Flags.DesignOnly, "design-only", false, "Review and approve the plan, then stop")
	cmd.Flags().BoolVar(&opts.Flags.ImplementOnly, "implement-only", false, "Proceed with a previously approved design")
	cmd.Flags().BoolVar(&opts.Flags.Hotfix, "hotfix", false, "Treat the task as a hotfix (forces full review)")

	return cmd
}

// Review runs the complete review workflow for one task
func (a *App) Review(ctx context.Context, taskID string, opts ReviewOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Conflicts are reported before anything is loaded or scored
	if err := opts.Flags.Validate(a.stderr); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.newLogger(cfg)
	jsonMode := a.jsonMode(a.jsonOutput)

	gate, err := WireGate(cfg, logger, WireOptions{JSON: jsonMode, Stdout: a.stdout, Stderr: a.stderr})
	if err != nil {
		return err
	}
	defer gate.Close()

	// Interactive output moves to stderr when stdout carries JSON events
	out := a.stdout
	if jsonMode {
		out = a.stderr
	}

	if opts.Flags.ImplementOnly {
		return a.implementOnly(gate, taskID, out)
	}

	source := taskID
	var p *plan.Plan
	if opts.PlanFile != "" {
		source = opts.PlanFile
		p, err = plan.LoadFile(opts.PlanFile)
		if err != nil {
			return fmt.Errorf("failed to import plan: %w", err)
		}
		p.TaskID = taskID
	} else {
		p, err = gate.Store.Load(taskID)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
	}

	author := currentUser()
	versions, err := gate.Versions(taskID)
	if err != nil {
		return err
	}
	if len(versions.History()) == 0 {
		v, err := versions.Create(p, "Initial plan", author)
		if err != nil {
			return fmt.Errorf("failed to create initial version: %w", err)
		}
		gate.Events.Emit(events.NewEvent(events.VersionCreated, taskID).WithPayload(map[string]any{
			"version": v.Number,
			"reason":  v.Reason,
		}))
	}

	ec := complexity.EvaluationContext{
		TaskID:    taskID,
		Metadata:  p.Metadata,
		UserFlags: opts.Flags.UserFlags(),
	}
	d := gate.route(ctx, p, ec, source)

	res, handled := a.shortcut(gate, d, p, opts.Flags, out)
	if !handled {
		res, err = a.interactive(ctx, gate, d, p, ec, versions, author, out)
		if err != nil {
			return err
		}
	}

	metadata := review.Settle(res.Metadata, res.Approved())
	metadata["workflow_mode"] = opts.Flags.WorkflowMode()
	if enabled := opts.Flags.Enabled(); len(enabled) > 0 {
		metadata["review_flags"] = enabled
	}
	if opts.Flags.DesignOnly && res.Approved() {
		metadata["status"] = StatusDesignApproved
		metadata["design"] = map[string]any{
			"status":      designApproved,
			"approved_at": time.Now().UTC().Format(time.RFC3339),
		}
	}

	finalPlan := res.Plan
	if finalPlan == nil {
		finalPlan = p
	}
	path, err := gate.Store.Save(taskID, finalPlan, metadata)
	if err != nil {
		return fmt.Errorf("failed to save review outcome: %w", err)
	}
	logger.Debug("review outcome saved", "task", taskID, "path", path, "outcome", res.Outcome)

	gate.Metrics.Record(ctx, metrics.Record{
		Task:          taskID,
		Mode:          string(d.Mode()),
		Score:         scoreTotal(d),
		Forced:        forced(d),
		FailSafe:      d.IsFailSafe(),
		Duration:      res.Duration,
		HumanOverride: res.HumanOverride(),
		Outcome:       metrics.Outcome(res.Outcome),
	})

	switch {
	case !res.Approved():
		fmt.Fprintf(out, "\n❌ Review of %s cancelled. Task moved to backlog.\n", taskID)
		return review.ErrReviewCancelled
	case opts.Flags.DesignOnly:
		fmt.Fprintf(out, "\n✅ Design approved for %s.\n", taskID)
		fmt.Fprintf(out, "   Run 'plangate review %s --implement-only' to proceed.\n", taskID)
	default:
		fmt.Fprintf(out, "\n✅ Plan approved for %s. Proceeding to %s.\n", taskID, router.TargetImplementation)
	}
	return nil
}

// shortcut resolves --skip-review and --auto-proceed without interaction.
// Routes that require a full review are never shortcut.
func (a *App) shortcut(gate *Gate, d router.Decision, p *plan.Plan, flags ReviewFlags, out io.Writer) (review.Result, bool) {
	score := d.Score
	now := time.Now()

	var res review.Result
	switch {
	case flags.SkipReview && d.Mode() == complexity.ModeFullRequired:
		fmt.Fprintln(out, skipReviewNote(d))
		return res, false
	case flags.SkipReview:
		fmt.Fprintln(out, "⏭️  Review skipped (--skip-review)")
		res = review.Result{Outcome: review.OutcomeAutoApproved, Plan: p, Score: score,
			Metadata: review.AutoProceedMetadata(score, now)}
		res.Metadata["review_skipped"] = true
	case flags.AutoProceed && d.Mode() == complexity.ModeQuickOptional:
		fmt.Fprintf(out, "⏩ Auto-proceeding (--auto-proceed): %s\n", complexity.FormatCompact(score))
		res = review.Result{Outcome: review.OutcomeAutoApproved, Plan: p, Score: score,
			Metadata: review.QuickMetadata(review.ActionAutoApproved, score, now)}
	default:
		return res, false
	}

	gate.Events.Emit(events.NewEvent(events.ReviewApproved, p.TaskID).WithPayload(map[string]any{
		"mode":  string(d.Mode()),
		"auto":  true,
		"score": scoreTotal(d),
	}))
	return res, true
}

// interactive runs the Reviewer on the operator's terminal
func (a *App) interactive(ctx context.Context, gate *Gate, d router.Decision, p *plan.Plan,
	ec complexity.EvaluationContext, versions *version.Manager, author string, out io.Writer) (review.Result, error) {
	cfg := gate.Config

	timeout, err := cfg.QuickTimeoutDuration()
	if err != nil {
		return review.Result{}, err
	}
	rc := review.ReviewConfig{
		QuickTimeout:      timeout,
		CancelKey:         cfg.CancelRune(),
		InvalidInputLimit: cfg.Review.InvalidInputLimit,
		Author:            author,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []review.Option{
		review.WithScorer(gate.Scorer),
		review.WithVersions(versions),
		review.WithAudit(gate.Store),
		review.WithLogger(gate.Logger),
	}

	var term review.Terminal
	if a.terminal != nil {
		term = *a.terminal
	} else {
		lines := review.NewReadlineReader(a.stdin, out)
		defer lines.Close()
		term = review.Terminal{
			Out:   out,
			Keys:  prompt.NewTerminalKeySource(a.stdin),
			Lines: lines,
		}
		opts = append(opts, review.WithPager(review.NewPager(cfg.Pager.Mode, cfg.Pager.Command, a.stdin, outFile(out))))

		signals := NewSignalHandler(cancel, gate.Logger)
		signals.Start()
		defer signals.Stop()
	}

	reviewer := review.NewReviewer(rc, gate.Events, term, opts...)
	res, err := reviewer.Run(ctx, d, p, ec)
	if err != nil {
		return res, fmt.Errorf("review failed: %w", err)
	}
	return res, nil
}

// implementOnly checks that a design was approved earlier
func (a *App) implementOnly(gate *Gate, taskID string, out io.Writer) error {
	meta, err := gate.Store.LoadMetadata(taskID)
	if err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}
	if !designIsApproved(meta) {
		return fmt.Errorf("task %s has no approved design\n"+
			"Run 'plangate review %s --design-only' first", taskID, taskID)
	}

	p, err := gate.Store.Load(taskID)
	if err != nil {
		return fmt.Errorf("failed to load approved plan: %w", err)
	}
	if _, err := gate.Store.Save(taskID, p, map[string]any{
		"workflow_mode": "implement_only",
	}); err != nil {
		return fmt.Errorf("failed to save review outcome: %w", err)
	}
	fmt.Fprintf(out, "✅ Using approved design for %s. Skipping review.\n", taskID)
	return nil
}

func designIsApproved(meta map[string]any) bool {
	if status, _ := meta["status"].(string); status != StatusDesignApproved {
		return false
	}
	design, ok := meta["design"].(map[string]any)
	if !ok {
		return false
	}
	status, _ := design["status"].(string)
	return status == designApproved
}

// outFile returns w as a file when it is one, for pagers that need a tty
func outFile(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return os.Stdout
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "user"
}
