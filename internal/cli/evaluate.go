package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/metrics"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/router"
)

// EvaluateOptions holds flags for the evaluate command
type EvaluateOptions struct {
	Flags       ReviewFlags
	Parallelism int // Max plans scored at once (default: 4)
}

// Validate checks EvaluateOptions for validity
func (opts EvaluateOptions) Validate() error {
	if opts.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be greater than 0, got %d", opts.Parallelism)
	}
	return nil
}

// NewEvaluateCmd creates the evaluate command
func NewEvaluateCmd(app *App) *cobra.Command {
	opts := EvaluateOptions{Parallelism: 4}

	cmd := &cobra.Command{
		Use:   "evaluate <task|plan.md>...",
		Short: "Score and route plans without reviewing them",
		Long: `Evaluate scores each plan and prints the routing decision without starting
an interactive review. Arguments are task IDs in the state directory or
paths to markdown plans.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			if err := opts.Flags.Validate(app.stderr); err != nil {
				return err
			}
			return app.Evaluate(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Flags.Review, "review", false, "Force full review for every plan")
	cmd.Flags().BoolVar(&opts.Flags.SkipReview, "skip-review", false, "Report plans that would skip review")
	cmd.Flags().BoolVar(&opts.Flags.Hotfix, "hotfix", false, "Treat the plans as hotfixes")
	cmd.Flags().IntVarP(&opts.Parallelism, "parallelism", "p", 4, "Max plans scored concurrently")

	return cmd
}

// Evaluation is the routing result of one plan
type Evaluation struct {
	TaskID   string
	Plan     *plan.Plan
	Decision router.Decision
	Err      error
}

// Evaluate scores the given plans concurrently and prints each decision in
// argument order. Plans that fail to load are reported and make the
// command fail once all others are done.
func (a *App) Evaluate(ctx context.Context, refs []string, opts EvaluateOptions) error {
	if ctx == nil {
		ctx = context.Background()
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

	results := make([]Evaluation, len(refs))
	sem := semaphore.NewWeighted(int64(opts.Parallelism))
	var wg sync.WaitGroup
	for i, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return fmt.Errorf("evaluation interrupted: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = gate.evaluate(ctx, ref, opts.Flags)
		}()
	}
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.stderr, "❌ %s: %v\n", res.TaskID, res.Err)
			errs = append(errs, res.Err)
			continue
		}
		if jsonMode {
			continue
		}
		fmt.Fprintf(a.stdout, "\n%s\n", res.Decision.Summary)
		if opts.Flags.SkipReview && res.Decision.Mode() != complexity.ModeAutoProceed {
			fmt.Fprintln(a.stdout, skipReviewNote(res.Decision))
		}
	}
	return errors.Join(errs...)
}

// evaluate loads, scores and routes one plan, publishing lifecycle events
func (g *Gate) evaluate(ctx context.Context, ref string, flags ReviewFlags) Evaluation {
	p, err := g.loadPlan(ref)
	if err != nil {
		return Evaluation{TaskID: ref, Err: err}
	}
	res := Evaluation{TaskID: p.TaskID, Plan: p}

	ec := complexity.EvaluationContext{
		TaskID:    p.TaskID,
		Metadata:  p.Metadata,
		UserFlags: flags.UserFlags(),
	}
	res.Decision = g.route(ctx, p, ec, ref)

	g.Metrics.Record(ctx, metrics.Record{
		Task:     p.TaskID,
		Mode:     string(res.Decision.Mode()),
		Score:    scoreTotal(res.Decision),
		Forced:   forced(res.Decision),
		FailSafe: res.Decision.IsFailSafe(),
		Outcome:  metrics.OutcomeEvaluated,
	})
	return res
}

// route scores and routes p, publishing started, routed and fail-safe events
func (g *Gate) route(ctx context.Context, p *plan.Plan, ec complexity.EvaluationContext, source string) router.Decision {
	g.Events.Emit(events.NewEvent(events.ReviewStarted, p.TaskID).WithPayload(map[string]any{
		"source": source,
	}))

	score, _ := g.Scorer.Calculate(ctx, p, ec)
	d := g.Router.Route(score, ec)

	var triggers []string
	if d.Score != nil {
		for _, t := range d.Score.Triggers {
			triggers = append(triggers, string(t))
		}
	}
	g.Events.Emit(events.NewEvent(events.ReviewRouted, p.TaskID).WithPayload(map[string]any{
		"score":    scoreTotal(d),
		"mode":     string(d.Mode()),
		"target":   d.Target,
		"triggers": triggers,
	}))
	if d.IsFailSafe() {
		g.Events.Emit(events.NewEvent(events.ReviewFailSafe, p.TaskID).WithError(errors.New(d.Error)))
	}
	return d
}

// loadPlan reads a markdown plan file, or the stored plan of a task ID
func (g *Gate) loadPlan(ref string) (*plan.Plan, error) {
	if isPlanFile(ref) {
		p, err := plan.LoadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to import plan: %w", err)
		}
		return p, nil
	}
	p, err := g.Store.Load(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return p, nil
}

func isPlanFile(ref string) bool {
	ext := strings.ToLower(filepath.Ext(ref))
	if ext != ".md" && ext != ".markdown" && ext != ".yaml" && ext != ".yml" {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

func skipReviewNote(d router.Decision) string {
	switch {
	case d.IsFailSafe():
		return "⚠️  --skip-review ignored: scoring failed, a full review is required."
	case forced(d):
		return "⚠️  --skip-review ignored: a forced-review trigger fired."
	case d.Mode() == complexity.ModeFullRequired:
		return "⚠️  --skip-review ignored: the score requires a full review."
	default:
		return "ℹ️  --skip-review: the optional checkpoint would be skipped."
	}
}

func scoreTotal(d router.Decision) int {
	if d.Score == nil {
		return 0
	}
	return d.Score.Total
}

func forced(d router.Decision) bool {
	return d.Score != nil && d.Score.HasTriggers()
}
