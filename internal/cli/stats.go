package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RevCBH/plangate/internal/metrics"
)

// StatsOptions holds flags for the stats command
type StatsOptions struct {
	Task  string
	Limit int
}

// NewStatsCmd creates the stats command
func NewStatsCmd(app *App) *cobra.Command {
	opts := StatsOptions{Limit: 10}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded review decisions",
		Long: `Stats summarizes the review decisions recorded in the metrics database:
counts and averages per review mode, followed by the most recent decisions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit <= 0 {
				return fmt.Errorf("limit must be greater than 0, got %d", opts.Limit)
			}
			return app.Stats(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Task, "task", "", "Only show decisions for this task")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Number of recent decisions to show")

	return cmd
}

// Stats prints per-mode aggregates and recent decisions
func (a *App) Stats(cmd *cobra.Command, opts StatsOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Metrics.Enabled {
		return fmt.Errorf("metrics are disabled; set metrics.enabled in .plangate.yaml")
	}

	db, err := metrics.OpenSQLite(cfg.Metrics.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	stats, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	recent, err := db.Recent(ctx, opts.Task, opts.Limit)
	if err != nil {
		return err
	}

	return writeStats(a.stdout, stats, recent, opts.Task)
}

func writeStats(out io.Writer, stats []metrics.ModeStats, recent []metrics.Record, task string) error {
	rule := strings.Repeat("═", 64)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Review Decisions")
	fmt.Fprintln(out, rule)

	if len(stats) == 0 {
		fmt.Fprintln(out, "No decisions recorded yet")
		return nil
	}

	total := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tCOUNT\tAVG SCORE\tFORCED\tOVERRIDES\tAVG TIME")
	for _, s := range stats {
		total += s.Count
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t%d\t%.0fs\n",
			s.Mode, s.Count, s.AvgScore, s.Forced, s.Overrides, s.AvgDurationSec)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %d decisions\n", total)

	fmt.Fprintln(out)
	if task != "" {
		fmt.Fprintf(out, "Recent decisions for %s\n", task)
	} else {
		fmt.Fprintln(out, "Recent decisions")
	}
	fmt.Fprintln(out, strings.Repeat("─", 64))
	if len(recent) == 0 {
		fmt.Fprintln(out, "None")
		return nil
	}

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTASK\tMODE\tSCORE\tOUTCOME\tFLAGS")
	for _, r := range recent {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.At.Local().Format("2006-01-02 15:04"), r.Task, r.Mode, r.Score, r.Outcome, recordFlags(r))
	}
	return w.Flush()
}

func recordFlags(r metrics.Record) string {
	var flags []string
	if r.Forced {
		flags = append(flags, "forced")
	}
	if r.FailSafe {
		flags = append(flags, "failsafe")
	}
	if r.HumanOverride {
		flags = append(flags, "override")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
