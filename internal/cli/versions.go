package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/review"
	"github.com/RevCBH/plangate/internal/version"
)

// NewVersionsCmd creates the versions command and its subcommands
func NewVersionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect and manage plan versions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <task>",
			Short: "List all versions of a task's plan",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withVersions(args[0], func(_ *Gate, m *version.Manager) error {
					return writeHistory(app.stdout, m)
				})
			},
		},
		&cobra.Command{
			Use:   "show <task> <version>",
			Short: "Show one version of a plan",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseVersion(args[1])
				if err != nil {
					return err
				}
				return app.withVersions(args[0], func(_ *Gate, m *version.Manager) error {
					v, err := m.Get(n)
					if err != nil {
						return err
					}
					fmt.Fprintf(app.stdout, "Version %d of %s\n", v.Number, m.TaskID())
					fmt.Fprintf(app.stdout, "Created: %s by %s\n", v.CreatedAt.Format(time.RFC3339), v.CreatedBy)
					fmt.Fprintf(app.stdout, "Reason:  %s\n\n", v.Reason)
					fmt.Fprintln(app.stdout, review.FormatPlan(v.Plan, nil))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "compare <task> <from> <to>",
			Short: "Show what changed between two versions",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parseVersion(args[1])
				if err != nil {
					return err
				}
				to, err := parseVersion(args[2])
				if err != nil {
					return err
				}
				return app.withVersions(args[0], func(_ *Gate, m *version.Manager) error {
					c, err := m.Compare(from, to)
					if err != nil {
						return err
					}
					fmt.Fprint(app.stdout, c.String())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rollback <task> <version>",
			Short: "Restore an earlier version as the current plan",
			Long: `Rollback copies an earlier version into a new version and makes it the
task's current plan. History is never rewritten.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseVersion(args[1])
				if err != nil {
					return err
				}
				return app.withVersions(args[0], func(g *Gate, m *version.Manager) error {
					v, err := m.Rollback(n, currentUser())
					if err != nil {
						return err
					}
					if _, err := g.Store.Save(m.TaskID(), v.Plan, nil); err != nil {
						return fmt.Errorf("failed to save restored plan: %w", err)
					}
					g.Events.Emit(events.NewEvent(events.VersionCreated, m.TaskID()).WithPayload(map[string]any{
						"version": v.Number,
						"reason":  v.Reason,
					}))
					fmt.Fprintf(app.stdout, "✅ Restored version %d as version %d\n", n, v.Number)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <task> <version>",
			Short: "Delete one version",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseVersion(args[1])
				if err != nil {
					return err
				}
				return app.withVersions(args[0], func(_ *Gate, m *version.Manager) error {
					if err := m.Delete(n); err != nil {
						return err
					}
					fmt.Fprintf(app.stdout, "🗑️  Deleted version %d\n", n)
					return nil
				})
			},
		},
	)

	return cmd
}

// withVersions wires the gate and opens the task's version history for fn
func (a *App) withVersions(taskID string, fn func(*Gate, *version.Manager) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	gate, err := WireGate(cfg, a.newLogger(cfg), WireOptions{Stdout: a.stdout, Stderr: a.stderr})
	if err != nil {
		return err
	}
	defer gate.Close()

	m, err := gate.Versions(taskID)
	if err != nil {
		return err
	}
	return fn(gate, m)
}

func writeHistory(out io.Writer, m *version.Manager) error {
	history := m.History()
	if len(history) == 0 {
		fmt.Fprintf(out, "No versions recorded for %s\n", m.TaskID())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCREATED\tBY\tFILES\tDEPS\tREASON")
	for _, v := range history {
		fmt.Fprintf(w, "v%d\t%s\t%s\t%d\t%d\t%s\n",
			v.Number,
			v.CreatedAt.Local().Format("2006-01-02 15:04"),
			v.CreatedBy,
			v.Metadata.FileCount,
			v.Metadata.DependencyCount,
			v.Reason,
		)
	}
	return w.Flush()
}

func parseVersion(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version %q: must be a positive number", s)
	}
	return n, nil
}
