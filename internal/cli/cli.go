package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RevCBH/plangate/internal/config"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/review"
)

// VersionInfo holds build metadata set through ldflags
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App represents the CLI application with all wired dependencies
type App struct {
	// Root command
	rootCmd *cobra.Command

	// Global flags
	verbose    bool
	jsonOutput bool
	repoRoot   string

	// Terminal streams; tests replace them
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	// terminal, when set, replaces the interactive terminal for reviews
	terminal *review.Terminal

	// jsonMode decides whether events are written as JSON lines
	jsonMode func(force bool) bool

	// Version information
	versionInfo VersionInfo
}

// New creates a new CLI application
func New() *App {
	app := &App{
		repoRoot: ".",
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		jsonMode: events.IsJSONMode,
	}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetArgs overrides the command line, for tests
func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

// SetOutput redirects standard and error output
func (a *App) SetOutput(stdout, stderr io.Writer) {
	a.stdout = stdout
	a.stderr = stderr
	a.rootCmd.SetOut(stdout)
	a.rootCmd.SetErr(stderr)
}

// SetTerminal replaces the interactive terminal used by review
func (a *App) SetTerminal(t review.Terminal) {
	a.terminal = &t
}

// SetVersion sets the version string for the version command
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// setupRootCmd configures the root Cobra command
func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "plangate",
		Short: "Complexity-gated review for implementation plans",
		Long: `plangate scores implementation plans for complexity and routes each one
to the right amount of human review: auto-proceed, a timed quick review,
or a full interactive checkpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Verbose output (debug logging)")
	a.rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false,
		"Emit lifecycle events as JSON lines on stdout")
	a.rootCmd.PersistentFlags().StringVar(&a.repoRoot, "repo", ".",
		"Repository root holding .plangate.yaml")

	a.rootCmd.AddCommand(
		NewEvaluateCmd(a),
		NewReviewCmd(a),
		NewVersionsCmd(a),
		NewStatsCmd(a),
		NewVersionCmd(a),
	)
}

// loadConfig reads configuration from the repository root
func (a *App) loadConfig() (*config.Config, error) {
	root, err := filepath.Abs(a.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the text logger on stderr. --verbose forces debug.
func (a *App) newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}
