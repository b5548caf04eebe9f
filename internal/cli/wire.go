package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/config"
	"github.com/RevCBH/plangate/internal/escalate"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/metrics"
	"github.com/RevCBH/plangate/internal/router"
	"github.com/RevCBH/plangate/internal/store"
	"github.com/RevCBH/plangate/internal/version"
)

// Gate holds all wired components of one plangate invocation
type Gate struct {
	Config  *config.Config
	Logger  *slog.Logger
	Events  *events.Bus
	Scorer  *complexity.Scorer
	Router  *router.Router
	Store   *store.Store
	Metrics *metrics.Recorder
}

// WireOptions selects the optional event consumers
type WireOptions struct {
	JSON   bool
	Stdout io.Writer
	Stderr io.Writer
}

// WireGate assembles the scoring, routing and persistence components
func WireGate(cfg *config.Config, logger *slog.Logger, opts WireOptions) (*Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Event bus first; everything else publishes to it
	bus := events.NewBus(logger)
	bus.Subscribe(events.LogHandler(logger))
	if opts.JSON {
		bus.Subscribe(events.JSONEmitterHandler(events.NewJSONEmitter(opts.Stdout), logger))
	}
	if esc := escalate.FromConfig(cfg.Escalation, opts.Stderr); esc != nil {
		bus.Subscribe(events.Filter(escalate.Handler(esc, logger),
			events.ReviewCancelled, events.ReviewFailSafe))
	}

	thresholds := complexity.Thresholds{
		AutoProceedMax:   cfg.Review.AutoProceedMax,
		QuickOptionalMax: cfg.Review.QuickMax,
	}

	factors := complexity.DefaultFactors()
	if cfg.Scoring.DependencyFactor {
		factors = append(factors, complexity.DependencyComplexity{})
	}
	scorer := complexity.NewScorer(factors,
		complexity.WithTriggerDetector(complexity.NewTriggerDetector(complexity.TriggerConfig{
			ProtectedPaths:        cfg.Triggers.ProtectedPaths,
			ExtraSecurityKeywords: cfg.Triggers.SecurityKeywords,
			ExtraSchemaKeywords:   cfg.Triggers.SchemaKeywords,
		})),
		complexity.WithThresholds(thresholds),
		complexity.WithLogger(logger),
	)

	sink, err := metrics.FromConfig(cfg.Metrics)
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
		sink = metrics.Nop{}
	}

	return &Gate{
		Config:  cfg,
		Logger:  logger,
		Events:  bus,
		Scorer:  scorer,
		Router:  router.New(logger, router.WithThresholds(thresholds)),
		Store:   store.New(cfg.StateDir),
		Metrics: metrics.NewRecorder(sink, logger),
	}, nil
}

// Versions opens the version history of one task
func (g *Gate) Versions(taskID string) (*version.Manager, error) {
	mgr, err := version.NewManager(taskID, version.NewFileStore(g.Store.VersionsDir(taskID)), g.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open versions of %s: %w", taskID, err)
	}
	return mgr, nil
}

// Close releases the metrics sink
func (g *Gate) Close() {
	if g.Metrics != nil {
		g.Metrics.Close()
	}
}
