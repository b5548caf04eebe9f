package metrics

import (
	"fmt"

	"github.com/RevCBH/plangate/internal/config"
)

// FromConfig builds the configured sink. Disabled metrics yield Nop.
func FromConfig(cfg config.MetricsConfig) (Sink, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	var sinks Multi
	if cfg.SQLitePath != "" {
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open metrics db: %w", err)
		}
		sinks = append(sinks, db)
	}
	if cfg.PrometheusTextfile != "" {
		sinks = append(sinks, NewPromSink(cfg.PrometheusTextfile))
	}

	switch len(sinks) {
	case 0:
		return Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
