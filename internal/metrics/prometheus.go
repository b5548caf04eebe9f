package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink keeps Prometheus collectors for the decisions of this process
// and rewrites a node-exporter textfile after every record.
type PromSink struct {
	mu       sync.Mutex
	path     string
	registry *prometheus.Registry

	decisions *prometheus.CounterVec
	overrides prometheus.Counter
	scores    prometheus.Histogram
	durations prometheus.Histogram
}

// NewPromSink creates a sink that writes the textfile at path
func NewPromSink(path string) *PromSink {
	s := &PromSink{
		path:     path,
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plangate",
			Name:      "review_decisions_total",
			Help:      "Review decisions by mode and outcome.",
		}, []string{"mode", "outcome", "forced"}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plangate",
			Name:      "review_human_overrides_total",
			Help:      "Decisions where a human changed the automatic outcome.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plangate",
			Name:      "complexity_score",
			Help:      "Distribution of complexity scores.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plangate",
			Name:      "review_duration_seconds",
			Help:      "Time operators spent in review sessions.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
	}
	s.registry.MustRegister(s.decisions, s.overrides, s.scores, s.durations)
	return s
}

// Record updates the collectors and rewrites the textfile
func (s *PromSink) Record(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions.WithLabelValues(r.Mode, string(r.Outcome), fmt.Sprint(r.Forced)).Inc()
	if r.HumanOverride {
		s.overrides.Inc()
	}
	s.scores.Observe(float64(r.Score))
	s.durations.Observe(r.Duration.Seconds())

	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return fmt.Errorf("write prometheus textfile: %w", err)
	}
	return nil
}

// Close is a no-op; the textfile is already current
func (s *PromSink) Close() error {
	return nil
}
