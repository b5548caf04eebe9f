package complexity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RevCBH/plangate/internal/plan"
)

// FactorResult records what happened to one factor during a calculation.
// Exactly one of Score or OmittedReason is set.
type FactorResult struct {
	Factor        string
	Score         *FactorScore
	OmittedReason string
}

// Omitted reports whether the factor was left out of the total
func (r FactorResult) Omitted() bool {
	return r.Score == nil
}

// Scorer runs a fixed set of factors and the trigger detector against plans
type Scorer struct {
	factors    []Factor
	triggers   *TriggerDetector
	thresholds Thresholds
	logger     *slog.Logger
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithTriggerDetector replaces the default trigger detector
func WithTriggerDetector(d *TriggerDetector) ScorerOption {
	return func(s *Scorer) {
		s.triggers = d
	}
}

// WithThresholds overrides the score bands used to pick a review mode
func WithThresholds(t Thresholds) ScorerOption {
	return func(s *Scorer) {
		s.thresholds = t
	}
}

// WithLogger sets the logger used for omitted factors and fail-safe scores
func WithLogger(l *slog.Logger) ScorerOption {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScorer creates a scorer over the given factors. Pass DefaultFactors()
// for the standard set.
func NewScorer(factors []Factor, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		factors:    factors,
		triggers:   NewTriggerDetector(TriggerConfig{}),
		thresholds: DefaultThresholds(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factors returns the configured factors
func (s *Scorer) Factors() []Factor {
	out := make([]Factor, len(s.factors))
	copy(out, s.factors)
	return out
}

// Calculate scores the plan. It never returns an error: any failure outside
// an individual factor produces the fail-safe score (10, full_required).
func (s *Scorer) Calculate(ctx context.Context, p *plan.Plan, ec EvaluationContext) (score *Score, results []FactorResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during complexity calculation: %v", r)
			s.logger.Warn("complexity calculation failed, using fail-safe score",
				"task", ec.TaskID, "error", err)
			score = FailSafeScore(err)
		}
	}()

	if p == nil {
		err := fmt.Errorf("no implementation plan to score")
		s.logger.Warn("complexity calculation failed, using fail-safe score",
			"task", ec.TaskID, "error", err)
		return FailSafeScore(err), nil
	}
	if err := ctx.Err(); err != nil {
		return FailSafeScore(err), nil
	}

	var factorScores []FactorScore
	for _, f := range s.factors {
		res := s.evaluate(ctx, f, p, ec)
		results = append(results, res)
		if res.Score != nil {
			factorScores = append(factorScores, *res.Score)
		}
	}

	triggers := s.triggers.Detect(p, ec)
	score = NewScore(Aggregate(factorScores), factorScores, triggers)
	score.Mode = s.thresholds.Mode(score.Total, triggers)
	score.Metadata["factor_count"] = len(factorScores)
	if omitted := len(results) - len(factorScores); omitted > 0 {
		score.Metadata["omitted_factors"] = omitted
	}

	s.logger.Debug("complexity calculated",
		"task", ec.TaskID, "total", score.Total, "mode", score.Mode,
		"triggers", len(triggers))

	return score, results
}

func (s *Scorer) evaluate(ctx context.Context, f Factor, p *plan.Plan, ec EvaluationContext) (res FactorResult) {
	res.Factor = f.Name()

	// A panicking factor is isolated like an erroring one
	defer func() {
		if r := recover(); r != nil {
			res.Score = nil
			res.OmittedReason = fmt.Sprintf("panic: %v", r)
			s.logger.Warn("factor omitted", "factor", f.Name(), "reason", res.OmittedReason)
		}
	}()

	fs, err := f.Evaluate(ctx, p, ec)
	if err != nil {
		res.OmittedReason = err.Error()
		s.logger.Warn("factor omitted", "factor", f.Name(), "reason", res.OmittedReason)
		return res
	}
	if fs.Score < 0 || fs.Score > fs.MaxScore {
		res.OmittedReason = fmt.Sprintf("score %d outside [0,%d]", fs.Score, fs.MaxScore)
		s.logger.Warn("factor omitted", "factor", f.Name(), "reason", res.OmittedReason)
		return res
	}
	res.Score = &fs
	return res
}
