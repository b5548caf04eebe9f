package complexity

import (
	"context"
	"fmt"
	"strings"

	"github.com/RevCBH/plangate/internal/plan"
)

// Factor scores one dimension of plan complexity.
// Implementations must be stateless and safe to reuse across plans.
type Factor interface {
	// Name identifies the factor in breakdowns and logs
	Name() string

	// MaxScore is the largest score Evaluate can return
	MaxScore() int

	// Evaluate scores the plan. A returned error omits the factor from
	// the total rather than counting it as zero.
	Evaluate(ctx context.Context, p *plan.Plan, ec EvaluationContext) (FactorScore, error)
}

// Factor names
const (
	FactorFileComplexity       = "file_complexity"
	FactorPatternFamiliarity   = "pattern_familiarity"
	FactorRiskLevel            = "risk_level"
	FactorDependencyComplexity = "dependency_complexity"
)

// DefaultFactors returns the standard factor set: file complexity,
// pattern familiarity and risk level.
func DefaultFactors() []Factor {
	return []Factor{
		FileComplexity{},
		PatternFamiliarity{},
		RiskLevel{},
	}
}

// FileComplexity scores the number of files a plan touches (0-3)
type FileComplexity struct{}

func (FileComplexity) Name() string  { return FactorFileComplexity }
func (FileComplexity) MaxScore() int { return 3 }

func (f FileComplexity) Evaluate(_ context.Context, p *plan.Plan, _ EvaluationContext) (FactorScore, error) {
	n := p.FileCount()

	var score int
	var justification string
	switch {
	case n <= 2:
		score = 0
		justification = fmt.Sprintf("Simple change (%d files) - minimal complexity", n)
	case n <= 5:
		score = 1
		justification = fmt.Sprintf("Moderate change (%d files) - multi-file coordination", n)
	case n <= 8:
		score = 2
		justification = fmt.Sprintf("Complex change (%d files) - multiple components", n)
	default:
		score = 3
		justification = fmt.Sprintf("Very complex change (%d files) - cross-cutting concerns", n)
	}

	return FactorScore{
		Name:          f.Name(),
		Score:         score,
		MaxScore:      f.MaxScore(),
		Justification: justification,
		Details:       map[string]any{"file_count": n},
	}, nil
}

// Pattern vocabularies, matched as substrings of lowercased pattern names
var (
	simplePatterns   = []string{"repository", "factory", "singleton", "adapter"}
	moderatePatterns = []string{"strategy", "observer", "decorator", "command", "chain"}
	advancedPatterns = []string{"saga", "cqrs", "event sourcing", "mediator", "specification"}
)

// PatternFamiliarity scores how unusual the plan's design patterns are (0-2)
type PatternFamiliarity struct{}

func (PatternFamiliarity) Name() string  { return FactorPatternFamiliarity }
func (PatternFamiliarity) MaxScore() int { return 2 }

func (f PatternFamiliarity) Evaluate(_ context.Context, p *plan.Plan, _ EvaluationContext) (FactorScore, error) {
	patterns := make([]string, len(p.Patterns))
	for i, pat := range p.Patterns {
		patterns[i] = strings.ToLower(pat)
	}

	advanced := filterPatterns(patterns, advancedPatterns)
	moderate := filterPatterns(patterns, moderatePatterns)

	var score int
	var justification, category string
	switch {
	case len(advanced) > 0:
		score = 2
		category = "advanced"
		justification = fmt.Sprintf("Advanced patterns detected: %s - high complexity", strings.Join(advanced, ", "))
	case len(moderate) > 0:
		score = 1
		category = "moderate"
		justification = fmt.Sprintf("Moderate patterns: %s - familiar complexity", strings.Join(moderate, ", "))
	case len(patterns) > 0:
		category = "simple"
		justification = fmt.Sprintf("Simple patterns: %s - low complexity", strings.Join(patterns, ", "))
	default:
		category = "none"
		justification = "No specific patterns mentioned - straightforward implementation"
	}

	return FactorScore{
		Name:          f.Name(),
		Score:         score,
		MaxScore:      f.MaxScore(),
		Justification: justification,
		Details: map[string]any{
			"pattern_category": category,
			"patterns":         patterns,
			"known_simple":     filterPatterns(patterns, simplePatterns),
		},
	}, nil
}

func filterPatterns(patterns, vocabulary []string) []string {
	var out []string
	for _, p := range patterns {
		for _, v := range vocabulary {
			if strings.Contains(p, v) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Risk keyword categories
var riskCategories = []struct {
	name     string
	keywords []string
}{
	{"security", []string{
		"authentication", "authorization", "auth", "security", "permission",
		"password", "token", "jwt", "oauth", "encryption", "crypto", "signing",
	}},
	{"data_integrity", []string{
		"migration", "schema", "alter table", "create table", "drop table",
		"database", "transaction", "acid", "consistency",
	}},
	{"external_integration", []string{
		"api", "external", "third-party", "integration", "webhook",
		"http client", "rest", "graphql", "grpc",
	}},
	{"performance", []string{
		"performance", "optimization", "caching", "scaling", "load",
		"throughput", "latency", "real-time", "streaming",
	}},
}

// RiskLevel scores how many risk categories the plan text touches (0-3)
type RiskLevel struct{}

func (RiskLevel) Name() string  { return FactorRiskLevel }
func (RiskLevel) MaxScore() int { return 3 }

func (f RiskLevel) Evaluate(_ context.Context, p *plan.Plan, _ EvaluationContext) (FactorScore, error) {
	text := p.Text()

	details := map[string]any{}
	var hit []string
	for _, cat := range riskCategories {
		n := len(plan.MatchKeywords(text, cat.keywords))
		details[cat.name+"_indicators"] = n
		if n > 0 {
			hit = append(hit, fmt.Sprintf("%s (%d indicators)", cat.name, n))
		}
	}
	count := len(hit)

	var score int
	var level, justification string
	switch {
	case count == 0:
		level = "low"
		justification = "No significant risk indicators - low risk"
	case count <= 2:
		score = 1
		level = "moderate"
		justification = fmt.Sprintf("Moderate risk (%d risk categories) - standard caution", count)
	case count <= 4:
		score = 2
		level = "high"
		justification = fmt.Sprintf("High risk (%d risk categories) - careful review needed", count)
	default:
		score = 3
		level = "critical"
		justification = fmt.Sprintf("Critical risk (%d+ risk categories) - comprehensive review required", count)
	}

	details["risk_level"] = level
	details["risk_count"] = count
	details["risk_categories"] = hit

	return FactorScore{
		Name:          f.Name(),
		Score:         score,
		MaxScore:      f.MaxScore(),
		Justification: justification,
		Details:       details,
	}, nil
}

// DependencyComplexity scores the number of external dependencies (0-2).
// It is not part of DefaultFactors and must be enabled explicitly.
type DependencyComplexity struct{}

func (DependencyComplexity) Name() string  { return FactorDependencyComplexity }
func (DependencyComplexity) MaxScore() int { return 2 }

func (f DependencyComplexity) Evaluate(_ context.Context, p *plan.Plan, _ EvaluationContext) (FactorScore, error) {
	n := p.DependencyCount()

	var score int
	var justification string
	switch {
	case n == 0:
		justification = "No external dependencies"
	case n <= 3:
		score = 1
		justification = fmt.Sprintf("%d external dependencies - manageable integration", n)
	default:
		score = 2
		justification = fmt.Sprintf("%d external dependencies - significant integration surface", n)
	}

	return FactorScore{
		Name:          f.Name(),
		Score:         score,
		MaxScore:      f.MaxScore(),
		Justification: justification,
		Details:       map[string]any{"dependency_count": n},
	}, nil
}
