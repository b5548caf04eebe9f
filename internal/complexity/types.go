package complexity

import (
	"fmt"
	"strings"
	"time"
)

// ReviewMode is the level of human review a plan receives
type ReviewMode string

const (
	ModeAutoProceed   ReviewMode = "auto_proceed"
	ModeQuickOptional ReviewMode = "quick_optional"
	ModeFullRequired  ReviewMode = "full_required"
)

// Score thresholds for routing
const (
	AutoProceedMax   = 3
	QuickOptionalMax = 6

	MinTotal     = 1
	MaxTotal     = 10
	DefaultTotal = 5
)

// Trigger is a condition that forces full review regardless of score
type Trigger string

const (
	TriggerUserFlag        Trigger = "user_flag"
	TriggerSecurity        Trigger = "security_keywords"
	TriggerBreakingChanges Trigger = "breaking_changes"
	TriggerSchemaChanges   Trigger = "schema_changes"
	TriggerHotfix          Trigger = "hotfix"
	TriggerProtectedPaths  Trigger = "protected_paths"
)

// Title renders the trigger for humans ("security_keywords" -> "Security Keywords")
func (t Trigger) Title() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FactorScore is the output of a single factor evaluation
type FactorScore struct {
	Name          string         `yaml:"name" json:"name"`
	Score         int            `yaml:"score" json:"score"`
	MaxScore      int            `yaml:"max_score" json:"max_score"`
	Justification string         `yaml:"justification" json:"justification"`
	Details       map[string]any `yaml:"details,omitempty" json:"details,omitempty"`
}

// Normalized returns score/max_score, or 0 when max_score is 0
func (f FactorScore) Normalized() float64 {
	if f.MaxScore <= 0 {
		return 0
	}
	return float64(f.Score) / float64(f.MaxScore)
}

// Score is the aggregated complexity of a plan.
// Mode is always DetermineMode(Total, Triggers).
type Score struct {
	Total      int            `yaml:"total_score" json:"total_score"`
	Factors    []FactorScore  `yaml:"factor_scores" json:"factor_scores"`
	Triggers   []Trigger      `yaml:"forced_review_triggers,omitempty" json:"forced_review_triggers,omitempty"`
	Mode       ReviewMode     `yaml:"review_mode" json:"review_mode"`
	ComputedAt time.Time      `yaml:"computed_at" json:"computed_at"`
	Metadata   map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewScore builds a Score and derives its review mode
func NewScore(total int, factors []FactorScore, triggers []Trigger) *Score {
	return &Score{
		Total:      total,
		Factors:    factors,
		Triggers:   triggers,
		Mode:       DetermineMode(total, triggers),
		ComputedAt: time.Now(),
		Metadata:   map[string]any{},
	}
}

// FailSafeScore returns the maximum-scrutiny score used when scoring fails
func FailSafeScore(err error) *Score {
	s := NewScore(MaxTotal, nil, nil)
	s.Mode = ModeFullRequired
	s.Metadata["failsafe"] = true
	s.Metadata["error"] = err.Error()
	s.Metadata["reason"] = "Calculation error - defaulting to maximum review"
	return s
}

// IsFailSafe reports whether the score was produced by the fail-safe path
func (s *Score) IsFailSafe() bool {
	v, ok := s.Metadata["failsafe"].(bool)
	return ok && v
}

// HasTriggers reports whether any forced-review trigger fired
func (s *Score) HasTriggers() bool {
	return len(s.Triggers) > 0
}

// Error returns the error recorded by the fail-safe path, if any
func (s *Score) Error() string {
	v, _ := s.Metadata["error"].(string)
	return v
}

// Factor returns the named factor score
func (s *Score) Factor(name string) (FactorScore, bool) {
	for _, f := range s.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return FactorScore{}, false
}

// Thresholds are the inclusive upper score bounds of the two lower modes
type Thresholds struct {
	AutoProceedMax   int
	QuickOptionalMax int
}

// DefaultThresholds returns the standard 1-3 / 4-6 / 7-10 bands
func DefaultThresholds() Thresholds {
	return Thresholds{AutoProceedMax: AutoProceedMax, QuickOptionalMax: QuickOptionalMax}
}

// Mode maps a total score and triggers to a review mode. Any trigger
// forces full review.
func (t Thresholds) Mode(total int, triggers []Trigger) ReviewMode {
	if len(triggers) > 0 {
		return ModeFullRequired
	}
	switch {
	case total <= t.AutoProceedMax:
		return ModeAutoProceed
	case total <= t.QuickOptionalMax:
		return ModeQuickOptional
	default:
		return ModeFullRequired
	}
}

// DetermineMode maps a total score and triggers to a review mode using
// the default thresholds
func DetermineMode(total int, triggers []Trigger) ReviewMode {
	return DefaultThresholds().Mode(total, triggers)
}

// Aggregate sums factor scores, caps at MaxTotal and floors at MinTotal.
// An empty slice yields DefaultTotal.
func Aggregate(factors []FactorScore) int {
	if len(factors) == 0 {
		return DefaultTotal
	}
	sum := 0
	for _, f := range factors {
		sum += f.Score
	}
	if sum > MaxTotal {
		sum = MaxTotal
	}
	if sum < MinTotal {
		sum = MinTotal
	}
	return sum
}

// FormatCompact renders a one-line summary for logs and task metadata
func FormatCompact(s *Score) string {
	var trig string
	if len(s.Triggers) > 0 {
		names := make([]string, len(s.Triggers))
		for i, t := range s.Triggers {
			names[i] = string(t)
		}
		trig = ", triggers: " + strings.Join(names, ", ")
	}

	parts := make([]string, len(s.Factors))
	for i, f := range s.Factors {
		parts[i] = fmt.Sprintf("%s=%d/%d", f.Name, f.Score, f.MaxScore)
	}

	return fmt.Sprintf("Complexity: %d/10 (%s)%s | Factors: %s",
		s.Total, s.Mode, trig, strings.Join(parts, ", "))
}

// UserFlags are the review-related command line flags
type UserFlags struct {
	ForceReview bool
	SkipReview  bool
	AutoProceed bool
	Hotfix      bool
}

// EvaluationContext carries everything a factor or trigger may inspect
// besides the plan itself.
type EvaluationContext struct {
	TaskID    string
	TechStack string
	Metadata  map[string]string
	UserFlags UserFlags
}
