package complexity

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/RevCBH/plangate/internal/plan"
)

// TriggerConfig extends the built-in trigger vocabularies
type TriggerConfig struct {
	// ProtectedPaths are doublestar globs; any plan file matching one
	// forces full review
	ProtectedPaths []string

	// ExtraSecurityKeywords are appended to plan.SecurityKeywords
	ExtraSecurityKeywords []string

	// ExtraSchemaKeywords are appended to plan.SchemaKeywords
	ExtraSchemaKeywords []string
}

// TriggerCheck reports whether one forced-review condition holds
type TriggerCheck struct {
	Trigger Trigger
	Check   func(p *plan.Plan, ec EvaluationContext) bool
}

// TriggerDetector evaluates forced-review conditions. It holds no state
// between calls.
type TriggerDetector struct {
	checks []TriggerCheck
}

// NewTriggerDetector builds the standard checks from cfg
func NewTriggerDetector(cfg TriggerConfig) *TriggerDetector {
	security := append(append([]string{}, plan.SecurityKeywords...), lower(cfg.ExtraSecurityKeywords)...)
	schema := append(append([]string{}, plan.SchemaKeywords...), lower(cfg.ExtraSchemaKeywords)...)
	protected := append([]string{}, cfg.ProtectedPaths...)

	return &TriggerDetector{
		checks: []TriggerCheck{
			{TriggerUserFlag, func(_ *plan.Plan, ec EvaluationContext) bool {
				return ec.UserFlags.ForceReview
			}},
			{TriggerSecurity, func(p *plan.Plan, _ EvaluationContext) bool {
				return plan.ContainsAny(p.Text(), security)
			}},
			{TriggerSchemaChanges, func(p *plan.Plan, _ EvaluationContext) bool {
				return plan.ContainsAny(p.Text(), schema)
			}},
			{TriggerHotfix, isHotfix},
			{TriggerBreakingChanges, func(p *plan.Plan, _ EvaluationContext) bool {
				return plan.ContainsAny(p.Text(), plan.BreakingChangeKeywords)
			}},
			{TriggerProtectedPaths, func(p *plan.Plan, _ EvaluationContext) bool {
				return len(MatchProtected(p.Files, protected)) > 0
			}},
		},
	}
}

// WithCheck returns a detector with an additional check appended
func (d *TriggerDetector) WithCheck(c TriggerCheck) *TriggerDetector {
	checks := make([]TriggerCheck, len(d.checks), len(d.checks)+1)
	copy(checks, d.checks)
	return &TriggerDetector{checks: append(checks, c)}
}

// Detect returns every trigger that fired, in check order, without duplicates
func (d *TriggerDetector) Detect(p *plan.Plan, ec EvaluationContext) []Trigger {
	var fired []Trigger
	seen := map[Trigger]bool{}
	for _, c := range d.checks {
		if seen[c.Trigger] {
			continue
		}
		if c.Check(p, ec) {
			fired = append(fired, c.Trigger)
			seen[c.Trigger] = true
		}
	}
	return fired
}

func isHotfix(p *plan.Plan, ec EvaluationContext) bool {
	if ec.UserFlags.Hotfix {
		return true
	}
	if v, ok := ec.Metadata["is_hotfix"]; ok && isTruthy(v) {
		return true
	}
	if v, ok := p.Metadata["is_hotfix"]; ok && isTruthy(v) {
		return true
	}
	return p.HasTag("hotfix")
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// MatchProtected returns the files matching any of the globs.
// Invalid patterns never match.
func MatchProtected(files, globs []string) []string {
	var matched []string
	for _, f := range files {
		for _, g := range globs {
			if ok, err := doublestar.Match(g, f); err == nil && ok {
				matched = append(matched, f)
				break
			}
		}
	}
	return matched
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
