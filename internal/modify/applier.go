package modify

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/RevCBH/plangate/internal/plan"
)

// Applier replays tracked changes onto a plan
type Applier struct {
	logger *slog.Logger
}

// NewApplier creates an applier; a nil logger uses slog.Default()
func NewApplier(logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{logger: logger}
}

// Apply returns a modified deep copy of original. The original is never
// touched. Changes are replayed in recorded order; unknown kinds are skipped.
func (a *Applier) Apply(original *plan.Plan, t *Tracker) *plan.Plan {
	p := original.Clone()
	if p == nil {
		p = &plan.Plan{}
	}
	for _, c := range t.Changes() {
		a.apply(p, c)
	}
	return p
}

func (a *Applier) apply(p *plan.Plan, c Change) {
	switch c.Kind {
	case KindFileAdded:
		if !slices.Contains(p.Files, c.Target) {
			p.Files = append(p.Files, c.Target)
		}
	case KindFileRemoved:
		p.Files = removeFirst(p.Files, c.Target)
	case KindFileModified:
		// File list is unchanged; the description lives in the change log

	case KindDependencyAdded:
		if !slices.Contains(p.Dependencies, c.Target) {
			p.Dependencies = append(p.Dependencies, c.Target)
		}
	case KindDependencyRemoved:
		p.Dependencies = removeFirst(p.Dependencies, c.Target)

	case KindPhaseAdded:
		if c.Position >= 0 && c.Position <= len(p.Phases) {
			p.Phases = slices.Insert(p.Phases, c.Position, c.Target)
		} else {
			p.Phases = append(p.Phases, c.Target)
		}
	case KindPhaseRemoved:
		if c.Position >= 0 && c.Position < len(p.Phases) && p.Phases[c.Position] == c.Target {
			p.Phases = slices.Delete(p.Phases, c.Position, c.Position+1)
			return
		}
		p.Phases = removeFirst(p.Phases, c.Target)
	case KindPhaseReordered:
		i := slices.Index(p.Phases, c.Target)
		if i < 0 {
			a.logger.Debug("skipping reorder of missing phase", "phase", c.Target)
			return
		}
		p.Phases = slices.Delete(p.Phases, i, i+1)
		to := min(c.Position, len(p.Phases))
		p.Phases = slices.Insert(p.Phases, to, c.Target)

	case KindRiskAdded:
		if c.Risk != nil {
			p.RiskDetails = append(p.RiskDetails, *c.Risk)
		}
	case KindRiskModified:
		if c.Risk == nil {
			return
		}
		for i := range p.RiskDetails {
			if p.RiskDetails[i].Description == c.Target {
				p.RiskDetails[i] = *c.Risk
				break
			}
		}
	case KindRiskRemoved:
		i := slices.IndexFunc(p.RiskDetails, func(r plan.RiskDetail) bool {
			return r.Description == c.Target
		})
		if i >= 0 {
			p.RiskDetails = slices.Delete(p.RiskDetails, i, i+1)
		}

	case KindMetadataUpdated:
		a.applyField(p, c)

	default:
		a.logger.Warn("skipping unknown change kind", "kind", c.Kind, "target", c.Target)
	}
}

func (a *Applier) applyField(p *plan.Plan, c Change) {
	switch c.Target {
	case FieldEstimatedLOC:
		n, err := strconv.Atoi(c.NewValue)
		if err != nil {
			a.logger.Warn("skipping invalid estimated_loc", "value", c.NewValue)
			return
		}
		p.EstimatedLOC = n
	case FieldEstimatedDuration:
		p.EstimatedDuration = c.NewValue
	case FieldTestSummary:
		p.TestSummary = c.NewValue
	case FieldRawPlan:
		p.RawPlan = c.NewValue
	case FieldInstructions:
		p.Instructions = c.NewValue
	default:
		a.logger.Warn("skipping unknown metadata field", "field", c.Target)
	}
}

// Validate returns readable conflicts in the tracked changes. An empty
// result means Apply is safe.
func (a *Applier) Validate(t *Tracker, original *plan.Plan) []string {
	var issues []string

	added := map[string]bool{}
	addedDeps := map[string]bool{}
	for _, c := range t.ByKind(KindFileAdded) {
		added[c.Target] = true
	}
	for _, c := range t.ByKind(KindDependencyAdded) {
		addedDeps[c.Target] = true
	}

	reported := map[string]bool{}
	for _, c := range t.ByKind(KindFileRemoved) {
		switch {
		case added[c.Target]:
			if !reported["file:"+c.Target] {
				reported["file:"+c.Target] = true
				issues = append(issues, fmt.Sprintf("Conflicting operations on file: %s (both added and removed)", c.Target))
			}
		case original == nil || !original.HasFile(c.Target):
			issues = append(issues, fmt.Sprintf("Cannot remove file not in plan: %s", c.Target))
		}
	}

	for _, c := range t.ByKind(KindDependencyRemoved) {
		switch {
		case addedDeps[c.Target]:
			if !reported["dep:"+c.Target] {
				reported["dep:"+c.Target] = true
				issues = append(issues, fmt.Sprintf("Conflicting operations on dependency: %s (both added and removed)", c.Target))
			}
		case original == nil || !original.HasDependency(c.Target):
			issues = append(issues, fmt.Sprintf("Cannot remove dependency not in plan: %s", c.Target))
		}
	}

	return issues
}

func removeFirst(items []string, target string) []string {
	i := slices.Index(items, target)
	if i < 0 {
		return items
	}
	return slices.Delete(items, i, i+1)
}
