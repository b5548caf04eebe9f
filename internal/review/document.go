package review

import (
	"fmt"
	"strings"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/plan"
)

const documentWidth = 70

// FormatPlan renders the complete plan as plain text for the pager
func FormatPlan(p *plan.Plan, score *complexity.Score) string {
	rule := strings.Repeat("=", documentWidth)
	thin := strings.Repeat("-", documentWidth)

	var lines []string
	add := func(s ...string) { lines = append(lines, s...) }

	add(rule, "IMPLEMENTATION PLAN: "+p.TaskID, rule, "")

	if score != nil {
		add(fmt.Sprintf("Complexity Score: %d/10", score.Total))
		add(fmt.Sprintf("Review Mode: %s", score.Mode), "")
	}

	if len(p.Files) > 0 {
		add("FILES TO CREATE/MODIFY:", thin)
		for _, f := range p.Files {
			add("  - " + f)
		}
		add("")
	}

	if len(p.Dependencies) > 0 {
		add("EXTERNAL DEPENDENCIES:", thin)
		for _, d := range p.Dependencies {
			add("  - " + d)
		}
		add("")
	}

	if len(p.Phases) > 0 {
		add("IMPLEMENTATION PHASES:", thin)
		for i, ph := range p.Phases {
			add(fmt.Sprintf("  %d. %s", i+1, ph))
		}
		add("")
	}

	if len(p.RiskDetails) > 0 {
		add("RISK ASSESSMENT:", thin)
		for _, r := range p.RiskDetails {
			add(fmt.Sprintf("  [%s] %s", strings.ToUpper(orDefault(r.Severity, "unknown")), orDefault(r.Description, "No description")))
			add("    Mitigation: "+orDefault(r.Mitigation, "No mitigation"), "")
		}
	}

	if p.TestSummary != "" {
		add("TEST STRATEGY:", thin, "  "+p.TestSummary, "")
	}

	add("DETAILED IMPLEMENTATION PLAN:", thin)
	if strings.TrimSpace(p.RawPlan) == "" {
		add("[No detailed implementation plan provided]")
	} else {
		add(p.RawPlan)
	}
	add("", rule)

	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
