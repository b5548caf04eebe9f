package review

import (
	"fmt"
	"io"
	"strings"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/plan"
)

const (
	cardWidth        = 60
	instructionLimit = 200
	cardPatterns     = 3
	cardWarnings     = 2
	checkpointFiles  = 10
	checkpointDeps   = 5
	warningRatio     = 0.7
)

// ClampWidth bounds a terminal width to the checkpoint range. Zero (unknown)
// yields 80.
func ClampWidth(w int) int {
	switch {
	case w <= 0:
		return 80
	case w < 70:
		return 70
	case w > 120:
		return 120
	default:
		return w
	}
}

// DisplayScore converts a 1-10 total to the 0-100 badge scale
func DisplayScore(s *complexity.Score) int {
	return s.Total * 10
}

// Badge returns the quick review score badge text
func Badge(s *complexity.Score) string {
	score := DisplayScore(s)
	var label string
	switch {
	case score >= 80:
		label = "Excellent"
	case score >= 60:
		label = "Acceptable"
	default:
		label = "Needs Revision"
	}
	return fmt.Sprintf("[SCORE: %d/100 - %s]", score, label)
}

func (s Styles) badge(score *complexity.Score) string {
	text := Badge(score)
	switch d := DisplayScore(score); {
	case d >= 80:
		return s.BadgeGood.Render(text)
	case d >= 60:
		return s.BadgeFair.Render(text)
	default:
		return s.BadgeBad.Render(text)
	}
}

// FileSummary is the "N files (M lines)" line of the quick card
func FileSummary(p *plan.Plan) string {
	if p.EstimatedLOC > 0 {
		return fmt.Sprintf("%d files (%d lines)", p.FileCount(), p.EstimatedLOC)
	}
	return fmt.Sprintf("%d files", p.FileCount())
}

// TruncateInstructions shortens instructions for the quick card
func TruncateInstructions(s string) string {
	r := []rune(s)
	if len(r) <= instructionLimit {
		return s
	}
	return string(r[:instructionLimit-3]) + "..."
}

// cardPatternList prefers the patterns the scorer recognised
func cardPatternList(p *plan.Plan, s *complexity.Score) []string {
	patterns := p.Patterns
	if f, ok := s.Factor(complexity.FactorPatternFamiliarity); ok {
		if detected, ok := f.Details["patterns"].([]string); ok && len(detected) > 0 {
			patterns = detected
		}
	}
	if len(patterns) > cardPatterns {
		patterns = patterns[:cardPatterns]
	}
	return patterns
}

// ScoreWarnings lists factors at or above 70% of their maximum and any
// omitted factors
func ScoreWarnings(s *complexity.Score) []string {
	var warnings []string
	for _, f := range s.Factors {
		if f.MaxScore > 0 && f.Normalized() >= warningRatio {
			warnings = append(warnings, fmt.Sprintf("%s: %s", f.Name, f.Justification))
		}
	}
	if n, ok := s.Metadata["omitted_factors"].(int); ok && n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d scoring factor(s) could not be evaluated", n))
	}
	return warnings
}

func renderQuickCard(w io.Writer, p *plan.Plan, s *complexity.Score, st Styles) {
	rule := st.Separator.Render(strings.Repeat("=", cardWidth))

	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, st.Title.Render("ARCHITECTURAL REVIEW - QUICK MODE"), rule)
	fmt.Fprintf(w, "\nComplexity Score: %s\n", st.badge(s))
	fmt.Fprintf(w, "Files to Create: %s\n", FileSummary(p))

	instructions := p.Instructions
	if instructions == "" {
		instructions = p.RawPlan
	}
	if instructions != "" {
		fmt.Fprintf(w, "\nInstructions: %s\n", TruncateInstructions(instructions))
	}

	if patterns := cardPatternList(p, s); len(patterns) > 0 {
		fmt.Fprintf(w, "\nKey Patterns: %s\n", strings.Join(patterns, ", "))
	}

	if warnings := ScoreWarnings(s); len(warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Warning.Render(fmt.Sprintf("Warnings: %d issue(s) detected", len(warnings))))
		for i, warn := range warnings {
			if i == cardWarnings {
				break
			}
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}

	fmt.Fprintf(w, "\n%s\n", rule)
}

func scoreIndicator(total int) string {
	switch {
	case total >= 7:
		return IconHigh
	case total >= 4:
		return IconMedium
	default:
		return IconLow
	}
}

func riskIcon(severity string) string {
	switch strings.ToLower(severity) {
	case "high", "critical":
		return IconHigh
	case "medium":
		return IconMedium
	default:
		return IconLow
	}
}

func planTitle(p *plan.Plan) string {
	if t := p.Metadata["title"]; t != "" {
		return t
	}
	return "No title"
}

// checkpoint renders the full review screen
type checkpoint struct {
	w         io.Writer
	plan      *plan.Plan
	score     *complexity.Score
	escalated bool
	width     int
	styles    Styles
}

func (c checkpoint) render() {
	rule := c.styles.Separator.Render(strings.Repeat("=", c.width))
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", rule, c.styles.Title.Render("IMPLEMENTATION PLAN REVIEW"), rule)

	c.header()
	c.breakdown()
	c.changes()
	c.risks()
	c.order()

	fmt.Fprintf(c.w, "\n%s\n", rule)
	c.options()
}

func (c checkpoint) header() {
	fmt.Fprintf(c.w, "\nTask: %s - %s\n", c.plan.TaskID, planTitle(c.plan))
	fmt.Fprintf(c.w, "Complexity: %s %d/10\n", scoreIndicator(c.score.Total), c.score.Total)
	if c.escalated {
		fmt.Fprintf(c.w, "%s Escalated from quick review\n", IconEscalated)
	}
	fmt.Fprintf(c.w, "Estimated Time: ~%s\n", orDefault(c.plan.EstimatedDuration, "Not estimated"))
}

func (c checkpoint) breakdown() {
	fmt.Fprintf(c.w, "\n%s\n", c.styles.Section.Render("📊 COMPLEXITY BREAKDOWN:"))
	for _, f := range c.score.Factors {
		icon, style := c.styles.severity(f.Normalized())
		fmt.Fprintf(c.w, "\n  %s %s\n", icon, style.Render(fmt.Sprintf("%s: %d/%d points", f.Name, f.Score, f.MaxScore)))
		fmt.Fprintf(c.w, "     → %s\n", f.Justification)
	}
	if c.score.IsFailSafe() {
		fmt.Fprintf(c.w, "\n  %s\n", c.styles.Error.Render("Scoring failed: "+c.score.Error()))
	}
	if len(c.score.Triggers) > 0 {
		fmt.Fprintf(c.w, "\n  %s FORCE-REVIEW TRIGGERS:\n", IconTrigger)
		for _, t := range c.score.Triggers {
			fmt.Fprintf(c.w, "     - %s\n", t.Title())
		}
	}
}

func (c checkpoint) changes() {
	fmt.Fprintf(c.w, "\n%s\n", c.styles.Section.Render("📁 CHANGES SUMMARY:"))

	n := c.plan.FileCount()
	fmt.Fprintf(c.w, "\n  Files to Create/Modify: %d\n", n)
	for i, f := range c.plan.Files {
		if i == checkpointFiles {
			fmt.Fprintf(c.w, "    ... and %d more\n", n-checkpointFiles)
			break
		}
		fmt.Fprintf(c.w, "    - %s\n", f)
	}

	if deps := c.plan.Dependencies; len(deps) > 0 {
		fmt.Fprintf(c.w, "\n  External Dependencies: %d\n", len(deps))
		for i, d := range deps {
			if i == checkpointDeps {
				break
			}
			fmt.Fprintf(c.w, "    - %s\n", d)
		}
	}

	if c.plan.TestSummary != "" {
		fmt.Fprintf(c.w, "\n  Test Strategy:\n    %s\n", c.plan.TestSummary)
	}
}

func (c checkpoint) risks() {
	fmt.Fprintf(c.w, "\n%s\n", c.styles.Section.Render(IconWarning+" RISK ASSESSMENT:"))
	switch {
	case len(c.plan.RiskDetails) > 0:
		for _, r := range c.plan.RiskDetails {
			severity := strings.ToLower(orDefault(r.Severity, "unknown"))
			fmt.Fprintf(c.w, "\n  %s %s: %s\n", riskIcon(severity), strings.ToUpper(severity), orDefault(r.Description, "No description"))
			fmt.Fprintf(c.w, "     Mitigation: %s\n", orDefault(r.Mitigation, "No mitigation specified"))
		}
	case len(c.plan.RiskIndicators) > 0:
		fmt.Fprintln(c.w, "\n  Risk Indicators Detected:")
		for _, r := range c.plan.RiskIndicators {
			fmt.Fprintf(c.w, "    - %s\n", r)
		}
	default:
		fmt.Fprintln(c.w, "\n  No specific risks identified")
	}
}

func (c checkpoint) order() {
	fmt.Fprintf(c.w, "\n%s\n", c.styles.Section.Render("📋 IMPLEMENTATION ORDER:"))
	if len(c.plan.Phases) == 0 {
		fmt.Fprintln(c.w, "\n  Implementation phases not detailed in plan")
	}
	for i, ph := range c.plan.Phases {
		fmt.Fprintf(c.w, "\n  %d. %s\n", i+1, ph)
	}
	if c.plan.EstimatedLOC > 0 {
		fmt.Fprintf(c.w, "\n  Estimated Lines of Code: ~%d\n", c.plan.EstimatedLOC)
	}
}

func (c checkpoint) options() {
	fmt.Fprintln(c.w, "\nDECISION OPTIONS:")
	fmt.Fprintf(c.w, "  %s Approve  - Proceed with this plan as-is\n", c.styles.FooterKey.Render("[A]"))
	fmt.Fprintf(c.w, "  %s Modify   - Interactively edit the plan\n", c.styles.FooterKey.Render("[M]"))
	fmt.Fprintf(c.w, "  %s View     - See full implementation plan in pager\n", c.styles.FooterKey.Render("[V]"))
	fmt.Fprintf(c.w, "  %s Question - Ask questions about the plan\n", c.styles.FooterKey.Render("[Q]"))
	fmt.Fprintf(c.w, "  %s Cancel   - Return task to backlog\n", c.styles.FooterKey.Render("[C]"))
	fmt.Fprintln(c.w)
}
