package router

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/RevCBH/plangate/internal/complexity"
)

// criticalRatio is the fraction of a factor's max at which it is flagged
const criticalRatio = 0.7

// Formatter renders routing summaries with severity colors
type Formatter struct {
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	bold   func(a ...interface{}) string
}

// NewFormatter creates a formatter. Colors are disabled automatically when
// stdout is not a terminal.
func NewFormatter() *Formatter {
	return &Formatter{
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		red:    color.New(color.FgRed, color.Bold).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
}

func isCritical(f complexity.FactorScore) bool {
	return float64(f.Score) >= float64(f.MaxScore)*criticalRatio
}

func factorLine(icon string, f complexity.FactorScore) string {
	return fmt.Sprintf("  %s %s: %d/%d - %s", icon, f.Name, f.Score, f.MaxScore, f.Justification)
}

// AutoProceedSummary renders the summary for low-complexity plans
func (f *Formatter) AutoProceedSummary(s *complexity.Score, taskID string) string {
	lines := []string{
		f.green(fmt.Sprintf("✅ Complexity Evaluation - %s", taskID)),
		"",
		fmt.Sprintf("Score: %d/10 (Low Complexity - Auto-Proceed)", s.Total),
		"",
		f.bold("Factor Breakdown:"),
	}
	for _, fs := range s.Factors {
		lines = append(lines, factorLine("•", fs))
	}
	lines = append(lines,
		"",
		f.green("✅ AUTO-PROCEEDING to Phase 3 (Implementation)"),
		"   No human review required for this simple task.",
	)
	return strings.Join(lines, "\n")
}

// QuickOptionalSummary renders the summary for the optional checkpoint
func (f *Formatter) QuickOptionalSummary(s *complexity.Score, taskID string) string {
	lines := []string{
		f.yellow(fmt.Sprintf("⚠️  Complexity Evaluation - %s", taskID)),
		"",
		fmt.Sprintf("Score: %d/10 (Moderate Complexity - Optional Review)", s.Total),
		"",
		f.bold("Factor Breakdown:"),
	}
	for _, fs := range s.Factors {
		icon := "•"
		if isCritical(fs) {
			icon = "⚠️"
		}
		lines = append(lines, factorLine(icon, fs))
	}
	lines = append(lines,
		"",
		f.yellow("⚠️  OPTIONAL CHECKPOINT"),
		"   You may review the plan before proceeding, but it's not required.",
		"   [Enter] to review in detail | [c] to cancel | wait to auto-approve",
	)
	return strings.Join(lines, "\n")
}

// FullRequiredSummary renders the summary for the mandatory checkpoint
func (f *Formatter) FullRequiredSummary(s *complexity.Score, taskID string) string {
	lines := []string{
		f.red(fmt.Sprintf("🔴 Complexity Evaluation - %s", taskID)),
		"",
		fmt.Sprintf("Score: %d/10 (High Complexity - REVIEW REQUIRED)", s.Total),
		"",
	}

	if len(s.Triggers) > 0 {
		lines = append(lines, f.bold("Force-Review Triggers:"))
		for _, t := range s.Triggers {
			lines = append(lines, "  🔴 "+t.Title())
		}
		lines = append(lines, "")
	}

	lines = append(lines, f.bold("Factor Breakdown:"))
	for _, fs := range s.Factors {
		icon := "⚠️"
		if isCritical(fs) {
			icon = "🔴"
		}
		lines = append(lines, factorLine(icon, fs))
	}
	lines = append(lines,
		"",
		f.red("🔴 MANDATORY CHECKPOINT - Phase 2.6 Required"),
		"   This task requires human review before implementation.",
		"   Proceeding to Phase 2.6 human checkpoint...",
	)
	return strings.Join(lines, "\n")
}

// FailSafeSummary renders the summary used when evaluation failed
func (f *Formatter) FailSafeSummary(taskID string, err error) string {
	lines := []string{
		f.red(fmt.Sprintf("⚠️  Complexity Evaluation Error - %s", taskID)),
		"",
		"An error occurred during complexity evaluation:",
		err.Error(),
		"",
		"Defaulting to FULL REVIEW REQUIRED for safety.",
		"Please review the implementation plan before proceeding.",
	}
	return strings.Join(lines, "\n")
}
