package review

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for review screens
type Styles struct {
	// Header styling
	Title     lipgloss.Style
	Separator lipgloss.Style
	Section   lipgloss.Style

	// Score badges
	BadgeGood    lipgloss.Style
	BadgeFair    lipgloss.Style
	BadgeBad     lipgloss.Style
	ScoreDetails lipgloss.Style

	// Severity colors for factors and risks
	SeverityHigh   lipgloss.Style
	SeverityMedium lipgloss.Style
	SeverityLow    lipgloss.Style

	// Feedback lines
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	// Footer styling
	Footer    lipgloss.Style
	FooterKey lipgloss.Style
}

// DefaultStyles returns the default review styles
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Section:   lipgloss.NewStyle().Bold(true),

		BadgeGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		BadgeFair:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		BadgeBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		ScoreDetails: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),

		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// PlainStyles renders everything without decoration
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Separator: plain, Section: plain,
		BadgeGood: plain, BadgeFair: plain, BadgeBad: plain, ScoreDetails: plain,
		SeverityHigh: plain, SeverityMedium: plain, SeverityLow: plain,
		Success: plain, Warning: plain, Error: plain, Muted: plain,
		Footer: plain, FooterKey: plain,
	}
}

// Icons used on review screens
const (
	IconHigh      = "🔴"
	IconMedium    = "🟡"
	IconLow       = "🟢"
	IconApproved  = "✅"
	IconCancelled = "❌"
	IconWarning   = "⚠️"
	IconEscalated = "⬆️"
	IconTrigger   = "⚡"
)

// severity picks the style for a normalized factor score
func (s Styles) severity(ratio float64) (string, lipgloss.Style) {
	switch {
	case ratio >= 0.9:
		return IconHigh, s.SeverityHigh
	case ratio >= 0.5:
		return IconMedium, s.SeverityMedium
	default:
		return IconLow, s.SeverityLow
	}
}
