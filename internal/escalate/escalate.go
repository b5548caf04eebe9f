package escalate

import (
	"context"
	"sort"
)

// Severity indicates how urgent the escalation is
type Severity string

const (
	SeverityInfo     Severity = "info"     // FYI, no action needed
	SeverityWarning  Severity = "warning"  // May need attention
	SeverityCritical Severity = "critical" // Requires immediate action
)

// Escalation represents a review outcome someone outside the terminal
// session should hear about
type Escalation struct {
	Severity Severity          // How urgent is this?
	Task     string            // Which task is affected
	Title    string            // Short summary (one line)
	Message  string            // Detailed explanation
	Context  map[string]string // Additional context (score, reason, error)
}

// contextKeys returns the context keys in stable order
func (e Escalation) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Escalator is the interface for notifying users
type Escalator interface {
	// Escalate sends a notification to the user.
	// Returns nil if notification was sent successfully.
	// Implementations should respect context cancellation.
	Escalate(ctx context.Context, e Escalation) error

	// Name returns the escalator type for logging
	Name() string
}
