package escalate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RevCBH/plangate/internal/events"
)

// DefaultTimeout bounds one escalation fan-out
const DefaultTimeout = 10 * time.Second

// FromEvent maps a review event to an escalation. Only fail-safe and
// cancellation events escalate.
func FromEvent(e events.Event) (Escalation, bool) {
	ctx := map[string]string{}
	if p, ok := e.Payload.(map[string]any); ok {
		for k, v := range p {
			ctx[k] = fmt.Sprint(v)
		}
	}
	if e.Error != "" {
		ctx["error"] = e.Error
	}

	switch e.Type {
	case events.ReviewFailSafe:
		return Escalation{
			Severity: SeverityCritical,
			Task:     e.Task,
			Title:    "Complexity evaluation failed",
			Message:  "Scoring could not complete; the plan was routed to a required review.",
			Context:  ctx,
		}, true
	case events.ReviewCancelled:
		return Escalation{
			Severity: SeverityWarning,
			Task:     e.Task,
			Title:    "Plan review cancelled",
			Message:  "The task was returned to the backlog for revision.",
			Context:  ctx,
		}, true
	default:
		return Escalation{}, false
	}
}

// Handler returns an event handler that forwards escalating events to esc.
// Failures are logged, never returned.
func Handler(esc Escalator, logger *slog.Logger) events.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e events.Event) {
		escalation, ok := FromEvent(e)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		if err := esc.Escalate(ctx, escalation); err != nil {
			logger.Warn("escalation failed", "backend", esc.Name(), "task", e.Task, "error", err)
		}
	}
}
