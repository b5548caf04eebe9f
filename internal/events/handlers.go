package events

import (
	"log/slog"
)

// LogHandler returns a handler that logs every event. Failures are logged
// at warn, everything else at debug.
func LogHandler(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e Event) {
		attrs := []any{"type", e.Type, "task", e.Task, "id", e.ID}
		if p, ok := e.Payload.(map[string]any); ok {
			for k, v := range p {
				attrs = append(attrs, k, v)
			}
		}
		if e.IsFailure() {
			logger.Warn("review event", append(attrs, "error", e.Error)...)
			return
		}
		logger.Debug("review event", attrs...)
	}
}

// Filter wraps h so it only sees events of the given types
func Filter(h Handler, types ...EventType) Handler {
	want := make(map[EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	return func(e Event) {
		if want[e.Type] {
			h(e)
		}
	}
}
