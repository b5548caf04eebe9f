package escalate

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Terminal writes escalations to a writer (usually stderr) with visual
// severity indicators
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a terminal escalator writing to out
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Escalate writes the escalation
func (t *Terminal) Escalate(ctx context.Context, e Escalation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := ""
	switch e.Severity {
	case SeverityCritical:
		prefix = "🚨 "
	case SeverityWarning:
		prefix = "⚠️  "
	default:
		prefix = "ℹ️  "
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n%s[%s] %s\n", prefix, e.Severity, e.Title)
	fmt.Fprintf(t.out, "   Task: %s\n", e.Task)
	if e.Message != "" {
		fmt.Fprintf(t.out, "   %s\n", e.Message)
	}
	for _, k := range e.contextKeys() {
		fmt.Fprintf(t.out, "   %s: %s\n", k, e.Context[k])
	}

	return nil
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}
