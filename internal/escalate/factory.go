package escalate

import (
	"io"

	"github.com/RevCBH/plangate/internal/config"
)

// FromConfig creates an Escalator from configuration. With no backend
// configured it returns nil and callers skip escalation.
func FromConfig(cfg config.EscalationConfig, stderr io.Writer) Escalator {
	var escalators []Escalator

	if cfg.Terminal {
		escalators = append(escalators, NewTerminal(stderr))
	}
	if cfg.WebhookURL != "" {
		escalators = append(escalators, NewWebhook(cfg.WebhookURL))
	}
	if cfg.SlackWebhook != "" {
		escalators = append(escalators, NewSlack(cfg.SlackWebhook))
	}

	switch len(escalators) {
	case 0:
		return nil
	case 1:
		return escalators[0]
	default:
		return NewMulti(escalators...)
	}
}
