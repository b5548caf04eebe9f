package escalate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack posts escalations to a Slack incoming-webhook URL
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack escalator with default HTTP client
func NewSlack(webhookURL string) *Slack {
	return NewSlackWithClient(webhookURL, &http.Client{Timeout: 10 * time.Second})
}

// NewSlackWithClient creates a Slack escalator with custom HTTP client
func NewSlackWithClient(webhookURL string, client *http.Client) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     client,
	}
}

var slackEmoji = map[Severity]string{
	SeverityInfo:     ":information_source:",
	SeverityWarning:  ":warning:",
	SeverityCritical: ":rotating_light:",
}

// Escalate posts the escalation to Slack as a section block plus a
// context block for the key/value details
func (s *Slack) Escalate(ctx context.Context, e Escalation) error {
	blocks := []map[string]any{
		{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*%s*\n%s", e.Title, e.Message),
			},
		},
	}

	if keys := e.contextKeys(); len(keys) > 0 {
		fields := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*%s:* %s", k, e.Context[k]),
			})
		}
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": fields,
		})
	}

	body, err := json.Marshal(map[string]any{
		"text":   fmt.Sprintf("%s *[%s]* %s", slackEmoji[e.Severity], e.Task, e.Title),
		"blocks": blocks,
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	return post(ctx, s.client, s.webhookURL, body, "slack webhook")
}

// Name returns "slack"
func (s *Slack) Name() string {
	return "slack"
}
