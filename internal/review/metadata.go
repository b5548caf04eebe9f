package review

import (
	"time"

	"github.com/RevCBH/plangate/internal/complexity"
)

// Quick review actions recorded as review_action
const (
	ActionAutoApproved    = "auto_approved"
	ActionEscalatedToFull = "escalated_to_full"
	ActionCancelled       = "cancelled"
)

// Task statuses written with the review outcome
const (
	StatusBacklog  = "backlog"
	StatusApproved = "approved"
)

// Keys owned by each outcome. Settle clears the other outcome's keys.
var (
	cancellationKeys = []string{"cancelled", "cancelled_at", "cancellation_reason", "cancellation_timestamp"}
	approvalKeys     = []string{"auto_approved", "implementation_plan", "review_timestamp"}
)

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// AutoProceedMetadata records a plan that needed no review
func AutoProceedMetadata(s *complexity.Score, at time.Time) map[string]any {
	return map[string]any{
		"review_mode":        string(complexity.ModeAutoProceed),
		"review_action":      ActionAutoApproved,
		"review_timestamp":   timestamp(at),
		"complexity_score":   s.Total,
		"complexity_summary": complexity.FormatCompact(s),
		"auto_approved":      true,
	}
}

// QuickMetadata records the outcome of a quick review
func QuickMetadata(action string, s *complexity.Score, at time.Time) map[string]any {
	m := map[string]any{
		"review_mode":   "quick_review",
		"review_action": action,
		"auto_approved": action == ActionAutoApproved,
	}
	switch action {
	case ActionAutoApproved:
		m["review_timestamp"] = timestamp(at)
		m["complexity_score"] = DisplayScore(s)
		m["complexity_summary"] = complexity.FormatCompact(s)
	case ActionEscalatedToFull:
		m["escalation_timestamp"] = timestamp(at)
	case ActionCancelled:
		m["cancellation_timestamp"] = timestamp(at)
		m["cancellation_reason"] = "user_requested"
	}
	return m
}

// ApprovalMetadata records a manual approval in full review
func ApprovalMetadata(s *complexity.Score, escalated bool, author string, d time.Duration, at time.Time) map[string]any {
	mode := string(complexity.ModeFullRequired)
	if escalated {
		mode = "escalated"
	}
	return map[string]any{
		"implementation_plan": map[string]any{
			"approved":                true,
			"approved_by":             author,
			"approved_at":             timestamp(at),
			"review_mode":             mode,
			"review_duration_seconds": int(d.Seconds()),
			"complexity_score":        s.Total,
		},
		"complexity_summary": complexity.FormatCompact(s),
	}
}

// CancellationMetadata records a cancelled full review
func CancellationMetadata(forced bool, at time.Time) map[string]any {
	reason := "user_requested"
	if forced {
		reason = "interrupted"
	}
	return map[string]any{
		"status":              StatusBacklog,
		"cancelled":           true,
		"cancelled_at":        timestamp(at),
		"cancellation_reason": reason,
	}
}

// Settle returns a copy of meta that leaves exactly one disposition in the
// stored metadata. An approval sets status approved and clears earlier
// cancellation keys; a cancellation clears earlier approval keys. Cleared
// keys are nil, which store.Save deletes.
func Settle(meta map[string]any, approved bool) map[string]any {
	out := mergeMetadata(nil, meta)
	stale := approvalKeys
	if approved {
		stale = cancellationKeys
		if _, ok := out["status"]; !ok {
			out["status"] = StatusApproved
		}
	}
	for _, k := range stale {
		if _, ok := out[k]; !ok {
			out[k] = nil
		}
	}
	return out
}

func mergeMetadata(dst map[string]any, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
