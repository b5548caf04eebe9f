package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in a review's lifecycle
type Event struct {
	// ID is a ULID assigned by the bus on emit
	ID string `json:"id"`

	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Task is the task ID this event relates to
	Task string `json:"task,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Review lifecycle events
const (
	// ReviewStarted is emitted before a plan is scored
	// Payload: source (string)
	ReviewStarted EventType = "review.started"

	// ReviewRouted is emitted once a decision exists
	// Payload: score (int), mode (string), target (string), triggers ([]string)
	ReviewRouted EventType = "review.routed"

	// ReviewApproved is emitted on manual approval or auto-approval
	// Payload: mode (string), auto (bool), score (int)
	ReviewApproved EventType = "review.approved"

	// ReviewEscalated is emitted when a quick review escalates to full
	ReviewEscalated EventType = "review.escalated"

	// ReviewCancelled is emitted when the operator cancels
	// Payload: reason (string), forced (bool)
	ReviewCancelled EventType = "review.cancelled"

	// ReviewModified is emitted when modifications are applied
	// Payload: changes (int), version (int), score (int)
	ReviewModified EventType = "review.modified"

	// ReviewFailSafe is emitted when scoring or routing fell back to full review
	ReviewFailSafe EventType = "review.failsafe"
)

// Version and Q&A events
const (
	// VersionCreated payload: version (int), reason (string)
	VersionCreated EventType = "version.created"

	// QACompleted payload: questions (int), exit_reason (string)
	QACompleted EventType = "qa.completed"
)

// NewEvent creates an event with the given type and task
func NewEvent(eventType EventType, task string) Event {
	return Event{
		Type: eventType,
		Task: task,
	}
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true for fail-safe events and events carrying an error
func (e Event) IsFailure() bool {
	return e.Type == ReviewFailSafe || e.Error != ""
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Task != "" {
		parts = append(parts, e.Task)
	}

	if e.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%q", e.Error))
	}

	return strings.Join(parts, " ")
}
