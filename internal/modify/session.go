package modify

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrSessionNotActive is returned when a session operation needs an active session
var ErrSessionNotActive = errors.New("modification session is not active")

// SessionState is the lifecycle state of a modification session
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateActive    SessionState = "active"
	StateCompleted SessionState = "completed"
	StateCancelled SessionState = "cancelled"
	StateError     SessionState = "error"
)

// ValidTransitions defines allowed session state transitions
var ValidTransitions = map[SessionState][]SessionState{
	StateIdle:      {StateActive},
	StateActive:    {StateCompleted, StateCancelled, StateError},
	StateCompleted: {},
	StateCancelled: {},
	StateError:     {},
}

// CanTransition checks if a state transition is valid
func CanTransition(from, to SessionState) bool {
	for _, valid := range ValidTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no transition leaves the state
func (s SessionState) IsTerminal() bool {
	targets, ok := ValidTransitions[s]
	return ok && len(targets) == 0
}

// Session owns one Tracker for the span of a modify sub-loop
type Session struct {
	ID        string       `yaml:"id"`
	TaskID    string       `yaml:"task_id"`
	State     SessionState `yaml:"state"`
	StartedAt time.Time    `yaml:"started_at,omitempty"`
	EndedAt   time.Time    `yaml:"ended_at,omitempty"`
	Saved     bool         `yaml:"saved"`

	CancelReason string `yaml:"cancel_reason,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`

	Changes []Change `yaml:"changes"`

	tracker *Tracker
	now     func() time.Time
}

// NewSession creates an idle session for taskID
func NewSession(taskID string) *Session {
	s := &Session{
		ID:     ulid.Make().String(),
		TaskID: taskID,
		State:  StateIdle,
		now:    time.Now,
	}
	s.tracker = NewTracker()
	s.tracker.guard = s.requireActive
	return s
}

// Tracker returns the session's change log. Recording through it fails with
// ErrSessionNotActive unless the session is active.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

func (s *Session) requireActive() error {
	if s.State != StateActive {
		return fmt.Errorf("%w (state %s)", ErrSessionNotActive, s.State)
	}
	return nil
}

func (s *Session) transition(to SessionState) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrSessionNotActive, s.State, to)
	}
	s.State = to
	return nil
}

// Start moves the session from idle to active
func (s *Session) Start() error {
	if err := s.transition(StateActive); err != nil {
		return err
	}
	s.StartedAt = s.now()
	return nil
}

// End completes the session. save records whether the changes are kept.
func (s *Session) End(save bool) error {
	if err := s.transition(StateCompleted); err != nil {
		return err
	}
	s.finish()
	s.Saved = save
	return nil
}

// Cancel abandons the session with a reason
func (s *Session) Cancel(reason string) error {
	if err := s.transition(StateCancelled); err != nil {
		return err
	}
	s.finish()
	s.CancelReason = reason
	return nil
}

// Fail moves the session to the error state
func (s *Session) Fail(msg string) error {
	if err := s.transition(StateError); err != nil {
		return err
	}
	s.finish()
	s.ErrorMessage = msg
	return nil
}

func (s *Session) finish() {
	s.EndedAt = s.now()
	s.Changes = s.tracker.Changes()
}

// Duration is the elapsed time since Start, frozen once the session ends
func (s *Session) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if !s.EndedAt.IsZero() {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return s.now().Sub(s.StartedAt)
}

// HasUnsavedChanges reports whether changes exist that were not completed
func (s *Session) HasUnsavedChanges() bool {
	return s.tracker.Count() > 0 && s.State != StateCompleted
}
