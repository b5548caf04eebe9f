package modify

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/RevCBH/plangate/internal/plan"
)

// ErrInvalidChange is returned when a Record call gets bad arguments
var ErrInvalidChange = errors.New("invalid change")

// Tracker is an append-only, time-ordered log of plan edits
type Tracker struct {
	changes []Change

	// guard, when set, is consulted before every append
	guard func() error
	now   func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

func (t *Tracker) append(c Change) error {
	if t.guard != nil {
		if err := t.guard(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("%w: %s needs a target", ErrInvalidChange, c.Kind)
	}
	c = c.clone()
	c.Timestamp = t.now()
	t.changes = append(t.changes, c)
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidChange, fmt.Sprintf(format, args...))
}

// RecordFileAdded records a new file in the plan
func (t *Tracker) RecordFileAdded(path, reason string) error {
	return t.append(Change{Kind: KindFileAdded, Target: path, NewValue: path, Position: -1,
		Metadata: optional("reason", reason)})
}

// RecordFileRemoved records a file dropped from the plan
func (t *Tracker) RecordFileRemoved(path string) error {
	return t.append(Change{Kind: KindFileRemoved, Target: path, OldValue: path, Position: -1})
}

// RecordFileModified records a change to what the plan does with a file
func (t *Tracker) RecordFileModified(path, description string) error {
	return t.append(Change{Kind: KindFileModified, Target: path, NewValue: description, Position: -1})
}

// RecordDependencyAdded records a new external dependency
func (t *Tracker) RecordDependencyAdded(dep, version string) error {
	return t.append(Change{Kind: KindDependencyAdded, Target: dep, NewValue: version, Position: -1})
}

// RecordDependencyRemoved records a dependency dropped from the plan
func (t *Tracker) RecordDependencyRemoved(dep string) error {
	return t.append(Change{Kind: KindDependencyRemoved, Target: dep, OldValue: dep, Position: -1})
}

// RecordPhaseAdded records a new phase inserted at position (0-based).
// A position of -1 appends.
func (t *Tracker) RecordPhaseAdded(phase string, position int) error {
	if position < -1 {
		return invalid("phase position %d", position)
	}
	return t.append(Change{Kind: KindPhaseAdded, Target: phase, NewValue: phase, Position: position})
}

// RecordPhaseRemoved records a phase dropped from the plan
func (t *Tracker) RecordPhaseRemoved(phase string, position int) error {
	if position < -1 {
		return invalid("phase position %d", position)
	}
	return t.append(Change{Kind: KindPhaseRemoved, Target: phase, OldValue: phase, Position: position})
}

// RecordPhaseReordered records a phase moving between 0-based positions
func (t *Tracker) RecordPhaseReordered(phase string, from, to int) error {
	if from < 0 || to < 0 {
		return invalid("phase positions %d -> %d", from, to)
	}
	return t.append(Change{Kind: KindPhaseReordered, Target: phase, OldPosition: from, Position: to})
}

// RecordRiskAdded records a new risk entry
func (t *Tracker) RecordRiskAdded(risk plan.RiskDetail) error {
	r := risk
	return t.append(Change{Kind: KindRiskAdded, Target: risk.Description, NewValue: risk.Severity,
		Position: -1, Risk: &r})
}

// RecordRiskModified records a risk entry being replaced
func (t *Tracker) RecordRiskModified(old, updated plan.RiskDetail) error {
	r := updated
	return t.append(Change{Kind: KindRiskModified, Target: old.Description,
		OldValue: old.Description, NewValue: updated.Description, Position: -1, Risk: &r})
}

// RecordRiskRemoved records a risk entry being dropped
func (t *Tracker) RecordRiskRemoved(description string) error {
	return t.append(Change{Kind: KindRiskRemoved, Target: description, OldValue: description, Position: -1})
}

// RecordMetadataUpdated records a scalar plan field changing value.
// estimated_loc must be a non-negative integer.
func (t *Tracker) RecordMetadataUpdated(field, oldValue, newValue string) error {
	switch field {
	case FieldEstimatedLOC:
		n, err := strconv.Atoi(strings.TrimSpace(newValue))
		if err != nil || n < 0 {
			return invalid("estimated_loc must be a non-negative integer, got %q", newValue)
		}
		newValue = strconv.Itoa(n)
	case FieldEstimatedDuration, FieldTestSummary, FieldRawPlan, FieldInstructions:
	default:
		return invalid("unknown metadata field %q", field)
	}
	return t.append(Change{Kind: KindMetadataUpdated, Target: field, OldValue: oldValue,
		NewValue: newValue, Position: -1})
}

// Undo removes and returns the most recent change
func (t *Tracker) Undo() (Change, bool) {
	if t.guard != nil && t.guard() != nil {
		return Change{}, false
	}
	if len(t.changes) == 0 {
		return Change{}, false
	}
	last := t.changes[len(t.changes)-1]
	t.changes = t.changes[:len(t.changes)-1]
	return last, true
}

// Changes returns a copy of the log in chronological order
func (t *Tracker) Changes() []Change {
	out := make([]Change, len(t.changes))
	for i, c := range t.changes {
		out[i] = c.clone()
	}
	return out
}

// ByKind returns the changes of one kind, in chronological order
func (t *Tracker) ByKind(k Kind) []Change {
	var out []Change
	for _, c := range t.changes {
		if c.Kind == k {
			out = append(out, c.clone())
		}
	}
	return out
}

// IsEmpty reports whether nothing has been recorded
func (t *Tracker) IsEmpty() bool {
	return len(t.changes) == 0
}

// Count returns the number of recorded changes
func (t *Tracker) Count() int {
	return len(t.changes)
}

// Summary renders the changes grouped by kind, kinds sorted by name and
// changes within a kind in chronological order.
func (t *Tracker) Summary() string {
	if t.IsEmpty() {
		return "No changes recorded"
	}

	groups := map[Kind][]Change{}
	for _, c := range t.changes {
		groups[c.Kind] = append(groups[c.Kind], c)
	}
	kinds := make([]Kind, 0, len(groups))
	for k := range groups {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "Change Summary (%d changes)\n", t.Count())
	for _, k := range kinds {
		fmt.Fprintf(&b, "\n%s:\n", k.Label())
		for _, c := range groups[k] {
			fmt.Fprintf(&b, "  - %s\n", c.Describe())
		}
	}
	return b.String()
}

func optional(key, value string) map[string]string {
	if value == "" {
		return nil
	}
	return map[string]string{key: value}
}
