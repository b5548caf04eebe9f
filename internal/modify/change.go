package modify

import (
	"fmt"
	"time"

	"github.com/RevCBH/plangate/internal/plan"
)

// Kind identifies what a Change does
type Kind string

const (
	KindFileAdded         Kind = "file_added"
	KindFileRemoved       Kind = "file_removed"
	KindFileModified      Kind = "file_modified"
	KindDependencyAdded   Kind = "dependency_added"
	KindDependencyRemoved Kind = "dependency_removed"
	KindPhaseAdded        Kind = "phase_added"
	KindPhaseRemoved      Kind = "phase_removed"
	KindPhaseReordered    Kind = "phase_reordered"
	KindRiskAdded         Kind = "risk_added"
	KindRiskModified      Kind = "risk_modified"
	KindRiskRemoved       Kind = "risk_removed"
	KindMetadataUpdated   Kind = "metadata_updated"
)

// Editable metadata fields for KindMetadataUpdated
const (
	FieldEstimatedLOC      = "estimated_loc"
	FieldEstimatedDuration = "estimated_duration"
	FieldTestSummary       = "test_summary"
	FieldRawPlan           = "raw_plan"
	FieldInstructions      = "instructions"
)

// Change is one atomic edit to a plan. Changes are never edited after
// they are recorded; a correction is a new Change.
type Change struct {
	Kind      Kind      `yaml:"type"`
	Timestamp time.Time `yaml:"timestamp"`
	Target    string    `yaml:"target"`
	OldValue  string    `yaml:"old_value,omitempty"`
	NewValue  string    `yaml:"new_value,omitempty"`

	// Position is the phase index for phase changes, -1 when unset
	Position int `yaml:"position"`
	// OldPosition is the previous index for phase_reordered
	OldPosition int `yaml:"old_position"`

	// Risk carries the full risk entry for risk_added and risk_modified
	Risk *plan.RiskDetail `yaml:"risk,omitempty"`

	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// clone returns a copy that shares no pointers or maps with c
func (c Change) clone() Change {
	if c.Risk != nil {
		r := *c.Risk
		c.Risk = &r
	}
	if c.Metadata != nil {
		m := make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			m[k] = v
		}
		c.Metadata = m
	}
	return c
}

// Describe returns a one-line human readable description
func (c Change) Describe() string {
	switch c.Kind {
	case KindFileAdded:
		return "Added file: " + c.Target
	case KindFileRemoved:
		return "Removed file: " + c.Target
	case KindFileModified:
		if c.NewValue != "" {
			return fmt.Sprintf("Modified file: %s (%s)", c.Target, c.NewValue)
		}
		return "Modified file: " + c.Target
	case KindDependencyAdded:
		if c.NewValue != "" {
			return fmt.Sprintf("Added dependency: %s (%s)", c.Target, c.NewValue)
		}
		return "Added dependency: " + c.Target
	case KindDependencyRemoved:
		return "Removed dependency: " + c.Target
	case KindPhaseAdded:
		if c.Position >= 0 {
			return fmt.Sprintf("Added phase: %s at position %d", c.Target, c.Position+1)
		}
		return "Added phase: " + c.Target
	case KindPhaseRemoved:
		return "Removed phase: " + c.Target
	case KindPhaseReordered:
		return fmt.Sprintf("Reordered phase: %s (%d -> %d)", c.Target, c.OldPosition+1, c.Position+1)
	case KindRiskAdded:
		return "Added risk: " + c.Target
	case KindRiskModified:
		return fmt.Sprintf("Modified risk: %s -> %s", c.OldValue, c.NewValue)
	case KindRiskRemoved:
		return "Removed risk: " + c.Target
	case KindMetadataUpdated:
		return fmt.Sprintf("Updated %s: %s -> %s", c.Target, c.OldValue, c.NewValue)
	default:
		return fmt.Sprintf("%s: %s", c.Kind, c.Target)
	}
}

// kindLabels are the section headings used by Tracker.Summary
var kindLabels = map[Kind]string{
	KindFileAdded:         "Files Added",
	KindFileRemoved:       "Files Removed",
	KindFileModified:      "Files Modified",
	KindDependencyAdded:   "Dependencies Added",
	KindDependencyRemoved: "Dependencies Removed",
	KindPhaseAdded:        "Phases Added",
	KindPhaseRemoved:      "Phases Removed",
	KindPhaseReordered:    "Phases Reordered",
	KindRiskAdded:         "Risks Added",
	KindRiskModified:      "Risks Modified",
	KindRiskRemoved:       "Risks Removed",
	KindMetadataUpdated:   "Metadata Updated",
}

// Label returns the section heading for the kind
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}
