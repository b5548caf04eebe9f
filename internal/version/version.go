package version

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RevCBH/plangate/internal/plan"
)

var (
	// ErrNotFound is returned when a requested version does not exist
	ErrNotFound = errors.New("version not found")

	// ErrProtectedVersion is returned when deleting the original version
	// while later versions depend on it
	ErrProtectedVersion = errors.New("version is protected")
)

// Metadata summarizes a snapshot for listings
type Metadata struct {
	TaskID          string `yaml:"task_id"`
	FileCount       int    `yaml:"file_count"`
	DependencyCount int    `yaml:"dependency_count"`
}

// PlanVersion is an immutable snapshot of a plan
type PlanVersion struct {
	Number    int        `yaml:"version"`
	Plan      *plan.Plan `yaml:"plan"`
	CreatedAt time.Time  `yaml:"created_at"`
	CreatedBy string     `yaml:"created_by"`
	Reason    string     `yaml:"reason"`

	// Previous is the number of the preceding version, 0 for the first
	Previous int      `yaml:"previous,omitempty"`
	Metadata Metadata `yaml:"metadata"`
}

func (v *PlanVersion) clone() *PlanVersion {
	if v == nil {
		return nil
	}
	c := *v
	c.Plan = v.Plan.Clone()
	return &c
}

// Comparison is the difference between two versions
type Comparison struct {
	From int
	To   int

	FilesAdded     []string
	FilesRemoved   []string
	FilesUnchanged []string

	DependenciesAdded     []string
	DependenciesRemoved   []string
	DependenciesUnchanged []string

	// LOCDelta is To's estimated LOC minus From's
	LOCDelta int
}

// HasChanges reports whether the versions differ in files, dependencies or LOC
func (c Comparison) HasChanges() bool {
	return len(c.FilesAdded) > 0 || len(c.FilesRemoved) > 0 ||
		len(c.DependenciesAdded) > 0 || len(c.DependenciesRemoved) > 0 ||
		c.LOCDelta != 0
}

// String renders the comparison for terminal output
func (c Comparison) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparing v%d -> v%d\n", c.From, c.To)
	if !c.HasChanges() {
		b.WriteString("  No differences\n")
		return b.String()
	}
	writeList(&b, "Files added", "+", c.FilesAdded)
	writeList(&b, "Files removed", "-", c.FilesRemoved)
	writeList(&b, "Dependencies added", "+", c.DependenciesAdded)
	writeList(&b, "Dependencies removed", "-", c.DependenciesRemoved)
	if c.LOCDelta != 0 {
		fmt.Fprintf(&b, "  Estimated LOC: %+d\n", c.LOCDelta)
	}
	return b.String()
}

func writeList(b *strings.Builder, title, mark string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "    %s %s\n", mark, item)
	}
}

func compare(from, to *PlanVersion) Comparison {
	c := Comparison{From: from.Number, To: to.Number}
	c.FilesAdded, c.FilesRemoved, c.FilesUnchanged = diff(from.Plan.Files, to.Plan.Files)
	c.DependenciesAdded, c.DependenciesRemoved, c.DependenciesUnchanged = diff(from.Plan.Dependencies, to.Plan.Dependencies)
	c.LOCDelta = to.Plan.EstimatedLOC - from.Plan.EstimatedLOC
	return c
}

// diff returns items only in b, only in a, and in both, each in list order
func diff(a, b []string) (added, removed, unchanged []string) {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	for _, s := range b {
		if !inA[s] {
			added = append(added, s)
		}
	}
	for _, s := range a {
		if inB[s] {
			unchanged = append(unchanged, s)
		} else {
			removed = append(removed, s)
		}
	}
	return added, removed, unchanged
}
