package plan

import (
	"strings"
)

// RiskDetail is one entry of a plan's risk assessment
type RiskDetail struct {
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
	Mitigation  string `yaml:"mitigation,omitempty"`
}

// Plan is the working document a review session operates on.
// A Plan is owned by exactly one session at a time and must be cloned
// before being handed to anything that keeps a reference.
type Plan struct {
	TaskID string `yaml:"task_id"`

	// Files lists paths the plan will create or modify
	Files []string `yaml:"files,omitempty"`

	// Patterns lists design patterns the plan relies on
	Patterns []string `yaml:"patterns,omitempty"`

	// Dependencies lists external packages the plan adds
	Dependencies []string `yaml:"dependencies,omitempty"`

	// Phases is the ordered implementation sequence
	Phases []string `yaml:"phases,omitempty"`

	RiskIndicators []string     `yaml:"risk_indicators,omitempty"`
	RiskDetails    []RiskDetail `yaml:"risk_details,omitempty"`

	EstimatedLOC      int    `yaml:"estimated_loc,omitempty"`
	EstimatedDuration string `yaml:"estimated_duration,omitempty"`
	TestSummary       string `yaml:"test_summary,omitempty"`
	Instructions      string `yaml:"instructions,omitempty"`
	RawPlan           string `yaml:"raw_plan,omitempty"`

	Tags     []string          `yaml:"tags,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// FileCount returns the number of files the plan touches
func (p *Plan) FileCount() int {
	return len(p.Files)
}

// DependencyCount returns the number of external dependencies
func (p *Plan) DependencyCount() int {
	return len(p.Dependencies)
}

// HasFile reports whether path is part of the plan
func (p *Plan) HasFile(path string) bool {
	return contains(p.Files, path)
}

// HasDependency reports whether dep is part of the plan
func (p *Plan) HasDependency(dep string) bool {
	return contains(p.Dependencies, dep)
}

// HasTag reports whether the plan carries tag (case-insensitive)
func (p *Plan) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Text returns the lowercased searchable text of the plan: raw plan,
// instructions, test summary, risk indicators and risk descriptions.
func (p *Plan) Text() string {
	var b strings.Builder
	b.WriteString(p.RawPlan)
	b.WriteString("\n")
	b.WriteString(p.Instructions)
	b.WriteString("\n")
	b.WriteString(p.TestSummary)
	for _, r := range p.RiskIndicators {
		b.WriteString("\n")
		b.WriteString(r)
	}
	for _, r := range p.RiskDetails {
		b.WriteString("\n")
		b.WriteString(r.Description)
	}
	return strings.ToLower(b.String())
}

// HasSecurityKeywords reports whether the plan text mentions
// authentication, authorization or other security-sensitive work.
func (p *Plan) HasSecurityKeywords() bool {
	return ContainsAny(p.Text(), SecurityKeywords)
}

// HasSchemaChanges reports whether the plan text mentions schema or
// migration work.
func (p *Plan) HasSchemaChanges() bool {
	return ContainsAny(p.Text(), SchemaKeywords)
}

// Clone returns a deep copy of the plan. Mutating the copy never
// affects the original.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Files = cloneStrings(p.Files)
	c.Patterns = cloneStrings(p.Patterns)
	c.Dependencies = cloneStrings(p.Dependencies)
	c.Phases = cloneStrings(p.Phases)
	c.RiskIndicators = cloneStrings(p.RiskIndicators)
	c.Tags = cloneStrings(p.Tags)
	if p.RiskDetails != nil {
		c.RiskDetails = make([]RiskDetail, len(p.RiskDetails))
		copy(c.RiskDetails, p.RiskDetails)
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
