package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *Plan {
	return &Plan{
		TaskID:       "TASK-042",
		Files:        []string{"src/auth.py", "src/models.py"},
		Patterns:     []string{"Strategy"},
		Dependencies: []string{"pyjwt"},
		Phases:       []string{"Design", "Implement"},
		RiskDetails: []RiskDetail{
			{Severity: "high", Description: "Token leakage", Mitigation: "Short TTL"},
		},
		EstimatedLOC: 120,
		Tags:         []string{"Hotfix"},
		Metadata:     map[string]string{"owner": "platform"},
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := samplePlan()
	c := orig.Clone()

	c.Files[0] = "changed.py"
	c.Files = append(c.Files, "extra.py")
	c.RiskDetails[0].Severity = "low"
	c.Metadata["owner"] = "someone-else"
	c.Phases = c.Phases[:1]

	assert.Equal(t, []string{"src/auth.py", "src/models.py"}, orig.Files)
	assert.Equal(t, "high", orig.RiskDetails[0].Severity)
	assert.Equal(t, "platform", orig.Metadata["owner"])
	assert.Len(t, orig.Phases, 2)
}

func TestClone_Nil(t *testing.T) {
	var p *Plan
	assert.Nil(t, p.Clone())
}

func TestClone_PreservesNilSlices(t *testing.T) {
	c := (&Plan{TaskID: "T"}).Clone()
	assert.Nil(t, c.Files)
	assert.Nil(t, c.Metadata)
}

func TestKeywordDetection(t *testing.T) {
	tests := []struct {
		name     string
		plan     *Plan
		security bool
		schema   bool
	}{
		{
			name:     "security in raw plan",
			plan:     &Plan{RawPlan: "Add JWT Authentication middleware"},
			security: true,
		},
		{
			name:   "schema in risk indicator",
			plan:   &Plan{RiskIndicators: []string{"requires DB migration"}},
			schema: true,
		},
		{
			name: "neither",
			plan: &Plan{RawPlan: "Rename a helper function"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.security, tt.plan.HasSecurityKeywords())
			assert.Equal(t, tt.schema, tt.plan.HasSchemaChanges())
		})
	}
}

func TestHasTag_CaseInsensitive(t *testing.T) {
	p := samplePlan()
	assert.True(t, p.HasTag("hotfix"))
	assert.False(t, p.HasTag("feature"))
}

func TestMatchKeywords_Order(t *testing.T) {
	got := MatchKeywords("a breaking change to the api version", BreakingChangeKeywords)
	assert.Equal(t, []string{"breaking change", "api version"}, got)
}

func TestParseFrontmatter(t *testing.T) {
	fm, body, err := ParseFrontmatter([]byte("---\ntask_id: T-1\n---\n# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, "task_id: T-1", string(fm))
	assert.Equal(t, "# Body\n", string(body))

	fm, body, err = ParseFrontmatter([]byte("# No frontmatter\n"))
	require.NoError(t, err)
	assert.Nil(t, fm)
	assert.Equal(t, "# No frontmatter\n", string(body))

	_, _, err = ParseFrontmatter([]byte("---\ntask_id: T-1\n"))
	assert.Error(t, err)
}

func TestParseMarkdown(t *testing.T) {
	content := `---
task_id: TASK-007
files:
  - api/handlers.go
  - api/routes.go
patterns: [Observer]
estimated_loc: 240
risk_details:
  - severity: medium
    description: Webhook retries may duplicate events
---
# Webhook delivery

Implement retrying webhook delivery.
`
	p, err := ParseMarkdown([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "TASK-007", p.TaskID)
	assert.Equal(t, []string{"api/handlers.go", "api/routes.go"}, p.Files)
	assert.Equal(t, []string{"Observer"}, p.Patterns)
	assert.Equal(t, 240, p.EstimatedLOC)
	require.Len(t, p.RiskDetails, 1)
	assert.Equal(t, "medium", p.RiskDetails[0].Severity)
	assert.Contains(t, p.RawPlan, "retrying webhook delivery")
}

func TestParseMarkdown_TitleFallback(t *testing.T) {
	p, err := ParseMarkdown([]byte("# TASK-9\n\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, "TASK-9", p.TaskID)

	_, err = ParseMarkdown([]byte("no heading at all\n"))
	assert.Error(t, err)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_id: TASK-3\nfiles: [a.go]\n"), 0644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TASK-3", p.TaskID)
	assert.Equal(t, []string{"a.go"}, p.Files)
}
