package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/metrics"
	"github.com/RevCBH/plangate/internal/store"
)

func TestEvaluate_PrintsDecisionsInArgumentOrder(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(mediumPlan("TASK-2"))
	env.savePlan(simplePlan("TASK-1"))

	if err := env.run(nil, "evaluate", "TASK-2", "TASK-1"); err != nil {
		t.Fatalf("evaluate failed: %v\nstderr: %s", err, env.stderr.String())
	}

	out := env.stdout.String()
	second := strings.Index(out, "Complexity Evaluation - TASK-2")
	first := strings.Index(out, "Complexity Evaluation - TASK-1")
	if second < 0 || first < 0 {
		t.Fatalf("expected both summaries, got:\n%s", out)
	}
	if second > first {
		t.Error("summaries should follow argument order")
	}
	if !strings.Contains(out, "Score: 5/10 (Moderate Complexity - Optional Review)") {
		t.Errorf("expected quick review summary for TASK-2, got:\n%s", out)
	}
	if !strings.Contains(out, "Score: 1/10 (Low Complexity - Auto-Proceed)") {
		t.Errorf("expected auto-proceed summary for TASK-1, got:\n%s", out)
	}
}

func TestEvaluate_MissingTaskFailsAfterOthers(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(simplePlan("TASK-1"))

	err := env.run(nil, "evaluate", "TASK-404", "TASK-1")
	if !errors.Is(err, store.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if !strings.Contains(env.stdout.String(), "TASK-1") {
		t.Error("the remaining task should still be evaluated")
	}
	if !strings.Contains(env.stderr.String(), "❌ TASK-404") {
		t.Errorf("expected failure line on stderr, got: %s", env.stderr.String())
	}
}

func TestEvaluate_ImportsMarkdownFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "plan.md")
	content := "---\ntask_id: TASK-7\nfiles:\n  - cmd/tool/main.go\n---\n# Add a flag\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := env.run(nil, "evaluate", path); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Complexity Evaluation - TASK-7") {
		t.Errorf("expected summary for imported plan, got:\n%s", env.stdout.String())
	}
}

func TestEvaluate_HotfixForcesFullReview(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(simplePlan("TASK-1"))

	if err := env.run(nil, "evaluate", "--hotfix", "TASK-1"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "REVIEW REQUIRED") {
		t.Errorf("hotfix should force full review, got:\n%s", env.stdout.String())
	}
}

func TestEvaluate_SkipReviewNotes(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(mediumPlan("TASK-2"))

	if err := env.run(nil, "evaluate", "--skip-review", "TASK-2"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "--skip-review: the optional checkpoint would be skipped") {
		t.Errorf("expected skip note, got:\n%s", env.stdout.String())
	}
}

func TestEvaluate_JSONModePrintsOnlyEvents(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(simplePlan("TASK-1"))

	if err := env.run(nil, "--json", "evaluate", "TASK-1"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	var types []events.EventType
	for _, line := range lines {
		e, err := events.ParseJSONEvent([]byte(line))
		if err != nil {
			t.Fatalf("stdout should hold only JSON lines, got %q: %v", line, err)
		}
		types = append(types, e.Type)
	}
	if len(types) != 2 || types[0] != events.ReviewStarted || types[1] != events.ReviewRouted {
		t.Errorf("unexpected event sequence: %v", types)
	}
}

func TestEvaluate_RecordsMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.savePlan(simplePlan("TASK-1"))

	if err := env.run(nil, "evaluate", "TASK-1"); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	db, err := metrics.OpenSQLite(filepath.Join(env.stateDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer db.Close()

	recent, err := db.Recent(context.Background(), "TASK-1", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recent))
	}
	if recent[0].Outcome != metrics.OutcomeEvaluated || recent[0].Mode != "auto_proceed" || recent[0].Score != 1 {
		t.Errorf("unexpected record: %+v", recent[0])
	}
}

func TestEvaluate_Validation(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(nil, "evaluate", "--parallelism", "0", "TASK-1"); err == nil ||
		!strings.Contains(err.Error(), "parallelism must be greater than 0") {
		t.Errorf("expected parallelism error, got %v", err)
	}

	var conflict *FlagConflictError
	if err := env.run(nil, "evaluate", "--review", "--skip-review", "TASK-1"); !errors.As(err, &conflict) {
		t.Errorf("expected flag conflict, got %v", err)
	}

	if err := env.run(nil, "evaluate"); err == nil {
		t.Error("expected error without arguments")
	}
}
