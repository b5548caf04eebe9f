package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
	"github.com/RevCBH/plangate/internal/review"
	"github.com/RevCBH/plangate/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig keeps state, metrics and pagers inside the temp repo
const testConfig = `state_dir: state
review:
  quick_timeout: 100ms
metrics:
  enabled: true
  sqlite_path: metrics.db
escalation:
  terminal: false
pager:
  mode: inline
log_level: error
`

type testEnv struct {
	t      *testing.T
	repo   string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	json   bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, v := range []string{"PLANGATE_STATE_DIR", "PLANGATE_LOG_LEVEL", "PLANGATE_QUICK_TIMEOUT", "PLANGATE_METRICS_DB", "PLANGATE_PAGER"} {
		t.Setenv(v, "")
	}
	repo := t.TempDir()
	writeConfig(t, repo, testConfig)
	return &testEnv{t: t, repo: repo, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
}

func writeConfig(t *testing.T, repo, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(repo, ".plangate.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func (e *testEnv) stateDir() string {
	return filepath.Join(e.repo, "state")
}

func (e *testEnv) store() *store.Store {
	return store.New(e.stateDir())
}

func (e *testEnv) savePlan(p *plan.Plan) {
	e.t.Helper()
	if _, err := e.store().Save(p.TaskID, p, nil); err != nil {
		e.t.Fatalf("failed to save plan: %v", err)
	}
}

func (e *testEnv) metadata(taskID string) map[string]any {
	e.t.Helper()
	meta, err := e.store().LoadMetadata(taskID)
	if err != nil {
		e.t.Fatalf("failed to load metadata: %v", err)
	}
	return meta
}

// run executes the CLI with args against the temp repo
func (e *testEnv) run(term *review.Terminal, args ...string) error {
	e.stdout.Reset()
	e.stderr.Reset()

	app := New()
	app.SetOutput(e.stdout, e.stderr)
	app.jsonMode = func(force bool) bool { return force || e.json }
	if term != nil {
		app.SetTerminal(*term)
	}
	app.SetArgs(append([]string{"--repo", e.repo}, args...))
	return app.Execute()
}

// simplePlan scores 1: auto-proceed
func simplePlan(taskID string) *plan.Plan {
	return &plan.Plan{
		TaskID:       taskID,
		Files:        []string{"docs/guide.md"},
		Phases:       []string{"Update the guide"},
		EstimatedLOC: 20,
	}
}

// mediumPlan scores 5: quick review
func mediumPlan(taskID string) *plan.Plan {
	return &plan.Plan{
		TaskID: taskID,
		Files: []string{
			"internal/order/a.go", "internal/order/b.go", "internal/order/c.go",
			"internal/order/d.go", "internal/order/e.go", "internal/order/f.go",
		},
		Patterns:       []string{"Saga"},
		Phases:         []string{"Call the payment provider", "Write tests"},
		RiskIndicators: []string{"Calls an external API"},
		EstimatedLOC:   300,
	}
}

// scriptedLines answers ReadLine from a fixed script, then returns io.EOF
type scriptedLines struct {
	answers []string
}

func (s *scriptedLines) ReadLine(string) (string, error) {
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

func (s *scriptedLines) Close() error { return nil }

// silentKeys never delivers a key, so quick reviews time out
type silentKeys struct{}

func (silentKeys) Start() (<-chan byte, error) { return make(chan byte), nil }
func (silentKeys) Stop() error                 { return nil }

// pressKeys delivers keys shortly after the countdown starts
type pressKeys struct {
	keys []byte
}

func (p pressKeys) Start() (<-chan byte, error) {
	ch := make(chan byte, len(p.keys))
	go func() {
		time.Sleep(10 * time.Millisecond)
		for _, k := range p.keys {
			ch <- k
		}
	}()
	return ch, nil
}

func (pressKeys) Stop() error { return nil }

func terminal(out io.Writer, keys prompt.KeySource, answers ...string) *review.Terminal {
	return &review.Terminal{
		Out:   out,
		Keys:  keys,
		Lines: &scriptedLines{answers: answers},
	}
}
