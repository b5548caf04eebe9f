package review

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/modify"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/version"
)

// scriptedLines answers ReadLine from a fixed script, then returns end
type scriptedLines struct {
	answers []string
	end     error // returned once the script is exhausted (default io.EOF)
	labels  []string
}

func lines(answers ...string) *scriptedLines {
	return &scriptedLines{answers: answers}
}

func (s *scriptedLines) ReadLine(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		if s.end != nil {
			return "", s.end
		}
		return "", io.EOF
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

func (s *scriptedLines) Close() error { return nil }

// fakeKeys delivers keys after a delay; a nil script never sends
type fakeKeys struct {
	keys  []byte
	delay time.Duration
	err   error
}

func (f *fakeKeys) Start() (<-chan byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan byte, len(f.keys))
	go func() {
		time.Sleep(f.delay)
		for _, k := range f.keys {
			ch <- k
		}
	}()
	return ch, nil
}

func (f *fakeKeys) Stop() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Emit(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) find(t events.EventType) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.Type == t {
			return e, true
		}
	}
	return events.Event{}, false
}

type fakePager struct {
	err    error
	titles []string
}

func (f *fakePager) Show(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	return f.err
}

type fakeAudit struct {
	sessions   []*modify.Session
	qaSessions []any
}

func (f *fakeAudit) SaveSession(sess *modify.Session) (string, error) {
	f.sessions = append(f.sessions, sess)
	return "sessions/" + sess.ID + ".yaml", nil
}

func (f *fakeAudit) SaveQASession(_, id string, record any) (string, error) {
	f.qaSessions = append(f.qaSessions, record)
	return "qa/" + id + ".yaml", nil
}

// fixedScorer returns the same score for every plan
type fixedScorer struct {
	score *complexity.Score
	calls int
}

func (f *fixedScorer) Calculate(context.Context, *plan.Plan, complexity.EvaluationContext) (*complexity.Score, []complexity.FactorResult) {
	f.calls++
	return f.score, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPlan() *plan.Plan {
	return &plan.Plan{
		TaskID:       "TASK-042",
		Files:        []string{"internal/cache/cache.go", "internal/cache/cache_test.go"},
		Patterns:     []string{"Repository Pattern"},
		Dependencies: []string{"github.com/redis/go-redis/v9"},
		Phases:       []string{"Write cache layer", "Wire into service", "Add tests"},
		RiskDetails: []plan.RiskDetail{
			{Severity: "medium", Description: "Stale reads after writes", Mitigation: "Invalidate on write"},
		},
		EstimatedLOC:      180,
		EstimatedDuration: "3 hours",
		TestSummary:       "Unit tests with miniredis",
		Instructions:      "Add a read-through cache in front of the user repository.",
		RawPlan:           "## Approach\nRead-through cache because lookups dominate.",
		Metadata:          map[string]string{"title": "Cache user lookups"},
	}
}

func testScore(total int) *complexity.Score {
	return complexity.NewScore(total, []complexity.FactorScore{
		{Name: complexity.FactorFileComplexity, Score: 1, MaxScore: 3, Justification: "2 files"},
		{Name: complexity.FactorPatternFamiliarity, Score: 1, MaxScore: 2, Justification: "1 known pattern"},
		{Name: complexity.FactorRiskLevel, Score: 1, MaxScore: 3, Justification: "1 medium risk"},
		{Name: complexity.FactorDependencyComplexity, Score: 1, MaxScore: 2, Justification: "1 dependency"},
	}, nil)
}

type harness struct {
	out       *bytes.Buffer
	lines     *scriptedLines
	publisher *recordingPublisher
	pager     *fakePager
	audit     *fakeAudit
	versions  *version.Manager
	reviewer  *Reviewer
}

func newHarness(t *testing.T, keys *fakeKeys, in *scriptedLines, opts ...Option) *harness {
	t.Helper()

	mgr, err := version.NewManager("TASK-042", version.NewMemoryStore(), quietLogger())
	require.NoError(t, err)

	h := &harness{
		out:       &bytes.Buffer{},
		lines:     in,
		publisher: &recordingPublisher{},
		pager:     &fakePager{},
		audit:     &fakeAudit{},
		versions:  mgr,
	}

	term := Terminal{Out: h.out, Lines: in}
	if keys != nil {
		term.Keys = keys
	}

	cfg := DefaultReviewConfig()
	cfg.QuickTimeout = 150 * time.Millisecond

	all := append([]Option{
		WithPager(h.pager),
		WithVersions(mgr),
		WithAudit(h.audit),
		WithStyles(PlainStyles()),
		WithLogger(quietLogger()),
	}, opts...)
	h.reviewer = NewReviewer(cfg, h.publisher, term, all...)
	return h
}

var errBrokenTerminal = errors.New("terminal gone")
