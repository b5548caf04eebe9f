package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/prompt"
	"github.com/RevCBH/plangate/internal/router"
)

func decision(total int) router.Decision {
	return router.Decision{Score: testScore(total)}
}

func TestRun_AutoProceedNeedsNoInput(t *testing.T) {
	h := newHarness(t, nil, lines())

	res, err := h.reviewer.Run(context.Background(), decision(2), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAutoApproved, res.Outcome)
	assert.True(t, res.Approved())
	assert.False(t, res.HumanOverride())
	assert.Equal(t, true, res.Metadata["auto_approved"])
	assert.Equal(t, ActionAutoApproved, res.Metadata["review_action"])
	assert.Empty(t, h.lines.labels, "auto-proceed must not read input")

	e, ok := h.publisher.find(events.ReviewApproved)
	require.True(t, ok)
	assert.Equal(t, true, e.Payload.(map[string]any)["auto"])
}

func TestRun_QuickReview(t *testing.T) {
	tests := []struct {
		name          string
		keys          *fakeKeys
		input         []string
		wantOutcome   Outcome
		wantEscalated bool
		wantForced    bool
		wantAction    string
	}{
		{
			name:        "timeout auto-approves",
			keys:        &fakeKeys{},
			wantOutcome: OutcomeAutoApproved,
			wantAction:  ActionAutoApproved,
		},
		{
			name:        "cancel key cancels",
			keys:        &fakeKeys{keys: []byte{'C'}},
			wantOutcome: OutcomeCancelled,
			wantAction:  ActionCancelled,
		},
		{
			name:          "enter escalates to full review",
			keys:          &fakeKeys{keys: []byte{'\r'}},
			input:         []string{"a"},
			wantOutcome:   OutcomeApproved,
			wantEscalated: true,
			wantAction:    ActionEscalatedToFull,
		},
		{
			name:          "interrupt escalates then force-cancels",
			keys:          &fakeKeys{keys: []byte{0x03}},
			wantOutcome:   OutcomeCancelled,
			wantEscalated: true,
			wantForced:    true,
			wantAction:    ActionEscalatedToFull,
		},
		{
			name:          "missing key source escalates",
			keys:          nil,
			input:         []string{"a"},
			wantOutcome:   OutcomeApproved,
			wantEscalated: true,
			wantAction:    ActionEscalatedToFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.keys, lines(tt.input...))

			res, err := h.reviewer.Run(context.Background(), decision(5), testPlan(), complexity.EvaluationContext{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantEscalated, res.Escalated)
			assert.Equal(t, tt.wantForced, res.Forced)
			assert.Equal(t, tt.wantAction, res.Metadata["review_action"])
			assert.Contains(t, h.out.String(), "ARCHITECTURAL REVIEW - QUICK MODE")

			_, escalated := h.publisher.find(events.ReviewEscalated)
			assert.Equal(t, tt.wantEscalated, escalated)
		})
	}
}

func TestRun_QuickEscalationKeepsBothMetadataSets(t *testing.T) {
	h := newHarness(t, &fakeKeys{keys: []byte{'\n'}}, lines("a"))

	res, err := h.reviewer.Run(context.Background(), decision(5), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)

	assert.Contains(t, res.Metadata, "escalation_timestamp")
	impl, ok := res.Metadata["implementation_plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "escalated", impl["review_mode"])
	assert.Contains(t, h.out.String(), "Escalated from quick review")
}

func TestRun_QuickInterruptMarksForcedCancellation(t *testing.T) {
	h := newHarness(t, &fakeKeys{keys: []byte{0x03}}, lines())

	res, err := h.reviewer.Run(context.Background(), decision(5), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)

	assert.Equal(t, "interrupted", res.Metadata["cancellation_reason"])
	assert.Equal(t, StatusBacklog, res.Metadata["status"])

	e, ok := h.publisher.find(events.ReviewCancelled)
	require.True(t, ok)
	assert.Equal(t, true, e.Payload.(map[string]any)["forced"])
}

func TestRun_FullReview(t *testing.T) {
	tests := []struct {
		name        string
		input       []string
		end         error
		wantOutcome Outcome
		wantForced  bool
		wantReason  string
	}{
		{name: "approve", input: []string{"a"}, wantOutcome: OutcomeApproved},
		{name: "approve is case-insensitive", input: []string{"  APPROVE "}, wantOutcome: OutcomeApproved},
		{name: "cancel confirmed", input: []string{"c", "y"}, wantOutcome: OutcomeCancelled, wantReason: "user_requested"},
		{name: "cancel declined", input: []string{"c", "n", "a"}, wantOutcome: OutcomeApproved},
		{name: "end of input", wantOutcome: OutcomeCancelled, wantForced: true, wantReason: "interrupted"},
		{name: "ctrl-c", end: prompt.ErrInterrupted, wantOutcome: OutcomeCancelled, wantForced: true, wantReason: "interrupted"},
		{name: "end of input at confirmation", input: []string{"c"}, wantOutcome: OutcomeCancelled, wantForced: true, wantReason: "interrupted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := lines(tt.input...)
			in.end = tt.end
			h := newHarness(t, nil, in)

			res, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantForced, res.Forced)
			assert.False(t, res.Escalated)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, res.Metadata["cancellation_reason"])
			}
			assert.Contains(t, h.out.String(), "IMPLEMENTATION PLAN REVIEW")
		})
	}
}

func TestRun_FullApprovalMetadata(t *testing.T) {
	h := newHarness(t, nil, lines("a"))

	res, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)

	impl, ok := res.Metadata["implementation_plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, impl["approved"])
	assert.Equal(t, "user", impl["approved_by"])
	assert.Equal(t, string(complexity.ModeFullRequired), impl["review_mode"])
	assert.Equal(t, 8, impl["complexity_score"])
	assert.Contains(t, res.Metadata, "complexity_summary")
}

func TestRun_FullTerminalErrorIsReturned(t *testing.T) {
	in := lines()
	in.end = errBrokenTerminal
	h := newHarness(t, nil, in)

	_, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	require.ErrorIs(t, err, errBrokenTerminal)
	_, cancelled := h.publisher.find(events.ReviewCancelled)
	assert.False(t, cancelled)
}

func TestRun_FullWithoutLineInputFails(t *testing.T) {
	r := NewReviewer(DefaultReviewConfig(), nil, Terminal{Out: &fakeWriter{}}, WithLogger(quietLogger()))

	_, err := r.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	assert.Error(t, err)
}

func TestRun_CancelledContextForcesCancellation(t *testing.T) {
	h := newHarness(t, nil, lines("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.reviewer.Run(ctx, decision(8), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.True(t, res.Forced)
}

func TestRun_NilScoreFallsBackToFullReview(t *testing.T) {
	h := newHarness(t, nil, lines("a"))

	res, err := h.reviewer.Run(context.Background(), router.Decision{}, testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, res.Outcome)
	assert.True(t, res.Score.IsFailSafe())
}

func TestFull_InvalidInputWarning(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		warn  bool
	}{
		{"three invalid in a row", []string{"x", "yes", "z", "a"}, true},
		{"valid choice resets the counter", []string{"x", "x", "v", "x", "a"}, false},
		{"two invalid", []string{"x", "", "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, lines(tt.input...))

			res, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
			require.NoError(t, err)
			assert.Equal(t, OutcomeApproved, res.Outcome)

			if tt.warn {
				assert.Contains(t, h.out.String(), "3 invalid attempts")
			} else {
				assert.NotContains(t, h.out.String(), "invalid attempts")
			}
		})
	}
}

func TestFull_ViewUsesPager(t *testing.T) {
	h := newHarness(t, nil, lines("v", "a"))

	_, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Implementation Plan: TASK-042"}, h.pager.titles)
}

func TestFull_ViewFallsBackToInline(t *testing.T) {
	h := newHarness(t, nil, lines("v", "a"))
	h.pager.err = ErrNoPager

	_, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)

	out := h.out.String()
	assert.Contains(t, out, "displaying inline instead")
	assert.Contains(t, out, "IMPLEMENTATION PLAN: TASK-042")
}

func TestFull_QuestionSessionIsSaved(t *testing.T) {
	h := newHarness(t, nil, lines("q", "What are the risks?", "help", "back", "a"))

	res, err := h.reviewer.Run(context.Background(), decision(8), testPlan(), complexity.EvaluationContext{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, res.Outcome)

	require.Len(t, h.audit.qaSessions, 1)
	sess := h.audit.qaSessions[0].(*QASession)
	assert.Equal(t, ExitBack, sess.ExitReason)
	require.Len(t, sess.Exchanges, 1)
	assert.Equal(t, 8, sess.Exchanges[0].Confidence)
	assert.NotNil(t, sess.EndedAt)

	e, ok := h.publisher.find(events.QACompleted)
	require.True(t, ok)
	assert.Equal(t, 1, e.Payload.(map[string]any)["questions"])
	assert.Contains(t, h.out.String(), "Stale reads after writes")
}

func TestResult_HumanOverride(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"auto approved", Result{Outcome: OutcomeAutoApproved}, false},
		{"approved in full review", Result{Outcome: OutcomeApproved}, false},
		{"escalated", Result{Outcome: OutcomeApproved, Escalated: true}, true},
		{"cancelled", Result{Outcome: OutcomeCancelled}, true},
		{"modified", Result{Outcome: OutcomeApproved, Versions: []int{2}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.HumanOverride())
		})
	}
}

func TestDisplayKey(t *testing.T) {
	assert.Equal(t, 'C', displayKey('c'))
	assert.Equal(t, 'C', displayKey(0))
	assert.Equal(t, 'X', displayKey('X'))
	assert.Equal(t, '!', displayKey('!'))
}

type fakeWriter struct{ n int }

func (w *fakeWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

func TestSettle(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	score := testScore(2)

	approved := Settle(AutoProceedMetadata(score, at), true)
	assert.Equal(t, StatusApproved, approved["status"])
	assert.Equal(t, true, approved["auto_approved"])
	for _, k := range cancellationKeys {
		v, ok := approved[k]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}

	cancelled := Settle(CancellationMetadata(false, at), false)
	assert.Equal(t, StatusBacklog, cancelled["status"])
	assert.Equal(t, true, cancelled["cancelled"])
	for _, k := range approvalKeys {
		assert.Nil(t, cancelled[k], k)
	}

	design := Settle(map[string]any{"status": "design_approved"}, true)
	assert.Equal(t, "design_approved", design["status"])
}
