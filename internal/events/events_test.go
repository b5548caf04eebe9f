package events

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvent_Builders(t *testing.T) {
	e := NewEvent(ReviewCancelled, "TASK-9").
		WithPayload(map[string]any{"reason": "user_requested"}).
		WithError(errors.New("boom"))

	assert.Equal(t, ReviewCancelled, e.Type)
	assert.Equal(t, "TASK-9", e.Task)
	assert.Equal(t, "boom", e.Error)
	assert.True(t, e.IsFailure())
	assert.Equal(t, `[review.cancelled] TASK-9 error="boom"`, e.String())

	clean := NewEvent(ReviewApproved, "T").WithError(nil)
	assert.False(t, clean.IsFailure())
	assert.True(t, NewEvent(ReviewFailSafe, "T").IsFailure())
}

func TestBus_EmitStampsAndDeliversInOrder(t *testing.T) {
	bus := NewBus(quietLogger())
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	bus.now = func() time.Time { return fixed }

	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Type)) })
	bus.Subscribe(func(e Event) {
		got = append(got, "second:"+string(e.Type))
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, fixed, e.Time)
	})

	bus.Emit(NewEvent(ReviewStarted, "T"))
	assert.Equal(t, []string{"first:review.started", "second:review.started"}, got)
}

func TestBus_KeepsExplicitIDAndTime(t *testing.T) {
	bus := NewBus(quietLogger())
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var seen Event
	bus.Subscribe(func(e Event) { seen = e })
	bus.Emit(Event{ID: "fixed", Time: at, Type: QACompleted})

	assert.Equal(t, "fixed", seen.ID)
	assert.Equal(t, at, seen.Time)
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	bus := NewBus(quietLogger())
	called := false
	bus.Subscribe(func(Event) { panic("bad handler") })
	bus.Subscribe(func(Event) { called = true })

	assert.NotPanics(t, func() { bus.Emit(NewEvent(ReviewRouted, "T")) })
	assert.True(t, called)
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Emit(NewEvent(ReviewRouted, "T")) })
}

func TestFilter(t *testing.T) {
	var got []EventType
	h := Filter(func(e Event) { got = append(got, e.Type) }, ReviewCancelled, ReviewFailSafe)

	for _, typ := range []EventType{ReviewStarted, ReviewCancelled, ReviewApproved, ReviewFailSafe} {
		h(NewEvent(typ, "T"))
	}
	assert.Equal(t, []EventType{ReviewCancelled, ReviewFailSafe}, got)
}

func TestJSONEmitter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(quietLogger())
	bus.Subscribe(JSONEmitterHandler(NewJSONEmitter(&buf), quietLogger()))

	bus.Emit(NewEvent(ReviewRouted, "TASK-1").WithPayload(map[string]any{"score": 7, "mode": "full_required"}))
	bus.Emit(NewEvent(VersionCreated, "TASK-1").WithPayload(2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	first, err := ParseJSONEvent([]byte(lines[0]))
	require.NoError(t, err)
	assert.Equal(t, ReviewRouted, first.Type)
	assert.Equal(t, "TASK-1", first.Task)
	assert.NotEmpty(t, first.ID)
	payload := first.Payload.(map[string]any)
	assert.Equal(t, float64(7), payload["score"])
	assert.Equal(t, "full_required", payload["mode"])

	second, err := ParseJSONEvent([]byte(lines[1]))
	require.NoError(t, err)
	assert.Equal(t, float64(2), second.Payload.(map[string]any)["value"], "non-map payloads are wrapped")
}

func TestParseJSONEvent_Invalid(t *testing.T) {
	_, err := ParseJSONEvent([]byte("{not json"))
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestIsJSONMode_Forced(t *testing.T) {
	assert.True(t, IsJSONMode(true))
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := LogHandler(logger)

	h(Event{ID: "01", Type: ReviewApproved, Task: "T", Payload: map[string]any{"auto": true}})
	h(Event{ID: "02", Type: ReviewFailSafe, Task: "T", Error: "scorer exploded"})

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "type=review.approved")
	assert.Contains(t, out, "auto=true")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `error="scorer exploded"`)
}
