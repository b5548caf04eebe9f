package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeys feeds scripted keys, each after an optional delay
type fakeKeys struct {
	script   []scriptedKey
	startErr error
	closeAt  time.Duration // close the channel after this delay (0 = never)

	mu      sync.Mutex
	started int
	stopped int
}

type scriptedKey struct {
	after time.Duration
	key   byte
}

func (f *fakeKeys) Start() (<-chan byte, error) {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()

	if f.startErr != nil {
		return nil, f.startErr
	}

	ch := make(chan byte, len(f.script)+1)
	go func() {
		for _, k := range f.script {
			time.Sleep(k.after)
			ch <- k.key
		}
		if f.closeAt > 0 {
			time.Sleep(f.closeAt)
			close(ch)
		}
	}()
	return ch, nil
}

func (f *fakeKeys) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeKeys) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.stopped
}

func newTestPrompt(keys KeySource) (*TimedPrompt, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(keys, out, slog.New(slog.NewTextHandler(io.Discard, nil))), out
}

func TestRun_TimeoutWithinOneTick(t *testing.T) {
	keys := &fakeKeys{}
	p, _ := newTestPrompt(keys)

	d := 200 * time.Millisecond
	start := time.Now()
	outcome, err := p.Run(context.Background(), Options{Duration: d})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, outcome)
	assert.GreaterOrEqual(t, elapsed, d)
	// one poll interval plus scheduling slack
	assert.Less(t, elapsed, d+PollInterval+100*time.Millisecond)
}

func TestRun_Keys(t *testing.T) {
	tests := []struct {
		name      string
		keys      []byte
		cancelKey rune
		want      Outcome
		wantErr   error
	}{
		{"enter confirms", []byte{'\r'}, 0, OutcomeConfirm, nil},
		{"newline confirms", []byte{'\n'}, 0, OutcomeConfirm, nil},
		{"c cancels", []byte{'c'}, 0, OutcomeCancel, nil},
		{"C cancels", []byte{'C'}, 0, OutcomeCancel, nil},
		{"custom cancel key", []byte{'X'}, 'x', OutcomeCancel, nil},
		{"other keys ignored", []byte{'a', 'z', ' ', '\r'}, 0, OutcomeConfirm, nil},
		{"ctrl+c interrupts", []byte{0x03}, 0, "", ErrInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var script []scriptedKey
			for _, k := range tt.keys {
				script = append(script, scriptedKey{after: 5 * time.Millisecond, key: k})
			}
			keys := &fakeKeys{script: script}
			p, _ := newTestPrompt(keys)

			outcome, err := p.Run(context.Background(), Options{Duration: 2 * time.Second, CancelKey: tt.cancelKey})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, outcome)

			started, stopped := keys.counts()
			assert.Equal(t, 1, started)
			assert.Equal(t, 1, stopped, "terminal must be restored")
		})
	}
}

func TestRun_KeyAfterExpiryIgnored(t *testing.T) {
	keys := &fakeKeys{script: []scriptedKey{{after: 300 * time.Millisecond, key: '\r'}}}
	p, _ := newTestPrompt(keys)

	outcome, err := p.Run(context.Background(), Options{Duration: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, outcome)
}

func TestRun_ContextCancelInterrupts(t *testing.T) {
	keys := &fakeKeys{}
	p, _ := newTestPrompt(keys)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	outcome, err := p.Run(ctx, Options{Duration: 5 * time.Second})
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, Outcome(""), outcome)

	_, stopped := keys.counts()
	assert.Equal(t, 1, stopped)
}

func TestRun_AlreadyCancelledContext(t *testing.T) {
	keys := &fakeKeys{}
	p, _ := newTestPrompt(keys)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Options{Duration: time.Second})
	assert.ErrorIs(t, err, ErrInterrupted)

	started, _ := keys.counts()
	assert.Equal(t, 0, started)
}

func TestRun_InputFailureDegradesToDefault(t *testing.T) {
	t.Run("start fails", func(t *testing.T) {
		p, _ := newTestPrompt(&fakeKeys{startErr: errors.New("no tty")})

		start := time.Now()
		outcome, err := p.Run(context.Background(), Options{Duration: 5 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, OutcomeTimeout, outcome)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("input closes", func(t *testing.T) {
		keys := &fakeKeys{closeAt: 10 * time.Millisecond}
		p, _ := newTestPrompt(keys)

		start := time.Now()
		outcome, err := p.Run(context.Background(), Options{Duration: 5 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, OutcomeTimeout, outcome)
		assert.Less(t, time.Since(start), time.Second)

		_, stopped := keys.counts()
		assert.Equal(t, 1, stopped)
	})
}

func TestRun_MessageAndCountdown(t *testing.T) {
	p, out := newTestPrompt(&fakeKeys{})

	_, err := p.Run(context.Background(), Options{
		Duration:  120 * time.Millisecond,
		Message:   "Press ENTER to review",
		Countdown: "Auto-approving in %ds",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Press ENTER to review\n")
	assert.Contains(t, out.String(), "Auto-approving in 0s")
}

func TestTerminalKeySource_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	src := NewTerminalKeySource(f)
	_, err = src.Start()
	assert.ErrorIs(t, err, ErrNotTerminal)
	assert.NoError(t, src.Stop())
}
