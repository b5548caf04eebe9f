package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode"
)

// Outcome is the result of a timed prompt
type Outcome string

const (
	OutcomeTimeout Outcome = "timeout"
	OutcomeConfirm Outcome = "confirm"
	OutcomeCancel  Outcome = "cancel"
)

// ErrInterrupted is returned when the operator interrupts the prompt
// (Ctrl+C, SIGINT or context cancellation). It is never mapped to
// OutcomeCancel.
var ErrInterrupted = errors.New("prompt interrupted")

const (
	// PollInterval is how often the countdown is refreshed
	PollInterval = 50 * time.Millisecond

	// DefaultCancelKey is used when Options.CancelKey is zero
	DefaultCancelKey = 'c'

	keyInterrupt = 0x03 // Ctrl+C in raw mode
)

// KeySource delivers single keypresses from an input device
type KeySource interface {
	// Start begins delivering keys. The channel is closed when the source
	// can no longer read.
	Start() (<-chan byte, error)

	// Stop cancels pending reads and restores any terminal state changed
	// by Start. It is safe to call more than once.
	Stop() error
}

// Options configures one prompt invocation
type Options struct {
	Duration time.Duration
	Message  string

	// CancelKey is matched case-insensitively; 0 means DefaultCancelKey
	CancelKey rune

	// Countdown, when set, is rendered on every whole second with the
	// remaining seconds as its only argument, e.g. "Auto-approving in %ds".
	Countdown string
}

// TimedPrompt waits a bounded time for a confirm or cancel keypress
type TimedPrompt struct {
	keys   KeySource
	out    io.Writer
	logger *slog.Logger
}

// New creates a timed prompt reading from keys and writing to out
func New(keys KeySource, out io.Writer, logger *slog.Logger) *TimedPrompt {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimedPrompt{keys: keys, out: out, logger: logger}
}

// Run shows the message and waits up to opts.Duration. Enter confirms, the
// cancel key cancels, other keys are ignored. A key source failure degrades
// to OutcomeTimeout. Interrupts return ErrInterrupted.
func (p *TimedPrompt) Run(ctx context.Context, opts Options) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrInterrupted
	}

	cancelKey := opts.CancelKey
	if cancelKey == 0 {
		cancelKey = DefaultCancelKey
	}
	cancelKey = unicode.ToLower(cancelKey)

	if opts.Message != "" {
		fmt.Fprintln(p.out, opts.Message)
	}

	keys, err := p.keys.Start()
	if err != nil {
		p.logger.Warn("input unavailable, using default outcome", "error", err)
		return OutcomeTimeout, nil
	}
	defer func() {
		if err := p.keys.Stop(); err != nil {
			p.logger.Warn("failed to restore terminal", "error", err)
		}
		if opts.Countdown != "" {
			fmt.Fprintln(p.out)
		}
	}()

	deadline := time.Now().Add(opts.Duration)
	timer := time.NewTimer(opts.Duration)
	defer timer.Stop()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	lastShown := -1
	p.showCountdown(opts.Countdown, deadline, &lastShown)

	for {
		select {
		case <-ctx.Done():
			return "", ErrInterrupted

		case <-timer.C:
			if ctx.Err() != nil {
				return "", ErrInterrupted
			}
			return OutcomeTimeout, nil

		case k, ok := <-keys:
			if ctx.Err() != nil {
				return "", ErrInterrupted
			}
			if !ok {
				p.logger.Warn("input closed, using default outcome")
				return OutcomeTimeout, nil
			}
			if k == keyInterrupt {
				return "", ErrInterrupted
			}
			// Keys that race with expiry lose
			if !time.Now().Before(deadline) {
				return OutcomeTimeout, nil
			}
			switch {
			case k == '\r' || k == '\n':
				return OutcomeConfirm, nil
			case unicode.ToLower(rune(k)) == cancelKey:
				return OutcomeCancel, nil
			}

		case <-ticker.C:
			p.showCountdown(opts.Countdown, deadline, &lastShown)
		}
	}
}

func (p *TimedPrompt) showCountdown(format string, deadline time.Time, last *int) {
	if format == "" {
		return
	}
	remaining := int(time.Until(deadline).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	if remaining == *last {
		return
	}
	*last = remaining
	fmt.Fprintf(p.out, "\r"+format+" ", remaining)
}
