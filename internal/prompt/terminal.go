package prompt

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by TerminalKeySource when input is not a TTY
var ErrNotTerminal = errors.New("input is not a terminal")

// TerminalKeySource reads raw keypresses from a terminal file descriptor.
// The terminal is put in raw mode by Start and restored by Stop; reads are
// cancellable so stdin is free for line input once Stop returns.
type TerminalKeySource struct {
	in *os.File

	mu     sync.Mutex
	state  *term.State
	reader cancelreader.CancelReader
	stop   chan struct{}
	done   chan struct{}
}

// NewTerminalKeySource creates a key source over in (usually os.Stdin)
func NewTerminalKeySource(in *os.File) *TerminalKeySource {
	return &TerminalKeySource{in: in}
}

// Start switches the terminal to raw mode and starts the reader goroutine
func (t *TerminalKeySource) Start() (<-chan byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reader != nil {
		return nil, fmt.Errorf("key source already started")
	}

	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	reader, err := cancelreader.NewReader(t.in)
	if err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("failed to create input reader: %w", err)
	}

	t.state = state
	t.reader = reader
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	keys := make(chan byte, 16)
	go t.readLoop(reader, keys, t.stop, t.done)

	return keys, nil
}

func (t *TerminalKeySource) readLoop(r cancelreader.CancelReader, keys chan<- byte, stop, done chan struct{}) {
	defer close(done)
	defer close(keys)

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		select {
		case keys <- buf[0]:
		case <-stop:
			return
		}
	}
}

// Stop cancels the pending read and restores the terminal
func (t *TerminalKeySource) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reader == nil {
		return nil
	}

	t.reader.Cancel()
	close(t.stop)

	select {
	case <-t.done:
	case <-time.After(100 * time.Millisecond):
		// Reader still blocked; the cancelled reader will unblock it later
	}

	var errs []error
	if err := term.Restore(int(t.in.Fd()), t.state); err != nil {
		errs = append(errs, fmt.Errorf("restore terminal: %w", err))
	}
	if err := t.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reader: %w", err))
	}

	t.reader = nil
	t.state = nil

	return errors.Join(errs...)
}
