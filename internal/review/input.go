package review

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/RevCBH/plangate/internal/prompt"
)

// LineReader reads one line of operator input at a time. ReadLine returns
// io.EOF at end of input and prompt.ErrInterrupted on Ctrl+C.
type LineReader interface {
	ReadLine(label string) (string, error)
	Close() error
}

// ReadlineReader is a LineReader backed by chzyer/readline. The readline
// instance is created on first use so it does not compete with the timed
// prompt for stdin.
type ReadlineReader struct {
	in  io.ReadCloser
	out io.Writer

	mu sync.Mutex
	rl *readline.Instance
}

// NewReadlineReader creates a reader over in and out. Nil values use the
// process stdin and stdout.
func NewReadlineReader(in io.ReadCloser, out io.Writer) *ReadlineReader {
	return &ReadlineReader{in: in, out: out}
}

func (r *ReadlineReader) instance() (*readline.Instance, error) {
	if r.rl != nil {
		return r.rl, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Stdin:             r.in,
		Stdout:            r.out,
		InterruptPrompt:   "^C",
		EOFPrompt:         "",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	r.rl = rl
	return rl, nil
}

// ReadLine shows label and returns the entered line without its newline
func (r *ReadlineReader) ReadLine(label string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rl, err := r.instance()
	if err != nil {
		return "", err
	}
	rl.SetPrompt(label)

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", prompt.ErrInterrupted
	}
	return line, err
}

// Close releases the terminal
func (r *ReadlineReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rl == nil {
		return nil
	}
	err := r.rl.Close()
	r.rl = nil
	return err
}

// readChoice reads a menu choice: trimmed, lowercased, first character only
func readChoice(lines LineReader, label string) (string, error) {
	line, err := lines.ReadLine(label)
	if err != nil {
		return "", err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	if len(choice) > 1 {
		choice = choice[:1]
	}
	return choice, nil
}

// readText reads a trimmed free-text answer
func readText(lines LineReader, label string) (string, error) {
	line, err := lines.ReadLine(label)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/N question. Anything but y or yes is a no.
func confirm(lines LineReader, label string) (bool, error) {
	answer, err := readText(lines, label)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
