package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/RevCBH/plangate/internal/config"
)

// Pager displays long content and returns once the operator is done
type Pager interface {
	Show(ctx context.Context, title, content string) error
}

// ErrNoPager is returned when no pager command is available
var ErrNoPager = errors.New("no pager available")

// InlinePager prints content directly
type InlinePager struct {
	Out io.Writer
}

func (p *InlinePager) Show(_ context.Context, title, content string) error {
	if title != "" {
		fmt.Fprintf(p.Out, "\n%s\n\n", title)
	}
	_, err := fmt.Fprintln(p.Out, content)
	return err
}

// ExecPager pipes content through an external pager such as less
type ExecPager struct {
	// Command is the pager command line; empty resolves $PAGER, then less, then more
	Command string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ResolvePagerCommand returns the pager command line to use, or "" if none
func ResolvePagerCommand(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("PAGER"); env != "" {
		if fields := strings.Fields(env); len(fields) > 0 {
			if _, err := exec.LookPath(fields[0]); err == nil {
				return env
			}
		}
	}
	for _, candidate := range []string{"less", "more"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func pagerArgs(command, title string) []string {
	args := strings.Fields(command)
	if len(args) == 1 && filepath.Base(args[0]) == "less" {
		args = append(args, "-R", "-F", "-X")
		if title != "" {
			args = append(args, "-Ps"+title+" (press q to quit)")
		}
	}
	return args
}

func (p *ExecPager) Show(ctx context.Context, title, content string) error {
	command := ResolvePagerCommand(p.Command)
	if command == "" {
		return ErrNoPager
	}
	args := pagerArgs(command, title)

	tmp, err := os.CreateTemp("", "plangate-plan-*.txt")
	if err != nil {
		return fmt.Errorf("create pager file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write pager file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close pager file: %w", err)
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], tmp.Name())...)
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager %s: %w", args[0], err)
	}
	return nil
}

// NewPager picks the pager for mode. Auto uses the TUI viewport when out is
// a terminal, an external pager when one exists, and inline output otherwise.
func NewPager(mode config.PagerMode, command string, in *os.File, out *os.File) Pager {
	switch mode {
	case config.PagerTUI:
		return NewTUIPager(in, out)
	case config.PagerExec:
		return &ExecPager{Command: command, Stdin: in, Stdout: out, Stderr: os.Stderr}
	case config.PagerInline:
		return &InlinePager{Out: out}
	}

	if out != nil && term.IsTerminal(int(out.Fd())) {
		return NewTUIPager(in, out)
	}
	if ResolvePagerCommand(command) != "" {
		return &ExecPager{Command: command, Stdin: in, Stdout: out, Stderr: os.Stderr}
	}
	return &InlinePager{Out: out}
}
