package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/RevCBH/plangate/internal/complexity"
)

// ReviewFlags are the review-related flags shared by evaluate and review
type ReviewFlags struct {
	Review        bool // Force full review regardless of score
	SkipReview    bool // Skip the checkpoint for plans that do not require one
	AutoProceed   bool // Approve quick reviews without the countdown
	DesignOnly    bool // Stop after the plan is approved
	ImplementOnly bool // Use a previously approved plan without reviewing
	Hotfix        bool // Mark the task as a hotfix (forces full review)
}

// FlagConflictError reports flags that cannot be combined
type FlagConflictError struct {
	Flags   []string
	Message string
}

func (e *FlagConflictError) Error() string {
	return fmt.Sprintf("conflicting flags: %s cannot be used together\n%s",
		strings.Join(e.Flags, " and "), e.Message)
}

type flagConflict struct {
	names   []string
	set     func(ReviewFlags) bool
	message string
}

var flagConflicts = []flagConflict{
	{
		names: []string{"--skip-review", "--review"},
		set:   func(f ReviewFlags) bool { return f.SkipReview && f.Review },
		message: "  --skip-review: Skip the review checkpoint\n" +
			"  --review: Force a full review\n" +
			"Solution: Remove --skip-review if you want to review the plan.",
	},
	{
		names: []string{"--design-only", "--implement-only"},
		set:   func(f ReviewFlags) bool { return f.DesignOnly && f.ImplementOnly },
		message: "Choose one workflow mode:\n" +
			"  --design-only     Review and approve the plan only\n" +
			"  --implement-only  Proceed with a previously approved plan\n" +
			"  (no flags)        Review, then proceed (default)",
	},
}

// Validate rejects conflicting flags and applies overrides. Overrides are
// reported on w as warnings.
func (f *ReviewFlags) Validate(w io.Writer) error {
	for _, c := range flagConflicts {
		if c.set(*f) {
			return &FlagConflictError{Flags: c.names, Message: c.message}
		}
	}

	if f.Review && f.AutoProceed {
		fmt.Fprintln(w, "\n⚠️  Flag override: --review takes precedence over --auto-proceed.")
		fmt.Fprintln(w, "    Full review checkpoint will be shown regardless of complexity score.")
		f.AutoProceed = false
	}
	return nil
}

// UserFlags converts the flags for the scorer and triggers
func (f ReviewFlags) UserFlags() complexity.UserFlags {
	return complexity.UserFlags{
		ForceReview: f.Review,
		SkipReview:  f.SkipReview,
		AutoProceed: f.AutoProceed,
		Hotfix:      f.Hotfix,
	}
}

// Enabled lists the flags that are set, in declaration order
func (f ReviewFlags) Enabled() []string {
	var out []string
	for _, flag := range []struct {
		name string
		on   bool
	}{
		{"review", f.Review},
		{"skip_review", f.SkipReview},
		{"auto_proceed", f.AutoProceed},
		{"design_only", f.DesignOnly},
		{"implement_only", f.ImplementOnly},
		{"hotfix", f.Hotfix},
	} {
		if flag.on {
			out = append(out, flag.name)
		}
	}
	return out
}

// WorkflowMode names the workflow the flags select
func (f ReviewFlags) WorkflowMode() string {
	switch {
	case f.DesignOnly:
		return "design_only"
	case f.ImplementOnly:
		return "implement_only"
	default:
		return "standard"
	}
}
