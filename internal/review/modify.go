package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/modify"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
)

// errMenuExit ends the modification menu and returns to the checkpoint
var errMenuExit = errors.New("leave modification menu")

const menuRule = "============================================================"

// modifier is the modification sub-loop of a full review
type modifier struct {
	s    *fullSession
	sess *modify.Session
}

func (s *fullSession) modify(ctx context.Context) error {
	fmt.Fprintln(s.out(), "\n🔧 Entering modification mode...")

	sess := modify.NewSession(s.plan.TaskID)
	if err := sess.Start(); err != nil {
		return fmt.Errorf("start modification session: %w", err)
	}

	m := &modifier{s: s, sess: sess}
	err := m.loop(ctx)
	switch {
	case err == nil, errors.Is(err, errMenuExit):
		return nil
	case isEndOfInput(err):
		fmt.Fprintf(s.out(), "\n\n%s Interrupt detected during modification...\n", IconWarning)
		m.finish(sess.Cancel("Interrupted by user"))
		fmt.Fprintln(s.out(), "Returning to checkpoint...")
		return nil
	default:
		m.finish(sess.Fail(err.Error()))
		return fmt.Errorf("modification menu: %w", err)
	}
}

// finish persists the session once it reached a terminal state
func (m *modifier) finish(transitionErr error) {
	if transitionErr != nil {
		m.s.r.logger.Warn("modification session transition failed", "error", transitionErr)
	}
	if m.s.r.audit == nil {
		return
	}
	if _, err := m.s.r.audit.SaveSession(m.sess); err != nil {
		m.s.r.logger.Warn("failed to save modification session", "session", m.sess.ID, "error", err)
	}
}

func (m *modifier) out(format string, args ...any) {
	fmt.Fprintf(m.s.out(), format, args...)
}

func (m *modifier) tracker() *modify.Tracker {
	return m.sess.Tracker()
}

// preview is the working plan with pending changes applied
func (m *modifier) preview() *plan.Plan {
	return m.s.r.applier.Apply(m.s.plan, m.tracker())
}

func (m *modifier) read(label string) (string, error) {
	return readText(m.s.r.term.Lines, label)
}

func (m *modifier) choice(label string) (string, error) {
	return readChoice(m.s.r.term.Lines, label)
}

func (m *modifier) recorded(err error, format string, args ...any) {
	if err != nil {
		m.out("%s %v\n", IconCancelled, err)
		return
	}
	m.out("%s %s\n", IconApproved, fmt.Sprintf(format, args...))
}

func (m *modifier) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return prompt.ErrInterrupted
		}

		m.out("\n%s\nMODIFICATION MENU\n%s\n", menuRule, menuRule)
		if n := m.tracker().Count(); n > 0 {
			m.out("\nPending changes: %d\n", n)
		}
		m.out("\n[F] Add/Remove Files\n")
		m.out("[D] Add/Remove Dependencies\n")
		m.out("[P] View/Modify Phases\n")
		m.out("[R] Add/Remove Risks\n")
		m.out("[M] Update Metadata (LOC, duration, tests)\n")
		m.out("[S] Show Changes Summary\n")
		m.out("[U] Undo Last Change\n")
		m.out("[A] Apply Changes & Return to Review\n")
		m.out("[C] Cancel Modifications\n\n")

		choice, err := m.choice("Your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case "f":
			err = m.files()
		case "d":
			err = m.dependencies()
		case "p":
			err = m.phases()
		case "r":
			err = m.risks()
		case "m":
			err = m.metadata()
		case "s":
			m.out("\n%s\n", m.tracker().Summary())
		case "u":
			m.undo()
		case "a":
			err = m.apply(ctx)
		case "c":
			err = m.cancel()
		default:
			m.out("\n%s Invalid choice: '%s'\n", IconCancelled, choice)
			m.out("Please choose F, D, P, R, M, S, U, A, or C\n")
		}
		if err != nil {
			return err
		}
	}
}

func (m *modifier) section(title string) {
	m.out("\n%s\n%s\n%s\n", menuRule, title, menuRule)
}

func listItems(m *modifier, heading, empty string, items []string) {
	if len(items) == 0 {
		m.out("\n%s\n", empty)
		return
	}
	m.out("\n%s\n", heading)
	for i, item := range items {
		m.out("  %d. %s\n", i+1, item)
	}
}

// pick reads a 1-based item number and returns the 0-based index
func (m *modifier) pick(label string, n int) (int, bool, error) {
	raw, err := m.read(label)
	if err != nil {
		return 0, false, err
	}
	i, convErr := strconv.Atoi(raw)
	if convErr != nil {
		m.out("%s Please enter a valid number\n", IconCancelled)
		return 0, false, nil
	}
	if i < 1 || i > n {
		m.out("%s Invalid number\n", IconCancelled)
		return 0, false, nil
	}
	return i - 1, true, nil
}

func (m *modifier) files() error {
	current := m.preview().Files
	m.section("FILE MODIFICATION")
	listItems(m, "Current files:", "No files in plan", current)
	m.out("\n[A] Add file\n[R] Remove file\n[B] Back to menu\n\n")

	choice, err := m.choice("Your choice: ")
	if err != nil {
		return err
	}
	switch choice {
	case "a":
		path, err := m.read("Enter file path: ")
		if err != nil || path == "" {
			return err
		}
		purpose, err := m.read("Purpose (optional): ")
		if err != nil {
			return err
		}
		m.recorded(m.tracker().RecordFileAdded(path, purpose), "Marked file for addition: %s", path)
	case "r":
		i, ok, err := m.pick("Enter file number to remove: ", len(current))
		if err != nil || !ok {
			return err
		}
		m.recorded(m.tracker().RecordFileRemoved(current[i]), "Marked file for removal: %s", current[i])
	}
	return nil
}

func (m *modifier) dependencies() error {
	current := m.preview().Dependencies
	m.section("DEPENDENCY MODIFICATION")
	listItems(m, "Current dependencies:", "No dependencies in plan", current)
	m.out("\n[A] Add dependency\n[R] Remove dependency\n[B] Back to menu\n\n")

	choice, err := m.choice("Your choice: ")
	if err != nil {
		return err
	}
	switch choice {
	case "a":
		dep, err := m.read("Enter dependency name: ")
		if err != nil || dep == "" {
			return err
		}
		ver, err := m.read("Version (optional): ")
		if err != nil {
			return err
		}
		m.recorded(m.tracker().RecordDependencyAdded(dep, ver), "Marked dependency for addition: %s", dep)
	case "r":
		i, ok, err := m.pick("Enter dependency number to remove: ", len(current))
		if err != nil || !ok {
			return err
		}
		m.recorded(m.tracker().RecordDependencyRemoved(current[i]), "Marked dependency for removal: %s", current[i])
	}
	return nil
}

func (m *modifier) phases() error {
	current := m.preview().Phases
	m.section("IMPLEMENTATION PHASES")
	listItems(m, "Current phases:", "No phases defined", current)
	m.out("\n[A] Add phase\n[R] Remove phase\n[O] Reorder phase\n[B] Back to menu\n\n")

	choice, err := m.choice("Your choice: ")
	if err != nil {
		return err
	}
	switch choice {
	case "a":
		phase, err := m.read("Enter phase description: ")
		if err != nil || phase == "" {
			return err
		}
		pos := -1
		raw, err := m.read(fmt.Sprintf("Position (1-%d, Enter for end): ", len(current)+1))
		if err != nil {
			return err
		}
		if raw != "" {
			n, convErr := strconv.Atoi(raw)
			if convErr != nil || n < 1 || n > len(current)+1 {
				m.out("%s Invalid position\n", IconCancelled)
				return nil
			}
			pos = n - 1
		}
		m.recorded(m.tracker().RecordPhaseAdded(phase, pos), "Marked phase for addition: %s", phase)
	case "r":
		if len(current) == 0 {
			m.out("%s No phases to remove\n", IconCancelled)
			return nil
		}
		i, ok, err := m.pick("Enter phase number to remove: ", len(current))
		if err != nil || !ok {
			return err
		}
		m.recorded(m.tracker().RecordPhaseRemoved(current[i], i), "Marked phase for removal: %s", current[i])
	case "o":
		if len(current) < 2 {
			m.out("%s Need at least two phases to reorder\n", IconCancelled)
			return nil
		}
		from, ok, err := m.pick("Move phase number: ", len(current))
		if err != nil || !ok {
			return err
		}
		to, ok, err := m.pick("To position: ", len(current))
		if err != nil || !ok {
			return err
		}
		m.recorded(m.tracker().RecordPhaseReordered(current[from], from, to),
			"Marked phase for move: %s (%d -> %d)", current[from], from+1, to+1)
	}
	return nil
}

func (m *modifier) risks() error {
	current := m.preview().RiskDetails
	descriptions := make([]string, len(current))
	for i, r := range current {
		descriptions[i] = fmt.Sprintf("[%s] %s", strings.ToUpper(orDefault(r.Severity, "unknown")), r.Description)
	}
	m.section("RISK ASSESSMENT")
	listItems(m, "Current risks:", "No risks recorded", descriptions)
	m.out("\n[A] Add risk\n[R] Remove risk\n[B] Back to menu\n\n")

	choice, err := m.choice("Your choice: ")
	if err != nil {
		return err
	}
	switch choice {
	case "a":
		desc, err := m.read("Describe the risk: ")
		if err != nil || desc == "" {
			return err
		}
		severity, err := m.read("Severity (low/medium/high): ")
		if err != nil {
			return err
		}
		severity = strings.ToLower(severity)
		switch severity {
		case "low", "medium", "high":
		case "":
			severity = "medium"
		default:
			m.out("%s Severity must be low, medium or high\n", IconCancelled)
			return nil
		}
		mitigation, err := m.read("Mitigation (optional): ")
		if err != nil {
			return err
		}
		risk := plan.RiskDetail{Severity: severity, Description: desc, Mitigation: mitigation}
		m.recorded(m.tracker().RecordRiskAdded(risk), "Marked risk for addition: %s", desc)
	case "r":
		i, ok, err := m.pick("Enter risk number to remove: ", len(current))
		if err != nil || !ok {
			return err
		}
		m.recorded(m.tracker().RecordRiskRemoved(current[i].Description), "Marked risk for removal: %s", current[i].Description)
	}
	return nil
}

func notSet(s string) string {
	if s == "" || s == "0" {
		return "Not set"
	}
	return s
}

func (m *modifier) metadata() error {
	p := m.preview()
	loc := strconv.Itoa(p.EstimatedLOC)

	m.section("METADATA UPDATE")
	m.out("\nCurrent metadata:\n")
	m.out("  Estimated LOC: %s\n", notSet(loc))
	m.out("  Estimated Duration: %s\n", notSet(p.EstimatedDuration))
	m.out("  Test Summary: %s\n", notSet(p.TestSummary))
	m.out("\n[L] Update estimated LOC\n[D] Update estimated duration\n[T] Update test summary\n[B] Back to menu\n\n")

	choice, err := m.choice("Your choice: ")
	if err != nil {
		return err
	}
	switch choice {
	case "l":
		value, err := m.read("Enter estimated LOC: ")
		if err != nil {
			return err
		}
		m.recorded(m.tracker().RecordMetadataUpdated(modify.FieldEstimatedLOC, loc, value),
			"Marked LOC for update: %s → %s", loc, value)
	case "d":
		value, err := m.read("Enter estimated duration (e.g., '2-3 hours'): ")
		if err != nil || value == "" {
			return err
		}
		m.recorded(m.tracker().RecordMetadataUpdated(modify.FieldEstimatedDuration, p.EstimatedDuration, value),
			"Marked duration for update: %s → %s", notSet(p.EstimatedDuration), value)
	case "t":
		value, err := m.read("Enter test summary: ")
		if err != nil || value == "" {
			return err
		}
		m.recorded(m.tracker().RecordMetadataUpdated(modify.FieldTestSummary, p.TestSummary, value),
			"Marked test summary for update")
	}
	return nil
}

func (m *modifier) undo() {
	c, ok := m.tracker().Undo()
	if !ok {
		m.out("\n%s Nothing to undo\n", IconWarning)
		return
	}
	m.out("\n%s Undid: %s\n", IconApproved, c.Describe())
}

func (m *modifier) cancel() error {
	if n := m.tracker().Count(); n > 0 {
		m.out("\n%s You have %d unsaved changes.\n", IconWarning, n)
		m.out("Are you sure you want to cancel modifications?\n")
		ok, err := confirm(m.s.r.term.Lines, "Confirm? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			m.out("\nCancellation aborted. Returning to modification menu...\n")
			return nil
		}
	}
	m.finish(m.sess.Cancel("User requested cancellation"))
	m.out("Returning to checkpoint...\n")
	return errMenuExit
}

func (m *modifier) apply(ctx context.Context) error {
	t := m.tracker()
	if t.IsEmpty() {
		m.out("\n%s No changes to apply\n", IconWarning)
		m.finish(m.sess.End(false))
		return errMenuExit
	}

	m.section("APPLYING MODIFICATIONS")
	m.out("\n%s\n", t.Summary())

	if conflicts := m.s.r.applier.Validate(t, m.s.plan); len(conflicts) > 0 {
		m.out("\n%s Validation warnings:\n", IconWarning)
		for _, c := range conflicts {
			m.out("  - %s\n", c)
		}
	}

	m.out("\n%s Apply these changes and create new plan version?\n", IconWarning)
	ok, err := confirm(m.s.r.term.Lines, "Confirm? [y/N]: ")
	if err != nil {
		return err
	}
	if !ok {
		m.out("\nApplication cancelled. Returning to modification menu...\n")
		return nil
	}

	s := m.s
	count := t.Count()
	modified := s.r.applier.Apply(s.plan, t)
	score := s.score
	if s.r.scorer != nil {
		score, _ = s.r.scorer.Calculate(ctx, modified, s.ec)
	}

	reason := fmt.Sprintf("Modified in review (%d changes)", count)
	versionNumber := 0
	if s.r.versions != nil {
		v, err := s.r.versions.Create(modified, reason, s.r.config.Author)
		if err != nil {
			m.out("\n%s Error applying modifications: %v\n", IconCancelled, err)
			m.out("Returning to modification menu...\n")
			s.r.logger.Warn("failed to create plan version", "task", s.plan.TaskID, "error", err)
			return nil
		}
		versionNumber = v.Number
		s.versions = append(s.versions, v.Number)
		s.r.publisher.Emit(events.NewEvent(events.VersionCreated, s.plan.TaskID).WithPayload(map[string]any{
			"version": v.Number,
			"reason":  reason,
		}))
	}

	m.finish(m.sess.End(true))

	s.plan = modified
	s.score = score
	s.r.publisher.Emit(events.NewEvent(events.ReviewModified, s.plan.TaskID).WithPayload(map[string]any{
		"changes": count,
		"version": versionNumber,
		"score":   score.Total,
	}))

	m.out("\n%s %s\n", IconApproved, s.r.styles.Success.Render("Changes applied successfully!"))
	if versionNumber > 0 {
		m.out("Created plan version %d\n", versionNumber)
	}
	m.out("New complexity score: %d/10\n", score.Total)
	m.out("\nReturning to checkpoint with modified plan...\n")
	return errMenuExit
}
