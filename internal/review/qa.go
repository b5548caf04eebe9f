package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RevCBH/plangate/internal/complexity"
	"github.com/RevCBH/plangate/internal/events"
	"github.com/RevCBH/plangate/internal/plan"
	"github.com/RevCBH/plangate/internal/prompt"
)

// CategoryGeneral is used when no keyword matches
const CategoryGeneral = "general"

// keywordCategory maps one question category to its trigger keywords
type keywordCategory struct {
	Name     string
	Keywords []string
}

// questionCategories are checked in order; ties go to the earlier category
var questionCategories = []keywordCategory{
	{"rationale", []string{"why", "rationale", "reason", "because", "chose", "chosen"}},
	{"testing", []string{"test", "testing", "tested", "tests", "verify", "validation"}},
	{"risks", []string{"risk", "risks", "concern", "danger", "problem", "fail", "what if"}},
	{"duration", []string{"time", "duration", "long", "hours", "estimate", "how long"}},
	{"files", []string{"file", "files", "create", "modify", "change", "touch"}},
	{"dependencies", []string{"depend", "dependency", "library", "package", "import"}},
	{"phases", []string{"phase", "order", "step", "sequence", "first", "next"}},
	{"complexity", []string{"complex", "score", "difficult", "simple", "simplify"}},
}

// MatchQuestion returns the category with the most keyword hits in the
// question and the keywords that hit. Matching is by substring, so "tests"
// also counts "test".
func MatchQuestion(question string) (string, []string) {
	q := strings.ToLower(question)
	best := CategoryGeneral
	var bestKeywords []string

	for _, cat := range questionCategories {
		var matched []string
		for _, kw := range cat.Keywords {
			if strings.Contains(q, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > len(bestKeywords) {
			best = cat.Name
			bestKeywords = matched
		}
	}
	return best, bestKeywords
}

// Section is a slice of the plan that answers a question
type Section struct {
	Title   string
	Content string
	Source  string
}

const sourcePlan = "Implementation Plan"

// ExtractSection pulls the plan section for category. Unknown categories
// get the general overview.
func ExtractSection(p *plan.Plan, score *complexity.Score, category string) Section {
	switch category {
	case "rationale":
		return extractRationale(p)
	case "testing":
		return extractTesting(p)
	case "risks":
		return extractRisks(p)
	case "duration":
		return extractDuration(p, score)
	case "files":
		return extractFiles(p)
	case "dependencies":
		return extractDependencies(p)
	case "phases":
		return extractPhases(p)
	case "complexity":
		return extractComplexity(p, score)
	default:
		return extractGeneral(p)
	}
}

func joinOr(parts []string, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func extractRationale(p *plan.Plan) Section {
	var parts []string
	if len(p.Patterns) > 0 {
		parts = append(parts, "**Design Patterns Used**: "+strings.Join(p.Patterns, ", "))
	}
	switch {
	case p.Instructions != "":
		parts = append(parts, "\n**Approach**: "+truncateRunes(p.Instructions, 500)+"...")
	case p.RawPlan != "":
		parts = append(parts, "\n**Plan Details**: "+truncateRunes(p.RawPlan, 500)+"...")
	}
	return Section{"Rationale & Approach", joinOr(parts, "No specific rationale documented in plan."), sourcePlan}
}

func extractTesting(p *plan.Plan) Section {
	var parts []string
	if p.TestSummary != "" {
		parts = append(parts, "**Test Strategy**: "+p.TestSummary)
	}
	if len(p.Patterns) > 0 {
		parts = append(parts, "\n**Patterns to Test**: "+strings.Join(p.Patterns, ", "))
	}
	return Section{"Test Strategy", joinOr(parts,
		"No explicit test strategy documented. Standard unit and integration tests recommended."), sourcePlan}
}

func extractRisks(p *plan.Plan) Section {
	var parts []string
	if len(p.RiskDetails) > 0 {
		for _, r := range p.RiskDetails {
			parts = append(parts, fmt.Sprintf("\n**%s**: %s\n  Mitigation: %s",
				strings.ToUpper(orDefault(r.Severity, "unknown")),
				orDefault(r.Description, "No description"),
				orDefault(r.Mitigation, "No mitigation specified")))
		}
	} else if len(p.RiskIndicators) > 0 {
		parts = append(parts, "**Risk Indicators Detected**: "+strings.Join(p.RiskIndicators, ", "))
	}
	if p.HasSecurityKeywords() {
		parts = append(parts, "\n**Security Sensitive**: This plan involves authentication, "+
			"authorization, or security-related functionality.")
	}
	if p.HasSchemaChanges() {
		parts = append(parts, "\n**Schema Changes**: This plan modifies database schema. "+
			"Ensure proper migration and rollback strategies.")
	}
	return Section{"Risk Assessment", joinOr(parts, "No specific risks identified in plan."), sourcePlan}
}

func extractDuration(p *plan.Plan, score *complexity.Score) Section {
	var parts []string
	if p.EstimatedDuration != "" {
		parts = append(parts, "**Estimated Duration**: "+p.EstimatedDuration)
	}
	if p.EstimatedLOC > 0 {
		parts = append(parts, fmt.Sprintf("**Estimated Lines of Code**: ~%d", p.EstimatedLOC))
	}
	if score != nil {
		var estimate string
		switch {
		case score.Total <= 3:
			estimate = "Low complexity, quick implementation expected"
		case score.Total <= 6:
			estimate = "Medium complexity, moderate time investment"
		default:
			estimate = "High complexity, significant time investment"
		}
		parts = append(parts, "\n**Complexity Assessment**: "+estimate)
	}
	return Section{"Time Estimates", joinOr(parts, "No time estimates provided in plan."), sourcePlan}
}

func extractFiles(p *plan.Plan) Section {
	var parts []string
	if n := len(p.Files); n > 0 {
		parts = append(parts, fmt.Sprintf("**Files to Create/Modify**: %d files\n", n))
		for i, f := range p.Files {
			if i == 10 {
				parts = append(parts, fmt.Sprintf("  ... and %d more files", n-10))
				break
			}
			parts = append(parts, fmt.Sprintf("  %d. %s", i+1, f))
		}
	}
	return Section{"Files", joinOr(parts, "No files specified in plan."), sourcePlan}
}

func extractDependencies(p *plan.Plan) Section {
	var parts []string
	if n := len(p.Dependencies); n > 0 {
		parts = append(parts, fmt.Sprintf("**External Dependencies**: %d dependencies\n", n))
		for i, d := range p.Dependencies {
			parts = append(parts, fmt.Sprintf("  %d. %s", i+1, d))
		}
	}
	return Section{"Dependencies", joinOr(parts, "No external dependencies specified in plan."), sourcePlan}
}

func extractPhases(p *plan.Plan) Section {
	var parts []string
	if n := len(p.Phases); n > 0 {
		parts = append(parts, fmt.Sprintf("**Implementation Phases**: %d phases\n", n))
		for i, ph := range p.Phases {
			parts = append(parts, fmt.Sprintf("  %d. %s", i+1, ph))
		}
	}
	return Section{"Implementation Order", joinOr(parts, "No explicit phases defined in plan."), sourcePlan}
}

func extractComplexity(p *plan.Plan, score *complexity.Score) Section {
	var parts []string
	if score == nil {
		parts = append(parts,
			fmt.Sprintf("**Files to Create**: %d", p.FileCount()),
			fmt.Sprintf("**Dependencies**: %d", p.DependencyCount()))
		if p.EstimatedLOC > 0 {
			parts = append(parts, fmt.Sprintf("**Estimated LOC**: %d", p.EstimatedLOC))
		}
		return Section{"Complexity Analysis", strings.Join(parts, "\n"), sourcePlan}
	}

	parts = append(parts, fmt.Sprintf("**Complexity Score**: %d/10\n", score.Total))
	if len(score.Factors) > 0 {
		parts = append(parts, "**Factor Breakdown**:")
		for _, f := range score.Factors {
			parts = append(parts,
				fmt.Sprintf("  - %s: %d/%d", f.Name, f.Score, f.MaxScore),
				"    "+f.Justification)
		}
	}
	return Section{"Complexity Analysis", strings.Join(parts, "\n"), "Complexity Score"}
}

func extractGeneral(p *plan.Plan) Section {
	parts := []string{
		"**Task**: " + p.TaskID,
		fmt.Sprintf("**Files**: %d files to create/modify", p.FileCount()),
	}
	if n := p.DependencyCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("**Dependencies**: %d external", n))
	}
	if p.EstimatedDuration != "" {
		parts = append(parts, "**Duration**: "+p.EstimatedDuration)
	}
	parts = append(parts, "\n💡 **Tip**: Ask more specific questions about:\n"+
		"  - 'Why was this approach chosen?' (rationale)\n"+
		"  - 'What are the risks?' (risk assessment)\n"+
		"  - 'How is this tested?' (test strategy)\n"+
		"  - 'What files are created?' (file details)")
	return Section{"Plan Overview", strings.Join(parts, "\n"), sourcePlan}
}

// Answer is the response to one question
type Answer struct {
	Text       string
	Confidence int
	Category   string
	Keywords   []string
	Section    Section
}

// AnswerQuestion matches the question to a plan section and formats it
func AnswerQuestion(p *plan.Plan, score *complexity.Score, question string) Answer {
	category, keywords := MatchQuestion(question)
	section := ExtractSection(p, score, category)

	var confidence int
	switch {
	case category == CategoryGeneral:
		confidence = 4
	case len(keywords) >= 2:
		confidence = 8
	case len(keywords) == 1:
		confidence = 6
	default:
		confidence = 5
	}

	text := fmt.Sprintf("**%s** (from %s)\n\n%s\n\n"+
		"💡 **Note**: This is a keyword-based answer. "+
		"For detailed questions, review the full plan or consult your team architect.",
		section.Title, section.Source, section.Content)

	return Answer{Text: text, Confidence: confidence, Category: category, Keywords: keywords, Section: section}
}

// QA exit reasons
const (
	ExitBack      = "back"
	ExitInterrupt = "interrupt"
	ExitError     = "error"
)

// QAExchange is one question and its answer
type QAExchange struct {
	Question   string    `yaml:"question"`
	Answer     string    `yaml:"answer"`
	Confidence int       `yaml:"confidence"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// QASession is the audit record of one Q&A sub-loop
type QASession struct {
	ID         string       `yaml:"session_id"`
	TaskID     string       `yaml:"task_id"`
	StartedAt  time.Time    `yaml:"started_at"`
	Exchanges  []QAExchange `yaml:"exchanges"`
	EndedAt    *time.Time   `yaml:"ended_at,omitempty"`
	ExitReason string       `yaml:"exit_reason,omitempty"`
}

// QA runs the question-and-answer sub-loop of a full review
type QA struct {
	lines     LineReader
	out       io.Writer
	audit     AuditStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

const qaRule = "======================================================================"

func (q *QA) intro() {
	fmt.Fprintf(q.out, "\n%s\nQ&A MODE - Ask about the implementation plan\n%s\n", qaRule, qaRule)
	fmt.Fprintln(q.out, "\nYou can ask questions like:")
	fmt.Fprintln(q.out, "  - Why was this approach chosen?")
	fmt.Fprintln(q.out, "  - What are the risks?")
	fmt.Fprintln(q.out, "  - How long will this take?")
	fmt.Fprintln(q.out, "  - What files will be created?")
	fmt.Fprintln(q.out, "  - What if [scenario] happens?")
	fmt.Fprintln(q.out, "\nCommands:")
	fmt.Fprintln(q.out, "  - Type your question and press ENTER")
	fmt.Fprintln(q.out, "  - Type 'back' to return to checkpoint")
	fmt.Fprintln(q.out, "  - Type 'help' for more examples")
	fmt.Fprintln(q.out)
}

func (q *QA) help() {
	fmt.Fprintf(q.out, "\n%s\nEXAMPLE QUESTIONS BY CATEGORY:\n%s\n", qaRule, qaRule)
	groups := []struct {
		title     string
		questions []string
	}{
		{"Rationale & Approach", []string{"Why was this approach chosen?", "What's the rationale for using [pattern]?"}},
		{"Risk Assessment", []string{"What are the risks?", "What if [component] fails?", "What could go wrong?"}},
		{"Testing Strategy", []string{"How will this be tested?", "What tests are needed?"}},
		{"Time & Complexity", []string{"How long will this take?", "How complex is this?", "Could we simplify this?"}},
		{"Files & Dependencies", []string{"What files will be created?", "What dependencies are needed?"}},
		{"Implementation Order", []string{"What are the implementation phases?", "What should be done first?"}},
	}
	for _, g := range groups {
		fmt.Fprintf(q.out, "\n**%s**:\n", g.title)
		for _, question := range g.questions {
			fmt.Fprintf(q.out, "  - %s\n", question)
		}
	}
	fmt.Fprintln(q.out)
}

func (q *QA) show(a Answer) {
	rule := strings.Repeat("-", 70)
	fmt.Fprintf(q.out, "\n%s\nANSWER:\n%s\n", rule, rule)
	fmt.Fprintf(q.out, "\n%s\n", a.Text)
	fmt.Fprintf(q.out, "\n**Confidence**: %d/10\n", a.Confidence)
	if len(a.Keywords) > 0 {
		fmt.Fprintf(q.out, "**Matched Keywords**: %s\n", strings.Join(a.Keywords, ", "))
	}
	fmt.Fprintf(q.out, "\n%s\n", rule)
}

// Run asks questions until back, EOF, an interrupt or an input error.
// The session is always returned and saved; it never ends the review.
func (q *QA) Run(ctx context.Context, p *plan.Plan, score *complexity.Score) *QASession {
	sess := &QASession{
		ID:        uuid.NewString(),
		TaskID:    p.TaskID,
		StartedAt: q.now(),
		Exchanges: []QAExchange{},
	}

	q.intro()
	sess.ExitReason = q.loop(ctx, p, score, sess)

	ended := q.now()
	sess.EndedAt = &ended

	switch sess.ExitReason {
	case ExitBack:
		fmt.Fprintf(q.out, "\n✅ Q&A session complete. Asked %d questions.\n", len(sess.Exchanges))
	case ExitInterrupt:
		fmt.Fprintln(q.out, "\n\n⚠️ Q&A session interrupted.")
	}
	fmt.Fprintln(q.out, "Returning to checkpoint...")

	if q.audit != nil {
		if _, err := q.audit.SaveQASession(sess.TaskID, sess.ID, sess); err != nil {
			q.logger.Warn("failed to save Q&A session", "task", sess.TaskID, "error", err)
		}
	}
	q.publisher.Emit(events.NewEvent(events.QACompleted, sess.TaskID).WithPayload(map[string]any{
		"questions":   len(sess.Exchanges),
		"exit_reason": sess.ExitReason,
	}))
	return sess
}

func (q *QA) loop(ctx context.Context, p *plan.Plan, score *complexity.Score, sess *QASession) string {
	for {
		if ctx.Err() != nil {
			return ExitInterrupt
		}

		question, err := readText(q.lines, "\nQuestion: ")
		switch {
		case errors.Is(err, io.EOF):
			return ExitBack
		case errors.Is(err, prompt.ErrInterrupted):
			return ExitInterrupt
		case err != nil:
			fmt.Fprintf(q.out, "\n❌ Error during Q&A session: %v\n", err)
			return ExitError
		}

		switch strings.ToLower(question) {
		case "back":
			return ExitBack
		case "help":
			q.help()
			continue
		case "":
			continue
		}

		answer := AnswerQuestion(p, score, question)
		q.show(answer)
		sess.Exchanges = append(sess.Exchanges, QAExchange{
			Question:   question,
			Answer:     answer.Text,
			Confidence: answer.Confidence,
			Timestamp:  q.now(),
		})
	}
}
