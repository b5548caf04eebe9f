package review

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type pagerKeyMap struct {
	Quit key.Binding
	Top  key.Binding
	End  key.Binding
}

var pagerKeys = pagerKeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "close"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
}

// pagerModel is the bubbletea model behind TUIPager
type pagerModel struct {
	title    string
	content  string
	viewport viewport.Model
	styles   Styles
	ready    bool
	width    int
}

func newPagerModel(title, content string, styles Styles) pagerModel {
	return pagerModel{title: title, content: content, styles: styles}
}

// Init implements tea.Model
func (m pagerModel) Init() tea.Cmd {
	return nil
}

func (m *pagerModel) setSize(w, h int) {
	m.width = w
	headerHeight := 1
	footerHeight := 1
	contentHeight := h - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(w, contentHeight)
		m.viewport.YPosition = headerHeight
		m.viewport.SetContent(m.content)
		m.ready = true
		return
	}
	m.viewport.Width = w
	m.viewport.Height = contentHeight
}

// Update implements tea.Model
func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, pagerKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, pagerKeys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, pagerKeys.End):
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m pagerModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.styles.Title.Render(m.title)
	footer := fmt.Sprintf("%s %s  %s %s  %s",
		m.styles.FooterKey.Render("j/k"), m.styles.Footer.Render("scroll"),
		m.styles.FooterKey.Render("q/esc"), m.styles.Footer.Render("close"),
		m.styles.Footer.Render(fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)),
	)
	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
}

// TUIPager shows content in a full-screen scrollable viewport
type TUIPager struct {
	in     io.Reader
	out    io.Writer
	styles Styles
}

// NewTUIPager creates a viewport pager on the given terminal streams
func NewTUIPager(in io.Reader, out io.Writer) *TUIPager {
	return &TUIPager{in: in, out: out, styles: DefaultStyles()}
}

func (p *TUIPager) Show(ctx context.Context, title, content string) error {
	m := newPagerModel(title, HighlightMarkdown(content), p.styles)

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if p.in != nil {
		opts = append(opts, tea.WithInput(p.in))
	}
	if p.out != nil {
		opts = append(opts, tea.WithOutput(p.out))
	}

	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run pager: %w", err)
	}
	return nil
}
