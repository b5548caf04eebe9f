package review

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// HighlightMarkdown colors markdown syntax for terminal display. Input that
// cannot be tokenised is returned unchanged.
func HighlightMarkdown(src string) string {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		return src
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	for _, token := range iterator.Tokens() {
		entry := style.Get(token.Type)
		if !entry.Colour.IsSet() {
			b.WriteString(token.Value)
			continue
		}

		// Render per line so escape codes never span a newline
		tokenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Colour.String()))
		for i, part := range strings.Split(token.Value, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			if part != "" {
				b.WriteString(tokenStyle.Render(part))
			}
		}
	}
	return b.String()
}
