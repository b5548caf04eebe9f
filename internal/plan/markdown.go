package plan

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseFrontmatter extracts YAML frontmatter from markdown content.
// Returns the frontmatter and the remaining body. Frontmatter is delimited
// by --- on its own line at the start and end; content without a leading
// delimiter has no frontmatter.
func ParseFrontmatter(content []byte) (frontmatter []byte, body []byte, err error) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, content, nil
	}

	remaining := content[4:]
	closingIdx := bytes.Index(remaining, []byte("\n---\n"))
	if closingIdx == -1 {
		return nil, nil, fmt.Errorf("unclosed frontmatter: missing closing '---'")
	}

	frontmatter = remaining[:closingIdx]

	bodyStart := 4 + closingIdx + 5 // len("---\n") + closingIdx + len("\n---\n")
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	return frontmatter, body, nil
}

// ParseMarkdown builds a Plan from a markdown document whose frontmatter
// carries the structured plan fields. The markdown body becomes RawPlan.
// When the frontmatter has no task_id, the first H1 heading is used.
func ParseMarkdown(content []byte) (*Plan, error) {
	fm, body, err := ParseFrontmatter(content)
	if err != nil {
		return nil, err
	}

	p := &Plan{}
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, p); err != nil {
			return nil, fmt.Errorf("failed to parse plan frontmatter: %w", err)
		}
	}

	if len(bytes.TrimSpace(body)) > 0 {
		p.RawPlan = string(body)
	}
	if p.TaskID == "" {
		p.TaskID = extractTitle(body)
	}
	if p.TaskID == "" {
		return nil, fmt.Errorf("plan has no task_id and no title heading")
	}

	return p, nil
}

// LoadFile reads a plan from path. Files ending in .md are parsed as
// markdown with frontmatter, everything else as YAML.
func LoadFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	if bytes.HasPrefix(data, []byte("---\n")) || hasMarkdownExt(path) {
		return ParseMarkdown(data)
	}

	p := &Plan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if p.TaskID == "" {
		return nil, fmt.Errorf("plan %s has no task_id", path)
	}
	return p, nil
}

func hasMarkdownExt(path string) bool {
	return bytes.HasSuffix([]byte(path), []byte(".md"))
}

// extractTitle extracts the first H1 heading from markdown body
func extractTitle(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) >= 2 && line[0] == '#' && line[1] == ' ' {
			return line[2:]
		}
	}
	return ""
}
