package markdown

import "strings"

// Section is one chunk of a normalized document, the unit of embedding and
// retrieval. HeadingLed marks sections that open with a heading line.
type Section struct {
	Content    string
	HeadingLed bool
}

// SplitSections splits Markdown text into ordered sections. Split points are
// heading lines and blank-line paragraph breaks; a heading binds to its first
// following paragraph, so later paragraphs under the same heading become
// sections of their own. Text with no split points yields a single section.
// Empty or whitespace-only input yields no sections.
func SplitSections(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var sections []Section
	var current []string
	hasBody := false

	flush := func() {
		block := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		hasBody = false
		if block == "" {
			return
		}
		sections = append(sections, Section{
			Content:    block,
			HeadingLed: isHeadingMarker(firstLine(block)),
		})
	}

	for _, line := range lines {
		switch {
		case isHeadingMarker(line):
			flush()
		case strings.TrimSpace(line) == "":
			// A paragraph break closes the section only once it has body
			// text; a bare heading stays open for its first paragraph.
			if hasBody {
				flush()
				continue
			}
		default:
			hasBody = true
		}
		current = append(current, line)
	}
	flush()

	return sections
}

func isHeadingMarker(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "#")
	return strings.HasPrefix(rest, " ") || rest == ""
}

func firstLine(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return block[:i]
	}
	return block
}
