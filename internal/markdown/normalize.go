package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// Normalize converts extracted plain text into lightweight Markdown. A line
// consisting solely of uppercase letters and whitespace becomes a level-2
// heading; runs of blank lines collapse to a single paragraph break. This is
// a best-effort heuristic: text without uppercase headings passes through as
// a flat paragraph stream. It never fails.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if isHeadingLine(line) {
			lines[i] = "## " + strings.TrimSpace(line)
		}
	}
	out := strings.Join(lines, "\n")
	return blankRuns.ReplaceAllString(out, "\n\n")
}

// isHeadingLine reports whether the line is an uppercase run of at least two
// characters with nothing but letters and spaces.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 {
		return false
	}
	sawLetter := false
	for _, r := range trimmed {
		switch {
		case r == ' ' || r == '\t':
		case unicode.IsUpper(r):
			sawLetter = true
		default:
			return false
		}
	}
	return sawLetter
}
