package extract

import (
	"regexp"
	"strings"
)

// PreviewLength is the number of characters stored as a document's text preview.
const PreviewLength = 2000

var (
	rePageMarker  = regexp.MustCompile(`(?i)page\s+\d+\s+of\s+\d+`)
	reBoilerplate = regexp.MustCompile(`(?i)\b(confidential|proprietary)\b`)
	reWhitespace  = regexp.MustCompile(`[ \t]+`)
	reBlankLines  = regexp.MustCompile(`\n{3,}`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// Clean strips page markers, boilerplate stamps, and normalizes whitespace and
// typographic quotes so downstream extraction sees consistent text.
func Clean(text string) string {
	out := quoteReplacer.Replace(text)
	out = rePageMarker.ReplaceAllString(out, " ")
	out = reBoilerplate.ReplaceAllString(out, " ")

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reWhitespace.ReplaceAllString(line, " "))
	}
	out = strings.Join(lines, "\n")
	out = reBlankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// Preview returns the first PreviewLength characters of cleaned text,
// cut on a rune boundary.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}
