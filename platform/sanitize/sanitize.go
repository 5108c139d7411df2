// Package sanitize cleans user-provided text before it is stored or
// forwarded to the enrichment prompt.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes HTML tags, including tags hidden behind entities.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	return htmlTagRegex.ReplaceAllString(result, "")
}

// Text strips markup and collapses runs of whitespace into single spaces.
// Use for single-line form fields.
func Text(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(StripHTML(s), " "))
}

// Note strips markup but keeps line breaks, for multi-line fields such as
// outcome notes.
func Note(s string) string {
	lines := strings.Split(StripHTML(s), "\n")
	out := lines[:0]
	for _, line := range lines {
		out = append(out, Text(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
