// Package sanitize normalizes whitespace in text lifted out of markup.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	lineBreaks = regexp.MustCompile(`[\r\n\t]+`)
	spaceRuns  = regexp.MustCompile(` {2,}`)
)

// Text drops newline, carriage-return and tab characters outright (they are
// not turned into spaces), collapses runs of spaces to one and trims the
// result. It never fails and is idempotent.
func Text(s string) string {
	s = lineBreaks.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
