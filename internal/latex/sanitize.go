// Package latex turns grounds documents and case details into LaTeX source
// and compiles it with pdflatex.
package latex

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// markup maps NBSP to a plain space and drops asterisks, the markdown
// emphasis left by the LLM.
var markup = strings.NewReplacer(
	"\u00A0", " ",
	"*", "",
)

// formatControls matches every Unicode format character (category Cf):
// zero-width joiners and spaces, BOM, soft hyphen, and the bidi marks,
// embeddings, overrides and isolates.
var formatControls = runes.In(unicode.Cf)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// SanitizeText removes invisible characters and collapses whitespace. It is
// idempotent and never makes the text longer.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	s, _, err := transform.String(runes.Remove(formatControls), text)
	if err != nil {
		s = text
	}
	s = markup.Replace(s)
	// NFC runs after the removals so that a stripped character cannot leave
	// a composable pair behind for a second pass to find.
	if n := norm.NFC.String(s); len(n) <= len(s) && utf8.RuneCountInString(n) <= utf8.RuneCountInString(s) {
		s = n
	}
	s = spaceRun.ReplaceAllString(s, " ")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
