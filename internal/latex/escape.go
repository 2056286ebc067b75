package latex

import (
	"regexp"
	"strings"
)

// specials is applied in a single pass so the braces introduced by
// \textbackslash{} are not escaped again.
var specials = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`%`, `\%`,
	`#`, `\#`,
	`^`, `\textasciicircum{}`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	"\u2018", "'",
	"\u2019", "'",
	"\u201B", "'",
	"\u02BC", "'",
	"\uFF07", "'",
)

var placeholder = regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)

// EscapeLatex sanitises text and escapes every LaTeX special character.
func EscapeLatex(text string) string {
	return specials.Replace(SanitizeText(text))
}

// SubstitutePlaceholders replaces [name] with the sanitised replacement value.
// Names missing from replacements are left as they are so the gap shows up in
// the document.
func SubstitutePlaceholders(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := replacements[name]
		if !ok {
			return m
		}
		return SanitizeText(v)
	})
}

// EscapeWithPlaceholders sanitises, substitutes and then escapes once, so
// injected values are escaped exactly like the surrounding text.
func EscapeWithPlaceholders(text string, replacements map[string]string) string {
	return specials.Replace(SubstitutePlaceholders(SanitizeText(text), replacements))
}
