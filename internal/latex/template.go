package latex

import (
	_ "embed"
	"regexp"
	"strings"
	"voxllm/internal/apperr"
	"voxllm/internal/model"
)

const (
	groundsMarker = "% INSERT GROUNDS HERE"
	titlesMarker  = `\GroundsTitlesList{\groundsTitles}`
)

//go:embed templates/position_statement.tex
var defaultTemplate string

// DefaultTemplate returns the built-in position statement template.
func DefaultTemplate() string {
	return defaultTemplate
}

var newcommands = []struct {
	name string
	get  func(model.DocumentDetails) string
}{
	{"childName", func(d model.DocumentDetails) string { return d.ChildName }},
	{"parentName", func(d model.DocumentDetails) string { return d.ParentName }},
	{"schoolName", func(d model.DocumentDetails) string { return d.SchoolName }},
	{"stage", func(d model.DocumentDetails) string { return d.Stage }},
	{"exclusionDate", func(d model.DocumentDetails) string { return d.ExclusionDate }},
}

var newcommandPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(newcommands))
	for _, c := range newcommands {
		m[c.name] = regexp.MustCompile(`\\newcommand\{\\` + c.name + `\}\{[^}]*\}`)
	}
	return m
}()

// FillTemplate sets the document detail macros, splices in the rendered
// grounds and the titles list. The template must contain the grounds marker.
func FillTemplate(tpl string, details model.DocumentDetails, groundsLatex, titlesLatex string) (string, error) {
	if !strings.Contains(tpl, groundsMarker) {
		return "", apperr.Validation("template_invalid", "template has no '"+groundsMarker+"' marker")
	}
	out := tpl
	for _, c := range newcommands {
		re := newcommandPatterns[c.name]
		repl := `\newcommand{\` + c.name + `}{` + EscapeLatex(c.get(details)) + `}`
		out = replaceFirst(re, out, repl)
	}
	out = strings.Replace(out, groundsMarker, groundsLatex, 1)
	out = strings.Replace(out, titlesMarker, "\\GroundsTitlesList{\n        "+titlesLatex+"\n    }", 1)
	return out, nil
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// RenderDocument renders a complete LaTeX document for the grounds.
func RenderDocument(tpl string, details model.DocumentDetails, doc *model.GroundsDocument, opts Options) (string, error) {
	if tpl == "" {
		tpl = defaultTemplate
	}
	repl := details.Replacements()
	grounds, err := RenderGroundsToLatex(doc, repl, opts)
	if err != nil {
		return "", err
	}
	return FillTemplate(tpl, details, grounds, RenderGroundTitles(doc, repl))
}
