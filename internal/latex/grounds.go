package latex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"voxllm/internal/apperr"
	"voxllm/internal/model"
)

const seriesName = "main"

// Options tune the enumerate lists.
type Options struct {
	StartAt    int    // first reason number; 0 or 1 means no explicit start
	LeftMargin string // enumitem leftmargin, defaults to 6ex
}

func (o Options) withDefaults() Options {
	if o.LeftMargin == "" {
		o.LeftMargin = "6ex"
	}
	return o
}

// RenderGroundsToLatex renders each ground as a section heading followed by
// its reasons. All reasons share one numbering series: the first ground that
// has reasons declares it, later ones resume it. Grounds without reasons get
// a heading only.
//
// A nil Grounds slice is what decoding leaves for a missing or null
// "grounds" member and is rejected; an empty array is a valid document that
// renders to an empty body.
func RenderGroundsToLatex(doc *model.GroundsDocument, replacements map[string]string, opts Options) (string, error) {
	if doc == nil || doc.Grounds == nil {
		return "", apperr.Validation("invalid_grounds", "invalid grounds document: expected an object with a 'grounds' array")
	}
	opts = opts.withDefaults()

	var b strings.Builder
	seriesStarted := false
	for i, g := range doc.Grounds {
		title := EscapeWithPlaceholders(g.Title, replacements)
		fmt.Fprintf(&b, "\\section*{\\raggedright Ground %d: %s}\n", i+1, title)

		if len(g.Reasons) == 0 {
			b.WriteString("\n")
			continue
		}

		if !seriesStarted {
			start := ""
			if opts.StartAt != 0 && opts.StartAt != 1 {
				start = fmt.Sprintf(", start=%d", opts.StartAt)
			}
			fmt.Fprintf(&b, "\\begin{enumerate}[label=\\arabic*.%s, leftmargin=%s, series=%s]\n", start, opts.LeftMargin, seriesName)
			seriesStarted = true
		} else {
			fmt.Fprintf(&b, "\\begin{enumerate}[label=\\arabic*., leftmargin=%s, resume*=%s]\n", opts.LeftMargin, seriesName)
		}
		for _, reason := range g.Reasons {
			fmt.Fprintf(&b, "    \\item %s\n", EscapeWithPlaceholders(reason, replacements))
		}
		b.WriteString("\\end{enumerate}\n\n")
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

// RenderGroundTitles renders the "\item Ground N: title" list used in the
// template's summary of grounds.
func RenderGroundTitles(doc *model.GroundsDocument, replacements map[string]string) string {
	if doc == nil {
		return ""
	}
	items := make([]string, 0, len(doc.Grounds))
	for i, g := range doc.Grounds {
		items = append(items, fmt.Sprintf("\\item Ground %d: %s", i+1, EscapeWithPlaceholders(g.Title, replacements)))
	}
	return strings.Join(items, "\n        ")
}

type rawGround struct {
	Title   string   `json:"title"`
	Reasons []string `json:"reasons"`
}

// ParseGroundsDocument decodes the reformatted position statement. Markdown
// code fences around the JSON are tolerated.
func ParseGroundsDocument(raw string) (*model.GroundsDocument, error) {
	body := []byte(StripCodeFences(raw))
	if len(body) == 0 {
		return nil, apperr.Validation("invalid_grounds", "grounds document is empty")
	}

	var envelope struct {
		Grounds json.RawMessage `json:"grounds"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_grounds", Message: "grounds document is not a JSON object", Err: err}
	}
	g := bytes.TrimSpace(envelope.Grounds)
	if len(g) == 0 || g[0] != '[' {
		return nil, apperr.Validation("invalid_grounds", "invalid grounds document: expected an object with a 'grounds' array")
	}

	var grounds []rawGround
	if err := json.Unmarshal(g, &grounds); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_grounds", Message: "grounds entries are malformed", Err: err}
	}
	doc := &model.GroundsDocument{Grounds: make([]model.Ground, 0, len(grounds))}
	for _, rg := range grounds {
		reasons := rg.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		doc.Grounds = append(doc.Grounds, model.Ground{Title: rg.Title, Reasons: reasons})
	}
	return doc, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block, and otherwise
// trims to the outermost JSON object when the model added prose around it.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	if !strings.HasPrefix(s, "{") {
		if i, j := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); i >= 0 && j > i {
			s = s[i : j+1]
		}
	}
	return s
}
