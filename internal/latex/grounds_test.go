package latex

import (
	"encoding/json"
	"strings"
	"testing"
	"voxllm/internal/apperr"
	"voxllm/internal/model"
)

func TestRenderGroundsSkipsEmptyGround(t *testing.T) {
	doc := &model.GroundsDocument{Grounds: []model.Ground{
		{Title: "Inadequate Investigation", Reasons: []string{"No witnesses for [childName].", "Rushed decision."}},
		{Title: "Empty Ground", Reasons: []string{}},
		{Title: "Inappropriate Sanction", Reasons: []string{"Threshold not met."}},
	}}
	out, err := RenderGroundsToLatex(doc, map[string]string{"childName": "Alex"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if n := strings.Count(out, `\begin{enumerate}`); n != 2 {
		t.Fatalf("got %d enumerate blocks, want 2:\n%s", n, out)
	}
	if n := strings.Count(out, `\end{enumerate}`); n != 2 {
		t.Fatalf("got %d enumerate ends", n)
	}
	lists := strings.Split(out, `\begin{enumerate}`)[1:]
	if !strings.Contains(lists[0], "series=main") || strings.Contains(lists[0], "resume*") {
		t.Fatalf("first list should declare the series: %s", lists[0])
	}
	if !strings.Contains(lists[1], "resume*=main") {
		t.Fatalf("second list should resume the series: %s", lists[1])
	}
	if !strings.Contains(lists[1], "Threshold not met.") {
		t.Fatal("resume* is not on the third ground's list")
	}
	for i, title := range []string{"Inadequate Investigation", "Empty Ground", "Inappropriate Sanction"} {
		want := `\section*{\raggedright Ground ` + string(rune('1'+i)) + ": " + title + "}"
		if !strings.Contains(out, want) {
			t.Errorf("missing heading %q", want)
		}
	}
	if !strings.Contains(out, `\item No witnesses for Alex.`) {
		t.Fatal("placeholder not substituted")
	}
	if !strings.HasSuffix(out, "\\end{enumerate}\n") {
		t.Fatalf("output should end with a single newline: %q", out[len(out)-20:])
	}
}

func TestRenderGroundsFirstGroundEmpty(t *testing.T) {
	doc := &model.GroundsDocument{Grounds: []model.Ground{
		{Title: "Heading only"},
		{Title: "Two", Reasons: []string{"a"}},
		{Title: "Three", Reasons: []string{"b"}},
	}}
	out, err := RenderGroundsToLatex(doc, nil, Options{StartAt: 4, LeftMargin: "4ex"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "series=main") != 1 || strings.Count(out, "resume*=main") != 1 {
		t.Fatalf("series declared or resumed the wrong number of times:\n%s", out)
	}
	if !strings.Contains(out, `[label=\arabic*., start=4, leftmargin=4ex, series=main]`) {
		t.Fatalf("start offset missing:\n%s", out)
	}
}

func TestRenderGroundsInvalid(t *testing.T) {
	for _, doc := range []*model.GroundsDocument{nil, {}} {
		if _, err := RenderGroundsToLatex(doc, nil, Options{}); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestRenderGroundsDecodedShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"missing", `{}`, false},
		{"null", `{"grounds":null}`, false},
		{"empty array", `{"grounds":[]}`, true},
		{"one ground", `{"grounds":[{"title":"A","reasons":["x"]}]}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var doc model.GroundsDocument
			if err := json.Unmarshal([]byte(tc.body), &doc); err != nil {
				t.Fatal(err)
			}
			_, err := RenderGroundsToLatex(&doc, nil, Options{})
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRenderGroundTitles(t *testing.T) {
	doc := &model.GroundsDocument{Grounds: []model.Ground{{Title: "A & B"}, {Title: "[schoolName] policy"}}}
	got := RenderGroundTitles(doc, map[string]string{"schoolName": "Hill"})
	want := "\\item Ground 1: A \\& B\n        \\item Ground 2: Hill policy"
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestParseGroundsDocument(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		grounds int
		ok      bool
	}{
		{"plain", `{"grounds":[{"title":"A","reasons":["x"]}]}`, 1, true},
		{"fenced", "```json\n{\"grounds\":[{\"title\":\"A\",\"reasons\":[]},{\"title\":\"B\"}]}\n```", 2, true},
		{"prose around", "Here you go:\n{\"grounds\":[]}\nThanks", 0, true},
		{"grounds object", `{"grounds":{"title":"A"}}`, 0, false},
		{"missing grounds", `{"title":"A"}`, 0, false},
		{"not json", "no json here", 0, false},
		{"empty", "  ", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseGroundsDocument(tc.raw)
			if !tc.ok {
				if !apperr.Is(err, apperr.KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(doc.Grounds) != tc.grounds {
				t.Fatalf("got %d grounds", len(doc.Grounds))
			}
			for _, g := range doc.Grounds {
				if g.Reasons == nil {
					t.Fatal("reasons should never be nil")
				}
			}
		})
	}
}
