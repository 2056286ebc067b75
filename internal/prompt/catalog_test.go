package prompt

import (
	"strings"
	"testing"
	"voxllm/internal/apperr"
)

func TestDefaultCatalogHasAllPrompts(t *testing.T) {
	c := Default()
	for _, name := range []string{
		ExtractExclusionReason, SynthesiseSchoolFacts, SynthesiseParentsFacts,
		GeneratePositionStatement, ReformatPositionStatement, ConnectionTest,
	} {
		found := false
		for _, n := range c.Names() {
			if n == name {
				found = true
			}
		}
		if !found {
			t.Errorf("prompt %s missing from catalogue", name)
		}
	}
}

func TestRender(t *testing.T) {
	c := Default()
	r, err := c.Render(ExtractExclusionReason, Params{"exclusionLetter": "Permanent exclusion for fighting."})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Prompt, "Permanent exclusion for fighting.") {
		t.Fatalf("letter not in prompt: %s", r.Prompt)
	}
	if !strings.HasPrefix(r.System, "You are a legal expert") {
		t.Fatalf("system = %q", r.System)
	}
	if strings.Contains(r.Prompt, "{{") {
		t.Fatal("unrendered action left in prompt")
	}
}

func TestRenderRejectsBadParams(t *testing.T) {
	c := Default()
	cases := []struct {
		name   string
		params Params
	}{
		{"missing", Params{}},
		{"unknown", Params{"exclusionLetter": "x", "extra": "y"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Render(ExtractExclusionReason, tc.params); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if _, err := c.Render("nope", nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown prompt: %v", err)
	}
}

func TestParseRejectsUndeclaredParam(t *testing.T) {
	_, err := Parse([]byte(`
prompts:
  p:
    params: [a]
    template: "{{.a}} {{.b}}"
`))
	if err == nil {
		t.Fatal("expected error for undeclared param")
	}
}

func TestParseTemperatureAndSystem(t *testing.T) {
	c, err := Parse([]byte(`
systems:
  s: "be brief"
prompts:
  p:
    system: s
    temperature: 0.5
    params: [x]
    template: "say {{.x}}"
`))
	if err != nil {
		t.Fatal(err)
	}
	r, err := c.Render("p", Params{"x": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Prompt != "say hi" || r.System != "be brief" || r.Temperature == nil || *r.Temperature != 0.5 {
		t.Fatalf("unexpected render %+v", r)
	}
	if _, err := Parse([]byte("prompts:\n  p:\n    system: missing\n    template: x\n")); err == nil {
		t.Fatal("expected unknown system error")
	}
}
