// Package prompt holds the named prompt templates sent to the LLM.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"voxllm/internal/apperr"

	"gopkg.in/yaml.v3"
)

// Prompt names used by the analysis phases.
const (
	ExtractExclusionReason    = "extractExclusionReason"
	SynthesiseSchoolFacts     = "synthesiseSchoolFacts"
	SynthesiseParentsFacts    = "synthesiseParentsFacts"
	GeneratePositionStatement = "generatePositionStatement"
	ReformatPositionStatement = "reformatPositionStatement"
	ConnectionTest            = "connectionTest"
)

//go:embed prompts.yaml
var defaultYAML []byte

// Params are the named values substituted into a prompt.
type Params map[string]string

// Rendered is a prompt ready to send.
type Rendered struct {
	Name        string
	System      string
	Prompt      string
	Temperature *float64
}

type definition struct {
	System      string   `yaml:"system"`
	Params      []string `yaml:"params"`
	Template    string   `yaml:"template"`
	Temperature *float64 `yaml:"temperature"`
}

type file struct {
	Systems map[string]string     `yaml:"systems"`
	Prompts map[string]definition `yaml:"prompts"`
}

type entry struct {
	system      string
	params      map[string]struct{}
	tmpl        *template.Template
	temperature *float64
}

// Catalog is an immutable set of parsed prompts.
type Catalog struct {
	entries map[string]entry
}

// Default parses the built-in catalogue. It panics on a malformed embed,
// which is a build defect.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("prompt: built-in catalogue: %v", err))
	}
	return c
}

// LoadFile parses a catalogue from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalogue and checks that every template only uses
// the params it declares.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("prompt: catalogue is empty")
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("prompt: decode catalogue: %w", err)
	}
	if len(f.Prompts) == 0 {
		return nil, fmt.Errorf("prompt: catalogue has no prompts")
	}

	c := &Catalog{entries: make(map[string]entry, len(f.Prompts))}
	for name, def := range f.Prompts {
		system := ""
		if def.System != "" {
			s, ok := f.Systems[def.System]
			if !ok {
				return nil, fmt.Errorf("prompt %s: unknown system message %q", name, def.System)
			}
			system = strings.TrimSpace(s)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(def.Template)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: parse template: %w", name, err)
		}
		e := entry{system: system, params: make(map[string]struct{}, len(def.Params)), tmpl: tmpl, temperature: def.Temperature}
		sample := make(map[string]string, len(def.Params))
		for _, p := range def.Params {
			e.params[p] = struct{}{}
			sample[p] = ""
		}
		if err := tmpl.Execute(&bytes.Buffer{}, sample); err != nil {
			return nil, fmt.Errorf("prompt %s: template uses an undeclared param: %w", name, err)
		}
		c.entries[name] = e
	}
	return c, nil
}

// Names lists the prompts in the catalogue.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render fills the named prompt. Unknown or missing params are rejected
// rather than left unresolved in the text.
func (c *Catalog) Render(name string, params Params) (Rendered, error) {
	e, ok := c.entries[name]
	if !ok {
		return Rendered{}, apperr.Validation("unknown_prompt", fmt.Sprintf("unknown prompt %q", name))
	}

	var unknown, missing []string
	for k := range params {
		if _, ok := e.params[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	for k := range e.params {
		if _, ok := params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(unknown) > 0 || len(missing) > 0 {
		sort.Strings(unknown)
		sort.Strings(missing)
		return Rendered{}, apperr.Validation("prompt_params",
			fmt.Sprintf("prompt %s: unknown params %v, missing params %v", name, unknown, missing))
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, map[string]string(params)); err != nil {
		return Rendered{}, fmt.Errorf("prompt %s: render: %w", name, err)
	}
	return Rendered{
		Name:        name,
		System:      e.system,
		Prompt:      strings.TrimSpace(buf.String()),
		Temperature: e.temperature,
	}, nil
}

// YesNo renders a boolean answer the way prompts expect it.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
