// Package documents reads the static reference texts shipped with the
// service: statutory guidance and the grounds arguments per procedural stage.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"voxllm/internal/apperr"
	"voxllm/internal/model"
)

// File names inside the documents directory.
const (
	StatutoryGuidanceFile = "statutory_guidance.txt"
	GroundsGovernorsFile  = "grounds_governors.json"
	GroundsIRPFile        = "grounds_irp.json"
)

// Loader reads documents rooted at one directory.
type Loader struct {
	root string
}

func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load returns the text of a document. Names must stay inside the root.
func (l *Loader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(name) {
		return "", apperr.Validation("invalid_document", fmt.Sprintf("document name %q is not allowed", name))
	}
	data, err := os.ReadFile(filepath.Join(l.root, name))
	if err != nil {
		return "", apperr.ExternalCall("document_load_failed", fmt.Sprintf("could not load %s", name), err)
	}
	return string(data), nil
}

// StatutoryGuidance loads the exclusion guidance text.
func (l *Loader) StatutoryGuidance(ctx context.Context) (string, error) {
	return l.Load(ctx, StatutoryGuidanceFile)
}

// GroundsFileFor picks the arguments file for the procedural stage.
func GroundsFileFor(stage string) string {
	r := model.CaseRecord{model.FieldStage: stage}
	if r.IsIRP() {
		return GroundsIRPFile
	}
	return GroundsGovernorsFile
}

// GroundsArgumentsFor loads the grounds arguments for the stage and checks
// that the file is valid JSON.
func (l *Loader) GroundsArgumentsFor(ctx context.Context, stage string) (string, error) {
	name := GroundsFileFor(stage)
	text, err := l.Load(ctx, name)
	if err != nil {
		return "", err
	}
	if !json.Valid([]byte(text)) {
		return "", apperr.ExternalCall("document_invalid", fmt.Sprintf("%s is not valid JSON", name), nil)
	}
	return text, nil
}
