package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"voxllm/internal/apperr"
	"voxllm/internal/documents"
	"voxllm/internal/interview"
	"voxllm/internal/latex"
	"voxllm/internal/llm"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/prompt"
)

const notProvided = "Not provided"

// groundHeading matches "Ground 3:" style headings in the drafted statement,
// optionally bolded or numbered as a markdown heading.
var groundHeading = regexp.MustCompile(`(?mi)^[\s#*]*ground\s+\d+`)

// AnalysisService runs the LLM-backed phases. Each method fills only the
// output slots that are still empty, so a retried phase skips work that
// already succeeded.
type AnalysisService struct {
	client  llm.Client
	prompts *prompt.Catalog
	docs    *documents.Loader
	log     *logger.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(client llm.Client, prompts *prompt.Catalog, docs *documents.Loader, log *logger.Logger) *AnalysisService {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisService{
		client:  client,
		prompts: prompts,
		docs:    docs,
		log:     log,
	}
}

// RunAnalysis extracts the exclusion reason and synthesises both sides'
// facts from the stage 1 answers.
func (s *AnalysisService) RunAnalysis(ctx context.Context, session *model.Session) error {
	r := session.Record
	out := &session.Outputs

	if out.ExclusionReason == "" {
		text, err := s.complete(ctx, prompt.ExtractExclusionReason, prompt.Params{
			"exclusionLetter": textOrNA(r, model.FieldExclusionLetter),
		})
		if err != nil {
			return err
		}
		out.ExclusionReason = text
	}

	if out.SchoolFacts == "" {
		text, err := s.complete(ctx, prompt.SynthesiseSchoolFacts, prompt.Params{
			"exclusionLetter":     textOrNA(r, model.FieldExclusionLetter),
			"schoolFactsInput":    textOrNA(r, model.FieldExclusionSchoolFactsInput),
			"schoolEvidenceInput": textOrNA(r, model.FieldExclusionSchoolEvidenceInput),
		})
		if err != nil {
			return err
		}
		out.SchoolFacts = text
	}

	if out.ParentsFacts == "" {
		text, err := s.complete(ctx, prompt.SynthesiseParentsFacts, prompt.Params{
			"schoolFactsConfirm":         prompt.YesNo(r.IsTrue(model.FieldExclusionSchoolFactsConfirm)),
			"parentsFactsInput":          textOrNA(r, model.FieldExclusionParentsFactsInput),
			"parentsFactsWitnessesInput": prompt.YesNo(r.IsTrue(model.FieldExclusionParentsFactsWitnessesInput)),
			"isStudentVoiceHeard":        prompt.YesNo(r.IsTrue(model.FieldIsStudentVoiceHeard)),
		})
		if err != nil {
			return err
		}
		out.ParentsFacts = text
	}
	return nil
}

// RunSummary computes the background summary. It never calls the LLM.
func (s *AnalysisService) RunSummary(session *model.Session) {
	session.BackgroundSummary = interview.ComputeBackgroundSummary(session.Record)
}

// RunDocGen drafts the position statement, reformats it to JSON and parses
// the grounds.
func (s *AnalysisService) RunDocGen(ctx context.Context, session *model.Session) error {
	r := session.Record
	out := &session.Outputs
	stage := r.TextOr(model.FieldStage, model.ProcedureGovernors)

	if out.PositionStatementRaw == "" {
		guidance, err := s.docs.StatutoryGuidance(ctx)
		if err != nil {
			return err
		}
		grounds, err := s.docs.GroundsArgumentsFor(ctx, stage)
		if err != nil {
			return err
		}
		procedure := "Not applicable at this stage."
		if r.IsIRP() {
			procedure = textOrNA(r, model.FieldGovernorProcedureInfo)
		}

		text, err := s.complete(ctx, prompt.GeneratePositionStatement, prompt.Params{
			"stage":             stage,
			"exclusionReason":   out.ExclusionReason,
			"schoolFacts":       out.SchoolFacts,
			"parentsFacts":      out.ParentsFacts,
			"backgroundSummary": strings.Join(session.BackgroundSummary, "\n"),
			"procedureInfo":     procedure,
			"guidance":          guidance,
			"groundsArguments":  grounds,
		})
		if err != nil {
			return err
		}
		out.PositionStatementRaw = text
	}

	if out.PositionStatementJSON == "" || session.Grounds == nil {
		text, err := s.complete(ctx, prompt.ReformatPositionStatement, prompt.Params{
			"positionStatement": out.PositionStatementRaw,
		})
		if err != nil {
			return err
		}
		doc, err := latex.ParseGroundsDocument(text)
		if err != nil {
			return apperr.ExternalCall("invalid_grounds_json", "the reformatted position statement is not valid grounds JSON", err)
		}
		out.PositionStatementJSON = latex.StripCodeFences(text)
		session.Grounds = doc
	}

	if want := CountGroundHeadings(out.PositionStatementRaw); want > 0 && want != len(session.Grounds.Grounds) {
		s.log.Warn("ground count mismatch after reformat",
			"session_id", session.ID,
			"drafted", want,
			"parsed", len(session.Grounds.Grounds),
		)
	}
	return nil
}

// CountGroundHeadings counts "Ground N" headings in a drafted statement.
func CountGroundHeadings(statement string) int {
	return len(groundHeading.FindAllStringIndex(statement, -1))
}

func (s *AnalysisService) complete(ctx context.Context, name string, params prompt.Params) (string, error) {
	p, err := s.prompts.Render(name, params)
	if err != nil {
		return "", err
	}
	text, err := s.client.Complete(ctx, llm.Request{
		Prompt:      p.Prompt,
		System:      p.System,
		Temperature: p.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperr.ExternalCall("llm_call_failed", fmt.Sprintf("language model call %s failed", name), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.ExternalCall("llm_empty_response", fmt.Sprintf("language model call %s returned nothing", name), llm.ErrEmptyResponse)
	}
	return text, nil
}

func textOrNA(r model.CaseRecord, f model.Field) string {
	if s, ok := r.Text(f); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return notProvided
}

// Status pings the configured model backend.
func (s *AnalysisService) Status(ctx context.Context) (llm.Status, error) {
	st, err := s.client.Ping(ctx)
	if err != nil {
		return st, apperr.ExternalCall("llm_unreachable", "the language model backend is not reachable", err)
	}
	return st, nil
}
