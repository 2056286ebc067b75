package interview

import (
	"fmt"
	"strings"
	"voxllm/internal/apperr"
	"voxllm/internal/model"
)

// CodeNoExclusionLetter marks the user_abort returned when the gate question
// is answered "no".
const CodeNoExclusionLetter = "no_exclusion_letter"

// ApplyAnswer validates raw against the question for field and returns the
// updated record and flags. The inputs are not modified.
//
// An answer is accepted only for a question that NextAction could ask right
// now; answered fields are never overwritten. A "no" to the exclusion letter
// gate terminates the case and returns a user_abort error alongside the
// updated state.
func ApplyAnswer(r model.CaseRecord, f model.SessionFlags, field model.Field, raw interface{}) (model.CaseRecord, model.SessionFlags, error) {
	if IsTerminated(r, f) {
		f.Terminated = true
		return r, f, apperr.UserAbort("terminated", TerminatedMessage)
	}

	e, ok := lookupEntry(field)
	if !ok {
		return r, f, apperr.Validation("unknown_field", fmt.Sprintf("unknown field %q", field))
	}
	if r.IsSet(field) {
		return r, f, apperr.Conflict("already_answered", fmt.Sprintf("%s has already been answered; restart to change it", field))
	}
	if !askable(r, f, field) {
		return r, f, apperr.Conflict("not_askable", fmt.Sprintf("%s cannot be answered at this point", field))
	}

	value, err := parseValue(e.question, raw)
	if err != nil {
		return r, f, err
	}

	out := r.Clone()
	out[field] = value

	if field == model.FieldExistsExclusionLetter && value == false {
		f.Terminated = true
		return out, f, apperr.UserAbort(CodeNoExclusionLetter, TerminatedMessage)
	}
	return out, f, nil
}

func askable(r model.CaseRecord, f model.SessionFlags, field model.Field) bool {
	for _, q := range BuildQueue(r, f) {
		if q.Field == field {
			return true
		}
	}
	return false
}

func parseValue(q model.Question, raw interface{}) (interface{}, error) {
	switch q.Kind {
	case model.InputBool:
		return parseBool(q.Field, raw)
	case model.InputText:
		s, err := parseText(q.Field, raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	case model.InputSelect:
		return parseSelect(q, raw)
	}
	return nil, apperr.Validation("bad_question", fmt.Sprintf("unsupported input kind %q", q.Kind))
}

func parseBool(field model.Field, raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true":
			return true, nil
		case "no", "n", "false":
			return false, nil
		}
	}
	return false, apperr.Validation("invalid_bool", fmt.Sprintf("%s expects yes or no", field))
}

func parseText(field model.Field, raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", apperr.Validation("invalid_text", fmt.Sprintf("%s expects text", field))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("empty_answer", "Please provide a response before submitting.")
	}
	return s, nil
}

func parseSelect(q model.Question, raw interface{}) (string, error) {
	s, err := parseText(q.Field, raw)
	if err != nil {
		return "", err
	}
	if q.Field == model.FieldStage {
		switch {
		case strings.EqualFold(s, model.ProcedureGovernors):
			return model.ProcedureGovernors, nil
		case strings.EqualFold(s, model.ProcedureIRP), strings.EqualFold(s, model.ProcedureIRPShort):
			return model.ProcedureIRP, nil
		}
		return "", apperr.Validation("invalid_option", fmt.Sprintf("%s must be one of %s", q.Field, strings.Join(q.Options, ", ")))
	}
	if q.HasOption(s) && s != OptionEnterDetails {
		return s, nil
	}
	if s == OptionEnterDetails {
		return "", apperr.Validation("details_required", "Please enter the details rather than the option label.")
	}
	if q.AllowOther {
		return s, nil
	}
	return "", apperr.Validation("invalid_option", fmt.Sprintf("%s must be one of %s", q.Field, strings.Join(q.Options, ", ")))
}
