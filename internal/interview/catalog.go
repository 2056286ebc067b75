package interview

import "voxllm/internal/model"

// Choice options offered for select questions.
const (
	OptionEnterDetails = "Enter details"
)

type guardFunc func(r model.CaseRecord) bool

type entry struct {
	question model.Question
	guard    guardFunc
}

func always(model.CaseRecord) bool { return true }

func letterConfirmed(r model.CaseRecord) bool {
	return r.IsTrue(model.FieldExistsExclusionLetter)
}

func hasSend(r model.CaseRecord) bool {
	return r.IsTrue(model.FieldIsSend)
}

func schoolAwareOfSend(r model.CaseRecord) bool {
	return r.IsTrue(model.FieldIsSend) && r.IsTrue(model.FieldIsSendSchoolAware)
}

func atReviewPanel(r model.CaseRecord) bool {
	return r.IsIRP()
}

func boolQ(stage model.Stage, f model.Field, prompt string, g guardFunc) entry {
	return entry{question: model.Question{Field: f, Stage: stage, Kind: model.InputBool, Prompt: prompt}, guard: g}
}

func textQ(stage model.Stage, f model.Field, prompt string, g guardFunc) entry {
	return entry{question: model.Question{Field: f, Stage: stage, Kind: model.InputText, Prompt: prompt}, guard: g}
}

func selectQ(stage model.Stage, f model.Field, prompt string, options []string, allowOther bool, g guardFunc) entry {
	return entry{
		question: model.Question{Field: f, Stage: stage, Kind: model.InputSelect, Prompt: prompt, Options: options, AllowOther: allowOther},
		guard:    g,
	}
}

// catalog is the fixed question list. Order inside a stage is the ask order;
// a guarded field always sits right after its guard.
var catalog = []entry{
	boolQ(model.StageExclusion, model.FieldExistsExclusionLetter,
		"Was a letter written to confirm your child's exclusion?", always),
	textQ(model.StageExclusion, model.FieldExclusionLetter,
		"Please provide the content of the exclusion letter. What reasons and details did the school give?", letterConfirmed),
	textQ(model.StageExclusion, model.FieldExclusionSchoolFactsInput,
		"What does the school say happened to lead to the exclusion? Please describe the school's version of events.", letterConfirmed),
	textQ(model.StageExclusion, model.FieldExclusionSchoolEvidenceInput,
		"What evidence does the school have to support the exclusion?", letterConfirmed),
	boolQ(model.StageExclusion, model.FieldExclusionSchoolFactsConfirm,
		"Does the young person agree that this is what happened?", letterConfirmed),
	textQ(model.StageExclusion, model.FieldExclusionParentsFactsInput,
		"What is the student's version of events?", letterConfirmed),
	boolQ(model.StageExclusion, model.FieldExclusionParentsFactsWitnessesInput,
		"Are there witnesses that can support the young person's version of events?", letterConfirmed),
	boolQ(model.StageExclusion, model.FieldIsStudentVoiceHeard,
		"Did the school speak with the young person and take their version of events before excluding them?", letterConfirmed),

	boolQ(model.StageYoungPerson, model.FieldIsSend,
		"Does the young person have SEND?", always),
	boolQ(model.StageYoungPerson, model.FieldIsSendSchoolAware,
		"Is the school aware of this SEND?", hasSend),
	textQ(model.StageYoungPerson, model.FieldSendSchoolAddress,
		"If any, what steps have the school taken to address this SEND?", schoolAwareOfSend),
	selectQ(model.StageYoungPerson, model.FieldSendWhoSupport,
		"Are any clinicians, pastoral workers or professionals working to support the young person with their SEND?",
		[]string{model.SupportNotApplicable, OptionEnterDetails}, true, hasSend),
	boolQ(model.StageYoungPerson, model.FieldIsEhcp,
		"Does the young person have an EHCP?", always),
	boolQ(model.StageYoungPerson, model.FieldIsEthnicMin,
		"Is the young person from an ethnic minority background?", always),
	boolQ(model.StageYoungPerson, model.FieldIsPrevSuspend,
		"Has the young person been previously suspended?", always),
	boolQ(model.StageYoungPerson, model.FieldParentRiskAware,
		"Were the family aware of behavioral issues, or the risk of exclusion before it happened?", always),
	textQ(model.StageYoungPerson, model.FieldContribFactors,
		"If any, what contributing factors does the student have? (E.g., bereavement, relocation, abuse or neglect, mental health needs, bullying, criminal exploitation, significant challenges at home)", always),

	selectQ(model.StageProcedure, model.FieldStage,
		"What stage are you at in the process?",
		[]string{model.ProcedureGovernors, model.ProcedureIRP}, false, always),
	textQ(model.StageProcedure, model.FieldGovernorProcedureInfo,
		"Please provide details about any procedural issues during the governor meeting. Were there any concerns about fairness, time limits, or other procedural matters?", atReviewPanel),

	textQ(model.StageDocumentDetails, model.FieldChildName,
		"What is the young person's full name?", always),
	textQ(model.StageDocumentDetails, model.FieldParentName,
		"What is your full name?", always),
	textQ(model.StageDocumentDetails, model.FieldSchoolName,
		"What is the name of the school?", always),
	textQ(model.StageDocumentDetails, model.FieldExclusionDate,
		"On what date did the exclusion take place?", always),
}

func lookupEntry(f model.Field) (entry, bool) {
	for _, e := range catalog {
		if e.question.Field == f {
			return e, true
		}
	}
	return entry{}, false
}
