package model

// Field names one entry of the case record.
type Field string

// Stage 1: about the exclusion
const (
	FieldExistsExclusionLetter               Field = "existsExclusionLetter"
	FieldExclusionLetter                     Field = "exclusionLetter"
	FieldExclusionSchoolFactsInput           Field = "exclusionSchoolFactsInput"
	FieldExclusionSchoolEvidenceInput        Field = "exclusionSchoolEvidenceInput"
	FieldExclusionSchoolFactsConfirm         Field = "exclusionSchoolFactsConfirm"
	FieldExclusionParentsFactsInput          Field = "exclusionParentsFactsInput"
	FieldExclusionParentsFactsWitnessesInput Field = "exclusionParentsFactsWitnessesInput"
	FieldIsStudentVoiceHeard                 Field = "isStudentVoiceHeard"
)

// Stage 2: about the young person
const (
	FieldIsSend            Field = "isSend"
	FieldIsSendSchoolAware Field = "isSendSchoolAware"
	FieldSendSchoolAddress Field = "sendSchoolAddress"
	FieldSendWhoSupport    Field = "sendWhoSupport"
	FieldIsEhcp            Field = "isEhcp"
	FieldIsEthnicMin       Field = "isEthnicMin"
	FieldIsPrevSuspend     Field = "isPrevSuspend"
	FieldParentRiskAware   Field = "parentRiskAware"
	FieldContribFactors    Field = "contribFactors"
)

// Stage 3: about the procedure
const (
	FieldStage                 Field = "stage"
	FieldGovernorProcedureInfo Field = "governorProcedureInfo"
)

// Stage 4: document details
const (
	FieldChildName     Field = "childName"
	FieldParentName    Field = "parentName"
	FieldSchoolName    Field = "schoolName"
	FieldExclusionDate Field = "exclusionDate"
)

// Procedural stage values stored in FieldStage.
const (
	ProcedureGovernors = "Governors"
	ProcedureIRP       = "Independent Review Panel"
	ProcedureIRPShort  = "IRP"
)

// SupportNotApplicable is the "no professional support" option of FieldSendWhoSupport.
const SupportNotApplicable = "NA"

// Stage is one of the four ordered interview stages.
type Stage int

const (
	StageExclusion Stage = iota + 1
	StageYoungPerson
	StageProcedure
	StageDocumentDetails
)

func (s Stage) String() string {
	switch s {
	case StageExclusion:
		return "exclusion"
	case StageYoungPerson:
		return "young_person"
	case StageProcedure:
		return "procedure"
	case StageDocumentDetails:
		return "document_details"
	}
	return "unknown"
}

// CaseRecord maps fields to a bool or string answer. A missing or nil entry
// means the field has not been answered.
type CaseRecord map[Field]interface{}

// NewCaseRecord returns an empty record.
func NewCaseRecord() CaseRecord {
	return CaseRecord{}
}

// IsSet reports whether the field has been answered.
func (r CaseRecord) IsSet(f Field) bool {
	v, ok := r[f]
	return ok && v != nil
}

// Bool returns the boolean answer for f; ok is false when unset or not a bool.
func (r CaseRecord) Bool(f Field) (value bool, ok bool) {
	value, ok = r[f].(bool)
	return value, ok
}

// IsTrue is shorthand for a field answered true.
func (r CaseRecord) IsTrue(f Field) bool {
	v, ok := r.Bool(f)
	return ok && v
}

// IsFalse is shorthand for a field answered false.
func (r CaseRecord) IsFalse(f Field) bool {
	v, ok := r.Bool(f)
	return ok && !v
}

// Text returns the string answer for f.
func (r CaseRecord) Text(f Field) (string, bool) {
	s, ok := r[f].(string)
	return s, ok
}

// TextOr returns the string answer or def.
func (r CaseRecord) TextOr(f Field, def string) string {
	if s, ok := r.Text(f); ok {
		return s
	}
	return def
}

// Clone returns a shallow copy; values are immutable scalars.
func (r CaseRecord) Clone() CaseRecord {
	out := make(CaseRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsIRP reports whether the procedural stage is the Independent Review Panel.
func (r CaseRecord) IsIRP() bool {
	s, ok := r.Text(FieldStage)
	return ok && (s == ProcedureIRP || s == ProcedureIRPShort)
}
