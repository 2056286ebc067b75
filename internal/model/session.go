package model

import "time"

// SessionFlags track which side-effecting phases have completed.
type SessionFlags struct {
	AnalysisCompleted         bool `json:"analysisCompleted" bson:"analysisCompleted"`
	BackgroundSummaryComputed bool `json:"backgroundSummaryComputed" bson:"backgroundSummaryComputed"`
	DocumentGenerated         bool `json:"documentGenerated" bson:"documentGenerated"`
	Terminated                bool `json:"terminated" bson:"terminated"`
}

// LLMOutputs holds everything produced by the LLM collaborator. Each slot is
// written once per case.
type LLMOutputs struct {
	ExclusionReason       string `json:"exclusionReason,omitempty" bson:"exclusionReason,omitempty"`
	SchoolFacts           string `json:"schoolFacts,omitempty" bson:"schoolFacts,omitempty"`
	ParentsFacts          string `json:"parentsFacts,omitempty" bson:"parentsFacts,omitempty"`
	PositionStatementRaw  string `json:"positionStatementRaw,omitempty" bson:"positionStatementRaw,omitempty"`
	PositionStatementJSON string `json:"positionStatementJson,omitempty" bson:"positionStatementJson,omitempty"`
}

// AnalysisComplete reports whether all three stage 1 analysis slots are filled.
func (o LLMOutputs) AnalysisComplete() bool {
	return o.ExclusionReason != "" && o.SchoolFacts != "" && o.ParentsFacts != ""
}

// Session is the full per-case state owned by one user.
type Session struct {
	ID                string           `json:"id" bson:"_id"`
	Record            CaseRecord       `json:"record" bson:"record"`
	Flags             SessionFlags     `json:"flags" bson:"flags"`
	Outputs           LLMOutputs       `json:"outputs" bson:"outputs"`
	BackgroundSummary []string         `json:"backgroundSummary,omitempty" bson:"backgroundSummary,omitempty"`
	Grounds           *GroundsDocument `json:"grounds,omitempty" bson:"grounds,omitempty"`
	LastError         string           `json:"lastError,omitempty" bson:"lastError,omitempty"`
	CreatedAt         time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// NewSession creates an empty session with the given id.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Record:    NewCaseRecord(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset clears all answers and outputs, keeping the id.
func (s *Session) Reset(now time.Time) {
	s.Record = NewCaseRecord()
	s.Flags = SessionFlags{}
	s.Outputs = LLMOutputs{}
	s.BackgroundSummary = nil
	s.Grounds = nil
	s.LastError = ""
	s.UpdatedAt = now
}
