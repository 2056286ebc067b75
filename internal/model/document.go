package model

import "time"

// CaseDocument is an archived, compiled position statement.
type CaseDocument struct {
	SessionID   string           `json:"sessionId" bson:"sessionId"`
	Details     DocumentDetails  `json:"details" bson:"details"`
	Grounds     *GroundsDocument `json:"grounds" bson:"grounds"`
	PDF         []byte           `json:"-" bson:"pdf"`
	SizeBytes   int              `json:"sizeBytes" bson:"sizeBytes"`
	GeneratedAt time.Time        `json:"generatedAt" bson:"generatedAt"`
}
