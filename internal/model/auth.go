package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a case-scoped token
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// StartCaseResponse is returned when a new case is opened
type StartCaseResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	Next      Action `json:"next"`
}

// SubmitAnswerRequest is the body of an answer submission
type SubmitAnswerRequest struct {
	Field Field       `json:"field"`
	Value interface{} `json:"value"`
}

// RenderPDFRequest is the body of the stateless PDF endpoint
type RenderPDFRequest struct {
	Case    DocumentDetails  `json:"case"`
	Grounds *GroundsDocument `json:"grounds"`
	StartAt int              `json:"startAt,omitempty"`
}
