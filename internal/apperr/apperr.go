package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures so transports can map them without string matching.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindExternalCall Kind = "external_call"
	KindCompilation  Kind = "compilation"
	KindUserAbort    Kind = "user_abort"
	KindConfig       Kind = "config"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
)

// Error is the typed error returned across service boundaries.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Suggestion string
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Details returns the underlying cause text, if any.
func (e *Error) Details() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func ExternalCall(code, msg string, err error) *Error {
	return &Error{
		Kind:       KindExternalCall,
		Code:       code,
		Message:    msg,
		Retryable:  true,
		Suggestion: "Retry the same step; your answers have been kept.",
		Err:        err,
	}
}

func Compilation(code, msg string, err error) *Error {
	return &Error{
		Kind:       KindCompilation,
		Code:       code,
		Message:    msg,
		Suggestion: "Request the PDF again; no answers need to be re-entered.",
		Err:        err,
	}
}

func UserAbort(code, msg string) *Error {
	return &Error{
		Kind:       KindUserAbort,
		Code:       code,
		Message:    msg,
		Suggestion: "Restart the case once the missing document is available.",
	}
}

func Config(code, msg string) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindUserAbort:
		return http.StatusConflict
	case KindExternalCall:
		return http.StatusBadGateway
	case KindCompilation:
		if e.Code == "toolchain_missing" {
			return http.StatusServiceUnavailable
		}
		return http.StatusUnprocessableEntity
	case KindConfig:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
