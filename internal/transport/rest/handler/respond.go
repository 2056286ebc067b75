package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"voxllm/internal/apperr"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	resp := errorResponse{Error: "internal error"}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		resp = errorResponse{
			Error:      ae.Message,
			Code:       ae.Code,
			Details:    ae.Details(),
			Suggestion: ae.Suggestion,
			Retryable:  ae.Retryable,
		}
		if resp.Error == "" {
			resp.Error = ae.Error()
		}
	}
	writeJSON(w, status, resp)
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid_body", "invalid request body: "+err.Error())
	}
	return nil
}
