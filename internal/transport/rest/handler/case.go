package handler

import (
	"net/http"
	"voxllm/internal/apperr"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/service"

	"github.com/gorilla/mux"
)

// CaseHandler handles the interview endpoints
type CaseHandler struct {
	interviewSvc *service.InterviewService
	documentSvc  *service.DocumentService
	log          *logger.Logger
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(interviewSvc *service.InterviewService, documentSvc *service.DocumentService, log *logger.Logger) *CaseHandler {
	return &CaseHandler{
		interviewSvc: interviewSvc,
		documentSvc:  documentSvc,
		log:          log,
	}
}

// Start handles POST /v1/cases
func (h *CaseHandler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.interviewSvc.StartCase(r.Context())
	if err != nil {
		h.log.Error("start case failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/cases/{id}
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.interviewSvc.GetCase(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Next handles GET /v1/cases/{id}/next
func (h *CaseHandler) Next(w http.ResponseWriter, r *http.Request) {
	next, err := h.interviewSvc.NextAction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// SubmitAnswer handles POST /v1/cases/{id}/answers
func (h *CaseHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Field == "" {
		writeError(w, apperr.Validation("missing_field", "field is required"))
		return
	}

	next, err := h.interviewSvc.SubmitAnswer(r.Context(), mux.Vars(r)["id"], req.Field, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// RunPhase handles POST /v1/cases/{id}/phases/{phase}
func (h *CaseHandler) RunPhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	phase, ok := model.ParsePhase(vars["phase"])
	if !ok {
		writeError(w, apperr.Validation("unknown_phase", "unknown phase "+vars["phase"]))
		return
	}

	next, err := h.interviewSvc.RunPhase(r.Context(), vars["id"], phase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// Restart handles POST /v1/cases/{id}/restart
func (h *CaseHandler) Restart(w http.ResponseWriter, r *http.Request) {
	next, err := h.interviewSvc.Restart(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// Close handles DELETE /v1/cases/{id}
func (h *CaseHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.interviewSvc.CloseCase(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDF handles POST /v1/cases/{id}/pdf
func (h *CaseHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	pdf, err := h.documentSvc.RenderSessionPDF(r.Context(), id)
	if err != nil {
		h.log.Warn("pdf compile failed", "session_id", id, "error", err)
		writeError(w, err)
		return
	}
	writePDF(w, "position_statement.pdf", pdf)
}
