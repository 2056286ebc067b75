package handler

import (
	"net/http"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/service"
)

// DocumentHandler handles stateless rendering
type DocumentHandler struct {
	documentSvc *service.DocumentService
	log         *logger.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentSvc *service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc, log: log}
}

// RenderPDF handles POST /v1/documents/pdf
func (h *DocumentHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	var req model.RenderPDFRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pdf, err := h.documentSvc.RenderPDF(r.Context(), req.Case, req.Grounds, req.StartAt)
	if err != nil {
		h.log.Warn("stateless pdf failed", "error", err)
		writeError(w, err)
		return
	}
	writePDF(w, "position_statement.pdf", pdf)
}
