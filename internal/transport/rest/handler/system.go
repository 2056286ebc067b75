package handler

import (
	"context"
	"net/http"
	"time"
	"voxllm/internal/cache"
	"voxllm/internal/service"
)

const statusTimeout = 10 * time.Second

// SystemHandler serves operational endpoints
type SystemHandler struct {
	analysisSvc *service.AnalysisService
	stats       cache.StatsCache
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(analysisSvc *service.AnalysisService, stats cache.StatsCache) *SystemHandler {
	return &SystemHandler{analysisSvc: analysisSvc, stats: stats}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LLMStatus handles GET /v1/llm/status
func (h *SystemHandler) LLMStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	status, err := h.analysisSvc.Status(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Stats handles GET /v1/stats
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
