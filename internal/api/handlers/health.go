package handlers

import (
	"log/slog"
	"net/http"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// HealthHandler reports whether the record store answers.
type HealthHandler struct {
	*Base
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo storage.Repository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{Base: NewBase(repo, logger)}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		response := dto.NewHealthResponse("unavailable")
		response.Store = "unreachable"
		h.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response := dto.NewHealthResponse("ok")
	response.Store = "ok"
	response.Records = stats.TotalRecords
	response.NeedsReview = stats.NeedsAttention
	h.WriteJSON(w, http.StatusOK, response)
}
