package handlers

import (
	"log/slog"
	"net/http"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// StatsHandler handles GET /api/stats.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{Base: NewBase(repo, logger)}
}

// Get returns record totals plus the most recent run.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.StatsResponse{
		TotalRecords:   stats.TotalRecords,
		ByStatus:       stats.ByStatus,
		LowConfidence:  stats.LowConfidence,
		NeedsAttention: stats.NeedsAttention,
		TotalAmount:    stats.TotalAmount,
		Synced:         stats.Synced,
		CacheEntries:   stats.CacheEntries,
	}

	runs, err := h.repo.ListRuns(r.Context(), 1)
	if err != nil {
		h.logger.Warn("failed to load last run", "error", err)
	} else if len(runs) > 0 {
		last := dto.NewRunResponse(runs[0])
		response.LastRun = &last
	}

	h.WriteJSON(w, http.StatusOK, response)
}
