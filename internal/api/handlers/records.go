package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// maxListLimit caps page sizes requested by clients.
const maxListLimit = 500

// RecordsHandler serves itemized records.
type RecordsHandler struct {
	*Base
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(repo storage.Repository, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{Base: NewBase(repo, logger)}
}

// List handles GET /api/records with optional status, order_id, limit and
// offset query parameters.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultRecordListParams()
	params.Status = r.URL.Query().Get("status")
	params.OrderID = r.URL.Query().Get("order_id")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", params.Offset)

	if params.Limit <= 0 || params.Limit > maxListLimit {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("limit must be between 1 and 500"))
		return
	}
	if params.Offset < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("offset must not be negative"))
		return
	}

	list, err := h.repo.ListRecords(r.Context(), storage.RecordFilters{
		Status:  params.Status,
		OrderID: params.OrderID,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RecordListResponse{
		Records:    make([]dto.RecordResponse, 0, len(list.Records)),
		TotalCount: list.TotalCount,
		Limit:      list.Limit,
		Offset:     list.Offset,
	}
	for _, record := range list.Records {
		response.Records = append(response.Records, dto.NewRecordResponse(record))
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/records/{importID}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")
	if importID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("import ID is required"))
		return
	}

	record, err := h.repo.GetRecord(r.Context(), importID)
	if err != nil {
		h.writeLookupError(w, r, "record", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.NewRecordResponse(record))
}
