package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/api/handlers"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

func seededRepo() *storage.MockRepository {
	repo := storage.NewMockRepository()
	repo.AddRecord(testRecord("AMZ2:111:2500:P", "111-0000001-0000001", splitter.StatusItemized, 1))
	repo.AddRecord(testRecord("AMZ2:222:2500:P", "222-0000002-0000002", splitter.StatusGrocery, 2))
	repo.AddRecord(testRecord("AMZ2:333:2500:P", "333-0000003-0000003", splitter.StatusItemized, 3))
	return repo
}

func TestRecordsHandler_List(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
		wantTotal int
	}{
		{name: "all records", query: "", wantCode: http.StatusOK, wantCount: 3, wantTotal: 3},
		{name: "filter by status", query: "?status=itemized", wantCode: http.StatusOK, wantCount: 2, wantTotal: 2},
		{name: "filter by order", query: "?order_id=222-0000002-0000002", wantCode: http.StatusOK, wantCount: 1, wantTotal: 1},
		{name: "paginated", query: "?limit=2&offset=2", wantCode: http.StatusOK, wantCount: 1, wantTotal: 3},
		{name: "limit too large", query: "?limit=1000", wantCode: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := handlers.NewRecordsHandler(seededRepo(), nil)
			req := httptest.NewRequest(http.MethodGet, "/api/records"+tt.query, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.List(rec, req)

			// Assert
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var response dto.RecordListResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Len(t, response.Records, tt.wantCount)
			assert.Equal(t, tt.wantTotal, response.TotalCount)
		})
	}
}

func TestRecordsHandler_ListNewestFirst(t *testing.T) {
	handler := handlers.NewRecordsHandler(seededRepo(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	var response dto.RecordListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Len(t, response.Records, 3)
	assert.Equal(t, "2025-03-03", response.Records[0].Date)
	assert.Equal(t, "2025-03-01", response.Records[2].Date)
}

func TestRecordsHandler_Get(t *testing.T) {
	t.Run("returns record with splits", func(t *testing.T) {
		handler := handlers.NewRecordsHandler(seededRepo(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/records/AMZ2:111:2500:P", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "importID", "AMZ2:111:2500:P"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RecordResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "111-0000001-0000001", response.OrderID)
		assert.Equal(t, "-25.00", response.Amount)
		assert.Equal(t, "yellow", response.Flag)
		require.Len(t, response.Splits, 2)
		assert.Equal(t, "Electronics", response.Splits[0].Category)
		assert.Equal(t, "-15.00", response.Splits[0].Amount)
	})

	t.Run("returns 404 for unknown import id", func(t *testing.T) {
		handler := handlers.NewRecordsHandler(storage.NewMockRepository(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/records/missing", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "importID", "missing"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeNotFound, response.Code)
	})

	t.Run("returns 400 without import id", func(t *testing.T) {
		handler := handlers.NewRecordsHandler(storage.NewMockRepository(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/records/", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
