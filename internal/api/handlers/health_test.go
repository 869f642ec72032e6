package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/api/handlers"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("returns 200 OK with store counts", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.AddRecord(testRecord("AMZ2:a:2500:P", "111-0000001-0000001", splitter.StatusItemized, 1))
		flagged := testRecord("AMZ2:b:2500:P", "111-0000002-0000002", splitter.StatusNeedsItemization, 2)
		flagged.Flag = splitter.FlagBlue
		repo.AddRecord(flagged)
		handler := handlers.NewHealthHandler(repo, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.HealthResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response.Status)
		assert.Equal(t, "ok", response.Store)
		assert.Equal(t, 2, response.Records)
		assert.Equal(t, 1, response.NeedsReview)
		assert.NotEmpty(t, response.Timestamp)
	})

	t.Run("returns 503 when the store fails", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.GetStatsErr = errors.New("database is locked")
		handler := handlers.NewHealthHandler(repo, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var response dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "unavailable", response.Status)
		assert.Equal(t, "unreachable", response.Store)
	})
}
