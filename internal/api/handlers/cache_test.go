package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/api/handlers"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

func cacheRepo(t *testing.T) *storage.MockRepository {
	t.Helper()
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveCategoryCache(context.Background(), map[string]string{
		"usb-c cable":  "Electronics",
		"paper towels": "Household Supplies",
	}))
	return repo
}

func TestCacheHandler_Get(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantCode     int
		wantCategory string
	}{
		{name: "lookup is case insensitive", query: "?item=USB-C%20Cable", wantCode: http.StatusOK, wantCategory: "Electronics"},
		{name: "unknown item", query: "?item=Garden%20Hose", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewCacheHandler(cacheRepo(t), nil)
			req := httptest.NewRequest(http.MethodGet, "/api/cache"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.Get(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var response dto.CacheEntryResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.wantCategory, response.Category)
			assert.Equal(t, "usb-c cable", response.Key)
		})
	}
}

func TestCacheHandler_GetAll(t *testing.T) {
	handler := handlers.NewCacheHandler(cacheRepo(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/cache", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.CacheListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "Household Supplies", response.Entries["paper towels"])
}

func TestCacheHandler_Put(t *testing.T) {
	t.Run("stores a correction", func(t *testing.T) {
		// Arrange
		repo := cacheRepo(t)
		handler := handlers.NewCacheHandler(repo, nil)
		body := `{"item": "  USB-C Cable ", "category": "Office Supplies"}`
		req := httptest.NewRequest(http.MethodPut, "/api/cache", strings.NewReader(body))
		rec := httptest.NewRecorder()

		// Act
		handler.Put(rec, req)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		entries, err := repo.LoadCategoryCache(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Office Supplies", entries["usb-c cable"])
		assert.Equal(t, "Household Supplies", entries["paper towels"])
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing item", body: `{"category": "Electronics"}`},
		{name: "missing category", body: `{"item": "Cable", "category": " "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := cacheRepo(t)
			handler := handlers.NewCacheHandler(repo, nil)
			req := httptest.NewRequest(http.MethodPut, "/api/cache", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Put(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 1, repo.CacheSaves)
		})
	}
}
