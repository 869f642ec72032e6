package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/api/dto"
	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
)

// CacheHandler reads and corrects the product category cache.
// Each request loads a fresh view so CLI runs and the server see each
// other's writes.
type CacheHandler struct {
	*Base
	store categorizer.CacheStore
}

// NewCacheHandler creates a cache handler over either cache backend.
func NewCacheHandler(store categorizer.CacheStore, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{Base: NewBase(nil, logger), store: store}
}

func (h *CacheHandler) load(w http.ResponseWriter, r *http.Request) (*categorizer.CategoryCache, bool) {
	cache := categorizer.NewCategoryCache(h.store)
	if err := cache.Load(r.Context()); err != nil {
		h.logger.Error("failed to load cache", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}
	return cache, true
}

// Get handles GET /api/cache. With ?item= it returns that entry, otherwise
// the whole cache.
func (h *CacheHandler) Get(w http.ResponseWriter, r *http.Request) {
	cache, ok := h.load(w, r)
	if !ok {
		return
	}

	item := strings.TrimSpace(r.URL.Query().Get("item"))
	if item == "" {
		entries := cache.Entries()
		h.WriteJSON(w, http.StatusOK, dto.CacheListResponse{Entries: entries, Count: len(entries)})
		return
	}

	category, found := cache.Get(item)
	if !found {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("cache entry"))
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.CacheEntryResponse{
		Item:     item,
		Key:      categorizer.NormalizeKey(item),
		Category: category,
	})
}

// Put handles PUT /api/cache and stores a manual correction.
func (h *CacheHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req dto.CacheUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}
	if msg := req.Validate(); msg != "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(msg))
		return
	}

	cache, ok := h.load(w, r)
	if !ok {
		return
	}
	category := strings.TrimSpace(req.Category)
	cache.Put(req.Item, category)
	if _, err := cache.Flush(r.Context()); err != nil {
		h.logger.Error("failed to save cache", "error", err)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.logger.Info("cache entry updated", "item", req.Item, "category", category)
	h.WriteJSON(w, http.StatusOK, dto.CacheEntryResponse{
		Item:     req.Item,
		Key:      categorizer.NormalizeKey(req.Item),
		Category: category,
	})
}
