package categorizer

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// maxKeyRunes bounds cache keys; long listing titles differ only in their tails.
const maxKeyRunes = 60

// CacheStore persists cache entries between runs.
type CacheStore interface {
	LoadCategoryCache(ctx context.Context) (map[string]string, error)
	SaveCategoryCache(ctx context.Context, entries map[string]string) error
}

// CategoryCache maps normalized product names to categories.
// It is safe for concurrent use. Writes only mark the cache dirty; Flush
// hands the entries to the store.
type CategoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
	dirty   bool
	store   CacheStore
}

// NewCategoryCache creates a cache backed by store. A nil store keeps the
// cache in memory only.
func NewCategoryCache(store CacheStore) *CategoryCache {
	return &CategoryCache{
		entries: make(map[string]string),
		store:   store,
	}
}

// NormalizeKey trims, lowercases and truncates a product name to its cache key.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	runes := []rune(key)
	if len(runes) > maxKeyRunes {
		key = string(runes[:maxKeyRunes])
	}
	return key
}

// Load replaces the in-memory entries with the store's contents.
func (c *CategoryCache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	entries, err := c.store.LoadCategoryCache(ctx)
	if err != nil {
		return fmt.Errorf("failed to load category cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string, len(entries))
	for k, v := range entries {
		c.entries[NormalizeKey(k)] = v
	}
	c.dirty = false
	return nil
}

// Get retrieves the cached category for a product name
func (c *CategoryCache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	category, found := c.entries[NormalizeKey(name)]
	return category, found
}

// Put stores a category for a product name
func (c *CategoryCache) Put(name, category string) {
	key := NormalizeKey(name)
	if key == "" || category == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] == category {
		return
	}
	c.entries[key] = category
	c.dirty = true
}

// Flush writes the entries to the store if anything changed since the last
// load or flush. It reports whether a write happened.
func (c *CategoryCache) Flush(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty || c.store == nil {
		return false, nil
	}
	if err := c.store.SaveCategoryCache(ctx, maps.Clone(c.entries)); err != nil {
		return false, fmt.Errorf("failed to save category cache: %w", err)
	}
	c.dirty = false
	return true, nil
}

// Dirty reports whether there are unflushed writes.
func (c *CategoryCache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Len returns the number of cached entries
func (c *CategoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a copy of the cache contents.
func (c *CategoryCache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
