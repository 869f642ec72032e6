package filestore

import (
	"context"
	"maps"
)

// DefaultCacheFile is the category cache file name inside the data directory.
const DefaultCacheFile = "category_cache.json"

// CategoryFile stores the category cache as a flat JSON object.
type CategoryFile struct {
	path string
}

// NewCategoryFile creates a cache store at path.
func NewCategoryFile(path string) *CategoryFile {
	return &CategoryFile{path: path}
}

// Path returns the cache file path.
func (f *CategoryFile) Path() string {
	return f.path
}

// LoadCategoryCache reads the cache; a missing file is an empty cache.
func (f *CategoryFile) LoadCategoryCache(_ context.Context) (map[string]string, error) {
	entries := make(map[string]string)
	if _, err := ReadJSON(f.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveCategoryCache replaces the file with entries.
func (f *CategoryFile) SaveCategoryCache(_ context.Context, entries map[string]string) error {
	return WriteJSONAtomic(f.path, maps.Clone(entries))
}
