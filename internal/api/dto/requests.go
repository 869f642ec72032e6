package dto

import "strings"

// RecordListParams represents query parameters for listing records.
type RecordListParams struct {
	Status  string
	OrderID string
	Limit   int
	Offset  int
}

// DefaultRecordListParams returns default values for record list params.
func DefaultRecordListParams() RecordListParams {
	return RecordListParams{Limit: 50}
}

// CacheUpdateRequest is the body of PUT /api/cache: a manual category
// correction for one product.
type CacheUpdateRequest struct {
	Item     string `json:"item"`
	Category string `json:"category"`
}

// Validate returns a message describing the first problem, or "".
func (r CacheUpdateRequest) Validate() string {
	switch {
	case strings.TrimSpace(r.Item) == "":
		return "item is required"
	case strings.TrimSpace(r.Category) == "":
		return "category is required"
	}
	return ""
}
