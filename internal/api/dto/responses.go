package dto

import (
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

const timeLayout = time.RFC3339

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Store       string `json:"store"`
	Records     int    `json:"records"`
	NeedsReview int    `json:"needs_review"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(timeLayout),
	}
}

// SplitResponse represents one category split of a record.
type SplitResponse struct {
	Category string   `json:"category"`
	Amount   string   `json:"amount"`
	Memo     string   `json:"memo"`
	Items    []string `json:"items,omitempty"`
}

// RecordResponse represents an itemized record in API responses.
type RecordResponse struct {
	ImportID       string          `json:"import_id"`
	Date           string          `json:"date"`
	OrderID        string          `json:"order_id"`
	Amount         string          `json:"amount"`
	Payee          string          `json:"payee"`
	Memo           string          `json:"memo"`
	Flag           string          `json:"flag"`
	Status         string          `json:"status"`
	IsRefund       bool            `json:"is_refund"`
	LowConfidence  bool            `json:"low_confidence"`
	NeedsAttention bool            `json:"needs_attention"`
	MatchStrategy  string          `json:"match_strategy,omitempty"`
	Splits         []SplitResponse `json:"splits"`
	Items          []string        `json:"items,omitempty"`
	UpdatedAt      string          `json:"updated_at"`
}

// NewRecordResponse converts a stored record.
func NewRecordResponse(r *splitter.Record) RecordResponse {
	resp := RecordResponse{
		ImportID:       r.ImportID,
		Date:           r.Date.Format("2006-01-02"),
		OrderID:        r.OrderID,
		Amount:         r.Amount.StringFixed(2),
		Payee:          r.Payee,
		Memo:           r.Memo,
		Flag:           string(r.Flag),
		Status:         string(r.Status),
		IsRefund:       r.IsRefund,
		LowConfidence:  r.LowConfidence,
		NeedsAttention: r.NeedsAttention(),
		MatchStrategy:  r.MatchStrategy,
		Splits:         make([]SplitResponse, 0, len(r.Splits)),
		Items:          r.Items,
		UpdatedAt:      r.UpdatedAt.UTC().Format(timeLayout),
	}
	if len(resp.Items) == 0 {
		resp.Items = r.AllItems
	}
	for _, s := range r.Splits {
		resp.Splits = append(resp.Splits, SplitResponse{
			Category: s.Category,
			Amount:   s.Amount.StringFixed(2),
			Memo:     s.Memo,
			Items:    s.ItemNames,
		})
	}
	return resp
}

// RecordListResponse is returned when listing records.
type RecordListResponse struct {
	Records    []RecordResponse `json:"records"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// RunResponse represents a process or sync run in API responses.
type RunResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	DryRun      bool   `json:"dry_run"`
	Processed   int    `json:"processed"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
	Duplicates  int    `json:"duplicates"`
	Failed      int    `json:"failed"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// NewRunResponse converts a stored run.
func NewRunResponse(run storage.SyncRun) RunResponse {
	resp := RunResponse{
		ID:         run.ID,
		Kind:       run.Kind,
		StartedAt:  run.StartedAt.UTC().Format(timeLayout),
		DryRun:     run.DryRun,
		Processed:  run.Processed,
		Created:    run.Created,
		Updated:    run.Updated,
		Skipped:    run.Skipped,
		Duplicates: run.Duplicates,
		Failed:     run.Failed,
		Status:     run.Status,
		Error:      run.Error,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(timeLayout)
	}
	return resp
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// StatsResponse summarizes stored records and sync state.
type StatsResponse struct {
	TotalRecords   int            `json:"total_records"`
	ByStatus       map[string]int `json:"by_status"`
	LowConfidence  int            `json:"low_confidence"`
	NeedsAttention int            `json:"needs_attention"`
	TotalAmount    string         `json:"total_amount"`
	Synced         int            `json:"synced"`
	CacheEntries   int            `json:"cache_entries"`
	LastRun        *RunResponse   `json:"last_run,omitempty"`
}

// CacheEntryResponse is one category cache entry.
type CacheEntryResponse struct {
	Item     string `json:"item"`
	Key      string `json:"key"`
	Category string `json:"category"`
}

// CacheListResponse is returned when listing the whole cache.
type CacheListResponse struct {
	Entries map[string]string `json:"entries"`
	Count   int               `json:"count"`
}
