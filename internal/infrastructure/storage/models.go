package storage

import (
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
)

// RecordFilters defines filters for listing itemized records
type RecordFilters struct {
	Status  string // empty = all
	OrderID string // empty = all
	Since   time.Time
	Limit   int // 0 = default 50, negative = no limit
	Offset  int
}

// RecordList contains paginated record results
type RecordList struct {
	Records    []*splitter.Record `json:"records"`
	TotalCount int                `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

// SyncRecord marks an import id as written to the ledger.
type SyncRecord struct {
	ImportID    string    `json:"import_id"`
	RemoteID    string    `json:"remote_id"`
	ContentHash string    `json:"content_hash"`
	SyncedAt    time.Time `json:"synced_at"`
}

// Run kinds.
const (
	RunKindProcess = "process"
	RunKindSync    = "sync"
)

// Run statuses.
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)

// RunCounts are the tallies recorded when a run completes.
type RunCounts struct {
	Processed  int `json:"processed"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// SyncRun represents one process or sync invocation
type SyncRun struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DryRun      bool       `json:"dry_run"`
	RunCounts
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Stats summarizes stored records
type Stats struct {
	TotalRecords   int            `json:"total_records"`
	ByStatus       map[string]int `json:"by_status"`
	LowConfidence  int            `json:"low_confidence"`
	NeedsAttention int            `json:"needs_attention"`
	TotalAmount    string         `json:"total_amount"`
	Synced         int            `json:"synced"`
	CacheEntries   int            `json:"cache_entries"`
}
