package storage

import (
	"context"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RecordRepository
	SyncStateRepository
	ClaimRepository
	RunRepository
	LoadCategoryCache(ctx context.Context) (map[string]string, error)
	SaveCategoryCache(ctx context.Context, entries map[string]string) error
	Close() error
}

// RecordRepository handles itemized record operations
type RecordRepository interface {
	// SaveRecord inserts or replaces the record with the same import id
	SaveRecord(ctx context.Context, record *splitter.Record) error

	// GetRecord returns ErrNotFound when the import id is unknown
	GetRecord(ctx context.Context, importID string) (*splitter.Record, error)

	// HasSettledRecord ignores records still waiting on categories
	HasSettledRecord(ctx context.Context, importID string) (bool, error)

	// ListRecords returns records newest first
	ListRecords(ctx context.Context, filters RecordFilters) (*RecordList, error)

	GetStats(ctx context.Context) (*Stats, error)
}

// SyncStateRepository tracks which records reached the ledger
type SyncStateRepository interface {
	MarkSynced(ctx context.Context, record SyncRecord) error
	SyncedSet(ctx context.Context) (map[string]SyncRecord, error)
}

// ClaimRepository provides create-only claims across processes
type ClaimRepository interface {
	// Claim returns true only for the caller that created the claim
	Claim(ctx context.Context, key, owner string) (bool, error)

	// Release removes a claim held by owner
	Release(ctx context.Context, key, owner string) error
}

// RunRepository handles run tracking
type RunRepository interface {
	StartRun(ctx context.Context, kind string, dryRun bool) (string, error)
	CompleteRun(ctx context.Context, id string, counts RunCounts, runErr error) error
	ListRuns(ctx context.Context, limit int) ([]SyncRun, error)
	GetRun(ctx context.Context, id string) (*SyncRun, error)
}
