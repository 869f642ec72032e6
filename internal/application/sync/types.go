package sync

import (
	"context"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/adapters/ynab"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// Options holds sync configuration
type Options struct {
	DryRun bool
}

// Stats holds sync results
type Stats struct {
	RunID string

	Processed  int
	Created    int
	Updated    int
	Skipped    int
	Duplicates int
	Failed     int
	Errors     []error
}

// Config holds engine configuration
type Config struct {
	BatchSize        int           // Default: 50
	LookbackYears    int           // Default: 2
	MaxAgeYears      int           // Default: 5, the ledger rejects older dates
	RateLimitBackoff time.Duration // Default: 60s
	ExcludedGroups   []string

	// Owner identifies this process in claims. Default: a random uuid.
	Owner string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BatchSize:        50,
		LookbackYears:    2,
		MaxAgeYears:      5,
		RateLimitBackoff: 60 * time.Second,
	}
}

// Ledger is the remote budget the engine writes to. *ynab.Client implements it.
type Ledger interface {
	AccountID() string
	CategoryGroups(ctx context.Context) ([]ynab.CategoryGroup, error)
	Transactions(ctx context.Context, since time.Time) ([]ynab.Transaction, error)
	CreateTransactions(ctx context.Context, txns []ynab.SaveTransaction) (*ynab.SaveResult, error)
	UpdateTransaction(ctx context.Context, id string, update ynab.TransactionUpdate) error
}

// Store is the local state the engine needs.
type Store interface {
	storage.SyncStateRepository
	storage.ClaimRepository
	StartRun(ctx context.Context, kind string, dryRun bool) (string, error)
	CompleteRun(ctx context.Context, id string, counts storage.RunCounts, runErr error) error
}

// Recorder receives sync metrics.
type Recorder interface {
	SyncResult(result string, n int)
	ObserveRun(kind string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) SyncResult(string, int)           {}
func (noopRecorder) ObserveRun(string, time.Duration) {}

// Sync result labels.
const (
	ResultCreated   = "created"
	ResultUpdated   = "updated"
	ResultSkipped   = "skipped"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)
