package itemize

import (
	"context"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/charliesneath/ynab-toolkit/internal/domain/matcher"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// Options holds processing configuration
type Options struct {
	DryRun bool // build records without storing them
	Force  bool // rebuild records that are already stored

	// Since and Until bound charge dates, inclusive. Zero means unbounded.
	Since time.Time
	Until time.Time

	OrderID string // If set, only process this specific order

	// Progress is called after each charge of the first pass.
	Progress func(done, total int)
}

// Result holds processing results
type Result struct {
	RunID string

	Processed         int // records built
	Itemized          int
	Grocery           int
	Tips              int
	NotFound          int // no order id, or order not in history
	NoShipmentMatch   int
	PendingCategories int // stored with uncategorized items, rebuilt next run
	LowConfidence     int
	Skipped           int // already stored
	Cached            int // category cache hits
	Failed            int

	Records []*splitter.Record
	Errors  []error
}

// Config holds processor configuration
type Config struct {
	Matcher matcher.Config
	Builder splitter.Config
}

// OrderLookup finds an order in the order history.
type OrderLookup interface {
	Lookup(orderID string) (*orderhistory.Order, bool)
}

// ItemCategorizer assigns categories to product names.
type ItemCategorizer interface {
	Categorize(ctx context.Context, items []string, catalog categorizer.Catalog) (*categorizer.Result, error)
}

// CacheFlusher persists the category cache when it changed.
type CacheFlusher interface {
	Flush(ctx context.Context) (bool, error)
}

// Store is the storage the processor needs.
type Store interface {
	HasSettledRecord(ctx context.Context, importID string) (bool, error)
	SaveRecord(ctx context.Context, record *splitter.Record) error
	StartRun(ctx context.Context, kind string, dryRun bool) (string, error)
	CompleteRun(ctx context.Context, id string, counts storage.RunCounts, runErr error) error
}

// Recorder receives processing metrics.
type Recorder interface {
	ChargeProcessed(status string)
	ObserveRun(kind string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ChargeProcessed(string)           {}
func (noopRecorder) ObserveRun(string, time.Duration) {}
