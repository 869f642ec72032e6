// Package sync writes itemized records to the YNAB ledger.
//
// Each record carries a deterministic import id, so running the sync any
// number of times over the same records creates each transaction once.
// Existing remote transactions are updated when their splits changed, and
// new ones are created in batches guarded by create-only claims so that two
// concurrent invocations never both create the same transaction.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/adapters/ynab"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
	"github.com/google/uuid"
)

const claimPrefix = "ynab-create:"

// Engine reconciles records against the ledger
type Engine struct {
	ledger  Ledger
	store   Store
	config  Config
	metrics Recorder
	logger  *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a new sync engine
func NewEngine(ledger Ledger, store Store, config Config, logger *slog.Logger) *Engine {
	defaults := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.LookbackYears <= 0 {
		config.LookbackYears = defaults.LookbackYears
	}
	if config.MaxAgeYears <= 0 {
		config.MaxAgeYears = defaults.MaxAgeYears
	}
	if config.RateLimitBackoff <= 0 {
		config.RateLimitBackoff = defaults.RateLimitBackoff
	}
	if config.Owner == "" {
		config.Owner = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ledger:  ledger,
		store:   store,
		config:  config,
		metrics: noopRecorder{},
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// SetMetrics sets the metrics recorder.
func (e *Engine) SetMetrics(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	e.metrics = r
}

// run carries the state of one Sync call.
type run struct {
	opts       Options
	stats      *Stats
	synced     map[string]storage.SyncRecord
	remote     map[string]*ynab.Transaction
	categories *ynab.CategoryIndex
}

type createItem struct {
	record *splitter.Record
	tx     ynab.SaveTransaction
	hash   string
}

// Sync writes records to the ledger. Failures of single records or batches
// are counted; only failing to read the ledger or local state aborts.
func (e *Engine) Sync(ctx context.Context, records []*splitter.Record, opts Options) (*Stats, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveRun(storage.RunKindSync, time.Since(start)) }()

	r := &run{opts: opts, stats: &Stats{}}
	r.stats.RunID = e.startRun(ctx, opts)

	if err := e.load(ctx, r); err != nil {
		return r.stats, e.finish(ctx, r.stats, err)
	}

	cutoff := e.now().AddDate(-e.config.MaxAgeYears, 0, 0)
	var creates []createItem
	for _, record := range records {
		r.stats.Processed++
		if record.Date.Before(cutoff) {
			e.logger.Debug("Skipping record older than ledger limit", "import_id", record.ImportID, "date", record.Date.Format("2006-01-02"))
			e.count(r, ResultSkipped)
			continue
		}

		tx, missing := toSaveTransaction(record, e.ledger.AccountID(), r.categories)
		if len(missing) > 0 {
			e.logger.Warn("categories not found in budget", "import_id", record.ImportID, "categories", missing)
		}
		item := createItem{record: record, tx: tx, hash: contentHash(tx)}

		existing, found := r.remote[record.ImportID]
		if !found {
			if _, synced := r.synced[record.ImportID]; synced {
				// Synced before but gone remotely: deleted by hand or outside the lookback
				e.count(r, ResultSkipped)
				continue
			}
			creates = append(creates, item)
			continue
		}
		e.reconcile(ctx, r, item, existing)
	}

	for i := 0; i < len(creates); i += e.config.BatchSize {
		end := min(i+e.config.BatchSize, len(creates))
		if err := e.createBatch(ctx, r, creates[i:end]); err != nil && ctx.Err() != nil {
			return r.stats, e.finish(ctx, r.stats, err)
		}
	}

	e.logger.Info("sync complete",
		"processed", r.stats.Processed,
		"created", r.stats.Created,
		"updated", r.stats.Updated,
		"duplicates", r.stats.Duplicates,
		"skipped", r.stats.Skipped,
		"failed", r.stats.Failed,
		"dry_run", opts.DryRun)

	return r.stats, e.finish(ctx, r.stats, nil)
}

func (e *Engine) load(ctx context.Context, r *run) error {
	synced, err := e.store.SyncedSet(ctx)
	if err != nil {
		return fmt.Errorf("failed to load synced set: %w", err)
	}
	r.synced = synced

	groups, err := e.ledger.CategoryGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}
	r.categories = ynab.NewCategoryIndex(groups, e.config.ExcludedGroups)

	since := e.now().AddDate(-e.config.LookbackYears, 0, 0)
	remote, err := e.ledger.Transactions(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	r.remote = indexRemote(remote)

	e.logger.Info("loaded ledger state",
		"remote_transactions", len(remote),
		"synced", len(synced),
		"categories", len(r.categories.Names()),
		"since", since.Format("2006-01-02"))
	return nil
}

// reconcile handles a record that already exists remotely.
func (e *Engine) reconcile(ctx context.Context, r *run, item createItem, existing *ynab.Transaction) {
	id := item.record.ImportID
	prev, synced := r.synced[id]
	if synced && prev.ContentHash == item.hash {
		e.count(r, ResultSkipped)
		return
	}

	if needsUpdate(existing, item.tx) {
		if r.opts.DryRun {
			e.logger.Info("would update transaction", "import_id", id, "remote_id", existing.ID)
			e.count(r, ResultUpdated)
			return
		}
		err := e.withRateLimitRetry(ctx, func() error {
			return e.ledger.UpdateTransaction(ctx, existing.ID, toUpdate(item.tx))
		})
		if err != nil {
			e.failed(r, 1, fmt.Errorf("update %s: %w", id, err))
			return
		}
		e.logger.Info("updated transaction", "import_id", id, "remote_id", existing.ID, "splits", len(item.tx.Subtransactions))
		e.count(r, ResultUpdated)
		e.markSynced(ctx, id, existing.ID, item.hash)
		return
	}

	if synced {
		e.count(r, ResultSkipped)
	} else {
		e.count(r, ResultDuplicate)
	}
	if !r.opts.DryRun {
		e.markSynced(ctx, id, existing.ID, item.hash)
	}
}

// createBatch claims and creates one batch. The returned error is the
// batch failure, already counted.
func (e *Engine) createBatch(ctx context.Context, r *run, batch []createItem) error {
	if r.opts.DryRun {
		for _, item := range batch {
			e.logger.Info("would create transaction", "import_id", item.record.ImportID, "amount", item.record.Amount.StringFixed(2), "splits", len(item.record.Splits))
		}
		e.count(r, ResultCreated, len(batch))
		return nil
	}

	var claimed []createItem
	for _, item := range batch {
		ok, err := e.store.Claim(ctx, claimPrefix+item.record.ImportID, e.config.Owner)
		if err != nil {
			e.failed(r, 1, fmt.Errorf("claim %s: %w", item.record.ImportID, err))
			continue
		}
		if !ok {
			e.logger.Info("transaction claimed by another run", "import_id", item.record.ImportID)
			e.count(r, ResultSkipped)
			continue
		}
		claimed = append(claimed, item)
	}
	if len(claimed) == 0 {
		return nil
	}

	txns := make([]ynab.SaveTransaction, len(claimed))
	for i, item := range claimed {
		txns[i] = item.tx
	}

	var result *ynab.SaveResult
	err := e.withRateLimitRetry(ctx, func() error {
		var err error
		result, err = e.ledger.CreateTransactions(ctx, txns)
		return err
	})
	if err != nil {
		for _, item := range claimed {
			if rerr := e.store.Release(context.WithoutCancel(ctx), claimPrefix+item.record.ImportID, e.config.Owner); rerr != nil {
				e.logger.Warn("failed to release claim", "import_id", item.record.ImportID, "error", rerr)
			}
		}
		batchErr := fmt.Errorf("create batch of %d: %w", len(claimed), err)
		e.failed(r, len(claimed), batchErr)
		return batchErr
	}

	duplicates := make(map[string]bool, len(result.DuplicateImportIDs))
	for _, id := range result.DuplicateImportIDs {
		duplicates[id] = true
	}
	remoteIDs := make(map[string]string, len(result.Transactions))
	for _, tx := range result.Transactions {
		remoteIDs[tx.ImportID] = tx.ID
	}

	for _, item := range claimed {
		id := item.record.ImportID
		if duplicates[id] {
			e.count(r, ResultDuplicate)
		} else {
			e.count(r, ResultCreated)
		}
		e.markSynced(ctx, id, remoteIDs[id], item.hash)
	}
	e.logger.Info("created transactions", "count", len(claimed)-len(result.DuplicateImportIDs), "duplicates", len(result.DuplicateImportIDs))
	return nil
}

// withRateLimitRetry runs fn, and once more after the backoff if the ledger
// rate limited it.
func (e *Engine) withRateLimitRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if !ynab.IsRateLimited(err) {
		return err
	}
	e.logger.Warn("rate limited by ledger, backing off", "wait", e.config.RateLimitBackoff)
	if serr := e.sleep(ctx, e.config.RateLimitBackoff); serr != nil {
		return errors.Join(err, serr)
	}
	return fn()
}

func (e *Engine) markSynced(ctx context.Context, importID, remoteID, hash string) {
	err := e.store.MarkSynced(ctx, storage.SyncRecord{
		ImportID:    importID,
		RemoteID:    remoteID,
		ContentHash: hash,
		SyncedAt:    e.now().UTC(),
	})
	if err != nil {
		e.logger.Warn("failed to mark synced", "import_id", importID, "error", err)
	}
}

// count adds n (default 1) records with the given result.
func (e *Engine) count(r *run, result string, n ...int) {
	k := 1
	if len(n) > 0 {
		k = n[0]
	}
	switch result {
	case ResultCreated:
		r.stats.Created += k
	case ResultUpdated:
		r.stats.Updated += k
	case ResultSkipped:
		r.stats.Skipped += k
	case ResultDuplicate:
		r.stats.Duplicates += k
	case ResultFailed:
		r.stats.Failed += k
	}
	e.metrics.SyncResult(result, k)
}

func (e *Engine) failed(r *run, n int, err error) {
	e.logger.Error("sync failed", "records", n, "error", err)
	r.stats.Errors = append(r.stats.Errors, err)
	e.count(r, ResultFailed, n)
}

func (e *Engine) startRun(ctx context.Context, opts Options) string {
	id, err := e.store.StartRun(ctx, storage.RunKindSync, opts.DryRun)
	if err != nil {
		e.logger.Warn("failed to record run start", "error", err)
		return ""
	}
	return id
}

func (e *Engine) finish(ctx context.Context, stats *Stats, runErr error) error {
	if stats.RunID == "" {
		return runErr
	}
	counts := storage.RunCounts{
		Processed:  stats.Processed,
		Created:    stats.Created,
		Updated:    stats.Updated,
		Skipped:    stats.Skipped,
		Duplicates: stats.Duplicates,
		Failed:     stats.Failed,
	}
	if err := e.store.CompleteRun(context.WithoutCancel(ctx), stats.RunID, counts, runErr); err != nil {
		e.logger.Warn("failed to record run completion", "run_id", stats.RunID, "error", err)
	}
	return runErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
