// Package itemize turns bank charges into itemized ledger records.
//
// Processing runs in two passes so the classifier sees every uncached
// product name of the run at once:
//
//  1. Filter Amazon charges, look each order up, match a shipment and
//     allocate the charge across its items. Tips, grocery orders and charges
//     without a usable order are resolved immediately.
//  2. Categorize all remaining product names in one call to the
//     categorizer, build the itemized records, flush the category cache
//     and store every record. Records with items the classifier did not
//     answer for are stored as pending and rebuilt on the next run.
package itemize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/allocator"
	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/domain/matcher"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

// Processor runs the itemization pipeline
type Processor struct {
	orders      OrderLookup
	categorizer ItemCategorizer
	cache       CacheFlusher
	store       Store
	matcher     *matcher.Matcher
	builder     *splitter.Builder
	metrics     Recorder
	logger      *slog.Logger
}

// NewProcessor creates a new processor. cache and store may be nil.
func NewProcessor(
	orders OrderLookup,
	categorizer ItemCategorizer,
	cache CacheFlusher,
	store Store,
	config Config,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Matcher.MaxDaysAfterShip <= 0 {
		config.Matcher = matcher.DefaultConfig()
	}
	return &Processor{
		orders:      orders,
		categorizer: categorizer,
		cache:       cache,
		store:       store,
		matcher:     matcher.NewMatcher(config.Matcher),
		builder:     splitter.NewBuilder(config.Builder),
		metrics:     noopRecorder{},
		logger:      logger,
	}
}

// SetMetrics sets the metrics recorder.
func (p *Processor) SetMetrics(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	p.metrics = r
}

// pending is a charge waiting for pass 2.
type pending struct {
	input  splitter.Input
	record *splitter.Record
}

// Process builds a record for every eligible charge.
//
// A systemic categorizer error (quota, credentials) stops the run before
// anything is stored. Categories learned so far are still flushed to the cache.
func (p *Processor) Process(ctx context.Context, charges []charge.BankCharge, catalog categorizer.Catalog, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{}
	defer func() { p.metrics.ObserveRun(storage.RunKindProcess, time.Since(start)) }()

	result.RunID = p.startRun(ctx, opts)

	candidates := p.filter(charges, opts)
	p.logger.Info("processing charges",
		"statement_rows", len(charges),
		"amazon_charges", len(candidates),
		"dry_run", opts.DryRun,
		"force", opts.Force)

	// Pass 1: match and allocate
	var queue []*pending
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, p.finish(ctx, result, err)
		}
		entry, skip, err := p.prepare(ctx, c, opts)
		if opts.Progress != nil {
			opts.Progress(i+1, len(candidates))
		}
		if err != nil {
			p.fail(result, c, err)
			continue
		}
		if skip {
			result.Skipped++
			continue
		}
		queue = append(queue, entry)
	}

	// Pass 2: categorize everything that still needs it, once
	categories, uncategorized, err := p.categorize(ctx, queue, catalog, result)
	if err != nil {
		p.flushCache(ctx)
		return result, p.finish(ctx, result, err)
	}

	for _, entry := range queue {
		if entry.record != nil {
			continue
		}
		entry.input.Categories = categories
		entry.input.Uncategorized = uncategorized
		record, err := p.builder.Build(entry.input)
		if err != nil {
			p.fail(result, entry.input.Charge, err)
			continue
		}
		entry.record = record
	}

	p.flushCache(ctx)

	for _, entry := range queue {
		if entry.record == nil {
			continue
		}
		if !opts.DryRun && p.store != nil {
			if err := p.store.SaveRecord(ctx, entry.record); err != nil {
				p.fail(result, entry.input.Charge, fmt.Errorf("failed to save record: %w", err))
				continue
			}
		}
		p.count(result, entry.record)
	}

	p.logger.Info("processing complete",
		"processed", result.Processed,
		"itemized", result.Itemized,
		"grocery", result.Grocery,
		"tips", result.Tips,
		"not_found", result.NotFound,
		"no_shipment_match", result.NoShipmentMatch,
		"low_confidence", result.LowConfidence,
		"pending_categories", result.PendingCategories,
		"skipped", result.Skipped,
		"cached", result.Cached,
		"failed", result.Failed)

	return result, p.finish(ctx, result, nil)
}

// filter keeps Amazon charges inside the requested range. Charges without
// an order id are kept so they surface as needing itemization.
func (p *Processor) filter(charges []charge.BankCharge, opts Options) []charge.BankCharge {
	var out []charge.BankCharge
	for _, c := range charges {
		if !charge.IsAmazonPayee(c.Payee) {
			continue
		}
		if opts.OrderID != "" && c.OrderID != opts.OrderID {
			continue
		}
		if !opts.Since.IsZero() && c.Date.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && c.Date.After(opts.Until) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// prepare runs pass 1 for one charge. Records that need no categories are
// built right away.
func (p *Processor) prepare(ctx context.Context, c charge.BankCharge, opts Options) (*pending, bool, error) {
	importID := c.IdempotencyKey()
	if !opts.Force && p.store != nil {
		exists, err := p.store.HasSettledRecord(ctx, importID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check record %s: %w", importID, err)
		}
		if exists {
			p.logger.Debug("Skipping already processed charge", "import_id", importID)
			return nil, true, nil
		}
	}

	in := splitter.Input{Charge: c, Match: matcher.Result{Kind: matcher.KindNone}}
	if c.OrderID == "" {
		p.logger.Debug("Charge has no order id", "tx_code", c.TxCode, "amount", c.Amount.StringFixed(2))
	} else if order, found := p.orders.Lookup(c.OrderID); found {
		in.Order = order
		in.Match = p.matcher.Match(c, order.Shipments, order.Items)
		switch {
		case in.Match.Shipment != nil:
			in.Items = allocator.Allocate(c.Amount, *in.Match.Shipment)
		case in.Match.Item != nil:
			in.Items = allocator.AllocateSingle(c.Amount, *in.Match.Item)
		}
		p.logger.Debug("Matched charge",
			"order_id", c.OrderID,
			"amount", c.Amount.StringFixed(2),
			"strategy", in.Match.Kind,
			"items", len(in.Items))
	} else {
		p.logger.Debug("Order not in history", "order_id", c.OrderID)
	}

	entry := &pending{input: in}
	if needsCategories(in) {
		return entry, false, nil
	}
	record, err := p.builder.Build(in)
	if err != nil {
		return nil, false, err
	}
	entry.record = record
	return entry, false, nil
}

func needsCategories(in splitter.Input) bool {
	if charge.IsTipPayee(in.Charge.Payee) || splitter.IsGrocery(in) {
		return false
	}
	return in.Order != nil && in.Match.Matched() && len(in.Items) > 0
}

// categorize returns the category per base name and the base names the
// classifier gave no answer for.
func (p *Processor) categorize(ctx context.Context, queue []*pending, catalog categorizer.Catalog, result *Result) (map[string]string, map[string]bool, error) {
	var names []string
	seen := make(map[string]bool)
	for _, entry := range queue {
		if entry.record != nil {
			continue
		}
		for _, item := range entry.input.Items {
			if !seen[item.BaseName] {
				seen[item.BaseName] = true
				names = append(names, item.BaseName)
			}
		}
	}
	if len(names) == 0 {
		return nil, nil, nil
	}

	p.logger.Info("categorizing items", "unique_items", len(names))
	res, err := p.categorizer.Categorize(ctx, names, catalog)
	if res != nil {
		result.Cached = res.CacheHits
	}
	if err != nil {
		return nil, nil, fmt.Errorf("categorization halted: %w", err)
	}

	var uncategorized map[string]bool
	if len(res.Uncategorized) > 0 {
		uncategorized = make(map[string]bool, len(res.Uncategorized))
		for _, name := range res.Uncategorized {
			uncategorized[name] = true
		}
		p.logger.Warn("items left uncategorized, will retry next run", "items", len(res.Uncategorized))
	}
	return res.Categories, uncategorized, nil
}

func (p *Processor) flushCache(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if _, err := p.cache.Flush(ctx); err != nil {
		p.logger.Error("failed to save category cache", "error", err)
	}
}

func (p *Processor) count(result *Result, record *splitter.Record) {
	result.Processed++
	result.Records = append(result.Records, record)
	p.metrics.ChargeProcessed(string(record.Status))

	switch record.Status {
	case splitter.StatusItemized:
		result.Itemized++
	case splitter.StatusGrocery:
		result.Grocery++
	case splitter.StatusTip:
		result.Tips++
	case splitter.StatusNeedsItemization:
		result.NotFound++
	case splitter.StatusNoShipmentMatch:
		result.NoShipmentMatch++
	case splitter.StatusPendingCategories:
		result.PendingCategories++
	}
	if record.LowConfidence {
		result.LowConfidence++
	}
}

func (p *Processor) fail(result *Result, c charge.BankCharge, err error) {
	result.Failed++
	result.Errors = append(result.Errors, err)
	p.metrics.ChargeProcessed("failed")

	level := slog.LevelWarn
	if errors.Is(err, splitter.ErrPrecisionInvariant) {
		level = slog.LevelError
	}
	p.logger.Log(context.Background(), level, "failed to process charge",
		"order_id", c.OrderID,
		"amount", c.Amount.StringFixed(2),
		"error", err)
}

func (p *Processor) startRun(ctx context.Context, opts Options) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.StartRun(ctx, storage.RunKindProcess, opts.DryRun)
	if err != nil {
		p.logger.Warn("failed to record run start", "error", err)
		return ""
	}
	return id
}

// finish records the run outcome and returns runErr.
func (p *Processor) finish(ctx context.Context, result *Result, runErr error) error {
	if p.store == nil || result.RunID == "" {
		return runErr
	}
	counts := storage.RunCounts{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	}
	if err := p.store.CompleteRun(context.WithoutCancel(ctx), result.RunID, counts, runErr); err != nil {
		p.logger.Warn("failed to record run completion", "run_id", result.RunID, "error", err)
	}
	return runErr
}
