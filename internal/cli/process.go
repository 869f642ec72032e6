package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/application/itemize"
	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/charliesneath/ynab-toolkit/internal/domain/matcher"
	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
)

const dateLayout = "2006-01-02"

type processFlags struct {
	dryRun     bool
	force      bool
	since      string
	until      string
	orderID    string
	noProgress bool
}

func newProcessCommand(app *App) *cobra.Command {
	flags := &processFlags{}
	cmd := &cobra.Command{
		Use:   "process [statement files...]",
		Short: "Itemize Amazon charges from register CSV or OFX/QFX statements",
		Long: `Reads bank charges from YNAB register CSV exports or OFX/QFX statements,
matches each Amazon charge to its order and shipment, categorizes the products
and stores the itemized records for a later sync.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, app, flags, args)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&flags.dryRun, "dry-run", "d", false, "itemize without storing records")
	f.BoolVar(&flags.force, "force", false, "reprocess charges that already have a record")
	f.StringVar(&flags.since, "since", "", "only charges on or after this date (YYYY-MM-DD)")
	f.StringVar(&flags.until, "until", "", "only charges on or before this date (YYYY-MM-DD)")
	f.StringVar(&flags.orderID, "order", "", "only charges for this order id")
	f.BoolVar(&flags.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// toOptions parses the date filters.
func (f *processFlags) toOptions() (itemize.Options, error) {
	opts := itemize.Options{DryRun: f.dryRun, Force: f.force, OrderID: f.orderID}
	var err error
	if opts.Since, err = parseDate(f.since); err != nil {
		return opts, fmt.Errorf("--since: %w", err)
	}
	if opts.Until, err = parseDate(f.until); err != nil {
		return opts, fmt.Errorf("--until: %w", err)
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Until.Before(opts.Since) {
		return opts, fmt.Errorf("--until %s is before --since %s", f.until, f.since)
	}
	return opts, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func runProcess(cmd *cobra.Command, app *App, flags *processFlags, paths []string) error {
	ctx := cmd.Context()
	cfg := app.Config
	logger := app.logger("process")

	opts, err := flags.toOptions()
	if err != nil {
		return err
	}
	printHeader(app.out, "process", opts.DryRun)

	charges, err := readStatements(paths, logger)
	if err != nil {
		return err
	}

	orders, files, err := orderhistory.LoadDirs(cfg.OrderHistory.Dirs, cfg.OrderHistory.FilePattern, nil)
	if err != nil {
		return fmt.Errorf("failed to load order history: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no order history files matching %q in %v", cfg.OrderHistory.FilePattern, cfg.OrderHistory.Dirs)
	}
	logger.Info("loaded order history", "files", len(files), "orders", orders.Len(), "dropped_rows", orders.Dropped())

	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cache := categorizer.NewCategoryCache(app.cacheStore(store))
	if err := cache.Load(ctx); err != nil {
		return err
	}

	rules, err := app.loadRules()
	if err != nil {
		return err
	}
	ledger, err := app.newLedger(ctx)
	if err != nil {
		return err
	}
	catalog, _, err := app.loadCatalog(ctx, ledger, rules)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	cat, err := app.newCategorizer(cache, rules)
	if err != nil {
		return err
	}

	matcherCfg := matcher.DefaultConfig()
	matcherCfg.MaxDaysAfterShip = cfg.OrderHistory.MaxDaysAfterShip
	processor := itemize.NewProcessor(orders, cat, cache, store, itemize.Config{
		Matcher: matcherCfg,
		Builder: splitter.Config{
			FallbackCategory: cat.FallbackCategory(),
			TipCategory:      cfg.Categories.TipCategory,
			GroceryCategory:  cfg.Categories.GroceryCategory,
		},
	}, logger)
	processor.SetMetrics(app.Metrics)

	if !flags.noProgress {
		bar := newProgressBar(app.errOut, len(charges), "Itemizing charges...")
		opts.Progress = func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		}
	}

	result, err := processor.Process(ctx, charges, catalog, opts)
	if result != nil {
		printProcessSummary(app.out, result, opts.DryRun)
	}
	return err
}
