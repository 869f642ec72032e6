package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/application/sync"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

func newSyncCommand(app *App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write stored itemized records to YNAB",
		Long: `Creates a YNAB transaction for every stored record that is not in the
account yet and updates split transactions whose splits changed. Re-running
is safe: import ids and claims keep each record from being created twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, app, dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "report what would change without writing to YNAB")
	return cmd
}

func runSync(cmd *cobra.Command, app *App, dryRun bool) error {
	ctx := cmd.Context()
	cfg := app.Config
	logger := app.logger("sync")
	printHeader(app.out, "sync", dryRun)

	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	list, err := store.ListRecords(ctx, storage.RecordFilters{Limit: -1})
	if err != nil {
		return err
	}
	if len(list.Records) == 0 {
		fmt.Fprintln(app.out, "No stored records. Run `itemize process` first.")
		return nil
	}

	ledger, err := app.newLedger(ctx)
	if err != nil {
		return err
	}
	if ledger.AccountID() == "" {
		return fmt.Errorf("a YNAB account is required (set ynab.account_id or ynab.account_name)")
	}

	rules, err := app.loadRules()
	if err != nil {
		return err
	}
	engine := sync.NewEngine(ledger, store, sync.Config{
		BatchSize:        cfg.YNAB.BatchSize,
		LookbackYears:    cfg.YNAB.LookbackYears,
		RateLimitBackoff: cfg.YNAB.RateLimitBackoff,
		ExcludedGroups:   app.excludedGroups(rules),
	}, logger)
	engine.SetMetrics(app.Metrics)

	stats, err := engine.Sync(ctx, list.Records, sync.Options{DryRun: dryRun})
	if stats != nil {
		printSyncSummary(app.out, stats, dryRun)
	}
	return err
}
