package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/adapters/ynab"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/filestore"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
)

type reportFlags struct {
	out     string
	status  string
	offline bool
}

func newReportCommand(app *App) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a CSV of stored records for manual review",
		Long: `Writes one row per stored record. Category groups are looked up in YNAB
unless --offline is set or no token is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, app, flags)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&flags.status, "status", "", "only records with this status")
	f.BoolVar(&flags.offline, "offline", false, "do not contact YNAB for category groups")
	return cmd
}

func runReport(cmd *cobra.Command, app *App, flags *reportFlags) error {
	ctx := cmd.Context()
	logger := app.logger("report")

	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	list, err := store.ListRecords(ctx, storage.RecordFilters{Status: flags.status, Limit: -1})
	if err != nil {
		return err
	}

	var groupOf func(string) string
	if !flags.offline && app.Config.YNABToken() != "" {
		ledger, err := app.newLedger(ctx)
		if err != nil {
			return err
		}
		groups, err := ledger.CategoryGroups(ctx)
		if err != nil {
			logger.Warn("category groups unavailable, reporting them as unknown", "error", err)
		} else {
			groupOf = ynab.NewCategoryIndex(groups, nil).Group
		}
	}

	if flags.out == "" {
		return filestore.WriteReport(app.out, list.Records, groupOf)
	}
	if err := filestore.WriteReportFile(flags.out, list.Records, groupOf); err != nil {
		return err
	}
	fmt.Fprintf(app.errOut, "Wrote %d records to %s\n", len(list.Records), flags.out)
	return nil
}
