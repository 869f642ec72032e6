// Package cli implements the itemize command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/config"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/logging"
	"github.com/charliesneath/ynab-toolkit/internal/observability"
)

type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	verbose    bool
}

// NewRootCommand builds the itemize command tree.
func NewRootCommand(version string) *cobra.Command {
	flags := &rootFlags{}
	app := &App{}

	root := &cobra.Command{
		Use:   "itemize",
		Short: "Itemize Amazon charges into categorized YNAB splits",
		Long: `itemize matches bank charges to Amazon order history, splits each charge
across the products it paid for, categorizes the products with an LLM and
writes the itemized transactions to YNAB.

Typical flow:
  itemize process register.csv
  itemize sync
  itemize report --out review.csv`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config.yaml", "config file (missing file falls back to environment variables)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before the config")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	root.AddCommand(
		newProcessCommand(app),
		newSyncCommand(app),
		newServeCommand(app),
		newReportCommand(app),
		newCacheCommand(app),
	)
	return root
}

func (a *App) init(cmd *cobra.Command, flags *rootFlags) error {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFile(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Observability.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Observability.Logging.Format = flags.logFormat
	}
	if flags.verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a.Config = cfg
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	a.Logger = logging.NewLoggerTo(a.errOut, cfg.Observability.Logging)
	a.Metrics = observability.NewMetrics()
	return nil
}
