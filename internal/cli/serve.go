package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/api"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the records API and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				app.Config.API.Addr = addr
			}
			return runServe(cmd.Context(), app)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8085)")
	return cmd
}

// runServe runs the API server until ctx is cancelled.
func runServe(ctx context.Context, app *App) error {
	logger := app.logger("api")

	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := app.Metrics.RegisterStats(store, logger); err != nil {
		return err
	}

	cfg := api.DefaultConfig()
	cfg.Addr = app.Config.API.Addr
	server := api.NewServer(cfg, store, app.cacheStore(store), app.Metrics, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
