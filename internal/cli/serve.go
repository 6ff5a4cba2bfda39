package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console gateway",
		Long: "Run the console gateway\n\n" +
			"The gateway exposes the incident workflows as JSON under /api for the web console, " +
			"and Prometheus metrics on the metrics port.",
		Args: cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- a.Run()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config().Server.ShutdownTimeout)
			defer cancel()

			if err := a.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		}),
	}
}
