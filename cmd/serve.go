package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krisalay/query-cache/internal/bootstrap"
	"github.com/krisalay/query-cache/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cached property API and cache admin endpoints",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()
		logging.Info(ctx, "serving, press Ctrl+C to stop", slog.String("addr", app.Config.HTTP.Addr))
		<-ctx.Done()
		logging.Info(ctx, "shutting down")
		return nil
	}, bootstrap.HTTPModule),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
