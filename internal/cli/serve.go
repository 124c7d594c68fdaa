package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stockdash/internal/api"
	"stockdash/internal/stream"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Long: `Start the HTTP API and the watchlist stream.

The watchlist is refreshed on every poll interval and pushed to clients
connected to /api/watchlist/stream.`,
		Example: `  stockdash serve
  stockdash serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Hub.Start(ctx)
			defer app.Hub.Stop()

			poller := stream.NewPoller(app.Watchlist, app.Quotes, app.Hub, app.Config.Watchlist.PollInterval, app.Logger)
			go poller.Run(ctx)

			server := api.NewServer(api.Deps{
				Quotes:     app.Quotes,
				Charts:     app.Charts,
				Projection: app.Projection,
				Watchlist:  app.Watchlist,
				Hub:        app.Hub,
				Logger:     app.Logger,
			}, app.Config.Server.AllowedOrigins)

			if !output.IsJSON() {
				output.Info("Serving on %s (Ctrl-C to stop)", addr)
			}
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")

	return cmd
}
