package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/models"
	"stockdash/internal/stream"
)

func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage the persistent watchlist",
		Long: `Add, remove and list watched symbols.

The watchlist is saved after every change and restored on the next run.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbols...>",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			for _, sym := range args {
				if err := app.Watchlist.Add(cmd.Context(), sym); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Success("✓ Watching %s", models.NormalizeSymbol(sym))
				}
			}
			if output.IsJSON() {
				return output.JSON(app.Watchlist.Symbols())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <symbols...>",
		Aliases: []string{"rm"},
		Short:   "Remove symbols from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			for _, sym := range args {
				if err := app.Watchlist.Remove(cmd.Context(), sym); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Success("✓ Removed %s", models.NormalizeSymbol(sym))
				}
			}
			if output.IsJSON() {
				return output.JSON(app.Watchlist.Symbols())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List watched symbols with current quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			symbols := app.Watchlist.Symbols()

			var list []models.Quote
			if len(symbols) > 0 {
				var err error
				list, err = app.Quotes.Prices(cmd.Context(), symbols)
				if err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(models.WatchlistUpdate{
					Symbols:   symbols,
					Quotes:    nonNil(list),
					UpdatedAt: time.Now(),
				})
			}
			if len(symbols) == 0 {
				output.Dim("Watchlist is empty. Add symbols with 'stockdash watchlist add <symbol>'.")
				return nil
			}
			renderQuotes(output, list, false)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every symbol from the watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Watchlist.Clear(cmd.Context()); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(app.Watchlist.Symbols())
			}
			output.Success("✓ Watchlist cleared")
			return nil
		},
	})

	return cmd
}

func newWatchCmd(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow watchlist quotes live",
		Long: `Refresh the watchlist quotes immediately and then on every poll
interval until interrupted with Ctrl-C.`,
		Example: `  stockdash watch
  stockdash watch --interval 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			switch {
			case interval == 0:
				interval = app.Config.Watchlist.PollInterval
			case interval < time.Second:
				return apperrors.NewValidationError("interval", interval.String(), "must be at least 1s")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, app, output, interval)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "refresh interval (default: watchlist.poll_interval)")

	return cmd
}

// runWatch streams watchlist snapshots to output until ctx is done.
func runWatch(ctx context.Context, app *App, output *Output, interval time.Duration) error {
	app.Hub.Start(ctx)
	defer app.Hub.Stop()

	id, updates := app.Hub.Subscribe()
	defer app.Hub.Unsubscribe(id)

	poller := stream.NewPoller(app.Watchlist, app.Quotes, app.Hub, interval, app.Logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	if !output.IsJSON() {
		heading := color.New(color.FgCyan, color.Bold)
		if !output.colorEnabled {
			heading.DisableColor()
		}
		heading.Fprintf(output.writer, "📈 Watching %d symbols every %s (Ctrl-C to stop)\n", app.Watchlist.Len(), interval)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case u, ok := <-updates:
			if !ok {
				<-done
				return nil
			}
			if err := renderUpdate(output, u); err != nil {
				return err
			}
		}
	}
}

func renderUpdate(output *Output, u models.WatchlistUpdate) error {
	if output.IsJSON() {
		return output.JSON(u)
	}

	output.Println()
	output.Dim("Updated %s", FormatTime(u.UpdatedAt))
	if u.Error != "" {
		output.Error("Refresh failed: %s", u.Error)
		return nil
	}
	if len(u.Symbols) == 0 {
		output.Dim("Watchlist is empty")
		return nil
	}
	renderQuotes(output, u.Quotes, false)
	return nil
}

func nonNil(list []models.Quote) []models.Quote {
	if list == nil {
		return []models.Quote{}
	}
	return list
}
