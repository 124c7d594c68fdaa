// Package cli provides the command-line interface for the dashboard.
package cli

import (
	"context"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockdash/internal/chart"
	"stockdash/internal/config"
	"stockdash/internal/logging"
	"stockdash/internal/market"
	"stockdash/internal/projection"
	"stockdash/internal/quotes"
	"stockdash/internal/resilience"
	"stockdash/internal/store"
	"stockdash/internal/stream"
	"stockdash/internal/watchlist"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-03-15"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Backend    store.Backend
	Quotes     *quotes.Service
	Charts     *chart.Generator
	Projection *projection.Engine
	Watchlist  *watchlist.Store
	Hub        *stream.Hub

	closers []func() error
}

// NewApp wires every service from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	backend, err := store.Open(cfg.Watchlist)
	if err != nil {
		return nil, err
	}
	app.Backend = backend
	app.closers = append(app.closers, backend.Close)
	logger.Debug().Str("backend", backend.Name()).Msg("Watchlist backend opened")

	rng := market.NewLockedRandom(cfg.Market.Seed)

	var cache quotes.Cache
	if cfg.Market.CacheBackend == config.BackendRedis {
		var client *redis.Client
		if rs, ok := backend.(*store.RedisStore); ok {
			client = rs.Client()
		} else {
			client = redis.NewClient(&redis.Options{Addr: cfg.Watchlist.RedisAddr})
			app.closers = append(app.closers, client.Close)
		}
		breaker := resilience.New("quote-cache", resilience.DefaultConfig(), resilience.WithLogger(logger))
		cache = quotes.NewGuardedCache(quotes.NewRedisCache(client, "stockdash:quotes:"), breaker)
	} else {
		cache = quotes.NewMemoryCache(nil)
	}

	app.Quotes = quotes.NewService(rng, cache, quotes.Options{
		TTL:         cfg.Market.CacheTTL,
		Latency:     cfg.Market.SimulatedLatency,
		FailureRate: cfg.Market.FailureRate,
	}, logger)
	app.Charts = chart.NewGenerator(rng)
	app.Projection = projection.NewEngine(rng, logger)
	app.Watchlist = watchlist.New(ctx, backend, logger)
	app.Hub = stream.NewHub()

	return app, nil
}

// Close releases the storage and cache connections.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// output returns an Output for cmd honoring the ui.color_enabled setting.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil && !a.Config.UI.ColorEnabled {
		out.WithColor(false)
	}
	return out
}

// NewRootCmd creates the root command. Configuration is loaded from the
// --config directory before any subcommand runs.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{}, true)
}

// NewRootCmdWithApp creates the root command around an already wired App.
func NewRootCmdWithApp(app *App) *cobra.Command {
	return newRootCmd(app, false)
}

func newRootCmd(app *App, load bool) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stockdash",
		Short: "Synthetic stock dashboard",
		Long: `stockdash is a stock dashboard driven by a synthetic price source.

It looks up quotes, draws historical charts, projects the profit of
investing in one stock versus another and keeps a persistent watchlist
that can be followed live in the terminal or over HTTP.

Use 'stockdash <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if load {
				if err := app.load(cmd); err != nil {
					return err
				}
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if load {
				return app.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockdash)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addMarketCommands(rootCmd, app)
	addChartCommands(rootCmd, app)
	addWatchlistCommands(rootCmd, app)
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func (a *App) load(cmd *cobra.Command) error {
	if a.Config != nil {
		return nil
	}
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	logger := logging.NewLoggerWithConfig(cfg.LogConfig())
	wired, err := NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	*a = *wired
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("stockdash v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			path := filepath.Join(app.Config.Dir, "config.toml")
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Market")
	output.Printf("  Seed:              %d\n", cfg.Market.Seed)
	output.Printf("  Cache TTL:         %s\n", cfg.Market.CacheTTL)
	output.Printf("  Cache backend:     %s\n", cfg.Market.CacheBackend)
	output.Printf("  Simulated latency: %s\n", cfg.Market.SimulatedLatency)
	output.Printf("  Failure rate:      %.2f\n", cfg.Market.FailureRate)
	output.Println()

	output.Bold("Watchlist")
	output.Printf("  Backend:           %s\n", cfg.Watchlist.Backend)
	output.Printf("  Namespace:         %s\n", cfg.Watchlist.Namespace)
	switch cfg.Watchlist.Backend {
	case config.BackendFile:
		output.Printf("  Directory:         %s\n", cfg.Watchlist.FileDir)
	case config.BackendSQLite:
		output.Printf("  Database:          %s\n", cfg.Watchlist.SQLitePath)
	case config.BackendRedis:
		output.Printf("  Redis:             %s\n", cfg.Watchlist.RedisAddr)
	}
	output.Printf("  Poll interval:     %s\n", cfg.Watchlist.PollInterval)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:           %s\n", cfg.Server.Addr)
	output.Printf("  Allowed origins:   %v\n", cfg.Server.AllowedOrigins)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Logging.Level)
	output.Printf("  File:              %s\n", cfg.Logging.FilePath)
}
