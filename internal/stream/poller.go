package stream

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stockdash/internal/logging"
	"stockdash/internal/models"
)

// DefaultPollInterval is how often the watchlist is refreshed.
const DefaultPollInterval = 30 * time.Second

// SymbolSource supplies the symbols to refresh.
type SymbolSource interface {
	Symbols() []string
}

// PriceSource fetches quotes for symbols.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// Poller refreshes watchlist quotes on a fixed interval and publishes each
// snapshot to a Hub.
type Poller struct {
	watchlist SymbolSource
	prices    PriceSource
	hub       *Hub
	interval  time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewPoller creates a poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(watchlist SymbolSource, prices PriceSource, hub *Hub, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		watchlist: watchlist,
		prices:    prices,
		hub:       hub,
		interval:  interval,
		now:       time.Now,
		logger:    logging.WithOperation(logger, "poller"),
	}
}

// Refresh fetches quotes for the current watchlist and publishes the result.
// Fetch failures are reported in the snapshot rather than returned.
func (p *Poller) Refresh(ctx context.Context) models.WatchlistUpdate {
	symbols := p.watchlist.Symbols()
	u := models.WatchlistUpdate{
		Symbols:   symbols,
		Quotes:    []models.Quote{},
		UpdatedAt: p.now(),
	}

	if len(symbols) > 0 {
		quotes, err := p.prices.Prices(ctx, symbols)
		if err != nil {
			p.logger.Warn().Err(err).Int("symbols", len(symbols)).Msg("Watchlist refresh failed")
			u.Error = err.Error()
		} else {
			u.Quotes = quotes
		}
	}

	p.logger.Debug().Int("symbols", len(symbols)).Int("quotes", len(u.Quotes)).Msg("Watchlist refreshed")
	if p.hub != nil {
		p.hub.Publish(u)
	}
	return u
}

// Run refreshes immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(p.interval), cron.FuncJob(func() {
		if ctx.Err() == nil {
			p.Refresh(ctx)
		}
	}))
	c.Start()
	p.logger.Info().Dur("interval", p.interval).Msg("Watchlist poller started")

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info().Msg("Watchlist poller stopped")
}
