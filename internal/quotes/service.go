// Package quotes is the quote lookup boundary: search, batch prices and the
// dashboard list, memoized for a short time.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "stockdash/internal/errors"
	"stockdash/internal/logging"
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// MinQueryLength is the shortest query Search will run.
const MinQueryLength = 2

// DefaultTTL is how long results stay cached.
const DefaultTTL = 60 * time.Second

// Options tunes the service.
type Options struct {
	TTL         time.Duration
	Latency     time.Duration // added to every uncached fetch
	FailureRate float64       // fraction of uncached fetches that fail
}

// Service answers quote lookups from the synthetic generator.
type Service struct {
	gen    *market.Generator
	rng    market.Random
	cache  Cache
	opts   Options
	logger zerolog.Logger
}

// NewService creates a quote service. A nil cache disables memoization.
func NewService(rng market.Random, cache Cache, opts Options, logger zerolog.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Service{
		gen:    market.NewGenerator(rng),
		rng:    rng,
		cache:  cache,
		opts:   opts,
		logger: logging.WithOperation(logger, "quotes"),
	}
}

// Search returns catalog matches for query, by symbol or company name.
// Queries shorter than MinQueryLength return no results.
func (s *Service) Search(ctx context.Context, query string) ([]models.Quote, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []models.Quote{}, nil
	}

	key := "search:" + query
	start := time.Now()

	var cached []models.Quote
	if s.lookup(ctx, key, &cached) {
		logging.LogFetch(s.logger, "search", key, true, time.Since(start), nil)
		return cached, nil
	}

	if err := s.simulate(ctx); err != nil {
		err = apperrors.NewDataError("search", query, "failed to search stocks", err)
		logging.LogFetch(s.logger, "search", key, false, time.Since(start), err)
		return nil, err
	}

	needle := strings.ToLower(query)
	results := []models.Quote{}
	for _, l := range market.Searchable() {
		if strings.Contains(strings.ToLower(l.Symbol), needle) || strings.Contains(strings.ToLower(l.Name), needle) {
			results = append(results, s.gen.Quote(l.Symbol, market.LookupProfile))
		}
	}

	s.store(ctx, key, results)
	logging.LogFetch(s.logger, "search", key, false, time.Since(start), nil)
	return results, nil
}

// Prices returns a quote per symbol in input order. Symbols that fail are
// skipped.
func (s *Service) Prices(ctx context.Context, symbols []string) ([]models.Quote, error) {
	results := make([]models.Quote, 0, len(symbols))
	for _, raw := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q, err := s.price(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("symbol", raw).Msg("Failed to fetch price, skipping")
			continue
		}
		results = append(results, q)
	}
	return results, nil
}

// Quote returns a single quote or ErrSymbolNotFound when none is available.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym, err := models.ValidateSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}
	quotes, err := s.Prices(ctx, []string{sym})
	if err != nil {
		return models.Quote{}, err
	}
	if len(quotes) == 0 {
		return models.Quote{}, apperrors.NewDataError("quote", sym, "no quote available", apperrors.ErrSymbolNotFound)
	}
	return quotes[0], nil
}

// Dashboard returns the full catalog with dashboard-profile quotes.
func (s *Service) Dashboard(ctx context.Context) ([]models.Quote, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, apperrors.NewDataError("dashboard", "", "failed to load stocks", err)
	}
	return s.gen.Dashboard(), nil
}

func (s *Service) price(ctx context.Context, raw string) (models.Quote, error) {
	sym, err := models.ValidateSymbol(raw)
	if err != nil {
		return models.Quote{}, err
	}

	key := "price:" + sym
	start := time.Now()

	var cached models.Quote
	if s.lookup(ctx, key, &cached) {
		logging.LogFetch(s.logger, "price", key, true, time.Since(start), nil)
		return cached, nil
	}

	if err := s.simulate(ctx); err != nil {
		err = apperrors.NewDataError("price", sym, "failed to fetch price", err)
		logging.LogFetch(s.logger, "price", key, false, time.Since(start), err)
		return models.Quote{}, err
	}

	q := s.gen.Quote(sym, market.LookupProfile)
	s.store(ctx, key, q)
	logging.LogFetch(s.logger, "price", key, false, time.Since(start), nil)
	return q, nil
}

// simulate applies the configured latency and failure rate.
func (s *Service) simulate(ctx context.Context) error {
	if s.opts.Latency > 0 {
		timer := time.NewTimer(s.opts.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if s.opts.FailureRate > 0 && s.rng.Float64() < s.opts.FailureRate {
		return fmt.Errorf("%w: simulated failure", apperrors.ErrUpstream)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.opts.TTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
