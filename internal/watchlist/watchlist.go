// Package watchlist keeps the user's ordered, duplicate-free list of tickers.
package watchlist

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"stockdash/internal/logging"
	"stockdash/internal/models"
)

// Persister loads and saves the full symbol list.
type Persister interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, symbols []string) error
}

// Store is the in-memory watchlist backed by a Persister.
// Every mutation is saved before it becomes visible.
type Store struct {
	mu        sync.RWMutex
	symbols   []string
	persister Persister
	logger    zerolog.Logger
}

// New creates a store and rehydrates it. A missing or unreadable saved
// list starts the store empty.
func New(ctx context.Context, p Persister, logger zerolog.Logger) *Store {
	s := &Store{
		persister: p,
		logger:    logging.WithOperation(logger, "watchlist"),
	}

	saved, err := p.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not restore watchlist, starting empty")
		return s
	}
	s.symbols = s.dedupe(saved)
	s.logger.Debug().Int("size", len(s.symbols)).Msg("Watchlist restored")
	return s
}

// dedupe normalizes a saved list, dropping duplicates and entries that
// could not be added or removed through the store.
func (s *Store) dedupe(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, raw := range symbols {
		sym, err := models.ValidateSymbol(raw)
		if err != nil {
			if models.NormalizeSymbol(raw) != "" {
				s.logger.Warn().Str("symbol", raw).Msg("Dropping invalid saved symbol")
			}
			continue
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// Add appends symbol unless it is already present.
func (s *Store) Add(ctx context.Context, symbol string) error {
	sym, err := models.ValidateSymbol(symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.symbols, sym) >= 0 {
		return nil
	}

	next := make([]string, len(s.symbols), len(s.symbols)+1)
	copy(next, s.symbols)
	next = append(next, sym)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	logging.LogWatchlistChange(s.logger, "add", sym, len(next))
	return nil
}

// Remove drops every occurrence of symbol. Removing an absent symbol is a no-op.
func (s *Store) Remove(ctx context.Context, symbol string) error {
	sym, err := models.ValidateSymbol(symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.symbols, sym) < 0 {
		return nil
	}

	next := make([]string, 0, len(s.symbols))
	for _, existing := range s.symbols {
		if existing != sym {
			next = append(next, existing)
		}
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	logging.LogWatchlistChange(s.logger, "remove", sym, len(next))
	return nil
}

// Clear empties the watchlist.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, []string{}); err != nil {
		return err
	}
	logging.LogWatchlistChange(s.logger, "clear", "", 0)
	return nil
}

// Contains reports whether symbol is on the watchlist.
func (s *Store) Contains(symbol string) bool {
	sym := models.NormalizeSymbol(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.symbols, sym) >= 0
}

// Symbols returns a copy of the watchlist in insertion order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Len returns the number of symbols.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.symbols)
}

// commit saves next and installs it. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []string) error {
	if err := s.persister.Save(ctx, next); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist watchlist")
		return err
	}
	s.symbols = next
	return nil
}

func indexOf(symbols []string, sym string) int {
	for i, s := range symbols {
		if s == sym {
			return i
		}
	}
	return -1
}
