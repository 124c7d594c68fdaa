// Package store provides watchlist persistence backends.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"stockdash/internal/config"
	apperrors "stockdash/internal/errors"
)

// Backend persists the watchlist symbol list under a namespace.
type Backend interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, symbols []string) error
	Name() string
	Close() error
}

// envelope is the persisted document shape shared by the file and Redis
// backends.
type envelope struct {
	State struct {
		Watchlist []string `json:"watchlist"`
	} `json:"state"`
	Version int `json:"version"`
}

func encode(symbols []string) ([]byte, error) {
	var env envelope
	env.State.Watchlist = symbols
	if env.State.Watchlist == nil {
		env.State.Watchlist = []string{}
	}
	return json.Marshal(env)
}

func decode(data []byte) ([]string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding watchlist: %w", err)
	}
	if env.State.Watchlist == nil {
		return []string{}, nil
	}
	return env.State.Watchlist, nil
}

// Open returns the backend selected by cfg.Backend.
func Open(cfg config.WatchlistConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.FileDir, cfg.Namespace)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath, cfg.Namespace)
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("%w: unknown watchlist backend %q", apperrors.ErrConfigInvalid, cfg.Backend)
	}
}
