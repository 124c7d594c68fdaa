package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "stockdash/internal/errors"
)

// DefaultRedisAddr is used when no address is configured.
const DefaultRedisAddr = "localhost:6379"

// RedisStore keeps the watchlist envelope under a single Redis key.
// Connection errors are retried with backoff.
type RedisStore struct {
	client *redis.Client
	key    string
	policy RetryPolicy
}

// NewRedisStore creates a store writing to key namespace on addr.
func NewRedisStore(addr, namespace string) *RedisStore {
	if addr == "" {
		addr = DefaultRedisAddr
	}
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), namespace)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, key: namespace, policy: DefaultRetryPolicy()}
}

// WithRetryPolicy replaces the retry policy.
func (r *RedisStore) WithRetryPolicy(p RetryPolicy) *RedisStore {
	r.policy = p
	return r
}

// Name returns the backend name.
func (r *RedisStore) Name() string { return "redis" }

// Client exposes the underlying client so other components can share it.
func (r *RedisStore) Client() *redis.Client { return r.client }

// Load reads the saved list. A missing key yields an empty list.
func (r *RedisStore) Load(ctx context.Context) ([]string, error) {
	var data []byte
	missing := false
	err := retry(ctx, r.policy, func() error {
		var err error
		data, err = r.client.Get(ctx, r.key).Bytes()
		if errors.Is(err, redis.Nil) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, apperrors.NewStorageError("redis", "load", err)
	}
	if missing {
		return []string{}, nil
	}

	symbols, err := decode(data)
	if err != nil {
		return nil, apperrors.NewStorageError("redis", "load", err)
	}
	return symbols, nil
}

// Save replaces the stored list.
func (r *RedisStore) Save(ctx context.Context, symbols []string) error {
	data, err := encode(symbols)
	if err != nil {
		return apperrors.NewStorageError("redis", "save", err)
	}
	err = retry(ctx, r.policy, func() error {
		return r.client.Set(ctx, r.key, data, 0).Err()
	})
	if err != nil {
		return apperrors.NewStorageError("redis", "save", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
