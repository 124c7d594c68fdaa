package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"stockdash/internal/config"
	apperrors "stockdash/internal/errors"
)

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(dir, config.DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "test.db"), config.DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	backends := map[string]Backend{"file": file, "sqlite": sqlite}
	if addr := os.Getenv("STOCKDASH_TEST_REDIS"); addr != "" {
		r := NewRedisStore(addr, "stockdash-test-"+strings.ReplaceAll(t.Name(), "/", "-"))
		t.Cleanup(func() {
			r.Client().Del(context.Background(), r.key)
			r.Close()
		})
		backends["redis"] = r
	}
	return backends
}

func TestBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := b.Load(ctx)
			if err != nil {
				t.Fatalf("Load on empty store: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("empty store returned %v", got)
			}

			want := []string{"TSLA", "AAPL", "NVDA"}
			if err := b.Save(ctx, want); err != nil {
				t.Fatal(err)
			}
			got, err = b.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load() = %v, want %v", got, want)
			}

			if err := b.Save(ctx, []string{"AMD"}); err != nil {
				t.Fatal(err)
			}
			got, _ = b.Load(ctx)
			if !reflect.DeepEqual(got, []string{"AMD"}) {
				t.Errorf("after replace Load() = %v", got)
			}

			if err := b.Save(ctx, nil); err != nil {
				t.Fatal(err)
			}
			got, _ = b.Load(ctx)
			if len(got) != 0 {
				t.Errorf("after clear Load() = %v", got)
			}
		})
	}
}

func TestFileStoreEnvelope(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileStore(dir, "watchlist-storage")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Save(context.Background(), []string{"AAPL", "MSFT"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "watchlist-storage.json"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"state":{"watchlist":["AAPL","MSFT"]},"version":0}`
	if string(data) != want {
		t.Errorf("file contents = %s, want %s", data, want)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, ".watchlist-*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFileStore(dir, "watchlist-storage")
	if err := os.WriteFile(f.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := f.Load(context.Background())
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Errorf("Load() error = %v, want ErrStorage", err)
	}
}

func TestSQLiteNamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lists.db")

	a, err := NewSQLiteStore(path, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path, "b")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := a.Save(ctx, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Save(ctx, []string{"MSFT", "AMD"}); err != nil {
		t.Fatal(err)
	}

	lists, err := a.Lists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{"a": {"AAPL"}, "b": {"MSFT", "AMD"}}
	if !reflect.DeepEqual(lists, want) {
		t.Errorf("Lists() = %v, want %v", lists, want)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir).Watchlist

	b, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "file" {
		t.Errorf("default backend = %s, want file", b.Name())
	}

	cfg.Backend = config.BackendSQLite
	b, err = Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Name() != "sqlite" {
		t.Errorf("backend = %s, want sqlite", b.Name())
	}

	cfg.Backend = "etcd"
	if _, err := Open(cfg); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("Open(etcd) error = %v, want ErrConfigInvalid", err)
	}
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, InitialDelay: time.Millisecond, MaxDelay: 3 * time.Millisecond, BackoffFactor: 2}

	if got := p.Backoff(0); got != time.Millisecond {
		t.Errorf("Backoff(0) = %v", got)
	}
	if got := p.Backoff(1); got != 2*time.Millisecond {
		t.Errorf("Backoff(1) = %v", got)
	}
	if got := p.Backoff(5); got != 3*time.Millisecond {
		t.Errorf("Backoff(5) = %v, want capped at MaxDelay", got)
	}

	calls := 0
	err := retry(context.Background(), p, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry = %v after %d calls, want success after 3", err, calls)
	}

	calls = 0
	sentinel := errors.New("down")
	err = retry(context.Background(), p, func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 4 {
		t.Errorf("retry = %v after %d calls, want last error after 4", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = retry(ctx, p, func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("retry on cancelled ctx = %v after %d calls", err, calls)
	}
}

func TestRedisStoreGivesUpAfterPolicy(t *testing.T) {
	r := NewRedisStore("127.0.0.1:1", "stockdash-unreachable").WithRetryPolicy(RetryPolicy{
		MaxAttempts:   2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
	})
	defer r.Close()

	start := time.Now()
	if _, err := r.Load(context.Background()); err == nil {
		t.Fatal("Load against an unreachable server should fail")
	}
	if err := r.Save(context.Background(), []string{"AAPL"}); err == nil {
		t.Fatal("Save against an unreachable server should fail")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("gave up after %v", elapsed)
	}
}
