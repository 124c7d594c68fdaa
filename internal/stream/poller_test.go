package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockdash/internal/models"
)

type staticSymbols []string

func (s staticSymbols) Symbols() []string { return append([]string(nil), s...) }

type countingPrices struct {
	calls int64
	err   error
}

func (c *countingPrices) Prices(ctx context.Context, symbols []string) ([]models.Quote, error) {
	atomic.AddInt64(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]models.Quote, len(symbols))
	for i, s := range symbols {
		out[i] = models.Quote{Symbol: s, Price: 100}
	}
	return out, nil
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	defer hub.Stop()
	_, ch := hub.Subscribe()

	prices := &countingPrices{}
	p := NewPoller(staticSymbols{"AAPL", "MSFT"}, prices, hub, time.Minute, zerolog.Nop())

	u := p.Refresh(ctx)
	if len(u.Quotes) != 2 || u.Quotes[1].Symbol != "MSFT" {
		t.Errorf("unexpected snapshot: %+v", u)
	}

	select {
	case got := <-ch:
		if len(got.Symbols) != 2 {
			t.Errorf("published snapshot = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot was not published")
	}
}

func TestRefreshEmptyWatchlistSkipsFetch(t *testing.T) {
	prices := &countingPrices{}
	p := NewPoller(staticSymbols{}, prices, nil, time.Minute, zerolog.Nop())

	u := p.Refresh(context.Background())
	if prices.calls != 0 {
		t.Errorf("Prices called %d times for empty watchlist", prices.calls)
	}
	if u.Quotes == nil || len(u.Quotes) != 0 {
		t.Errorf("Quotes = %v, want empty slice", u.Quotes)
	}
}

func TestRefreshReportsError(t *testing.T) {
	prices := &countingPrices{err: errors.New("boom")}
	p := NewPoller(staticSymbols{"AAPL"}, prices, nil, time.Minute, zerolog.Nop())

	u := p.Refresh(context.Background())
	if u.Error != "boom" {
		t.Errorf("Error = %q, want boom", u.Error)
	}
}

func TestRunRefreshesImmediatelyAndStops(t *testing.T) {
	prices := &countingPrices{}
	p := NewPoller(staticSymbols{"AAPL"}, prices, nil, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt64(&prices.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if calls := atomic.LoadInt64(&prices.calls); calls < 2 {
		t.Errorf("calls = %d, want an immediate refresh plus at least one tick", calls)
	}
}
