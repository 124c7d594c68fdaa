package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stockdash/internal/chart"
	apperrors "stockdash/internal/errors"
	"stockdash/internal/market"
	"stockdash/internal/models"
	"stockdash/internal/projection"
	"stockdash/internal/quotes"
	"stockdash/internal/stream"
	"stockdash/internal/watchlist"
)

type memPersister struct {
	mu    sync.Mutex
	saved []string
}

func (m *memPersister) Load(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.saved...), nil
}

func (m *memPersister) Save(ctx context.Context, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append([]string(nil), symbols...)
	return nil
}

func newTestServer(t *testing.T, opts quotes.Options) (*Server, Deps) {
	t.Helper()
	rng := market.NewLockedRandom(11)
	logger := zerolog.Nop()
	deps := Deps{
		Quotes:     quotes.NewService(rng, quotes.NewMemoryCache(nil), opts, logger),
		Charts:     chart.NewGenerator(rng),
		Projection: projection.NewEngine(rng, logger),
		Watchlist:  watchlist.New(context.Background(), &memPersister{}, logger),
		Hub:        stream.NewHub(),
		Logger:     logger,
	}
	return NewServer(deps, nil), deps
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestHealthSetsRequestID(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})
	rec := do(t, s, http.MethodGet, "/api/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var body struct {
		Status string           `json:"status"`
		Stream stream.HubMetrics `json:"stream"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "ok" || body.Stream.Subscribers != 0 {
		t.Errorf("health = %+v", body)
	}
}

func TestSearchAndQuotes(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})

	rec := do(t, s, http.MethodGet, "/api/search?q=micro")
	var found []models.Quote
	decodeBody(t, rec, &found)
	if len(found) != 2 {
		t.Errorf("search micro returned %d results, want 2 (MSFT, AMD)", len(found))
	}

	rec = do(t, s, http.MethodGet, "/api/quotes?symbols=nvda,%20tsla")
	var prices []models.Quote
	decodeBody(t, rec, &prices)
	if len(prices) != 2 || prices[0].Symbol != "NVDA" || prices[1].Symbol != "TSLA" {
		t.Errorf("unexpected quotes: %+v", prices)
	}

	rec = do(t, s, http.MethodGet, "/api/quotes")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing symbols status = %d, want 400", rec.Code)
	}
}

func TestStocksListing(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})

	rec := do(t, s, http.MethodGet, "/api/stocks?sort=price&order=desc")
	var list []models.Quote
	decodeBody(t, rec, &list)
	if len(list) != 20 {
		t.Fatalf("len = %d, want 20", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Price > list[i-1].Price {
			t.Fatalf("not sorted by price desc at %d", i)
		}
	}

	rec = do(t, s, http.MethodGet, "/api/stocks?sort=pe")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sort status = %d, want 400", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})

	rec := do(t, s, http.MethodGet, "/api/stocks/aapl/history?timeframe=1w")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body historyResponse
	decodeBody(t, rec, &body)
	if body.Symbol != "AAPL" || len(body.Points) != 7 {
		t.Errorf("unexpected history: symbol=%s points=%d", body.Symbol, len(body.Points))
	}
	if body.Summary.Last != body.Points[6].Price {
		t.Errorf("summary last = %v, want %v", body.Summary.Last, body.Points[6].Price)
	}

	rec = do(t, s, http.MethodGet, "/api/stocks/aapl/history?timeframe=5Y")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad timeframe status = %d, want 400", rec.Code)
	}
}

func TestCompare(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})

	rec := do(t, s, http.MethodGet, "/api/compare?a=AAPL&b=MSFT&amount=5000&timeframe=1Y")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body compareResponse
	decodeBody(t, rec, &body)
	if body.Analysis.StockA.Symbol != "AAPL" || body.Analysis.StockB.Symbol != "MSFT" {
		t.Errorf("unexpected analysis: %+v", body.Analysis)
	}
	if len(body.Chart) != 52 {
		t.Errorf("chart points = %d, want 52", len(body.Chart))
	}

	tests := []string{
		"/api/compare?a=AAPL&b=MSFT&amount=-1",
		"/api/compare?a=AAPL&b=MSFT&amount=abc",
		"/api/compare?a=AAPL&b=MSFT&timeframe=1D",
		"/api/compare?a=AAPL",
	}
	for _, target := range tests {
		if rec := do(t, s, http.MethodGet, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestUpstreamFailures(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{FailureRate: 1})

	if rec := do(t, s, http.MethodGet, "/api/search?q=apple"); rec.Code != http.StatusBadGateway {
		t.Errorf("search status = %d, want 502", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/api/stocks/AAPL")
	if rec.Code != http.StatusNotFound {
		t.Errorf("stock status = %d, want 404", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] == "" {
		t.Error("error body missing")
	}
}

func TestWatchlistEndpoints(t *testing.T) {
	s, deps := newTestServer(t, quotes.Options{})

	for _, sym := range []string{"aapl", "TSLA", "AAPL"} {
		if rec := do(t, s, http.MethodPost, "/api/watchlist/"+sym); rec.Code != http.StatusOK {
			t.Fatalf("add %s status = %d", sym, rec.Code)
		}
	}

	rec := do(t, s, http.MethodGet, "/api/watchlist")
	var body watchlistResponse
	decodeBody(t, rec, &body)
	if strings.Join(body.Symbols, ",") != "AAPL,TSLA" || len(body.Quotes) != 2 {
		t.Errorf("watchlist = %+v", body)
	}

	do(t, s, http.MethodDelete, "/api/watchlist/aapl")
	if deps.Watchlist.Contains("AAPL") {
		t.Error("AAPL should be removed")
	}

	do(t, s, http.MethodDelete, "/api/watchlist")
	if deps.Watchlist.Len() != 0 {
		t.Error("watchlist should be cleared")
	}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	s, deps := newTestServer(t, quotes.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps.Hub.Start(ctx)
	defer deps.Hub.Stop()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/watchlist/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for deps.Hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	deps.Hub.Publish(models.WatchlistUpdate{Symbols: []string{"AAPL"}, UpdatedAt: time.Now()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.WatchlistUpdate
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Symbols) != 1 || got.Symbols[0] != "AAPL" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, quotes.Options{})
	req := httptest.NewRequest(http.MethodOptions, "/api/watchlist/AAPL", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin on preflight")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("symbol", "", "must not be empty"), http.StatusBadRequest},
		{apperrors.NewDataError("quote", "ZZZ", "no quote available", apperrors.ErrSymbolNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: simulated failure", apperrors.ErrUpstream), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{apperrors.Wrap(apperrors.ErrTimeout, "search"), http.StatusGatewayTimeout},
		{apperrors.NewStorageError("file", "save", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
