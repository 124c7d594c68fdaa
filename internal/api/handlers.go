package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"stockdash/internal/chart"
	apperrors "stockdash/internal/errors"
	"stockdash/internal/logging"
	"stockdash/internal/market"
	"stockdash/internal/models"
)

// Defaults applied when a query parameter is omitted.
const (
	defaultChartTimeFrame   = models.TimeFrame1M
	defaultCompareTimeFrame = models.TimeFrame3M
	defaultCompareAmount    = 10000.0
)

type historyResponse struct {
	Symbol    string                   `json:"symbol"`
	TimeFrame models.TimeFrame         `json:"timeFrame"`
	Points    []models.HistoricalPoint `json:"points"`
	Summary   models.ChartSummary      `json:"summary"`
}

type compareResponse struct {
	Analysis models.ProfitAnalysis    `json:"analysis"`
	Chart    []models.ComparisonPoint `json:"chart"`
}

type watchlistResponse struct {
	Symbols []string       `json:"symbols"`
	Quotes  []models.Quote `json:"quotes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"watchlist": s.deps.Watchlist.Len(),
		"stream":    s.deps.Hub.GetMetrics(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Quotes.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		s.respondWithError(w, r, apperrors.NewValidationError("symbols", "", "at least one symbol is required"))
		return
	}
	results, err := s.deps.Quotes.Prices(r.Context(), symbols)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, err := s.deps.Quotes.Dashboard(r.Context())
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	list, err := market.FilterAndSort(all, market.ListOptions{
		Query:      q.Get("q"),
		Filter:     q.Get("filter"),
		SortBy:     q.Get("sort"),
		Descending: strings.EqualFold(q.Get("order"), "desc"),
	})
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	q, err := s.deps.Quotes.Quote(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tf, err := timeFrameParam(r, defaultChartTimeFrame)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	q, err := s.deps.Quotes.Quote(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	points, err := s.deps.Charts.Series(q.Symbol, tf, q.Price)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, historyResponse{
		Symbol:    q.Symbol,
		TimeFrame: tf,
		Points:    points,
		Summary:   chart.Summarize(points),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	tf, err := timeFrameParam(r, defaultCompareTimeFrame)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	amount := defaultCompareAmount
	if raw := params.Get("amount"); raw != "" {
		amount, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.respondWithError(w, r, apperrors.NewValidationError("amount", raw, "must be a number"))
			return
		}
	}

	qa, err := s.deps.Quotes.Quote(r.Context(), params.Get("a"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	qb, err := s.deps.Quotes.Quote(r.Context(), params.Get("b"))
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	analysis, err := s.deps.Projection.Project(qa, qb, amount, tf)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	points, err := s.deps.Charts.Compare(qa.Symbol, qa.Price, qb.Symbol, qb.Price, tf)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, compareResponse{Analysis: analysis, Chart: points})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols := s.deps.Watchlist.Symbols()
	quotes := []models.Quote{}
	if len(symbols) > 0 {
		var err error
		quotes, err = s.deps.Quotes.Prices(r.Context(), symbols)
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, watchlistResponse{Symbols: symbols, Quotes: quotes})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Watchlist.Add(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, watchlistResponse{Symbols: s.deps.Watchlist.Symbols()})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Watchlist.Remove(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, watchlistResponse{Symbols: s.deps.Watchlist.Symbols()})
}

func (s *Server) handleWatchlistClear(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Watchlist.Clear(r.Context()); err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, watchlistResponse{Symbols: []string{}})
}

func timeFrameParam(r *http.Request, def models.TimeFrame) (models.TimeFrame, error) {
	raw := r.URL.Query().Get("timeframe")
	if raw == "" {
		return def, nil
	}
	return models.ParseTimeFrame(raw)
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSymbolNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	logger := logging.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}
	respondWithJSON(w, code, map[string]string{"error": err.Error()})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
