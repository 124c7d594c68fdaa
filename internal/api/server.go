// Package api serves the dashboard over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"stockdash/internal/chart"
	"stockdash/internal/projection"
	"stockdash/internal/quotes"
	"stockdash/internal/stream"
	"stockdash/internal/watchlist"
)

// Deps are the services the API exposes.
type Deps struct {
	Quotes     *quotes.Service
	Charts     *chart.Generator
	Projection *projection.Engine
	Watchlist  *watchlist.Store
	Hub        *stream.Hub
	Logger     zerolog.Logger
}

// Server is the HTTP front end.
type Server struct {
	deps           Deps
	router         *mux.Router
	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
}

// NewServer builds the router. An empty origin list allows any origin.
func NewServer(deps Deps, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{
		deps:           deps,
		router:         mux.NewRouter(),
		allowedOrigins: allowedOrigins,
		logger:         deps.Logger.With().Str("component", "api").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestID)

	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/quotes", s.handleQuotes).Methods(http.MethodGet)
	r.HandleFunc("/stocks", s.handleStocks).Methods(http.MethodGet)
	r.HandleFunc("/stocks/{symbol}", s.handleStock).Methods(http.MethodGet)
	r.HandleFunc("/stocks/{symbol}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/compare", s.handleCompare).Methods(http.MethodGet)
	r.HandleFunc("/watchlist", s.handleWatchlist).Methods(http.MethodGet)
	r.HandleFunc("/watchlist", s.handleWatchlistClear).Methods(http.MethodDelete)
	r.HandleFunc("/watchlist/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/watchlist/{symbol}", s.handleWatchlistAdd).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/{symbol}", s.handleWatchlistRemove).Methods(http.MethodDelete)
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	return c.Handler(s.router)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
