package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"stockdash/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream pushes every watchlist snapshot to the client until either
// side closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	if s.deps.Hub == nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stream not available"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	id, updates := s.deps.Hub.Subscribe()
	defer s.deps.Hub.Unsubscribe(id)
	logger.Info().Str("subscriber", id).Msg("Stream client connected")

	// The read loop only services control frames and notices disconnects.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			logger.Info().Str("subscriber", id).Msg("Stream client disconnected")
			return
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				logger.Debug().Err(err).Msg("Stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
