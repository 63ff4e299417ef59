package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes every snapshot of a market to a WebSocket client.
type StreamHandler struct {
	sessions Sessions
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(sessions Sessions, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		logger:   log,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// ServeHTTP upgrades the connection and streams until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	feed, release, err := h.sessions.Acquire(symbol)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	defer release()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", logger.NewField("error", err.Error()))
		return
	}
	defer conn.Close()

	log := h.logger.WithFields(
		logger.NewField("subscriber", ulid.Make().String()),
		logger.NewField("market", symbol),
	)
	log.InfoContext(r.Context(), "subscriber connected")
	defer log.Info("subscriber disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, cancel)

	updates, unsubscribe := feed.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "market closed"))
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				log.Debug("write failed", logger.NewField("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump drains client frames so control messages are handled, and cancels
// the stream once the peer closes.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
