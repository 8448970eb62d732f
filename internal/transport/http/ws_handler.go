package http

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"golook/internal/websocket"
)

// WSHandler upgrades connections and attaches them to the hub.
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(hub *websocket.Hub, allowedOrigins []string, readBuf, writeBuf int, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		upgrader: websocket.Upgrader(allowedOrigins, readBuf, writeBuf),
		logger:   logger.With(slog.String("handler", "websocket")),
	}
}

// ServeWS handles GET /ws.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	client.Serve()
}
