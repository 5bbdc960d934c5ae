// Package server upgrades HTTP requests to WebSocket connections and hands
// them to the hub.
package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServeWS handles GET /ws. It upgrades the connection, wraps it in a Client
// with a fresh session id, and registers it with the hub, which starts the
// read and write pumps. Room membership happens later via joinMindMap events.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.check,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("remoteAddr", r.RemoteAddr), zap.Error(err))
		return
	}

	client := NewClient(conn, h.hub, r.RemoteAddr, h.cfg.MaxMessageSize)
	h.hub.Register(client)
}
