package handler

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/controller"
)

// ProgressHub fans scan progress events out to websocket subscribers. Slow or
// broken clients are dropped instead of blocking the scan.
type ProgressHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Broadcast sends one event to every connected client.
func (h *ProgressHub) Broadcast(event controller.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			logger.WithError(err).Debug("dropping progress subscriber")
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

// Handler upgrades the request and keeps the connection registered until the
// client goes away. Inbound messages are discarded.
func (h *ProgressHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}

		h.mu.Lock()
		h.clients[conn] = struct{}{}
		h.mu.Unlock()

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.mu.Lock()
					delete(h.clients, conn)
					h.mu.Unlock()
					_ = conn.Close()
					return
				}
			}
		}()
	}
}
