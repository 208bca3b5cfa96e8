package handlers

import (
	"log"
	"soundbite/websocket"

	"github.com/gin-gonic/gin"
)

// ActivityHandler upgrades admin clients onto the live activity feed.
type ActivityHandler struct {
	hub websocket.Hub
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(hub websocket.Hub) *ActivityHandler {
	return &ActivityHandler{hub: hub}
}

// HandleWebSocket upgrades the connection and registers it with the hub
func (h *ActivityHandler) HandleWebSocket(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
