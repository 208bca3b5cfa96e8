package websocket

import (
	"log"
	"soundbite/types"
	"sync"
	"time"
)

// Hub interface defines the methods for managing activity-feed WebSocket
// connections.
type Hub interface {
	Run()
	Broadcast(sessionID, msgType, command, detail string, bytes int64)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and broadcasts activity events
// to them
type hub struct {
	// Registered activity-feed clients
	clients map[*Client]bool

	// Broadcast channel for activity events
	broadcast chan types.ActivityMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new activity hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan types.ActivityMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Activity feed client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Activity feed client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an activity event to every connected feed client. A full
// channel drops the event rather than blocking a connection handler.
func (h *hub) Broadcast(sessionID, msgType, command, detail string, bytes int64) {
	msg := types.ActivityMessage{
		SessionID: sessionID,
		Type:      msgType,
		Command:   command,
		Detail:    detail,
		Bytes:     bytes,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("Activity broadcast channel full, dropping event for session %s", sessionID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
