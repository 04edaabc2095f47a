package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ashasetu-backend/shared/config"
)

// WebSocketMessage is the payload pushed to a connected client.
type WebSocketMessage struct {
	Type       string     `json:"type"`
	Title      string     `json:"title,omitempty"`
	Message    string     `json:"message"`
	RequestID  *uuid.UUID `json:"request_id,omitempty"`
	DonationID *uuid.UUID `json:"donation_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ClientConnection represents one user's websocket connection.
type ClientConnection struct {
	UserID     string
	Connection *websocket.Conn
}

// WebSocketHub tracks connected users so workflow events can be pushed to
// the requester or donor they concern. One connection per user; a new
// connection replaces the old one.
type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	register   chan *ClientConnection
	unregister chan *ClientConnection
}

// NewWebSocketHub creates the hub and starts its event loop.
func NewWebSocketHub(cfg *config.Config) *WebSocketHub {
	hub := &WebSocketHub{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Mobile clients send no Origin header
				if origin == "" || origin == cfg.FrontendURL {
					return true
				}
				log.Printf("🚫 WebSocket connection rejected from origin: %s", origin)
				return false
			},
		},
		register:   make(chan *ClientConnection, 100),
		unregister: make(chan *ClientConnection, 100),
	}
	go hub.run()
	return hub
}

func (h *WebSocketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *WebSocketHub) registerClient(client *ClientConnection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if existing, exists := h.clients[client.UserID]; exists {
		existing.Close()
	}

	h.clients[client.UserID] = client.Connection
	log.Printf("🔌 WebSocket client connected: %s (Total: %d)", client.UserID, len(h.clients))
}

func (h *WebSocketHub) unregisterClient(client *ClientConnection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.clients[client.UserID]; exists && conn == client.Connection {
		delete(h.clients, client.UserID)
		client.Connection.Close()
		log.Printf("🔌 WebSocket client disconnected: %s (Total: %d)", client.UserID, len(h.clients))
	}
}

// SendToUser pushes a message to one user if connected. A disconnected user
// is not an error; notifications are persisted regardless.
func (h *WebSocketHub) SendToUser(userID string, message *WebSocketMessage) bool {
	h.mutex.RLock()
	conn, exists := h.clients[userID]
	h.mutex.RUnlock()

	if !exists {
		return false
	}

	if err := conn.WriteJSON(message); err != nil {
		log.Printf("❌ Failed to send message to user %s: %v", userID, err)
		go func() {
			h.unregister <- &ClientConnection{UserID: userID, Connection: conn}
		}()
		return false
	}

	return true
}

// HandleConnection upgrades the request and keeps the connection open until
// the client goes away. The user id comes from the verified token, not the URL.
func (h *WebSocketHub) HandleConnection(c *gin.Context, userID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Failed to upgrade WebSocket: %v", err)
		return
	}

	client := &ClientConnection{
		UserID:     userID.String(),
		Connection: conn,
	}

	h.register <- client
	defer func() {
		h.unregister <- client
	}()

	for {
		var message map[string]interface{}
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket error for user %s: %v", userID, err)
			}
			break
		}

		if msgType, ok := message["type"].(string); ok && msgType == "ping" {
			pong := &WebSocketMessage{
				Type:      "pong",
				Message:   "pong",
				Timestamp: time.Now(),
			}
			conn.WriteJSON(pong)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *WebSocketHub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
