package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsWriteWait = 5 * time.Second

// WSHub keeps the open change-feed connections of every user. Each connection
// has its own write lock; the hub lock only guards the map and is never held
// during a network write.
type WSHub struct {
	connections map[uuid.UUID]map[*websocket.Conn]*sync.Mutex
	mutex       sync.Mutex
	upgrader    websocket.Upgrader
}

func NewWSHub(allowedOrigins []string) *WSHub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHub{
		connections: make(map[uuid.UUID]map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

type feedConn struct {
	conn    *websocket.Conn
	writeMu *sync.Mutex
}

// Publish sends the event to every connection of the event's owner.
func (hub *WSHub) Publish(_ context.Context, event models.Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	hub.mutex.Lock()
	targets := make([]feedConn, 0, len(hub.connections[event.UserID]))
	for conn, writeMu := range hub.connections[event.UserID] {
		targets = append(targets, feedConn{conn: conn, writeMu: writeMu})
	}
	hub.mutex.Unlock()

	for _, t := range targets {
		if err := t.write(message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			hub.remove(event.UserID, t.conn)
		}
	}
	return nil
}

func (f feedConn) write(message []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return f.conn.WriteMessage(websocket.TextMessage, message)
}

func (hub *WSHub) add(userID uuid.UUID, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if hub.connections[userID] == nil {
		hub.connections[userID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	hub.connections[userID][conn] = &sync.Mutex{}
}

func (hub *WSHub) remove(userID uuid.UUID, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	conns := hub.connections[userID]
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(hub.connections, userID)
	}
	conn.Close()
}

// ConnectionCount reports how many feeds a user has open.
func (hub *WSHub) ConnectionCount(userID uuid.UUID) int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.connections[userID])
}

// GET /ws, behind AuthMiddleware
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.WSHub == nil {
		sendError(w, "Change feed is disabled", http.StatusNotFound)
		return
	}

	// Upgrade writes its own error response on failure
	conn, err := h.WSHub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	h.WSHub.add(userID, conn)

	// the feed is one-way; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket error: %v", err)
			}
			h.WSHub.remove(userID, conn)
			return
		}
	}
}

// CloseAll drops every feed; hijacked connections survive http.Server.Shutdown.
func (hub *WSHub) CloseAll() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for userID, conns := range hub.connections {
		for conn := range conns {
			conn.Close()
		}
		delete(hub.connections, userID)
	}
}
