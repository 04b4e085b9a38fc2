package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // headless API, no browser origin to trust
	},
}

// WSMessage represents a WebSocket message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ProgressPayload reports one finished sweep cell.
type ProgressPayload struct {
	RunID    string    `json:"run_id"`
	Done     int       `json:"done"`
	Total    int       `json:"total"`
	Progress float64   `json:"progress"` // 0.0 to 1.0
	Point    sim.Point `json:"point"`
}

// StatusPayload reports a sweep state change.
type StatusPayload struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// WSHub manages WebSocket connections.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex

	// OnCount, when set, receives the client count after every change.
	OnCount func(int)
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// AddClient registers a new WebSocket connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Printf("[ws] client connected (%d total)", len(h.clients))
	h.counted()
}

// RemoveClient removes a WebSocket connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[conn] {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	log.Printf("[ws] client disconnected (%d remaining)", len(h.clients))
	h.counted()
}

// Count returns the number of connected clients.
func (h *WSHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *WSHub) counted() {
	if h.OnCount != nil {
		h.OnCount(len(h.clients))
	}
}

// Broadcast sends a message to all connected clients. Writes are serialised
// because a connection supports one concurrent writer.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[ws] write error: %v", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastProgress sends a sweep progress update to all clients.
func (h *WSHub) BroadcastProgress(runID string, p sim.Progress) {
	progress := 0.0
	if p.Total > 0 {
		progress = float64(p.Done) / float64(p.Total)
	}
	h.Broadcast(WSMessage{
		Type: "progress",
		Payload: ProgressPayload{
			RunID:    runID,
			Done:     p.Done,
			Total:    p.Total,
			Progress: progress,
			Point:    p.Point,
		},
	})
}

// BroadcastStatus sends a sweep status update to all clients.
func (h *WSHub) BroadcastStatus(runID, status, message string) {
	h.Broadcast(WSMessage{
		Type: "status",
		Payload: StatusPayload{
			RunID:   runID,
			Status:  status,
			Message: message,
		},
	})
}
