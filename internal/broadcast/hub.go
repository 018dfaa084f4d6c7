package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"sportstrivia/internal/models"
)

const defaultQueueSize = 64

// Hub is the connection registry: it maps player ids to live WebSocket
// clients and fans lobby updates out to SSE subscribers.
type Hub struct {
	clients    map[string]*Client
	sseClients map[chan []models.RoomSnapshot]bool
	mu         sync.RWMutex
	queueSize  int
	logger     *slog.Logger
}

// NewHub creates a new broadcast hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		sseClients: make(map[chan []models.RoomSnapshot]bool),
		queueSize:  defaultQueueSize,
		logger:     logger,
	}
}

// Register binds a connection to a player. A previous connection for the
// same player is closed and replaced.
func (h *Hub) Register(playerID string, conn Conn) *Client {
	c := newClient(playerID, conn, h.queueSize, h.logger)

	h.mu.Lock()
	old := h.clients[playerID]
	h.clients[playerID] = c
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return c
}

// Unregister removes the player's client if it is still c, and closes c.
// Reports whether the registration was removed.
func (h *Hub) Unregister(playerID string, c *Client) bool {
	h.mu.Lock()
	current, ok := h.clients[playerID]
	removed := ok && current == c
	if removed {
		delete(h.clients, playerID)
	}
	h.mu.Unlock()

	if c != nil {
		c.Close()
	}
	return removed
}

// CloseAll closes and forgets every client. The server calls it on
// shutdown since hijacked connections outlive http.Server.Shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// Connected reports whether the player has an open client
func (h *Hub) Connected(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[playerID]
	return ok && !c.Closed()
}

// Send delivers a message to one player. Absent or closed clients are
// skipped silently.
func (h *Hub) Send(playerID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}
	h.mu.RLock()
	c := h.clients[playerID]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(data)
	}
}

// Broadcast delivers one message to every listed player
func (h *Hub) Broadcast(playerIDs []string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range playerIDs {
		if c := h.clients[id]; c != nil {
			c.enqueue(data)
		}
	}
}

// RegisterSSE adds a lobby subscriber channel.
func (h *Hub) RegisterSSE(ch chan []models.RoomSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sseClients[ch] = true
}

// UnregisterSSE removes a lobby subscriber channel and closes it.
func (h *Hub) UnregisterSSE(ch chan []models.RoomSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sseClients[ch] {
		delete(h.sseClients, ch)
		close(ch)
	}
}

// PublishLobby pushes the open room list to SSE subscribers without
// blocking on slow readers.
func (h *Hub) PublishLobby(rooms []models.RoomSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.sseClients {
		select {
		case ch <- rooms:
		default:
		}
	}
}
