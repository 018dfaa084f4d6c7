package ws

import (
	"log/slog"
	"net/http"
	"time"

	"sportstrivia/internal/auth"
	"sportstrivia/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 4096
	pongWait       = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades /ws requests and feeds every frame to the router.
type Handler struct {
	router   *router.Router
	verifier *auth.Verifier
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. A nil verifier disables token
// authentication.
func NewHandler(r *router.Router, verifier *auth.Verifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{router: r, verifier: verifier, logger: logger}
}

// RegisterRoutes sets up the WebSocket routes.
func (h *Handler) RegisterRoutes(mux chi.Router) {
	mux.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var identity *auth.Identity
	if h.verifier != nil {
		id, err := h.verifier.Verify(r.URL.Query().Get("token"))
		if err != nil {
			h.logger.Warn("rejected websocket handshake", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		identity = &id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	session := router.NewSession(conn, identity)
	defer h.router.Disconnect(session)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", "user_id", session.UserID(), "error", err)
			}
			return
		}
		// any inbound frame counts as liveness
		conn.SetReadDeadline(time.Now().Add(pongWait))

		// rejected frames are logged by the router
		h.router.Handle(session, data)
	}
}
