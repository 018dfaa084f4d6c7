package htmx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sportstrivia/internal/broadcast"
	"sportstrivia/internal/game"
	"sportstrivia/internal/models"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// Handler serves the HTMX room browser with SSE for live updates.
type Handler struct {
	dir *game.Directory
	hub *broadcast.Hub
}

// NewHandler creates a new HTMX handler.
func NewHandler(dir *game.Directory, hub *broadcast.Hub) *Handler {
	return &Handler{
		dir: dir,
		hub: hub,
	}
}

// RegisterRoutes sets up the HTMX routes.
func (h *Handler) RegisterRoutes(mux chi.Router) {
	mux.Get("/htmx/rooms", h.handleRooms)
	mux.Get("/htmx/sse/rooms", h.handleSSE)
}

func (h *Handler) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	RoomBrowser(h.dir.OpenRooms(time.Now())).Render(r.Context(), w)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []models.RoomSnapshot, 10)
	h.hub.RegisterSSE(ch)
	defer h.hub.UnregisterSSE(ch)

	// Send initial state
	writeEvent(w, renderToString(r.Context(), RoomList(h.dir.OpenRooms(time.Now()))))
	flusher.Flush()

	for {
		select {
		case rooms, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, renderToString(r.Context(), RoomList(rooms)))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, html string) {
	fmt.Fprintf(w, "event: rooms-update\ndata: %s\n\n", strings.ReplaceAll(html, "\n", ""))
}

func renderToString(ctx context.Context, component templ.Component) string {
	var buf bytes.Buffer
	component.Render(ctx, &buf)
	return buf.String()
}
