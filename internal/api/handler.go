package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"sportstrivia/internal/game"
	"sportstrivia/internal/models"
	"sportstrivia/internal/questions"

	"github.com/go-chi/chi/v5"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// Leaderboard reads lifetime point totals
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Handler serves the read-only JSON API
type Handler struct {
	dir         *game.Directory
	provider    questions.Provider
	leaderboard Leaderboard
}

// NewHandler creates a new handler
func NewHandler(dir *game.Directory, provider questions.Provider, leaderboard Leaderboard) *Handler {
	return &Handler{
		dir:         dir,
		provider:    provider,
		leaderboard: leaderboard,
	}
}

// RegisterRoutes sets up the routes
func (h *Handler) RegisterRoutes(mux chi.Router) {
	mux.Get("/health", h.handleHealth)
	mux.Route("/api", func(r chi.Router) {
		r.Get("/rooms", h.handleRooms)
		r.Get("/categories", h.handleCategories)
		r.Get("/leaderboard", h.handleLeaderboard)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRooms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"rooms": h.dir.OpenRooms(time.Now())})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.provider.Categories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := h.leaderboard.Leaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorMessage{Type: models.TypeError, Message: message})
}
