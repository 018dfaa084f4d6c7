package ws

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sportstrivia/internal/auth"
	"sportstrivia/internal/broadcast"
	"sportstrivia/internal/game"
	"sportstrivia/internal/ledger"
	"sportstrivia/internal/match"
	"sportstrivia/internal/models"
	"sportstrivia/internal/questions"
	"sportstrivia/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func newServer(t *testing.T, verifier *auth.Verifier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := broadcast.NewHub(logger)
	coord := match.NewCoordinator(hub, questions.NewStatic(questions.SampleQuestions), ledger.NewMemory(),
		match.Config{QuestionsPerMatch: 1, RoundDuration: time.Minute}, logger)
	t.Cleanup(coord.Stop)
	rt := router.New(game.NewDirectory(), hub, coord, router.Config{DefaultRoomSize: 4, MaxRoomSize: 8}, logger)

	mux := chi.NewRouter()
	NewHandler(rt, verifier, logger).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one of msgType arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("waiting for %q: %v", msgType, err)
		}
		if m["type"] == msgType {
			return m
		}
	}
}

func TestMatchOverWebSocket(t *testing.T) {
	srv := newServer(t, nil)
	alice := dial(t, srv, "")
	bob := dial(t, srv, "")

	alice.WriteJSON(map[string]any{"type": "join_lobby", "userId": "alice", "username": "Alice"})
	readUntil(t, alice, models.TypeRoomsList)
	bob.WriteJSON(map[string]any{"type": "join_lobby", "userId": "bob", "username": "Bob"})
	readUntil(t, bob, models.TypeRoomsList)

	alice.WriteJSON(map[string]any{"type": "create_room", "roomName": "Derby", "category": "soccer", "maxPlayers": 2})
	joined := readUntil(t, alice, models.TypeRoomJoined)
	roomID := joined["room"].(map[string]any)["id"].(string)

	bob.WriteJSON(map[string]any{"type": "join_room", "roomId": roomID})
	readUntil(t, bob, models.TypeRoomJoined)
	bob.WriteJSON(map[string]any{"type": "set_ready", "ready": true})
	for {
		players := readUntil(t, alice, models.TypeRoomUpdated)["room"].(map[string]any)["players"].([]any)
		if len(players) == 2 && players[1].(map[string]any)["isReady"] == true {
			break
		}
	}

	alice.WriteJSON(map[string]any{"type": "start_game"})
	q := readUntil(t, bob, models.TypeQuestion)
	if q["totalRounds"].(float64) != 1 {
		t.Errorf("totalRounds = %v, want 1", q["totalRounds"])
	}

	alice.WriteJSON(map[string]any{"type": "submit_answer", "answerIndex": 0})
	bob.WriteJSON(map[string]any{"type": "submit_answer", "answerIndex": 3})

	fin := readUntil(t, alice, models.TypeGameFinished)
	results := fin["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected 2 standings, got %v", results)
	}
	readUntil(t, bob, models.TypeGameFinished)
}

func TestDisconnectUpdatesRoom(t *testing.T) {
	srv := newServer(t, nil)
	alice := dial(t, srv, "")
	bob := dial(t, srv, "")

	alice.WriteJSON(map[string]any{"type": "join_lobby", "userId": "alice", "username": "Alice"})
	readUntil(t, alice, models.TypeRoomsList)
	alice.WriteJSON(map[string]any{"type": "create_room", "roomName": "Hoops", "category": "basketball"})
	roomID := readUntil(t, alice, models.TypeRoomJoined)["room"].(map[string]any)["id"].(string)

	bob.WriteJSON(map[string]any{"type": "join_lobby", "userId": "bob", "username": "Bob"})
	readUntil(t, bob, models.TypeRoomsList)
	bob.WriteJSON(map[string]any{"type": "join_room", "roomId": roomID})
	readUntil(t, alice, models.TypeRoomUpdated)

	bob.Close()
	updated := readUntil(t, alice, models.TypeRoomUpdated)
	players := updated["room"].(map[string]any)["players"].([]any)
	if len(players) != 1 {
		t.Errorf("room has %d players after disconnect, want 1", len(players))
	}
}

func TestTokenRequired(t *testing.T) {
	srv := newServer(t, auth.NewVerifier("s3cret"))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	token, err := auth.Issue("s3cret", auth.Identity{UserID: "u1", Username: "alice"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	conn := dial(t, srv, "?token="+token)
	conn.WriteJSON(map[string]any{"type": "join_lobby"})
	readUntil(t, conn, models.TypeRoomsList)
}
