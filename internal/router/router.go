package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"sportstrivia/internal/broadcast"
	"sportstrivia/internal/game"
	"sportstrivia/internal/match"
	"sportstrivia/internal/models"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrNoIdentity       = errors.New("join_lobby required first")
	ErrIdentityMismatch = errors.New("user id does not match token")

	errNoRoom          = errors.New("you are not in a room")
	errAlreadyInRoom   = errors.New("leave your current room first")
	errInvalidCategory = errors.New("category is required")
)

// Config bounds room sizes
type Config struct {
	DefaultRoomSize int
	MaxRoomSize     int
}

// Router validates inbound messages and applies them to the sender's
// session, the directory or the sender's current room.
type Router struct {
	dir    *game.Directory
	hub    *broadcast.Hub
	coord  *match.Coordinator
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(dir *game.Directory, hub *broadcast.Hub, coord *match.Coordinator, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRoomSize < 2 {
		cfg.MaxRoomSize = 2
	}
	if cfg.DefaultRoomSize < 2 || cfg.DefaultRoomSize > cfg.MaxRoomSize {
		cfg.DefaultRoomSize = min(4, cfg.MaxRoomSize)
	}
	return &Router{
		dir:      dir,
		hub:      hub,
		coord:    coord,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Handle applies one inbound frame. Malformed frames are logged and
// returned as errors without any state change; game rule violations are
// reported to the sender as error messages.
func (r *Router) Handle(s *Session, raw []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return r.drop(s, fmt.Errorf("%w: %v", ErrMalformedMessage, err))
	}

	if env.Type == models.TypeJoinLobby {
		var msg models.JoinLobby
		if err := json.Unmarshal(raw, &msg); err != nil {
			return r.drop(s, fmt.Errorf("%w: %v", ErrMalformedMessage, err))
		}
		return r.joinLobby(s, msg)
	}

	userID, username, ok := s.identity()
	if !ok {
		return r.drop(s, fmt.Errorf("%w: got %q", ErrNoIdentity, env.Type))
	}

	switch env.Type {
	case models.TypeHeartbeat:
		r.hub.Send(userID, models.Envelope{Type: models.TypeHeartbeat})
		return nil

	case models.TypeCreateRoom:
		var msg models.CreateRoom
		if err := json.Unmarshal(raw, &msg); err != nil {
			return r.drop(s, fmt.Errorf("%w: %v", ErrMalformedMessage, err))
		}
		if msg.MaxPlayers < 0 {
			return r.drop(s, fmt.Errorf("%w: negative maxPlayers", ErrMalformedMessage))
		}
		r.createRoom(s, userID, username, msg)

	case models.TypeJoinRoom:
		var msg models.JoinRoom
		if err := json.Unmarshal(raw, &msg); err != nil || strings.TrimSpace(msg.RoomID) == "" {
			return r.drop(s, fmt.Errorf("%w: join_room needs roomId", ErrMalformedMessage))
		}
		r.joinRoom(s, userID, username, strings.TrimSpace(msg.RoomID))

	case models.TypeLeaveRoom:
		r.leaveRoom(s, userID)
		r.sendRooms(userID)

	case models.TypeSetReady:
		var msg models.SetReady
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Ready == nil {
			return r.drop(s, fmt.Errorf("%w: set_ready needs ready", ErrMalformedMessage))
		}
		r.setReady(s, userID, *msg.Ready)

	case models.TypeStartGame:
		r.startGame(s, userID)

	case models.TypeSubmitAnswer:
		var msg models.SubmitAnswer
		if err := json.Unmarshal(raw, &msg); err != nil {
			return r.drop(s, fmt.Errorf("%w: %v", ErrMalformedMessage, err))
		}
		if msg.AnswerIndex == nil || *msg.AnswerIndex < 0 {
			return r.drop(s, fmt.Errorf("%w: submit_answer needs a non-negative answerIndex", ErrMalformedMessage))
		}
		if t := msg.TimeRemaining; t != nil && (*t < 0 || math.IsNaN(*t) || math.IsInf(*t, 0)) {
			return r.drop(s, fmt.Errorf("%w: invalid timeRemaining", ErrMalformedMessage))
		}
		r.submitAnswer(s, userID, *msg.AnswerIndex)

	default:
		return r.drop(s, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, env.Type))
	}
	return nil
}

func (r *Router) drop(s *Session, err error) error {
	r.logger.Warn("dropping message", "user_id", s.UserID(), "error", err)
	return err
}

func (r *Router) joinLobby(s *Session, msg models.JoinLobby) error {
	userID := strings.TrimSpace(msg.UserID)
	username := strings.TrimSpace(msg.Username)

	if v := s.verified; v != nil {
		if userID == "" {
			userID = v.UserID
		}
		if userID != v.UserID {
			return r.drop(s, fmt.Errorf("%w: %q", ErrIdentityMismatch, userID))
		}
		if username == "" {
			username = v.Username
		}
	}
	if userID == "" || username == "" {
		return r.drop(s, fmt.Errorf("%w: join_lobby needs userId and username", ErrMalformedMessage))
	}

	s.mu.Lock()
	current := s.userID
	s.mu.Unlock()
	if current != "" {
		if current != userID {
			return r.drop(s, fmt.Errorf("%w: connection already joined as %q", ErrMalformedMessage, current))
		}
		r.sendRooms(userID)
		return nil
	}

	r.mu.Lock()
	old := r.sessions[userID]
	r.sessions[userID] = s
	r.mu.Unlock()

	// a second connection for the same user takes over; the old one
	// leaves its room and is closed when the new client registers
	if old != nil && old != s {
		old.mu.Lock()
		old.detached = true
		old.mu.Unlock()
		r.leaveRoom(old, userID)
		r.logger.Info("connection replaced", "user_id", userID)
	}

	client := r.hub.Register(userID, s.conn)
	s.mu.Lock()
	s.userID = userID
	s.username = username
	s.client = client
	s.mu.Unlock()

	r.logger.Info("player joined lobby", "user_id", userID, "username", username)
	r.sendRooms(userID)
	return nil
}

// Disconnect treats a closed connection as leaving its room
func (r *Router) Disconnect(s *Session) {
	s.mu.Lock()
	userID, client, detached := s.userID, s.client, s.detached
	s.detached = true
	s.mu.Unlock()
	if detached || userID == "" {
		return
	}

	r.mu.Lock()
	if r.sessions[userID] == s {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	r.leaveRoom(s, userID)
	r.hub.Unregister(userID, client)
	r.logger.Info("player disconnected", "user_id", userID)
}

func (r *Router) sendError(userID string, err error) {
	r.hub.Send(userID, models.ErrorMessage{Type: models.TypeError, Message: err.Error()})
}

func (r *Router) capacity(requested int) int {
	if requested == 0 {
		return r.cfg.DefaultRoomSize
	}
	return max(2, min(requested, r.cfg.MaxRoomSize))
}

func (r *Router) createRoom(s *Session, userID, username string, msg models.CreateRoom) {
	if s.RoomID() != "" {
		r.sendError(userID, errAlreadyInRoom)
		return
	}
	category := strings.TrimSpace(msg.Category)
	if category == "" {
		r.sendError(userID, errInvalidCategory)
		return
	}

	room, err := r.dir.CreateRoom(msg.RoomName, category, r.capacity(msg.MaxPlayers),
		models.Player{ID: userID, Username: username})
	if err != nil {
		r.sendError(userID, err)
		return
	}
	if !s.setRoom(room.ID()) {
		r.abandon(room, userID)
		return
	}

	room.Lock()
	r.hub.Send(userID, models.RoomMessage{Type: models.TypeRoomJoined, Room: room.Snapshot(time.Now())})
	room.Unlock()

	r.logger.Info("room created", "room_id", room.ID(), "category", category, "host", userID)
	r.publishLobby()
}

func (r *Router) joinRoom(s *Session, userID, username, roomID string) {
	if current := s.RoomID(); current != "" && current != roomID {
		r.sendError(userID, errAlreadyInRoom)
		return
	}

	room, err := r.dir.GetRoom(roomID)
	if err != nil {
		r.sendError(userID, err)
		return
	}

	room.Lock()
	if err := room.Join(models.Player{ID: userID, Username: username}); err != nil {
		room.Unlock()
		r.sendError(userID, err)
		return
	}
	if !s.setRoom(roomID) {
		room.Unlock()
		r.abandon(room, userID)
		return
	}
	snap := room.Snapshot(time.Now())
	r.hub.Send(userID, models.RoomMessage{Type: models.TypeRoomJoined, Room: snap})
	r.hub.Broadcast(room.PlayerIDs(), models.RoomMessage{Type: models.TypeRoomUpdated, Room: snap})
	room.Unlock()

	r.publishLobby()
}

// leaveRoom detaches the session from its room, removing the room once
// empty
func (r *Router) leaveRoom(s *Session, userID string) {
	roomID := s.takeRoom()
	if roomID == "" {
		return
	}
	room, err := r.dir.GetRoom(roomID)
	if err != nil {
		return
	}
	r.coord.Leave(room, userID)
	if r.dir.RemoveRoomIfEmpty(roomID) {
		r.logger.Info("room removed", "room_id", roomID)
	}
	r.publishLobby()
}

// abandon undoes a join made by a session that was detached before it
// could record the room
func (r *Router) abandon(room *game.Room, userID string) {
	r.coord.Leave(room, userID)
	if r.dir.RemoveRoomIfEmpty(room.ID()) {
		r.logger.Info("room removed", "room_id", room.ID())
	}
	r.logger.Info("join abandoned by detached session", "room_id", room.ID(), "user_id", userID)
	r.publishLobby()
}

func (r *Router) currentRoom(s *Session) (*game.Room, error) {
	id := s.RoomID()
	if id == "" {
		return nil, errNoRoom
	}
	return r.dir.GetRoom(id)
}

func (r *Router) setReady(s *Session, userID string, ready bool) {
	room, err := r.currentRoom(s)
	if err != nil {
		r.sendError(userID, err)
		return
	}

	room.Lock()
	defer room.Unlock()
	if err := room.SetReady(userID, ready); err != nil {
		r.sendError(userID, err)
		return
	}
	r.hub.Broadcast(room.PlayerIDs(), models.RoomMessage{Type: models.TypeRoomUpdated, Room: room.Snapshot(time.Now())})
}

func (r *Router) startGame(s *Session, userID string) {
	room, err := r.currentRoom(s)
	if err != nil {
		r.sendError(userID, err)
		return
	}
	if err := r.coord.Start(room, userID); err != nil {
		r.sendError(userID, err)
		return
	}
	r.publishLobby()
}

func (r *Router) submitAnswer(s *Session, userID string, answerIndex int) {
	room, err := r.currentRoom(s)
	if err != nil {
		r.sendError(userID, err)
		return
	}
	if err := r.coord.SubmitAnswer(room, userID, answerIndex); err != nil {
		r.sendError(userID, err)
	}
}

func (r *Router) sendRooms(userID string) {
	r.hub.Send(userID, models.RoomsListMessage{
		Type:  models.TypeRoomsList,
		Rooms: r.dir.OpenRooms(time.Now()),
	})
}

// publishLobby pushes the open room list to every lobby session and SSE
// subscriber. Callers must not hold a room lock.
func (r *Router) publishLobby() {
	rooms := r.dir.OpenRooms(time.Now())

	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id, s := range r.sessions {
		if s.RoomID() == "" {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	r.hub.Broadcast(ids, models.RoomsListMessage{Type: models.TypeRoomsList, Rooms: rooms})
	r.hub.PublishLobby(rooms)
}
