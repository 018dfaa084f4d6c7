package router

import (
	"sync"

	"sportstrivia/internal/auth"
	"sportstrivia/internal/broadcast"
)

// Session is the server-side state of one connection. The current room is
// only ever set here, by create_room and join_room.
type Session struct {
	conn     broadcast.Conn
	verified *auth.Identity

	mu       sync.Mutex
	userID   string
	username string
	roomID   string
	client   *broadcast.Client
	detached bool
}

// NewSession wraps a connection. verified is the token identity, or nil
// when authentication is disabled.
func NewSession(conn broadcast.Conn, verified *auth.Identity) *Session {
	return &Session{conn: conn, verified: verified}
}

// UserID returns the identity bound by join_lobby, or ""
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// RoomID returns the room the session is in, or ""
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) identity() (userID, username string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached || s.userID == "" {
		return "", "", false
	}
	return s.userID, s.username, true
}

// setRoom records the current room unless the session was replaced or
// closed meanwhile, in which case the caller must undo its join
func (s *Session) setRoom(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.roomID = id
	return true
}

func (s *Session) takeRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.roomID
	s.roomID = ""
	return id
}
