package models

// Outbound message types
const (
	TypeRoomsList    = "rooms_list"
	TypeRoomJoined   = "room_joined"
	TypeRoomUpdated  = "room_updated"
	TypeGameStarted  = "game_started"
	TypeQuestion     = "question"
	TypeRoundResults = "round_results"
	TypeGameFinished = "game_finished"
	TypeError        = "error"
	TypeHeartbeat    = "heartbeat"
)

// Inbound message types
const (
	TypeJoinLobby    = "join_lobby"
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeSetReady     = "set_ready"
	TypeStartGame    = "start_game"
	TypeSubmitAnswer = "submit_answer"
)

// Envelope carries just the discriminator of an inbound message
type Envelope struct {
	Type string `json:"type"`
}

// JoinLobby identifies the connection's user
type JoinLobby struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// CreateRoom asks for a new room
type CreateRoom struct {
	RoomName   string `json:"roomName"`
	Category   string `json:"category"`
	MaxPlayers int    `json:"maxPlayers"`
}

// JoinRoom asks to join an existing room
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// SetReady toggles readiness in the waiting room
type SetReady struct {
	Ready *bool `json:"ready"`
}

// SubmitAnswer carries an answer for the current round
type SubmitAnswer struct {
	AnswerIndex   *int     `json:"answerIndex"`
	TimeRemaining *float64 `json:"timeRemaining"`
}

// RoomsListMessage lists open rooms
type RoomsListMessage struct {
	Type  string         `json:"type"`
	Rooms []RoomSnapshot `json:"rooms"`
}

// RoomMessage carries a room snapshot (room_joined, room_updated, game_started)
type RoomMessage struct {
	Type string       `json:"type"`
	Room RoomSnapshot `json:"room"`
}

// QuestionMessage opens a round
type QuestionMessage struct {
	Type        string         `json:"type"`
	Question    PublicQuestion `json:"question"`
	Round       int            `json:"round"`
	TotalRounds int            `json:"totalRounds"`
	TimeLimit   int            `json:"timeLimit"`
}

// RoundResultsMessage reveals the outcome of a closed round
type RoundResultsMessage struct {
	Type          string        `json:"type"`
	Round         int           `json:"round"`
	QuestionID    string        `json:"questionId"`
	CorrectAnswer int           `json:"correctAnswer"`
	Explanation   string        `json:"explanation,omitempty"`
	Results       []RoundResult `json:"results"`
}

// GameFinishedMessage ends a match
type GameFinishedMessage struct {
	Type    string       `json:"type"`
	Room    RoomSnapshot `json:"room"`
	Results []Standing   `json:"results"`
}

// ErrorMessage reports an actionable failure to one client
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
