package models

// Status is the lifecycle phase of a room
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player represents a room member
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	IsReady     bool   `json:"isReady"`
	IsHost      bool   `json:"isHost"`
	HasAnswered bool   `json:"hasAnswered"`
}

// RoomSnapshot is the full room state sent to clients after every change
type RoomSnapshot struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	MaxPlayers           int      `json:"maxPlayers"`
	Players              []Player `json:"players"`
	Status               Status   `json:"status"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	TotalQuestions       int      `json:"totalQuestions"`
	TimeRemaining        int      `json:"timeRemaining"`
}

// Question is a quiz question as stored server-side
type Question struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"-"`
	Points        int      `json:"points"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Explanation   string   `json:"-"`
}

// PublicQuestion is a question with the answer stripped
type PublicQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Points   int      `json:"points"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// Public returns the client-safe view of the question
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:       q.ID,
		Question: q.Question,
		Options:  q.Options,
		Points:   q.Points,
		ImageURL: q.ImageURL,
	}
}

// Standing is one line of a match ranking
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// RoundResult is one player's outcome for a closed round
type RoundResult struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Answer   *int   `json:"answer"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
	Total    int    `json:"total"`
}

// LeaderboardEntry is a user's lifetime point total
type LeaderboardEntry struct {
	UserID      string `json:"id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"totalPoints"`
}
