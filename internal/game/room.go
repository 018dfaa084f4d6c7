package game

import (
	"math"
	"sort"
	"sync"
	"time"

	"sportstrivia/internal/models"
)

// Room is the state machine of a single match.
//
// Room methods do not lock. Callers serialize access by holding the
// embedded mutex for the whole of a logical operation, so a mutation and
// the snapshot broadcast that follows it are observed together.
type Room struct {
	sync.Mutex

	id        string
	name      string
	category  string
	capacity  int
	createdAt time.Time

	// join order; host succession follows it
	players []*models.Player

	status      models.Status
	round       int
	totalRounds int
	matchID     string

	roundOpen bool
	deadline  time.Time
	question  models.Question
	answers   map[string]int

	removed  bool
	reported bool
}

// NewRoom creates a waiting room with creator as its ready host
func NewRoom(id, name, category string, capacity int, creator models.Player) *Room {
	creator.Score = 0
	creator.IsHost = true
	creator.IsReady = true
	creator.HasAnswered = false
	return &Room{
		id:        id,
		name:      name,
		category:  category,
		capacity:  capacity,
		createdAt: time.Now(),
		players:   []*models.Player{&creator},
		status:    models.StatusWaiting,
		answers:   make(map[string]int),
	}
}

func (r *Room) ID() string                { return r.id }
func (r *Room) Name() string              { return r.name }
func (r *Room) Category() string          { return r.category }
func (r *Room) Capacity() int             { return r.capacity }
func (r *Room) Status() models.Status     { return r.status }
func (r *Room) Round() int                { return r.round }
func (r *Room) TotalRounds() int          { return r.totalRounds }
func (r *Room) MatchID() string           { return r.matchID }
func (r *Room) RoundOpen() bool           { return r.roundOpen }
func (r *Room) Deadline() time.Time       { return r.deadline }
func (r *Room) Question() models.Question { return r.question }
func (r *Room) Len() int                  { return len(r.players) }
func (r *Room) Removed() bool             { return r.removed }

// PlayerIDs returns member ids in join order
func (r *Room) PlayerIDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

// Players returns copies of the members in join order
func (r *Room) Players() []models.Player {
	out := make([]models.Player, len(r.players))
	for i, p := range r.players {
		out[i] = *p
	}
	return out
}

// Player returns a copy of one member
func (r *Room) Player(id string) (models.Player, bool) {
	if p := r.find(id); p != nil {
		return *p, true
	}
	return models.Player{}, false
}

// HostID returns the current host, or "" for an empty room
func (r *Room) HostID() string {
	for _, p := range r.players {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

func (r *Room) find(id string) *models.Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Join adds a player to a waiting room
func (r *Room) Join(p models.Player) error {
	if r.removed {
		return ErrRoomNotFound
	}
	if r.find(p.ID) != nil {
		return nil
	}
	if len(r.players) >= r.capacity {
		return ErrRoomFull
	}
	if r.status != models.StatusWaiting {
		return ErrInvalidState
	}

	p.Score = 0
	p.IsReady = false
	// a room emptied but not yet removed takes its next joiner as host
	p.IsHost = len(r.players) == 0
	p.HasAnswered = false
	r.players = append(r.players, &p)
	return nil
}

// Leave removes a player. If the host leaves, the earliest-joined
// remaining player becomes host. Reports whether the player was present.
func (r *Room) Leave(id string) bool {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	wasHost := r.players[idx].IsHost
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.answers, id)

	if wasHost && len(r.players) > 0 {
		r.players[0].IsHost = true
	}
	return true
}

// SetReady toggles a player's readiness while waiting
func (r *Room) SetReady(id string, ready bool) error {
	p := r.find(id)
	if p == nil {
		return ErrNotInRoom
	}
	if r.status != models.StatusWaiting {
		return ErrInvalidState
	}
	p.IsReady = ready
	return nil
}

// Start moves a waiting room to playing at round 0
func (r *Room) Start(callerID string, totalRounds int, matchID string) error {
	caller := r.find(callerID)
	if caller == nil {
		return ErrNotInRoom
	}
	if !caller.IsHost {
		return ErrNotHost
	}
	if r.status != models.StatusWaiting {
		return ErrInvalidState
	}
	if len(r.players) < 2 {
		return ErrNotEnoughPlayers
	}
	for _, p := range r.players {
		if !p.IsReady {
			return ErrPlayersNotReady
		}
	}

	r.status = models.StatusPlaying
	r.round = 0
	r.totalRounds = totalRounds
	r.matchID = matchID
	for _, p := range r.players {
		p.Score = 0
	}
	return nil
}

// BeginRound opens the current round with its question and deadline
func (r *Room) BeginRound(q models.Question, deadline time.Time) error {
	if r.status != models.StatusPlaying || r.roundOpen {
		return ErrInvalidState
	}
	r.question = q
	r.deadline = deadline
	r.roundOpen = true
	r.answers = make(map[string]int)
	for _, p := range r.players {
		p.HasAnswered = false
	}
	return nil
}

// RecordAnswer stores a player's answer for the open round. The first
// answer is final.
func (r *Room) RecordAnswer(id string, answerIndex int, submittedAt time.Time) error {
	if r.status != models.StatusPlaying || !r.roundOpen {
		return ErrInvalidState
	}
	p := r.find(id)
	if p == nil {
		return ErrNotInRoom
	}
	if _, ok := r.answers[id]; ok {
		return ErrDuplicateAnswer
	}
	if submittedAt.After(r.deadline) {
		return ErrDeadlineExceeded
	}
	r.answers[id] = answerIndex
	p.HasAnswered = true
	return nil
}

// Answer returns the recorded answer of a player for the current round
func (r *Room) Answer(id string) (int, bool) {
	a, ok := r.answers[id]
	return a, ok
}

// AllAnswered reports whether every present player has answered
func (r *Room) AllAnswered() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if _, ok := r.answers[p.ID]; !ok {
			return false
		}
	}
	return true
}

// CloseRound stops accepting answers for the current round
func (r *Room) CloseRound() error {
	if r.status != models.StatusPlaying || !r.roundOpen {
		return ErrInvalidState
	}
	r.roundOpen = false
	return nil
}

// Award adds points to a player's match score
func (r *Room) Award(id string, points int) {
	if p := r.find(id); p != nil {
		p.Score += points
	}
}

// AdvanceRound moves past a closed round; the last round finishes the match
func (r *Room) AdvanceRound() error {
	if r.status != models.StatusPlaying || r.roundOpen {
		return ErrInvalidState
	}
	r.round++
	if r.round >= r.totalRounds {
		r.status = models.StatusFinished
	}
	return nil
}

// Finish ends a playing match early
func (r *Room) Finish() {
	if r.status != models.StatusPlaying {
		return
	}
	r.roundOpen = false
	r.status = models.StatusFinished
}

// MarkReported returns true exactly once, for the first caller after the
// match has finished.
func (r *Room) MarkReported() bool {
	if r.status != models.StatusFinished || r.reported {
		return false
	}
	r.reported = true
	return true
}

func (r *Room) markRemoved() { r.removed = true }

// Standings ranks players by descending score, ties by join order
func (r *Room) Standings() []models.Standing {
	ranked := r.Players()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	out := make([]models.Standing, len(ranked))
	for i, p := range ranked {
		out[i] = models.Standing{
			Rank:     i + 1,
			PlayerID: p.ID,
			Username: p.Username,
			Score:    p.Score,
		}
	}
	return out
}

// Snapshot returns the full client-facing room state
func (r *Room) Snapshot(now time.Time) models.RoomSnapshot {
	remaining := 0
	if r.roundOpen {
		if left := r.deadline.Sub(now); left > 0 {
			remaining = int(math.Ceil(left.Seconds()))
		}
	}
	return models.RoomSnapshot{
		ID:                   r.id,
		Name:                 r.name,
		Category:             r.category,
		MaxPlayers:           r.capacity,
		Players:              r.Players(),
		Status:               r.status,
		CurrentQuestionIndex: r.round,
		TotalQuestions:       r.totalRounds,
		TimeRemaining:        remaining,
	}
}
