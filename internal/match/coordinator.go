package match

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"sportstrivia/internal/game"
	"sportstrivia/internal/ledger"
	"sportstrivia/internal/models"
	"sportstrivia/internal/questions"

	"github.com/google/uuid"
)

const (
	providerTimeout = 5 * time.Second
	ledgerTimeout   = 10 * time.Second
)

var (
	ErrNoQuestions  = errors.New("no questions available for this category")
	ErrShuttingDown = errors.New("server is shutting down")
)

// Broadcaster delivers one message to a set of players
type Broadcaster interface {
	Broadcast(playerIDs []string, msg any)
}

// Config holds match timing
type Config struct {
	QuestionsPerMatch int
	RoundDuration     time.Duration
	Intermission      time.Duration
}

type timerKey struct {
	roomID string
	round  int
}

// Coordinator drives matches: it opens and closes rounds, scores answers
// and reports results to the ledger. Its entry points take the room lock
// themselves; callers must not hold it.
type Coordinator struct {
	out      Broadcaster
	provider questions.Provider
	ledger   ledger.Ledger
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	timers  map[timerKey]*time.Timer
	stopped bool

	pending sync.WaitGroup
}

func NewCoordinator(out Broadcaster, provider questions.Provider, l ledger.Ledger, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		out:      out,
		provider: provider,
		ledger:   l,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		timers:   make(map[timerKey]*time.Timer),
	}
}

// Start begins a match in a waiting room on behalf of callerID
func (c *Coordinator) Start(r *game.Room, callerID string) error {
	if c.isStopped() {
		return ErrShuttingDown
	}

	r.Lock()
	defer r.Unlock()

	rounds, err := c.rounds(r.Category())
	if err != nil {
		return err
	}
	if err := r.Start(callerID, rounds, uuid.New().String()); err != nil {
		return err
	}
	c.logger.Info("match started",
		"room_id", r.ID(), "match_id", r.MatchID(), "players", r.Len(), "rounds", r.TotalRounds())

	c.out.Broadcast(r.PlayerIDs(), models.RoomMessage{
		Type: models.TypeGameStarted,
		Room: r.Snapshot(c.now()),
	})
	c.openRound(r)
	return nil
}

// SubmitAnswer records a player's answer for the open round. Duplicate and
// late answers are dropped without error.
func (c *Coordinator) SubmitAnswer(r *game.Room, playerID string, answerIndex int) error {
	r.Lock()
	defer r.Unlock()

	err := r.RecordAnswer(playerID, answerIndex, c.now())
	switch {
	case errors.Is(err, game.ErrDuplicateAnswer):
		c.logger.Debug("duplicate_answer", "room_id", r.ID(), "round", r.Round(), "player_id", playerID)
		return nil
	case errors.Is(err, game.ErrDeadlineExceeded),
		errors.Is(err, game.ErrInvalidState) && r.Status() == models.StatusPlaying:
		c.logger.Debug("late_answer", "room_id", r.ID(), "round", r.Round(), "player_id", playerID)
		return nil
	case err != nil:
		return err
	}

	c.broadcastRoom(r)
	if r.AllAnswered() {
		c.closeRound(r)
	}
	return nil
}

// Leave removes a player from the room. If the remaining players have all
// answered, the open round closes early. Reports whether the player was a
// member.
func (c *Coordinator) Leave(r *game.Room, playerID string) bool {
	r.Lock()
	defer r.Unlock()

	if !r.Leave(playerID) {
		return false
	}
	if r.Len() == 0 {
		c.cancelTimers(r.ID())
		return true
	}

	c.broadcastRoom(r)
	if r.Status() == models.StatusPlaying && r.RoundOpen() && r.AllAnswered() {
		c.closeRound(r)
	}
	return true
}

// rounds is the configured match length, capped by the questions the
// category holds
func (c *Coordinator) rounds(category string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	n, err := c.provider.Count(ctx, category)
	if err != nil {
		c.logger.Warn("failed to count questions", "category", category, "error", err)
		return c.cfg.QuestionsPerMatch, nil
	}
	if n == 0 {
		return 0, ErrNoQuestions
	}
	return min(n, c.cfg.QuestionsPerMatch), nil
}

// Wait blocks until every pending ledger write has completed. Call it
// after Stop.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

// Stop cancels every scheduled timer. Afterwards no match can start, no
// timer is scheduled and results of matches still finishing are written
// to the ledger synchronously.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
}

func (c *Coordinator) broadcastRoom(r *game.Room) {
	c.out.Broadcast(r.PlayerIDs(), models.RoomMessage{
		Type: models.TypeRoomUpdated,
		Room: r.Snapshot(c.now()),
	})
}

// openRound fetches the question for the current round and starts its
// clock. Caller holds the room lock.
func (c *Coordinator) openRound(r *game.Room) {
	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	q, err := c.provider.NextQuestion(ctx, r.Category(), r.Round())
	cancel()
	if err != nil {
		c.logger.Warn("question unavailable, ending match",
			"room_id", r.ID(), "category", r.Category(), "round", r.Round(), "error", err)
		r.Finish()
		c.finish(r)
		return
	}

	if err := r.BeginRound(q, c.now().Add(c.cfg.RoundDuration)); err != nil {
		c.logger.Error("failed to open round", "room_id", r.ID(), "round", r.Round(), "error", err)
		return
	}

	ids := r.PlayerIDs()
	c.out.Broadcast(ids, models.QuestionMessage{
		Type:        models.TypeQuestion,
		Question:    q.Public(),
		Round:       r.Round(),
		TotalRounds: r.TotalRounds(),
		TimeLimit:   int(math.Ceil(c.cfg.RoundDuration.Seconds())),
	})
	c.broadcastRoom(r)

	round := r.Round()
	c.schedule(r.ID(), round, c.cfg.RoundDuration, func() { c.expire(r, round) })
}

// expire closes a round whose deadline passed, unless the room has moved on
func (c *Coordinator) expire(r *game.Room, round int) {
	r.Lock()
	defer r.Unlock()

	c.forget(r.ID(), round)
	if r.Status() != models.StatusPlaying || r.Round() != round || !r.RoundOpen() || r.Len() == 0 {
		c.logger.Debug("stale round timer", "room_id", r.ID(), "round", round)
		return
	}
	c.closeRound(r)
}

// closeRound scores the open round and moves the match on. Caller holds
// the room lock.
func (c *Coordinator) closeRound(r *game.Room) {
	if err := r.CloseRound(); err != nil {
		return
	}
	round := r.Round()
	c.cancel(r.ID(), round)

	q := r.Question()
	players := r.Players()
	results := make([]models.RoundResult, 0, len(players))
	for _, p := range players {
		res := models.RoundResult{PlayerID: p.ID, Username: p.Username}
		if a, ok := r.Answer(p.ID); ok {
			res.Answer = &a
			res.Points = Score(q, a)
			res.Correct = a == q.CorrectAnswer
		} else {
			c.logger.Info("no_answer", "room_id", r.ID(), "round", round, "player_id", p.ID)
		}
		r.Award(p.ID, res.Points)
		res.Total = p.Score + res.Points
		results = append(results, res)
	}

	ids := r.PlayerIDs()
	c.out.Broadcast(ids, models.RoundResultsMessage{
		Type:          models.TypeRoundResults,
		Round:         round,
		QuestionID:    q.ID,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Results:       results,
	})

	if err := r.AdvanceRound(); err != nil {
		c.logger.Error("failed to advance round", "room_id", r.ID(), "round", round, "error", err)
		return
	}
	if r.Status() == models.StatusFinished {
		c.finish(r)
		return
	}

	c.broadcastRoom(r)
	if c.cfg.Intermission <= 0 {
		c.openRound(r)
		return
	}
	next := r.Round()
	c.schedule(r.ID(), next, c.cfg.Intermission, func() { c.resume(r, next) })
}

// resume opens the next round after the intermission
func (c *Coordinator) resume(r *game.Room, round int) {
	r.Lock()
	defer r.Unlock()

	c.forget(r.ID(), round)
	if r.Status() != models.StatusPlaying || r.Round() != round || r.RoundOpen() || r.Len() == 0 {
		return
	}
	c.openRound(r)
}

// finish announces the final standings and, once per match, hands each
// player's score to the ledger. Caller holds the room lock.
func (c *Coordinator) finish(r *game.Room) {
	c.cancelTimers(r.ID())

	standings := r.Standings()
	c.out.Broadcast(r.PlayerIDs(), models.GameFinishedMessage{
		Type:    models.TypeGameFinished,
		Room:    r.Snapshot(c.now()),
		Results: standings,
	})
	c.logger.Info("match finished", "room_id", r.ID(), "match_id", r.MatchID(), "rounds_played", r.Round())

	if !r.MarkReported() {
		return
	}

	deltas := make([]ledger.Delta, 0, len(standings))
	for _, s := range standings {
		deltas = append(deltas, ledger.Delta{
			MatchID:  r.MatchID(),
			UserID:   s.PlayerID,
			Username: s.Username,
			Points:   s.Score,
		})
	}

	if !c.track() {
		c.report(deltas)
		return
	}
	go func() {
		defer c.pending.Done()
		c.report(deltas)
	}()
}

func (c *Coordinator) report(deltas []ledger.Delta) {
	for _, d := range deltas {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
		err := c.ledger.ApplyPointDelta(ctx, d)
		cancel()
		if err != nil {
			c.logger.Error("failed to apply point delta",
				"match_id", d.MatchID, "user_id", d.UserID, "points", d.Points, "error", err)
		}
	}
}

// track registers a background ledger write unless the coordinator has
// stopped
func (c *Coordinator) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.pending.Add(1)
	return true
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Coordinator) schedule(roomID string, round int, d time.Duration, fn func()) {
	key := timerKey{roomID: roomID, round: round}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if old := c.timers[key]; old != nil {
		old.Stop()
	}
	c.timers[key] = time.AfterFunc(d, fn)
}

func (c *Coordinator) cancel(roomID string, round int) {
	key := timerKey{roomID: roomID, round: round}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.timers[key]; t != nil {
		t.Stop()
		delete(c.timers, key)
	}
}

func (c *Coordinator) forget(roomID string, round int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, timerKey{roomID: roomID, round: round})
}

func (c *Coordinator) cancelTimers(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, t := range c.timers {
		if key.roomID == roomID {
			t.Stop()
			delete(c.timers, key)
		}
	}
}

// pendingTimers reports how many timers are scheduled
func (c *Coordinator) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
