package ledger

import (
	"context"
	"sync"
)

// Delta is one player's point change from one finished match
type Delta struct {
	MatchID  string `json:"matchId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Ledger durably accumulates per-user points
type Ledger interface {
	ApplyPointDelta(ctx context.Context, d Delta) error
}

// Memory is an in-process ledger, used for development and tests
type Memory struct {
	mu      sync.Mutex
	totals  map[string]int
	applied []Delta
}

// NewMemory creates an empty in-memory ledger
func NewMemory() *Memory {
	return &Memory{totals: make(map[string]int)}
}

func (m *Memory) ApplyPointDelta(_ context.Context, d Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[d.UserID] += d.Points
	m.applied = append(m.applied, d)
	return nil
}

// Total returns the accumulated points of a user
func (m *Memory) Total(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[userID]
}

// Applied returns every delta in arrival order
func (m *Memory) Applied() []Delta {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delta, len(m.applied))
	copy(out, m.applied)
	return out
}
