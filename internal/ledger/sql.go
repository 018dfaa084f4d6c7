package ledger

import (
	"context"
	"fmt"

	"sportstrivia/internal/database"
	"sportstrivia/internal/models"
)

// SQL writes deltas to users.total_points. A delta is applied at most once
// per (match, user); replays are ignored.
type SQL struct {
	db *database.DB
}

// NewSQL creates a database-backed ledger
func NewSQL(db *database.DB) *SQL {
	return &SQL{db: db}
}

func (l *SQL) ApplyPointDelta(ctx context.Context, d Delta) error {
	tx, err := l.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	var seen int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_results WHERE match_id = ? AND user_id = ?`,
		d.MatchID, d.UserID).Scan(&seen)
	if err != nil {
		return fmt.Errorf("failed to check match result: %w", err)
	}
	if seen > 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO match_results (match_id, user_id, points) VALUES (?, ?, ?)`,
		d.MatchID, d.UserID, d.Points); err != nil {
		return fmt.Errorf("failed to record match result: %w", err)
	}

	var known int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ?`, d.UserID).Scan(&known); err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if known > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET total_points = total_points + ?, username = ? WHERE id = ?`,
			d.Points, d.Username, d.UserID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, username, total_points) VALUES (?, ?, ?)`,
			d.UserID, d.Username, d.Points)
	}
	if err != nil {
		return fmt.Errorf("failed to update user points: %w", err)
	}

	return tx.Commit()
}

// Leaderboard returns the users with the most points
func (l *SQL) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, username, total_points
		FROM users
		ORDER BY total_points DESC, username
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalPoints); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
