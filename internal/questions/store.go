package questions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sportstrivia/internal/database"
	"sportstrivia/internal/models"
)

// Store serves questions from the questions table
type Store struct {
	db *database.DB
}

// NewStore creates a database-backed question provider
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) NextQuestion(ctx context.Context, category string, round int) (models.Question, error) {
	if round < 0 {
		return models.Question{}, ErrQuestionUnavailable
	}

	var q models.Question
	var options string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, category, question, options, correct_answer, points, image_url, explanation
		FROM questions
		WHERE LOWER(category) = ?
		ORDER BY position, id
		LIMIT 1 OFFSET ?
	`, strings.ToLower(strings.TrimSpace(category)), round).Scan(
		&q.ID, &q.Category, &q.Question, &options, &q.CorrectAnswer, &q.Points, &q.ImageURL, &q.Explanation,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Question{}, ErrQuestionUnavailable
	}
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to load question: %w", err)
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return models.Question{}, fmt.Errorf("corrupt options for question %s: %w", q.ID, err)
	}
	return q, nil
}

// Count returns how many questions the category holds
func (s *Store) Count(ctx context.Context, category string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE LOWER(category) = ?`,
		strings.ToLower(strings.TrimSpace(category))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM questions ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Seed inserts qs when the question table is empty. Returns the number of
// inserted rows.
func (s *Store) Seed(ctx context.Context, qs []models.Question) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, q := range qs {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (id, category, position, question, options, correct_answer, points, image_url, explanation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, q.ID, q.Category, i, q.Question, string(options), q.CorrectAnswer, q.Points, q.ImageURL, q.Explanation)
		if err != nil {
			return 0, fmt.Errorf("failed to seed question %s: %w", q.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(qs), nil
}
