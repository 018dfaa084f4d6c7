package questions

import (
	"context"
	"errors"

	"sportstrivia/internal/models"
)

// ErrQuestionUnavailable means the category has no question for the round
var ErrQuestionUnavailable = errors.New("question unavailable")

// Provider supplies the question sequence of a category. Categories match
// case-insensitively.
type Provider interface {
	NextQuestion(ctx context.Context, category string, round int) (models.Question, error)
	Count(ctx context.Context, category string) (int, error)
	Categories(ctx context.Context) ([]string, error)
}
