package questions

import (
	"context"
	"strings"

	"sportstrivia/internal/models"
)

// Static serves a fixed question set from memory
type Static struct {
	categories []string
	byCategory map[string][]models.Question
}

// NewStatic indexes qs by category, keeping their order
func NewStatic(qs []models.Question) *Static {
	s := &Static{byCategory: make(map[string][]models.Question)}
	for _, q := range qs {
		key := strings.ToLower(q.Category)
		if _, seen := s.byCategory[key]; !seen {
			s.categories = append(s.categories, q.Category)
		}
		s.byCategory[key] = append(s.byCategory[key], q)
	}
	return s
}

func (s *Static) NextQuestion(_ context.Context, category string, round int) (models.Question, error) {
	qs := s.byCategory[strings.ToLower(strings.TrimSpace(category))]
	if round < 0 || round >= len(qs) {
		return models.Question{}, ErrQuestionUnavailable
	}
	return qs[round], nil
}

func (s *Static) Count(_ context.Context, category string) (int, error) {
	return len(s.byCategory[strings.ToLower(strings.TrimSpace(category))]), nil
}

func (s *Static) Categories(context.Context) ([]string, error) {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out, nil
}
