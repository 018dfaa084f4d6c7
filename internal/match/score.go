package match

import "sportstrivia/internal/models"

// Score returns the points an answer earns: the question's points when it
// is the correct option, zero otherwise.
func Score(q models.Question, answer int) int {
	if answer == q.CorrectAnswer {
		return q.Points
	}
	return 0
}
