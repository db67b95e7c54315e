package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is a snapshot of one answered (or unanswered) question at submission time.
type Answer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// QuizResult is the immutable outcome of one completed attempt.
type QuizResult struct {
	ID             uuid.UUID `json:"id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	UserID         uuid.UUID `json:"user_id"`
	Quiz           *Quiz     `json:"quiz,omitempty"` // joined on read; nil when the quiz was deleted
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	TimeTaken      int       `json:"time_taken"` // seconds
	Answers        []Answer  `json:"answers"`
	CreatedAt      time.Time `json:"created_at"`
}

// Percent returns the score as a percentage of TotalQuestions.
func (r *QuizResult) Percent() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.TotalQuestions) * 100
}
