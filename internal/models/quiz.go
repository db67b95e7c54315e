package models

import (
	"time"

	"github.com/google/uuid"
)

// Settings bounds.
const (
	MinQuestions = 1
	MaxQuestions = 50
	MinTimeLimit = 1   // minutes
	MaxTimeLimit = 120 // minutes
)

// QuizSettings configures how a quiz is taken.
type QuizSettings struct {
	NumQuestions int `json:"num_questions"`
	TimeLimit    int `json:"time_limit"` // minutes
}

// Quiz is a titled, topic-tagged ordered list of questions owned by its creator.
type Quiz struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Topic     string       `json:"topic"`
	Settings  QuizSettings `json:"settings"`
	Questions []Question   `json:"questions"`
	CreatedBy uuid.UUID    `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TimeLimitSeconds returns the attempt time budget.
func (q *Quiz) TimeLimitSeconds() int {
	return q.Settings.TimeLimit * 60
}
