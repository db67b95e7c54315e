package models

import "github.com/google/uuid"

// OptionsPerQuestion is the fixed number of choices of a multiple-choice question.
const OptionsPerQuestion = 4

// Question is one multiple-choice item of a quiz. CorrectAnswer is one of Options.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation,omitempty"`
}

// HasOption reports whether option is one of q's options (exact match).
func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// QuestionView is a question as shown to a quiz taker, without the answer.
type QuestionView struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Options  []string  `json:"options"`
}

// View strips the correct answer and explanation.
func (q *Question) View() QuestionView {
	return QuestionView{ID: q.ID, Question: q.Question, Options: q.Options}
}
