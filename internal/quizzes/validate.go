package quizzes

import (
	"strings"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
)

// ValidateMeta checks title and topic.
func ValidateMeta(title, topic string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	if strings.TrimSpace(topic) == "" {
		return apperr.Validation("topic is required")
	}
	return nil
}

// ValidateSettings checks the settings bounds.
func ValidateSettings(s models.QuizSettings) error {
	if s.NumQuestions < models.MinQuestions || s.NumQuestions > models.MaxQuestions {
		return apperr.Validationf("num_questions must be between %d and %d", models.MinQuestions, models.MaxQuestions)
	}
	if s.TimeLimit < models.MinTimeLimit || s.TimeLimit > models.MaxTimeLimit {
		return apperr.Validationf("time_limit must be between %d and %d minutes", models.MinTimeLimit, models.MaxTimeLimit)
	}
	return nil
}

// ValidateQuestions checks that there is at least one question, that question IDs are unique
// and that each has exactly four distinct non-empty options, one of which is the correct answer.
func ValidateQuestions(qs []models.Question) error {
	if len(qs) == 0 {
		return apperr.Validation("quiz must have at least one question")
	}
	ids := make(map[uuid.UUID]int, len(qs))
	for i := range qs {
		if err := validateQuestion(i+1, &qs[i]); err != nil {
			return err
		}
		if qs[i].ID == uuid.Nil {
			continue
		}
		if first, dup := ids[qs[i].ID]; dup {
			return apperr.Validationf("question %d: id duplicates question %d", i+1, first)
		}
		ids[qs[i].ID] = i + 1
	}
	return nil
}

func validateQuestion(n int, q *models.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return apperr.Validationf("question %d: text is required", n)
	}
	if len(q.Options) != models.OptionsPerQuestion {
		return apperr.Validationf("question %d: must have exactly %d options", n, models.OptionsPerQuestion)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return apperr.Validationf("question %d: options must not be empty", n)
		}
		if _, dup := seen[o]; dup {
			return apperr.Validationf("question %d: options must be distinct", n)
		}
		seen[o] = struct{}{}
	}
	if !q.HasOption(q.CorrectAnswer) {
		return apperr.Validationf("question %d: correct answer must be one of the options", n)
	}
	return nil
}

// Validate checks the whole aggregate.
func Validate(q *models.Quiz) error {
	if err := ValidateMeta(q.Title, q.Topic); err != nil {
		return err
	}
	if err := ValidateSettings(q.Settings); err != nil {
		return err
	}
	return ValidateQuestions(q.Questions)
}
