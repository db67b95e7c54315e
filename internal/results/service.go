package results

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/metrics"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/events"
)

// ErrNotFound is returned for missing results and for results of other users.
var ErrNotFound = apperr.NotFound("result not found")

// Invalidator drops cached per-user data derived from results.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Options tune a Service.
type Options struct {
	// VerifyCorrectness recomputes each answer's correctness from the stored quiz instead of
	// trusting the submitted flags.
	VerifyCorrectness bool
	Events            events.Publisher
	Analytics         Invalidator
}

// Service persists completed attempts and reads them back.
type Service struct {
	store   Store
	quizzes QuizLoader
	opts    Options
	logger  *zap.Logger
}

// NewService creates a result service.
func NewService(store Store, quizzes QuizLoader, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	return &Service{store: store, quizzes: quizzes, opts: opts, logger: logger}
}

// SubmitInput is one completed attempt. A nil Answers means the field was absent.
type SubmitInput struct {
	QuizID    uuid.UUID
	Answers   []models.Answer
	TimeTaken int
}

// Submit scores and persists an attempt. The score is the number of answers flagged correct.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in SubmitInput) (*models.QuizResult, error) {
	if in.QuizID == uuid.Nil {
		return nil, apperr.Validation("quiz_id is required")
	}
	if in.Answers == nil {
		return nil, apperr.Validation("answers are required")
	}
	if in.TimeTaken < 0 {
		return nil, apperr.Validation("time_taken must not be negative")
	}
	for i, a := range in.Answers {
		if a.Question == "" {
			return nil, apperr.Validationf("answer %d: question is required", i+1)
		}
	}

	quiz, err := s.quizzes.GetByID(ctx, in.QuizID)
	if err != nil {
		return nil, apperr.Internal("load quiz", err)
	}
	if quiz == nil {
		return nil, apperr.Validation("quiz not found")
	}

	answers := append([]models.Answer(nil), in.Answers...)
	if s.opts.VerifyCorrectness {
		verify(quiz, answers)
	}

	res := &models.QuizResult{
		QuizID:         quiz.ID,
		UserID:         userID,
		Score:          Score(answers),
		TotalQuestions: len(answers),
		TimeTaken:      in.TimeTaken,
		Answers:        answers,
	}
	if err := s.store.Create(ctx, res); err != nil {
		return nil, apperr.Internal("save result", err)
	}
	res.Quiz = quiz

	metrics.ResultsSubmitted.Inc()
	s.logger.Info("quiz result submitted",
		zap.String("result_id", res.ID.String()),
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("score", res.Score),
		zap.Int("total", res.TotalQuestions),
	)
	if s.opts.Analytics != nil {
		s.opts.Analytics.Invalidate(ctx, userID)
	}
	if err := s.opts.Events.Publish(ctx, events.QuizResultCreated, resultEvent{
		ResultID: res.ID, QuizID: quiz.ID, UserID: userID, Score: res.Score, Total: res.TotalQuestions,
	}); err != nil {
		s.logger.Warn("publish event failed", zap.String("type", events.QuizResultCreated), zap.Error(err))
	}
	return res, nil
}

type resultEvent struct {
	ResultID uuid.UUID `json:"result_id"`
	QuizID   uuid.UUID `json:"quiz_id"`
	UserID   uuid.UUID `json:"user_id"`
	Score    int       `json:"score"`
	Total    int       `json:"total_questions"`
}

// Score counts the answers flagged correct.
func Score(answers []models.Answer) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// verify rewrites the correct answer and flag of each answer from the quiz question with the
// same text. Answers to unknown questions are marked incorrect.
func verify(quiz *models.Quiz, answers []models.Answer) {
	byText := make(map[string]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		byText[q.Question] = q.CorrectAnswer
	}
	for i := range answers {
		correct, ok := byText[answers[i].Question]
		if !ok {
			answers[i].IsCorrect = false
			continue
		}
		answers[i].CorrectAnswer = correct
		answers[i].IsCorrect = answers[i].UserAnswer == correct
	}
}

// GetByID returns a result of userID with its quiz joined.
func (s *Service) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.QuizResult, error) {
	res, err := s.store.GetByID(ctx, id, userID)
	if err != nil {
		return nil, apperr.Internal("get result", err)
	}
	if res == nil {
		return nil, ErrNotFound
	}
	if res.Quiz, err = s.quizzes.GetByID(ctx, res.QuizID); err != nil {
		return nil, apperr.Internal("load quiz", err)
	}
	return res, nil
}

// ListForUser returns the user's results, newest first, each with its quiz joined.
// Quiz is nil for results whose quiz was deleted.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.QuizResult, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list results", err)
	}
	seen := make(map[uuid.UUID]*models.Quiz)
	for i := range list {
		quiz, ok := seen[list[i].QuizID]
		if !ok {
			if quiz, err = s.quizzes.GetByID(ctx, list[i].QuizID); err != nil {
				return nil, apperr.Internal("load quiz", err)
			}
			seen[list[i].QuizID] = quiz
		}
		list[i].Quiz = quiz
	}
	return list, nil
}
