// Package session implements the quiz attempt state machine.
//
// An Attempt is a plain value owned by the caller. Every transition takes the current value
// and returns the next one; nothing is held server-side, so abandoning an attempt is simply
// dropping the value.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/internal/results"
)

// State is the phase of an attempt.
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateCompleting State = "completing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var (
	ErrQuizNotFound  = apperr.NotFound("quiz not found")
	ErrEmptyQuiz     = apperr.Validation("quiz has no questions")
	ErrNoSelection   = apperr.Validation("an option must be selected")
	ErrUnknownOption = apperr.Validation("option is not one of the question's options")
	ErrNotInProgress = apperr.Validation("attempt is not in progress")
	ErrNotCompleting = apperr.Validation("attempt is not ready to be submitted")
	ErrMismatch      = apperr.Validation("attempt does not match the quiz")
)

// MsgRetry is shown on a failed attempt when the cause is not caller-correctable.
const MsgRetry = "something went wrong, please try again"

// AnswerEntry is one captured answer.
type AnswerEntry struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

// Attempt is one pass through a quiz.
type Attempt struct {
	QuizID         uuid.UUID     `json:"quiz_id"`
	State          State         `json:"state"`
	QuestionIndex  int           `json:"question_index"`
	Answers        []AnswerEntry `json:"answers"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	ResultID       *uuid.UUID    `json:"result_id,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// QuizLoader resolves a quiz, returning (nil, nil) when it does not exist.
type QuizLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

// Submitter persists a completed attempt.
type Submitter interface {
	Submit(ctx context.Context, userID uuid.UUID, in results.SubmitInput) (*models.QuizResult, error)
}

// Load fetches the quiz and starts an attempt on it. On failure the returned attempt is failed.
func Load(ctx context.Context, loader QuizLoader, quizID uuid.UUID) (*models.Quiz, Attempt, error) {
	loading := Attempt{QuizID: quizID, State: StateLoading}
	quiz, err := loadQuiz(ctx, loader, quizID)
	if err != nil {
		return nil, loading.fail(err), err
	}
	a, err := Start(quiz)
	if err != nil {
		return nil, loading.fail(err), err
	}
	return quiz, a, nil
}

func loadQuiz(ctx context.Context, loader QuizLoader, id uuid.UUID) (*models.Quiz, error) {
	quiz, err := loader.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("load quiz", err)
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// Start begins an attempt at the first question.
func Start(quiz *models.Quiz) (Attempt, error) {
	if len(quiz.Questions) == 0 {
		return Attempt{}, ErrEmptyQuiz
	}
	return Attempt{
		QuizID:  quiz.ID,
		State:   StateInProgress,
		Answers: []AnswerEntry{},
	}, nil
}

// Tick advances the clock by seconds. Once the quiz time limit is reached the attempt moves to
// completing, whatever has been answered; elapsed time never exceeds the limit.
func (a Attempt) Tick(quiz *models.Quiz, seconds int) (Attempt, error) {
	if a.State != StateInProgress {
		return a, ErrNotInProgress
	}
	if seconds < 0 {
		return a, apperr.Validation("seconds must not be negative")
	}
	next := a.clone()
	next.ElapsedSeconds += seconds
	if limit := quiz.TimeLimitSeconds(); next.ElapsedSeconds >= limit {
		next.ElapsedSeconds = limit
		next.State = StateCompleting
	}
	return next, nil
}

// Answer records option for the current question and advances. Answering the last question
// moves the attempt to completing.
func (a Attempt) Answer(quiz *models.Quiz, option string) (Attempt, error) {
	if a.State != StateInProgress {
		return a, ErrNotInProgress
	}
	if option == "" {
		return a, ErrNoSelection
	}
	if a.QuestionIndex < 0 || a.QuestionIndex >= len(quiz.Questions) {
		return a, ErrMismatch
	}
	q := &quiz.Questions[a.QuestionIndex]
	if !q.HasOption(option) {
		return a, ErrUnknownOption
	}

	next := a.clone()
	next.Answers = append(next.Answers, AnswerEntry{QuestionID: q.ID, Answer: option})
	if next.QuestionIndex == len(quiz.Questions)-1 {
		next.State = StateCompleting
	} else {
		next.QuestionIndex++
	}
	return next, nil
}

// Current returns the question being asked, or nil when the attempt is not in progress.
func (a Attempt) Current(quiz *models.Quiz) *models.QuestionView {
	if a.State != StateInProgress || a.QuestionIndex < 0 || a.QuestionIndex >= len(quiz.Questions) {
		return nil
	}
	v := quiz.Questions[a.QuestionIndex].View()
	return &v
}

// Remaining returns the seconds left before the time limit.
func (a Attempt) Remaining(quiz *models.Quiz) int {
	if r := quiz.TimeLimitSeconds() - a.ElapsedSeconds; r > 0 {
		return r
	}
	return 0
}

// Score grades answers against quiz in question order. The i-th answer belongs to the i-th
// question and only counts when it names that question's ID. Unanswered questions are incorrect
// with an empty user answer. Comparison is exact.
func Score(quiz *models.Quiz, answers []AnswerEntry) ([]models.Answer, int) {
	out := make([]models.Answer, len(quiz.Questions))
	score := 0
	for i, q := range quiz.Questions {
		var ua string
		if i < len(answers) && answers[i].QuestionID == q.ID {
			ua = answers[i].Answer
		}
		correct := ua != "" && ua == q.CorrectAnswer
		if correct {
			score++
		}
		out[i] = models.Answer{
			Question:      q.Question,
			UserAnswer:    ua,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
		}
	}
	return out, score
}

// Complete scores the attempt and submits it. It is allowed from completing and from failed,
// so a failed submission can be retried with the same answers. A submission failure yields a
// failed attempt together with the cause.
func (a Attempt) Complete(ctx context.Context, quiz *models.Quiz, userID uuid.UUID, submitter Submitter) (Attempt, error) {
	if a.State != StateCompleting && a.State != StateFailed {
		return a, ErrNotCompleting
	}
	answers, _ := Score(quiz, a.Answers)
	res, err := submitter.Submit(ctx, userID, results.SubmitInput{
		QuizID:    quiz.ID,
		Answers:   answers,
		TimeTaken: a.ElapsedSeconds,
	})
	if err != nil {
		return a.fail(err), err
	}

	next := a.clone()
	next.State = StateCompleted
	next.Error = ""
	id := res.ID
	next.ResultID = &id
	return next, nil
}

// Check verifies that a caller-supplied attempt is consistent with quiz.
func (a Attempt) Check(quiz *models.Quiz) error {
	if a.QuizID != quiz.ID || a.ElapsedSeconds < 0 || a.ElapsedSeconds > quiz.TimeLimitSeconds() {
		return ErrMismatch
	}
	n := len(quiz.Questions)
	if len(a.Answers) > n || a.QuestionIndex < 0 || a.QuestionIndex >= n {
		return ErrMismatch
	}
	for i, e := range a.Answers {
		if e.QuestionID != quiz.Questions[i].ID {
			return ErrMismatch
		}
	}
	switch a.State {
	case StateInProgress:
		if len(a.Answers) != a.QuestionIndex || a.ElapsedSeconds >= quiz.TimeLimitSeconds() {
			return ErrMismatch
		}
	case StateCompleting, StateFailed:
		finished := len(a.Answers) == n && a.QuestionIndex == n-1
		expired := len(a.Answers) == a.QuestionIndex && a.ElapsedSeconds == quiz.TimeLimitSeconds()
		if !finished && !expired {
			return ErrMismatch
		}
	case StateCompleted:
		return nil
	default:
		return ErrMismatch
	}
	return nil
}

func (a Attempt) fail(err error) Attempt {
	next := a.clone()
	next.State = StateFailed
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		next.Error = apperr.Message(err)
	default:
		next.Error = MsgRetry
	}
	return next
}

func (a Attempt) clone() Attempt {
	a.Answers = append([]AnswerEntry{}, a.Answers...)
	return a
}
