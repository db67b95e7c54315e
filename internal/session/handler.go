package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/response"
)

// StartRequest is the body for POST /api/attempts/start.
type StartRequest struct {
	QuizID string `json:"quiz_id" binding:"required"`
}

// AnswerRequest is the body for POST /api/attempts/answer.
type AnswerRequest struct {
	Attempt Attempt `json:"attempt"`
	Option  string  `json:"option"`
}

// TickRequest is the body for POST /api/attempts/tick. Seconds defaults to 1.
type TickRequest struct {
	Attempt Attempt `json:"attempt"`
	Seconds int     `json:"seconds"`
}

// CompleteRequest is the body for POST /api/attempts/complete.
type CompleteRequest struct {
	Attempt Attempt `json:"attempt"`
}

// Step is the attempt after a transition plus what the taker needs to render it.
type Step struct {
	Attempt          Attempt              `json:"attempt"`
	Question         *models.QuestionView `json:"question,omitempty"`
	TotalQuestions   int                  `json:"total_questions"`
	RemainingSeconds int                  `json:"remaining_seconds"`
}

// NewStep pairs a with what the taker sees next.
func NewStep(quiz *models.Quiz, a Attempt) Step {
	return Step{
		Attempt:          a,
		Question:         a.Current(quiz),
		TotalQuestions:   len(quiz.Questions),
		RemainingSeconds: a.Remaining(quiz),
	}
}

// Handler exposes the attempt transitions over HTTP. The client sends its attempt on every
// call; the server keeps nothing between calls.
type Handler struct {
	quizzes   QuizLoader
	submitter Submitter
	logger    *zap.Logger
}

// NewHandler creates an attempt handler.
func NewHandler(quizzes QuizLoader, submitter Submitter, logger *zap.Logger) *Handler {
	return &Handler{quizzes: quizzes, submitter: submitter, logger: logger}
}

// Start handles POST /api/attempts/start.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	quiz, a, err := Load(c.Request.Context(), h.quizzes, quizID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, NewStep(quiz, a))
}

// Answer handles POST /api/attempts/answer.
func (h *Handler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	quiz, ok := h.resume(c, req.Attempt)
	if !ok {
		return
	}
	next, err := req.Attempt.Answer(quiz, req.Option)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, NewStep(quiz, next))
}

// Tick handles POST /api/attempts/tick.
func (h *Handler) Tick(c *gin.Context) {
	var req TickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Seconds == 0 {
		req.Seconds = 1
	}
	quiz, ok := h.resume(c, req.Attempt)
	if !ok {
		return
	}
	next, err := req.Attempt.Tick(quiz, req.Seconds)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, NewStep(quiz, next))
}

// Complete handles POST /api/attempts/complete. A failed submission is returned as a failed
// attempt that can be posted again.
func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	quiz, ok := h.resume(c, req.Attempt)
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	next, err := req.Attempt.Complete(c.Request.Context(), quiz, userID, h.submitter)
	if next.State == StateFailed {
		h.logger.Warn("attempt submission failed",
			zap.String("quiz_id", quiz.ID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		response.OK(c, NewStep(quiz, next))
		return
	}
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, NewStep(quiz, next))
}

// resume reloads the attempt's quiz and checks the attempt against it.
func (h *Handler) resume(c *gin.Context, a Attempt) (*models.Quiz, bool) {
	quiz, err := loadQuiz(c.Request.Context(), h.quizzes, a.QuizID)
	if err == nil {
		err = a.Check(quiz)
	}
	if err != nil {
		response.Error(c, h.logger, err)
		return nil, false
	}
	return quiz, true
}
