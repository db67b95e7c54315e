package results

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/response"
)

// SubmitRequest is the body for POST /api/quiz-results.
type SubmitRequest struct {
	QuizID    string          `json:"quiz_id"`
	Answers   json.RawMessage `json:"answers"`
	TimeTaken int             `json:"time_taken"`
}

// Handler handles quiz result HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a result handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Submit handles POST /api/quiz-results.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		response.BadRequest(c, "quiz_id is required")
		return
	}
	if len(req.Answers) == 0 || string(req.Answers) == "null" {
		response.BadRequest(c, "answers are required")
		return
	}
	answers := []models.Answer{}
	if err := json.Unmarshal(req.Answers, &answers); err != nil {
		response.BadRequest(c, "answers must be a list")
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), middleware.UserID(c), SubmitInput{
		QuizID:    quizID,
		Answers:   answers,
		TimeTaken: req.TimeTaken,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, res)
}

// List handles GET /api/quiz-results.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /api/quiz-results/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid result id")
		return
	}
	res, err := h.svc.GetByID(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, res)
}
