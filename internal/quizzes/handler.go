package quizzes

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/response"
)

// CreateRequest is the body for POST /api/quizzes. Omitting questions generates them.
type CreateRequest struct {
	Title      string              `json:"title"`
	Topic      string              `json:"topic"`
	Settings   models.QuizSettings `json:"settings"`
	Questions  []models.Question   `json:"questions"`
	Difficulty string              `json:"difficulty"`
}

// UpdateRequest is the body for PUT /api/quizzes/:id.
type UpdateRequest struct {
	Title     *string              `json:"title"`
	Topic     *string              `json:"topic"`
	Settings  *models.QuizSettings `json:"settings"`
	Questions []models.Question    `json:"questions"`
}

// GenerateRequest is the body for POST /api/quizzes/ai/generate-quiz.
type GenerateRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	SourceText   string `json:"source_text"`
}

// QuizResponse is a quiz plus the generation warning, if any.
type QuizResponse struct {
	*models.Quiz
	Warning string `json:"warning,omitempty"`
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a quiz handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/quizzes. With ?mine=1 only the caller's quizzes are returned.
func (h *Handler) List(c *gin.Context) {
	var (
		list []models.Quiz
		err  error
	)
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		list, err = h.svc.ListByUser(c.Request.Context(), middleware.UserID(c))
	} else {
		list, err = h.svc.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /api/quizzes/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	q, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, q)
}

// Create handles POST /api/quizzes.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, warning, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), CreateInput{
		Title:      req.Title,
		Topic:      req.Topic,
		Settings:   req.Settings,
		Questions:  req.Questions,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, QuizResponse{Quiz: q, Warning: warning})
}

// Upload handles POST /api/quizzes/upload (multipart: file, title, topic, num_questions).
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file uploaded")
		return
	}
	numQuestions, err := strconv.Atoi(c.PostForm("num_questions"))
	if err != nil {
		response.BadRequest(c, "num_questions must be a number")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "could not read uploaded file")
		return
	}
	defer f.Close()

	q, warning, err := h.svc.CreateFromUpload(c.Request.Context(), middleware.UserID(c), UploadInput{
		Title:        c.PostForm("title"),
		Topic:        c.PostForm("topic"),
		NumQuestions: numQuestions,
		Filename:     fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         f,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, QuizResponse{Quiz: q, Warning: warning})
}

// Update handles PUT /api/quizzes/:id (owner only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.Update(c.Request.Context(), id, middleware.UserID(c), Patch{
		Title:     req.Title,
		Topic:     req.Topic,
		Settings:  req.Settings,
		Questions: req.Questions,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, q)
}

// Delete handles DELETE /api/quizzes/:id (owner only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// Generate handles POST /api/quizzes/ai/generate-quiz.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.svc.GenerateQuestions(c.Request.Context(), GenerateInput{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Count:      req.NumQuestions,
		SourceText: req.SourceText,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, res)
}
