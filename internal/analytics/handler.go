package analytics

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/pkg/response"
)

// Handler handles GET /api/analytics/me.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Me returns the caller's summary.
func (h *Handler) Me(c *gin.Context) {
	sum, err := h.svc.ForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, sum)
}
