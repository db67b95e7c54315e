package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/response"
	"github.com/quizforge/backend/pkg/utils"
)

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateMeRequest is the body for PATCH /api/users/me.
type UpdateMeRequest struct {
	Name            *string `json:"name"`
	Password        *string `json:"password"`
	CurrentPassword string  `json:"current_password"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth and profile HTTP endpoints.
type Handler struct {
	store  Store
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store Store, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{store: store, jwt: jwt, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	user := &models.User{Name: name, Email: normalizeEmail(req.Email), PasswordHash: hash}
	if err := h.store.Create(c.Request.Context(), user); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.store.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /api/users/me.
func (h *Handler) Me(c *gin.Context) {
	response.OK(c, middleware.CurrentUser(c).ToPublic())
}

// UpdateMe handles PATCH /api/users/me. Changing the password requires the current one.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user := *middleware.CurrentUser(c)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			response.BadRequest(c, "name cannot be empty")
			return
		}
		user.Name = name
	}
	if req.Password != nil {
		if len(*req.Password) < utils.MinPasswordLength {
			response.BadRequest(c, "password must be at least 6 characters")
			return
		}
		if req.CurrentPassword == "" {
			response.BadRequest(c, "current_password is required to change the password")
			return
		}
		if !utils.CheckPassword(req.CurrentPassword, user.PasswordHash) {
			response.Unauthorized(c, "current password is incorrect")
			return
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := h.store.Update(c.Request.Context(), &user); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// DeleteMe handles DELETE /api/users/me. Owned quizzes and results are not removed.
func (h *Handler) DeleteMe(c *gin.Context) {
	if _, err := h.store.Delete(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}
