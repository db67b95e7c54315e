package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/response"
)

const (
	// ContextUserID is the key for the authenticated user's ID (uuid.UUID) in gin context.
	ContextUserID = "user_id"
	// ContextUser is the key for the authenticated *models.User in gin context.
	ContextUser = "user"
)

// Resolver turns an Authorization header into the current user.
type Resolver interface {
	Resolve(ctx context.Context, header string) (*models.User, error)
}

// Auth rejects requests without a resolvable credential and stores the user in context.
func Auth(resolver Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, logger, err)
			c.Abort()
			return
		}
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// UserID returns the authenticated user's ID. Only valid behind Auth.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextUserID).(uuid.UUID)
}

// CurrentUser returns the authenticated user. Only valid behind Auth.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}
