package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
)

// ErrUnauthenticated is returned for every authentication failure, whatever the cause.
var ErrUnauthenticated = apperr.Unauthenticated("authentication required")

// TokenValidator verifies an access token.
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// UserFinder loads a user by ID, returning (nil, nil) when absent.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Guard resolves a request credential to the current user.
type Guard struct {
	tokens TokenValidator
	users  UserFinder
	logger *zap.Logger
}

// NewGuard creates a guard.
func NewGuard(tokens TokenValidator, users UserFinder, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{tokens: tokens, users: users, logger: logger}
}

// Resolve authenticates an Authorization header of the form "Bearer <token>".
func (g *Guard) Resolve(ctx context.Context, header string) (*models.User, error) {
	if header == "" {
		return nil, g.reject("missing", nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, g.reject("malformed", nil)
	}
	return g.ResolveToken(ctx, strings.TrimSpace(token))
}

// ResolveToken authenticates a bare token.
func (g *Guard) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, g.reject("missing", nil)
	}
	claims, err := g.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, g.reject("expired", err)
		}
		return nil, g.reject("invalid", err)
	}
	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if user == nil {
		return nil, g.reject("user_not_found", nil, zap.String("user_id", claims.UserID.String()))
	}
	return user, nil
}

func (g *Guard) reject(reason string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("reason", reason))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	g.logger.Info("authentication rejected", fields...)
	return ErrUnauthenticated
}
