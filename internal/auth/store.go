package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
)

// ErrDuplicateEmail is returned by stores when the email is already registered.
var ErrDuplicateEmail = apperr.Validation("email already registered")

// Store persists users. Lookups return (nil, nil) when the user does not exist.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

