package quizzes

import (
	"context"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/models"
)

// Store persists quizzes. GetByID returns (nil, nil) when the quiz does not exist.
type Store interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	// List returns every quiz, newest first.
	List(ctx context.Context) ([]models.Quiz, error)
	// ListByUser returns the quizzes created by userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error)
	// Update overwrites the mutable fields of q if it is still owned by q.CreatedBy.
	// It reports false when no such quiz exists.
	Update(ctx context.Context, q *models.Quiz) (bool, error)
	// Delete removes the quiz if owned by ownerID and reports whether a row was removed.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}
