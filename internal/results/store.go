package results

import (
	"context"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/models"
)

// Store persists quiz results. Results are never updated or deleted.
type Store interface {
	Create(ctx context.Context, r *models.QuizResult) error
	// GetByID returns the result if it belongs to userID, (nil, nil) otherwise.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.QuizResult, error)
	// ListByUser returns the user's results, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizResult, error)
}

// QuizLoader resolves quizzes, returning (nil, nil) when a quiz does not exist.
type QuizLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}
