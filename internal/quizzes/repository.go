package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizforge/backend/internal/models"
)

// Repository handles quiz persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a quiz repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quizColumns = `id, title, topic, num_questions, time_limit, questions, created_by, created_at, updated_at`

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	var (
		q   models.Quiz
		raw []byte
	)
	err := row.Scan(&q.ID, &q.Title, &q.Topic, &q.Settings.NumQuestions, &q.Settings.TimeLimit, &raw, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of quiz %s: %w", q.ID, err)
	}
	return &q, nil
}

// Create inserts a quiz and fills ID and timestamps.
func (r *Repository) Create(ctx context.Context, q *models.Quiz) error {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	const stmt = `INSERT INTO quizzes (title, topic, num_questions, time_limit, questions, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, stmt, q.Title, q.Topic, q.Settings.NumQuestions, q.Settings.TimeLimit, questions, q.CreatedBy).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID returns a quiz by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, err := scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

// List returns all quizzes, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Quiz, error) {
	return r.list(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at DESC`)
}

// ListByUser returns the user's quizzes, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	return r.list(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE created_by = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]models.Quiz, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// Update overwrites title, topic, settings and questions and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, q *models.Quiz) (bool, error) {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return false, err
	}
	const stmt = `UPDATE quizzes
		SET title = $3, topic = $4, num_questions = $5, time_limit = $6, questions = $7, updated_at = now()
		WHERE id = $1 AND created_by = $2
		RETURNING updated_at`
	err = r.pool.QueryRow(ctx, stmt, q.ID, q.CreatedBy, q.Title, q.Topic, q.Settings.NumQuestions, q.Settings.TimeLimit, questions).
		Scan(&q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes a quiz owned by ownerID.
func (r *Repository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
