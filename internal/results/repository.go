package results

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

// Repository handles quiz result persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a result repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resultColumns = `id, quiz_id, user_id, score, total_questions, time_taken, answers, created_at`

func scanResult(row pgx.Row) (*models.QuizResult, error) {
	var (
		r   models.QuizResult
		raw []byte
	)
	if err := row.Scan(&r.ID, &r.QuizID, &r.UserID, &r.Score, &r.TotalQuestions, &r.TimeTaken, &raw, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of result %s: %w", r.ID, err)
	}
	return &r, nil
}

// Create inserts a result and fills ID and created_at.
func (r *Repository) Create(ctx context.Context, res *models.QuizResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}
	const q = `INSERT INTO quiz_results (quiz_id, user_id, score, total_questions, time_taken, answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, res.QuizID, res.UserID, res.Score, res.TotalQuestions, res.TimeTaken, answers).
		Scan(&res.ID, &res.CreatedAt)
}

// GetByID returns a result owned by userID.
func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.QuizResult, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

// ListByUser returns the user's results, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.QuizResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *res)
	}
	return list, rows.Err()
}
