package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/models"
)

type quizSource struct {
	owned []models.Quiz
	all   map[uuid.UUID]*models.Quiz
	calls int
}

func (q *quizSource) ListByUser(context.Context, uuid.UUID) ([]models.Quiz, error) {
	q.calls++
	return q.owned, nil
}

func (q *quizSource) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	return q.all[id], nil
}

type resultSource []models.QuizResult

func (r resultSource) ListByUser(context.Context, uuid.UUID) ([]models.QuizResult, error) {
	return r, nil
}

type memCache struct {
	data   map[string][]byte
	getErr error
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func result(score, total int, at time.Time) models.QuizResult {
	return models.QuizResult{ID: uuid.New(), QuizID: uuid.New(), Score: score, TotalQuestions: total, CreatedAt: at}
}

func TestAverageScorePercentWithoutResultsIsZero(t *testing.T) {
	got := AverageScorePercent(nil)
	if got != 0 || math.IsNaN(got) {
		t.Fatalf("average = %v", got)
	}
}

func TestAverageScorePercent(t *testing.T) {
	now := time.Now()
	got := AverageScorePercent([]models.QuizResult{result(1, 2, now), result(3, 3, now), result(0, 0, now)})
	if math.Abs(got-50) > 1e-9 {
		t.Fatalf("average = %v, want 50", got)
	}
}

func TestTopicDistribution(t *testing.T) {
	quizzes := []models.Quiz{{Topic: "Math"}, {Topic: "Go"}, {Topic: "Art"}, {Topic: "Go"}}
	got := TopicDistribution(quizzes)
	want := []TopicCount{{"Go", 2}, {"Art", 1}, {"Math", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestScoreOverTimeAscending(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	newest := result(1, 1, base.Add(2*time.Hour))
	oldest := result(0, 4, base)
	middle := result(2, 4, base.Add(time.Hour))

	got := ScoreOverTime([]models.QuizResult{newest, middle, oldest})
	if got[0].ResultID != oldest.ID || got[2].ResultID != newest.ID || got[1].Percent != 50 {
		t.Fatalf("series = %+v", got)
	}
}

func TestForUserCachesAndInvalidates(t *testing.T) {
	deleted := uuid.New()
	kept := &models.Quiz{ID: uuid.New(), Title: "Borrowed quiz"}
	r1 := result(1, 2, time.Now())
	r1.QuizID = kept.ID
	r2 := result(2, 2, time.Now().Add(-time.Hour))
	r2.QuizID = deleted
	quizzes := &quizSource{
		owned: []models.Quiz{{ID: uuid.New(), Topic: "Go", Title: "Mine"}},
		all:   map[uuid.UUID]*models.Quiz{kept.ID: kept},
	}
	cache := &memCache{data: map[string][]byte{}}
	svc := NewService(quizzes, resultSource{r1, r2}, cache, time.Minute, nil)
	user := uuid.New()

	sum, err := svc.ForUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if sum.TotalQuizzes != 1 || sum.TotalAttempts != 2 || sum.AverageScorePercent != 75 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.RecentScores) != 2 || sum.RecentScores[0].QuizTitle != "Borrowed quiz" || sum.RecentScores[1].QuizTitle != "" {
		t.Fatalf("recent = %+v", sum.RecentScores)
	}

	if _, err := svc.ForUser(context.Background(), user); err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if quizzes.calls != 1 {
		t.Fatalf("store reads = %d, want cached second read", quizzes.calls)
	}

	svc.Invalidate(context.Background(), user)
	_, _ = svc.ForUser(context.Background(), user)
	if quizzes.calls != 2 {
		t.Fatalf("store reads = %d after invalidation", quizzes.calls)
	}
}

func TestForUserBypassesBrokenCache(t *testing.T) {
	quizzes := &quizSource{}
	cache := &memCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	svc := NewService(quizzes, resultSource{}, cache, time.Minute, nil)

	sum, err := svc.ForUser(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if sum.AverageScorePercent != 0 || len(sum.TopicDistribution) != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}
