package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/models"
)

const cacheKeyPrefix = "analytics:user:"

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized summaries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisCache is a Cache on go-redis.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// QuizSource lists a user's quizzes and resolves quizzes by ID ((nil, nil) when absent).
type QuizSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

// ResultSource lists a user's results, newest first.
type ResultSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizResult, error)
}

// Service computes user summaries with a read-through cache. Cache failures are logged and
// bypassed.
type Service struct {
	quizzes QuizSource
	results ResultSource
	cache   Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewService creates an analytics service. A nil cache disables caching.
func NewService(quizzes QuizSource, results ResultSource, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{quizzes: quizzes, results: results, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(userID uuid.UUID) string {
	return cacheKeyPrefix + userID.String()
}

// ForUser returns the user's summary.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if sum, ok := s.cached(ctx, userID); ok {
		return sum, nil
	}

	quizzes, err := s.quizzes.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list quizzes", err)
	}
	results, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list results", err)
	}
	titles, err := s.titles(ctx, quizzes, results)
	if err != nil {
		return nil, apperr.Internal("load quiz titles", err)
	}

	sum := Summarize(quizzes, results, titles)
	s.store(ctx, userID, &sum)
	return &sum, nil
}

// titles resolves titles for the quizzes of the newest results.
func (s *Service) titles(ctx context.Context, quizzes []models.Quiz, results []models.QuizResult) (map[uuid.UUID]string, error) {
	titles := make(map[uuid.UUID]string, len(quizzes))
	for _, q := range quizzes {
		titles[q.ID] = q.Title
	}
	for i := 0; i < len(results) && i < RecentLimit; i++ {
		id := results[i].QuizID
		if _, ok := titles[id]; ok {
			continue
		}
		q, err := s.quizzes.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		titles[id] = ""
		if q != nil {
			titles[id] = q.Title
		}
	}
	return titles, nil
}

func (s *Service) cached(ctx context.Context, userID uuid.UUID) (*Summary, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(userID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var sum Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		s.logger.Warn("analytics cache entry unreadable", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, false
	}
	return &sum, true
}

func (s *Service) store(ctx context.Context, userID uuid.UUID, sum *Summary) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(sum)
	if err != nil {
		s.logger.Warn("encode analytics summary", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, cacheKey(userID), raw, s.ttl); err != nil {
		s.logger.Warn("analytics cache write failed", zap.Error(err))
	}
}

// Invalidate drops the user's cached summary.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(userID)); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
