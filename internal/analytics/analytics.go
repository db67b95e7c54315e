// Package analytics derives per-user statistics from quizzes and results. Nothing here is stored;
// summaries are computed on read and cached briefly.
package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/models"
)

// RecentLimit is the number of newest results listed in a summary.
const RecentLimit = 5

// TopicCount is the number of quizzes a user created on one topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// ScorePoint is one result on the score-over-time series.
type ScorePoint struct {
	ResultID  uuid.UUID `json:"result_id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	CreatedAt time.Time `json:"created_at"`
	Percent   float64   `json:"percent"`
}

// RecentScore is one of the newest results with its quiz title.
type RecentScore struct {
	ResultID  uuid.UUID `json:"result_id"`
	QuizTitle string    `json:"quiz_title"`
	Percent   float64   `json:"percent"`
}

// Summary is the analytics view of one user.
type Summary struct {
	TotalQuizzes        int           `json:"total_quizzes"`
	TotalAttempts       int           `json:"total_attempts"`
	AverageScorePercent float64       `json:"average_score_percent"`
	TopicDistribution   []TopicCount  `json:"topic_distribution"`
	ScoreOverTime       []ScorePoint  `json:"score_over_time"`
	RecentScores        []RecentScore `json:"recent_scores"`
}

// AverageScorePercent is the mean of score/total*100 over results, 0 when there are none.
func AverageScorePercent(results []models.QuizResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for i := range results {
		sum += results[i].Percent()
	}
	return sum / float64(len(results))
}

// TopicDistribution counts quizzes per topic, most frequent first, ties by topic name.
func TopicDistribution(quizzes []models.Quiz) []TopicCount {
	counts := make(map[string]int)
	for _, q := range quizzes {
		counts[q.Topic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// ScoreOverTime orders results by creation time, oldest first.
func ScoreOverTime(results []models.QuizResult) []ScorePoint {
	out := make([]ScorePoint, len(results))
	for i := range results {
		out[i] = ScorePoint{
			ResultID:  results[i].ID,
			QuizID:    results[i].QuizID,
			CreatedAt: results[i].CreatedAt,
			Percent:   results[i].Percent(),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Summarize builds a summary. results must be newest first; titles maps quiz IDs to titles.
func Summarize(quizzes []models.Quiz, results []models.QuizResult, titles map[uuid.UUID]string) Summary {
	s := Summary{
		TotalQuizzes:        len(quizzes),
		TotalAttempts:       len(results),
		AverageScorePercent: AverageScorePercent(results),
		TopicDistribution:   TopicDistribution(quizzes),
		ScoreOverTime:       ScoreOverTime(results),
		RecentScores:        []RecentScore{},
	}
	for i := 0; i < len(results) && i < RecentLimit; i++ {
		s.RecentScores = append(s.RecentScores, RecentScore{
			ResultID:  results[i].ID,
			QuizTitle: titles[results[i].QuizID],
			Percent:   results[i].Percent(),
		})
	}
	return s
}
