package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/metrics"
	"github.com/quizforge/backend/internal/models"
)

// Warnings attached to results built from templates.
const (
	WarningParseFailure = "used default questions due to AI response parsing failure"
	warningErrorPrefix  = "used default questions due to error: "
)

const defaultDifficulty = "medium"

var errUnparseable = errors.New("completion did not contain a question array")

// Request describes one generation.
type Request struct {
	Topic      string
	Difficulty string
	Count      int
	SourceText string
}

// Result is always usable. Warning is set when the questions came from templates.
type Result struct {
	Questions []models.Question `json:"questions"`
	Warning   string            `json:"warning,omitempty"`
}

// Adapter generates questions through a Completer and never fails.
type Adapter struct {
	completer Completer
	logger    *zap.Logger
}

// NewAdapter creates an adapter over completer.
func NewAdapter(completer Completer, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{completer: completer, logger: logger}
}

// Generate returns questions for req. When completion fails, or no parse strategy finds a
// question array, it returns template questions with a warning. A parse failure with source
// text is retried once without it first.
func (a *Adapter) Generate(ctx context.Context, req Request) Result {
	if req.Difficulty == "" {
		req.Difficulty = defaultDifficulty
	}
	if req.Count < 1 {
		req.Count = 1
	}

	qs, err := a.attempt(ctx, req)
	if err == nil {
		metrics.Generation.WithLabelValues(metrics.GenerationAI).Inc()
		return Result{Questions: qs}
	}

	if errors.Is(err, errUnparseable) && req.SourceText != "" {
		a.logger.Info("retrying generation without source text", zap.String("topic", req.Topic))
		req.SourceText = ""
		qs, err = a.attempt(ctx, req)
		if err == nil {
			metrics.Generation.WithLabelValues(metrics.GenerationRetryWithoutSource).Inc()
			return Result{Questions: qs}
		}
	}

	if errors.Is(err, errUnparseable) {
		metrics.Generation.WithLabelValues(metrics.GenerationFallbackParse).Inc()
		return Result{Questions: fallbackQuestions(req.Topic, req.Count), Warning: WarningParseFailure}
	}
	a.logger.Error("question generation failed", zap.String("topic", req.Topic), zap.Error(err))
	metrics.Generation.WithLabelValues(metrics.GenerationFallbackError).Inc()
	return Result{
		Questions: fallbackQuestions(req.Topic, req.Count),
		Warning:   warningErrorPrefix + publicReason(err),
	}
}

func (a *Adapter) attempt(ctx context.Context, req Request) ([]models.Question, error) {
	content, err := a.completer.Complete(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}
	raw, strategy, ok := parseQuestions(content)
	if !ok {
		a.logger.Warn("unparseable completion", zap.String("topic", req.Topic), zap.Int("length", len(content)))
		return nil, errUnparseable
	}
	a.logger.Debug("completion parsed", zap.String("strategy", strategy), zap.Int("questions", len(raw)))
	if len(raw) > req.Count {
		raw = raw[:req.Count]
	}
	return normalize(raw), nil
}

// normalize maps raw questions to the canonical shape. Membership of the correct answer and
// option count are checked by the caller that persists them.
func normalize(raw []rawQuestion) []models.Question {
	out := make([]models.Question, 0, len(raw))
	for _, r := range raw {
		opts := make([]string, len(r.Options))
		for i, o := range r.Options {
			opts[i] = strings.TrimSpace(o)
		}
		out = append(out, models.Question{
			ID:            uuid.New(),
			Question:      strings.TrimSpace(r.Question),
			Options:       opts,
			CorrectAnswer: strings.TrimSpace(r.CorrectAnswer),
			Explanation:   strings.TrimSpace(r.Explanation),
		})
	}
	return out
}
