package generator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryCompleter retries timed-out completions with linear backoff.
type RetryCompleter struct {
	next     Completer
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewRetryCompleter wraps next with up to attempts tries (minimum 1).
func NewRetryCompleter(next Completer, attempts int, backoff time.Duration, logger *zap.Logger) *RetryCompleter {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryCompleter{next: next, attempts: attempts, backoff: backoff, logger: logger}
}

// Complete implements Completer. Only ErrTimeout failures are retried.
func (r *RetryCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !errors.Is(err, ErrTimeout) || attempt == r.attempts || ctx.Err() != nil {
			break
		}
		r.logger.Warn("completion timed out, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return "", classify(ctx.Err())
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return "", lastErr
}
