package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/metrics"
	"github.com/quizforge/backend/pkg/queue"
	"github.com/quizforge/backend/pkg/storage"
)

// Jobs is the part of the job queue the cleaner consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ArtifactCleaner removes upload artifacts whose inline deletion failed.
type ArtifactCleaner struct {
	artifacts storage.Artifacts
	jobs      Jobs
	backoff   time.Duration
	logger    *zap.Logger
}

// NewArtifactCleaner creates a cleaner over the given artifact store.
func NewArtifactCleaner(artifacts storage.Artifacts, jobs Jobs, logger *zap.Logger) *ArtifactCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactCleaner{artifacts: artifacts, jobs: jobs, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one cleanup job.
func (p *ArtifactCleaner) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeArtifactCleanup {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ArtifactCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Key == "" {
		return fmt.Errorf("job %s has no key", job.ID)
	}
	if err := p.artifacts.Delete(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete %s: %w", payload.Key, err)
	}
	metrics.ArtifactCleanup.WithLabelValues("worker").Inc()
	p.logger.Info("upload artifact removed", zap.String("key", payload.Key), zap.String("user_id", payload.UserID.String()))
	return nil
}

// Run dequeues and processes jobs until ctx is done. Failed jobs are retried and
// dead-lettered after queue.MaxRetries attempts.
func (p *ArtifactCleaner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("artifact cleaner stopping")
			return
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ArtifactCleaner) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
