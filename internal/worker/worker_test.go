package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/backend/pkg/queue"
	"github.com/quizforge/backend/pkg/storage"
)

// memJobs replays a fixed list of jobs, then cancels the run.
type memJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
	cancel  context.CancelFunc
}

func (m *memJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		m.cancel()
		return nil, nil
	}
	job := m.pending[0]
	m.pending = m.pending[1:]
	return job, nil
}

func (m *memJobs) Retry(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Attempt++
	m.retried = append(m.retried, job)
	if job.Attempt < queue.MaxRetries {
		m.pending = append(m.pending, job)
	}
	return nil
}

type flakyArtifacts struct {
	storage.Artifacts
	failures int
	deleted  []string
}

func (f *flakyArtifacts) Delete(_ context.Context, key string) error {
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return errors.New("permission denied")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func cleanupJob(t *testing.T, key string) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeArtifactCleanup, queue.ArtifactCleanupPayload{Key: key, UserID: uuid.New()})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

func TestProcessRemovesArtifact(t *testing.T) {
	disk, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	ctx := context.Background()
	if err := disk.Put(ctx, "uploads/u/notes.txt", "text/plain", strings.NewReader("photosynthesis"), 14); err != nil {
		t.Fatalf("Put: %v", err)
	}

	cleaner := NewArtifactCleaner(disk, nil, nil)
	if err := cleaner.Process(ctx, cleanupJob(t, "uploads/u/notes.txt")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := disk.Open(ctx, "uploads/u/notes.txt"); !errors.Is(err, storage.ErrArtifactNotFound) {
		t.Fatalf("Open after cleanup err = %v", err)
	}
}

func TestProcessRejectsForeignJobs(t *testing.T) {
	cleaner := NewArtifactCleaner(&flakyArtifacts{}, nil, nil)
	if err := cleaner.Process(context.Background(), &queue.Job{ID: "1", Type: "recording_upload"}); err == nil {
		t.Fatal("expected unknown job type error")
	}
	if err := cleaner.Process(context.Background(), &queue.Job{ID: "2", Type: queue.JobTypeArtifactCleanup, Payload: []byte("{")}); err == nil {
		t.Fatal("expected payload error")
	}
}

func TestRunRetriesUntilSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := &memJobs{pending: []*queue.Job{cleanupJob(t, "uploads/u/a.pdf")}, cancel: cancel}
	artifacts := &flakyArtifacts{failures: 1}

	cleaner := NewArtifactCleaner(artifacts, jobs, nil)
	cleaner.backoff = time.Millisecond
	cleaner.Run(ctx)

	if len(jobs.retried) != 1 || len(artifacts.deleted) != 1 || artifacts.deleted[0] != "uploads/u/a.pdf" {
		t.Fatalf("retried=%d deleted=%v", len(jobs.retried), artifacts.deleted)
	}
}

func TestRunGivesUpAfterMaxRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := &memJobs{pending: []*queue.Job{cleanupJob(t, "uploads/u/b.pdf")}, cancel: cancel}
	artifacts := &flakyArtifacts{failures: -1}

	cleaner := NewArtifactCleaner(artifacts, jobs, nil)
	cleaner.backoff = time.Millisecond
	cleaner.Run(ctx)

	if len(jobs.retried) != queue.MaxRetries || len(artifacts.deleted) != 0 {
		t.Fatalf("retried=%d deleted=%v", len(jobs.retried), artifacts.deleted)
	}
}
