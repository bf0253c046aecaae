package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/embedcache"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

// Task types handled by the Worker.
const (
	TaskEmbedJob    = "embed_job"
	TaskEmbedResume = "embed_resume"
)

// WorkerStore abstracts the task queue and the rows the worker updates.
type WorkerStore interface {
	ClaimNextTask(ctx context.Context, types []string) (*storage.Task, error)
	CompleteTask(ctx context.Context, id string) error
	FailTask(ctx context.Context, id string, errMsg string) error
	RequeueRunningTasks(ctx context.Context) (int, error)
	GetJob(ctx context.Context, id string) (storage.Job, error)
	GetResume(ctx context.Context, id string) (storage.Resume, error)
	SetJobEmbedding(ctx context.Context, id string, vec []float32) error
	SetResumeEmbedding(ctx context.Context, id string, vec []float32) error
	ActiveJobs(ctx context.Context, limit int) ([]storage.Job, error)
}

// Embeddings resolves text to vectors through the cache.
// *embedcache.Cache implements it.
type Embeddings interface {
	GetOrCreate(ctx context.Context, text, sourceID string) ([]float32, error)
	EmbedBatch(ctx context.Context, items []embedcache.Item) ([][]float32, error)
}

// Worker precomputes job and resume embeddings from the task queue.
type Worker struct {
	store      WorkerStore
	embeddings Embeddings
	poll       time.Duration
	log        *zap.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store WorkerStore, embeddings Embeddings, pollInterval time.Duration, log *zap.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:      store,
		embeddings: embeddings,
		poll:       pollInterval,
		log:        logger.OrNop(log),
	}
}

// Run polls for tasks until ctx is cancelled. Tasks left running by a
// previous process are requeued first.
func (w *Worker) Run(ctx context.Context) {
	if n, err := w.store.RequeueRunningTasks(ctx); err != nil {
		w.log.Error("requeueing interrupted tasks", zap.Error(err))
	} else if n > 0 {
		w.log.Info("requeued interrupted tasks", zap.Int("count", n))
	}

	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.log.Error("worker iteration failed", zap.Error(err))
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single embedding task.
// Returns true if a task was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	task, err := w.store.ClaimNextTask(ctx, []string{TaskEmbedJob, TaskEmbedResume})
	if err != nil {
		return false, fmt.Errorf("claiming task: %w", err)
	}
	if task == nil {
		return false, nil
	}

	if err := w.process(ctx, task); err != nil {
		w.log.Warn("task failed", zap.String("task_id", task.ID), zap.String("type", task.Type), zap.Error(err))
		if failErr := w.store.FailTask(ctx, task.ID, err.Error()); failErr != nil {
			w.log.Error("failed to mark task as failed", zap.String("task_id", task.ID), zap.Error(failErr))
		}
		return true, nil
	}

	if err := w.store.CompleteTask(ctx, task.ID); err != nil {
		return true, fmt.Errorf("completing task %s: %w", task.ID, err)
	}
	return true, nil
}

// Drain processes tasks until none is due and returns how many were
// handled. Failed tasks are rescheduled with backoff, so they do not keep
// the loop going.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		done, err := w.RunOnce(ctx)
		if err != nil {
			return n, err
		}
		if !done {
			return n, nil
		}
		n++
	}
}

type embedPayload struct {
	ID string `json:"id"`
}

func (w *Worker) process(ctx context.Context, task *storage.Task) error {
	var payload embedPayload
	if err := json.Unmarshal([]byte(task.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	switch task.Type {
	case TaskEmbedJob:
		job, err := w.store.GetJob(ctx, payload.ID)
		if err != nil {
			return fmt.Errorf("loading job %s: %w", payload.ID, err)
		}
		vec, err := w.embeddings.GetOrCreate(ctx, job.Description, job.ID)
		if err != nil {
			return fmt.Errorf("embedding job %s: %w", job.ID, err)
		}
		return w.store.SetJobEmbedding(ctx, job.ID, vec)

	case TaskEmbedResume:
		resume, err := w.store.GetResume(ctx, payload.ID)
		if err != nil {
			return fmt.Errorf("loading resume %s: %w", payload.ID, err)
		}
		vec, err := w.embeddings.GetOrCreate(ctx, resume.Content(), resume.ID)
		if err != nil {
			return fmt.Errorf("embedding resume %s: %w", resume.ID, err)
		}
		return w.store.SetResumeEmbedding(ctx, resume.ID, vec)

	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}

// Backfill embeds every active posting that has no vector yet, a few at a
// time, and returns how many were updated.
func (w *Worker) Backfill(ctx context.Context) (int, error) {
	jobs, err := w.store.ActiveJobs(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("listing active jobs: %w", err)
	}

	var pending []storage.Job
	var items []embedcache.Item
	for _, j := range jobs {
		if len(j.Embedding) > 0 || embedcache.Normalize(j.Description) == "" {
			continue
		}
		pending = append(pending, j)
		items = append(items, embedcache.Item{Text: j.Description, SourceID: j.ID})
	}
	if len(items) == 0 {
		return 0, nil
	}

	vecs, err := w.embeddings.EmbedBatch(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("embedding jobs: %w", err)
	}

	var errs []error
	updated := 0
	for i, j := range pending {
		if err := w.store.SetJobEmbedding(ctx, j.ID, vecs[i]); err != nil {
			errs = append(errs, fmt.Errorf("storing vector for %s: %w", j.ID, err))
			continue
		}
		updated++
	}
	w.log.Info("job embeddings backfilled", zap.Int("updated", updated), zap.Int("candidates", len(pending)))
	return updated, errors.Join(errs...)
}
