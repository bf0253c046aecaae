// Package ingest writes postings, resumes and fixtures into the store and
// keeps their embeddings up to date through the task queue.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

// CatalogStore is the write side used by Catalog. *storage.Store implements it.
type CatalogStore interface {
	SaveUser(ctx context.Context, u storage.User) error
	SaveJob(ctx context.Context, j storage.Job) error
	SaveResume(ctx context.Context, r storage.Resume) error
	SaveApplication(ctx context.Context, a storage.Application) error
	EnqueueTask(ctx context.Context, task storage.Task) error
}

// Catalog stores postings and resumes and schedules their embeddings.
type Catalog struct {
	store CatalogStore
	log   *zap.Logger
	now   func() time.Time
}

func NewCatalog(store CatalogStore, log *zap.Logger) *Catalog {
	return &Catalog{store: store, log: logger.OrNop(log), now: time.Now}
}

// AddJob saves a posting and enqueues its embedding. Missing ids and
// timestamps are filled in.
func (c *Catalog) AddJob(ctx context.Context, j storage.Job) (storage.Job, error) {
	if strings.TrimSpace(j.Title) == "" {
		return storage.Job{}, fmt.Errorf("job title is required")
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = c.now().UTC()
	}
	if j.Status == "" {
		j.Status = storage.JobStatusActive
	}
	if err := c.store.SaveJob(ctx, j); err != nil {
		return storage.Job{}, fmt.Errorf("saving job: %w", err)
	}
	if err := c.enqueue(ctx, TaskEmbedJob, j.ID); err != nil {
		return storage.Job{}, err
	}
	c.log.Debug("job added", zap.String("job_id", j.ID))
	return j, nil
}

// AddResume saves a resume and enqueues its embedding.
func (c *Catalog) AddResume(ctx context.Context, r storage.Resume) (storage.Resume, error) {
	if r.UserID == "" {
		return storage.Resume{}, fmt.Errorf("resume owner is required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = c.now().UTC()
	}
	if err := c.store.SaveResume(ctx, r); err != nil {
		return storage.Resume{}, fmt.Errorf("saving resume: %w", err)
	}
	if err := c.enqueue(ctx, TaskEmbedResume, r.ID); err != nil {
		return storage.Resume{}, err
	}
	c.log.Debug("resume added", zap.String("resume_id", r.ID), zap.Bool("parsed", r.HasParsedData()))
	return r, nil
}

func (c *Catalog) enqueue(ctx context.Context, taskType, id string) error {
	payload, err := json.Marshal(embedPayload{ID: id})
	if err != nil {
		return fmt.Errorf("encoding task payload: %w", err)
	}
	task := storage.Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		PayloadJSON: string(payload),
	}
	if err := c.store.EnqueueTask(ctx, task); err != nil {
		return fmt.Errorf("enqueueing %s for %s: %w", taskType, id, err)
	}
	return nil
}
