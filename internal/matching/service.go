package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

// TopK is the maximum number of matches returned.
const TopK = 10

// Store is the read side MatchJobs needs. *storage.Store implements it.
type Store interface {
	GetResume(ctx context.Context, id string) (storage.Resume, error)
	ActiveJobsWithEmbedding(ctx context.Context) ([]storage.Job, error)
}

// MatchResult is one ranked posting.
type MatchResult struct {
	JobID      string  `json:"jobId"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Location   string  `json:"location"`
	MatchScore float64 `json:"matchScore"`
	Rank       int     `json:"-"`
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log)}
}

// MatchJobs ranks active postings against the subject's resume. The resume
// must belong to subjectID and already carry an embedding; no ranking is
// produced otherwise.
func (s *Service) MatchJobs(ctx context.Context, resumeID, subjectID string) ([]MatchResult, error) {
	start := time.Now()

	resume, err := s.store.GetResume(ctx, resumeID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && resume.UserID != subjectID) {
		return nil, apperr.New(apperr.DataMissing, "match jobs", "resume not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading resume %s: %w", resumeID, err)
	}
	if len(resume.Embedding) == 0 {
		return nil, apperr.New(apperr.DataMissing, "match jobs", "resume has no embedding; try uploading it again")
	}

	jobs, err := s.store.ActiveJobsWithEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active jobs: %w", err)
	}

	candidates := make([]Candidate, len(jobs))
	for i, j := range jobs {
		candidates[i] = Candidate{ID: j.ID, Vector: j.Embedding}
	}
	ranked := Rank(resume.Embedding, candidates, TopK)

	results := make([]MatchResult, len(ranked))
	for i, r := range ranked {
		j := jobs[r.Index]
		results[i] = MatchResult{
			JobID:      j.ID,
			Title:      j.Title,
			Company:    j.Company,
			Location:   j.Location,
			MatchScore: r.Score,
			Rank:       r.Index,
		}
	}

	s.log.Debug("jobs matched",
		zap.String("resume_id", resumeID),
		zap.Int("candidates", len(jobs)),
		zap.Int("returned", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}
