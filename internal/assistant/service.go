// Package assistant answers chat messages: it gates requests per subject,
// asks the language model for a structured intent, routes the intent to the
// data it needs and records every exchange.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/engine"
	"github.com/kalambet/jobassist/internal/intent"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

const (
	DefaultMaxResults   = 20
	DefaultModelTimeout = 30 * time.Second
)

// Store is the read side of the job portal the assistant consults.
// *storage.Store implements it.
type Store interface {
	ActiveJobs(ctx context.Context, limit int) ([]storage.Job, error)
	JobsByLocation(ctx context.Context, location string, limit int) ([]storage.Job, error)
	JobsByType(ctx context.Context, jobType string, limit int) ([]storage.Job, error)
	JobsByFilters(ctx context.Context, location, jobType string, limit int) ([]storage.Job, error)
	AllJobs(ctx context.Context) ([]storage.Job, error)
	GetJob(ctx context.Context, id string) (storage.Job, error)
	DefaultResume(ctx context.Context, userID string) (storage.Resume, error)
	ApplicationsByApplicant(ctx context.Context, applicantID string) ([]storage.ApplicationView, error)
	UsersByRole(ctx context.Context, role string) ([]storage.User, error)
	RecentChatTurns(ctx context.Context, userID string, n int) ([]storage.ChatTurn, error)
}

// Embeddings returns the vector for a text. *embedcache.Cache implements it.
type Embeddings interface {
	GetOrCreate(ctx context.Context, text, sourceID string) ([]float32, error)
}

// Limiter admits or rejects a subject's request. *ratelimit.Limiter
// implements it.
type Limiter interface {
	Allow(subject string) bool
}

// Recorder stores one audit record per chat call and never fails.
// *audit.Recorder implements it.
type Recorder interface {
	Record(ctx context.Context, turn storage.ChatTurn)
}

// Config tunes the assistant. Zero values select defaults.
type Config struct {
	MaxResults   int
	ModelTimeout time.Duration
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store      Store
	Embeddings Embeddings
	Completer  engine.Completer
	Limiter    Limiter
	Recorder   Recorder
	Logger     *zap.Logger
}

type Service struct {
	store      Store
	embeddings Embeddings
	completer  engine.Completer
	limiter    Limiter
	recorder   Recorder
	cfg        Config
	log        *zap.Logger
}

func New(d Deps, cfg Config) *Service {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	return &Service{
		store:      d.Store,
		embeddings: d.Embeddings,
		completer:  d.Completer,
		limiter:    d.Limiter,
		recorder:   d.Recorder,
		cfg:        cfg,
		log:        logger.OrNop(d.Logger),
	}
}

// Chat answers one message. The only error it returns is RateLimited, raised
// before any model call and without an audit record. Every other failure,
// including a panic in the pipeline, degrades to the fallback reply, and
// exactly one chat turn is recorded per admitted call.
func (s *Service) Chat(ctx context.Context, subj Subject, message string) (reply Reply, err error) {
	if !s.limiter.Allow(subj.ID) {
		s.log.Warn("chat rate limited", zap.String(logger.FieldSubject, subj.ID))
		return Reply{}, apperr.New(apperr.RateLimited, "chat", "too many requests")
	}

	start := time.Now()
	var failure error
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("panic: %v", r)
			s.log.Error("chat pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			reply = s.Fallback(ctx, message)
		}
		s.record(ctx, subj, message, reply, failure, time.Since(start))
	}()

	reply, failure = s.respond(ctx, subj, message)
	if failure != nil && !errors.Is(failure, apperr.ErrPermissionDenied) {
		s.log.Warn("chat degraded to fallback",
			zap.String(logger.FieldSubject, subj.ID),
			zap.String("kind", apperr.KindOf(failure).String()),
			zap.Error(failure),
		)
		reply = s.Fallback(ctx, message)
	}
	return reply, nil
}

func (s *Service) respond(ctx context.Context, subj Subject, message string) (Reply, error) {
	in := intent.PromptInput{
		Role:    strings.ToUpper(subj.Role),
		Message: message,
	}
	// Anonymous ids are shared per host; their turns belong to nobody.
	if !subj.Anonymous() {
		in.History = s.history(ctx, subj.ID)
		in.Context = s.userContext(ctx, subj, message)
	}
	prompt := intent.BuildPrompt(in)

	mctx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.completer.Complete(mctx, engine.Request{
		System:      prompt.System,
		Prompt:      prompt.User,
		Temperature: prompt.Temperature,
		JSON:        true,
	})
	if err != nil {
		return Reply{}, apperr.Upstream("complete", err)
	}
	s.log.Debug("model replied",
		zap.String(logger.FieldProvider, s.completer.Name()),
		zap.Float64("temperature", prompt.Temperature),
		zap.Duration("duration", time.Since(start)),
	)

	resp, err := intent.Validate(raw)
	if err != nil {
		s.log.Debug("model reply rejected", zap.String("raw", logger.TruncateForLog(raw, 200)))
		return Reply{}, err
	}
	return s.route(ctx, subj, resp)
}

// history returns the subject's last turns, oldest first. A lookup failure
// yields an empty history.
func (s *Service) history(ctx context.Context, subjectID string) []intent.Turn {
	turns, err := s.store.RecentChatTurns(ctx, subjectID, intent.HistoryTurns)
	if err != nil {
		s.log.Warn("loading chat history", zap.String(logger.FieldSubject, subjectID), zap.Error(err))
		return nil
	}
	out := make([]intent.Turn, len(turns))
	for i, t := range turns {
		out[i] = intent.Turn{Input: t.Input, Output: t.Output}
	}
	return out
}

func (s *Service) record(ctx context.Context, subj Subject, message string, reply Reply, failure error, elapsed time.Duration) {
	turn := storage.ChatTurn{
		UserID:       subj.ID,
		Role:         subj.Role,
		Input:        message,
		Output:       reply.Message,
		Intent:       reply.Intent.String(),
		MetadataJSON: metadataJSON(reply.Metadata),
		LatencyMs:    elapsed.Milliseconds(),
		Success:      failure == nil,
	}
	if failure != nil {
		turn.Error = failure.Error()
	}
	s.recorder.Record(ctx, turn)

	s.log.Info("chat handled",
		zap.String(logger.FieldSubject, subj.ID),
		zap.String(logger.FieldIntent, turn.Intent),
		zap.Bool("success", turn.Success),
		zap.Duration("duration", elapsed),
	)
}

func metadataJSON(md intent.Metadata) string {
	if md == nil {
		return "{}"
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "{}"
	}
	return string(b)
}
