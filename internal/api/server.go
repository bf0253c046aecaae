// Package api exposes the assistant and the matching engine over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/assistant"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Chatter answers one chat message. *assistant.Service implements it.
type Chatter interface {
	Chat(ctx context.Context, subj assistant.Subject, message string) (assistant.Reply, error)
}

// Matcher ranks postings against a resume. *matching.Service implements it.
type Matcher interface {
	MatchJobs(ctx context.Context, resumeID, subjectID string) ([]matching.MatchResult, error)
}

// Catalog stores postings and resumes and schedules their embeddings.
// *ingest.Catalog implements it.
type Catalog interface {
	AddJob(ctx context.Context, j storage.Job) (storage.Job, error)
	AddResume(ctx context.Context, r storage.Resume) (storage.Resume, error)
	ImportResume(ctx context.Context, userID, fileName string, data []byte, makeDefault bool) (storage.Resume, error)
}

// History reads past chat turns. *storage.Store implements it.
type History interface {
	RecentChatTurns(ctx context.Context, userID string, n int) ([]storage.ChatTurn, error)
}

type Deps struct {
	Assistant Chatter
	Matcher   Matcher
	Catalog   Catalog
	History   History
	Token     string
	Logger    *zap.Logger
}

// NewHandler returns the HTTP API. Everything except /health requires the
// bearer token.
func NewHandler(deps Deps) http.Handler {
	deps.Logger = logger.OrNop(deps.Logger)

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Use(WithSubject)

		r.With(RequireUser).Post("/v1/chat", handleChat(deps))
		r.With(RequireUser).Get("/v1/chat/history", handleChatHistory(deps))
		r.Get("/v1/resumes/{id}/matches", handleMatches(deps))
		r.Post("/v1/jobs", handleAddJob(deps))
		r.Post("/v1/resumes", handleAddResume(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// subject returns the caller resolved by WithSubject. Handlers are only
// mounted behind that middleware.
func subject(r *http.Request) assistant.Subject {
	subj, _ := SubjectFrom(r.Context())
	return subj
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeAppError maps a classified failure to its HTTP status. Only the
// classified message reaches the client; wrapped causes are logged.
func writeAppError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.RateLimited:
		httpError(w, http.StatusTooManyRequests, "rate_limit_error", "Too many requests. Please slow down.")
	case apperr.DataMissing:
		httpError(w, http.StatusNotFound, "not_found_error", "%s", publicMessage(err, "not found"))
	case apperr.PermissionDenied:
		httpError(w, http.StatusForbidden, "permission_error", "%s", publicMessage(err, "permission denied"))
	case apperr.UpstreamUnavailable, apperr.UpstreamInvalid:
		log.Warn("upstream failure", zap.Error(err))
		httpError(w, http.StatusBadGateway, "api_error", "upstream service failed")
	default:
		log.Error("request failed", zap.Error(err))
		httpError(w, http.StatusInternalServerError, "api_error", "internal error")
	}
}

func publicMessage(err error, fallback string) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
