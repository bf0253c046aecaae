package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kalambet/jobassist/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ChatRequest struct {
	Message string `json:"message"`
}

// TurnView is the public shape of a recorded chat turn.
type TurnView struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Intent    string    `json:"intent"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latencyMs"`
	CreatedAt time.Time `json:"createdAt"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		reply, err := deps.Assistant.Chat(r.Context(), subject(r), req.Message)
		if err != nil {
			writeAppError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func handleChatHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		turns, err := deps.History.RecentChatTurns(r.Context(), subject(r).ID, limit)
		if err != nil {
			writeAppError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, turnViews(turns))
	}
}

func turnViews(turns []storage.ChatTurn) []TurnView {
	out := make([]TurnView, len(turns))
	for i, t := range turns {
		out[i] = TurnView{
			ID:        t.ID,
			Input:     t.Input,
			Output:    t.Output,
			Intent:    t.Intent,
			Success:   t.Success,
			Error:     t.Error,
			LatencyMs: t.LatencyMs,
			CreatedAt: t.CreatedAt,
		}
	}
	return out
}
