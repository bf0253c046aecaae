// Package audit records one chat turn per assistant request.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

// writeTimeout bounds a single audit write. The write is detached from the
// request context so a client disconnect does not drop the record.
const writeTimeout = 5 * time.Second

// Store appends chat turns. *storage.Store implements it.
type Store interface {
	AppendChatTurn(ctx context.Context, t storage.ChatTurn) error
}

type Recorder struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewRecorder(store Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: logger.OrNop(log), now: time.Now}
}

// Record appends turn, assigning an id and timestamp when unset. Failures are
// logged and never returned.
func (r *Recorder) Record(ctx context.Context, turn storage.ChatTurn) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = r.now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	log := r.log.With(
		zap.String("turn_id", turn.ID),
		zap.String(logger.FieldSubject, turn.UserID),
		zap.String(logger.FieldIntent, turn.Intent),
	)
	if err := r.store.AppendChatTurn(ctx, turn); err != nil {
		log.Error("audit write failed", zap.Error(err))
		return
	}
	log.Debug("chat turn recorded",
		zap.Bool("success", turn.Success),
		zap.Int64("latency_ms", turn.LatencyMs),
	)
}
