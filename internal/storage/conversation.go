package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// --- Embedding cache ---

// GetEmbedding returns the cached vector for a content hash, or ErrNotFound.
func (s *Store) GetEmbedding(ctx context.Context, hash string) (EmbeddingRecord, error) {
	var rec EmbeddingRecord
	var blob []byte
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT content_hash, vector, source_id, created_at FROM embedding_cache WHERE content_hash = ?`, hash,
	).Scan(&rec.ContentHash, &blob, &rec.SourceID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return EmbeddingRecord{}, ErrNotFound
	}
	if err != nil {
		return EmbeddingRecord{}, err
	}
	if rec.Vector, err = decodeFloat32s(blob); err != nil {
		return EmbeddingRecord{}, fmt.Errorf("decoding vector for %s: %w", hash, err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return EmbeddingRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return rec, nil
}

// InsertEmbedding stores rec unless a record with the same hash exists.
// Existing records are never overwritten. Reports whether a row was created.
func (s *Store) InsertEmbedding(ctx context.Context, rec EmbeddingRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (content_hash, vector, source_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		rec.ContentHash, encodeFloat32s(rec.Vector), rec.SourceID, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountEmbeddings returns the number of cached vectors.
func (s *Store) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&n)
	return n, err
}

// --- Chat turns ---

// AppendChatTurn inserts an audit record. Turns are never updated.
func (s *Store) AppendChatTurn(ctx context.Context, t ChatTurn) error {
	metadata := t.MetadataJSON
	if metadata == "" {
		metadata = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, user_id, role, input, output, intent, metadata_json, latency_ms, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Role, t.Input, t.Output, t.Intent, metadata, t.LatencyMs,
		boolToInt(t.Success), t.Error, formatTime(t.CreatedAt),
	)
	return err
}

// RecentChatTurns returns the user's last n turns ordered oldest first.
func (s *Store) RecentChatTurns(ctx context.Context, userID string, n int) ([]ChatTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, input, output, intent, metadata_json, latency_ms, success, error, created_at
		FROM chat_turns WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var success int
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Input, &t.Output, &t.Intent, &t.MetadataJSON,
			&t.LatencyMs, &success, &t.Error, &createdAt); err != nil {
			return nil, err
		}
		t.Success = success == 1
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
