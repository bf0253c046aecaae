package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Task states.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

const defaultMaxAttempts = 3

// retryDelay is the wait before retry number attempt: 2s, 4s, 8s and so on.
func retryDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// EnqueueTask inserts a pending task. MaxAttempts defaults to 3 and a zero
// RunAfter makes the task due immediately.
func (s *Store) EnqueueTask(ctx context.Context, task Task) error {
	now := time.Now().UTC()
	runAfter := task.RunAfter
	if runAfter.IsZero() {
		runAfter = now
	}
	if task.MaxAttempts == 0 {
		task.MaxAttempts = defaultMaxAttempts
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		task.ID, task.Type, task.PayloadJSON, TaskPending, task.MaxAttempts,
		formatTime(runAfter), formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s task: %w", task.Type, err)
	}
	return nil
}

// ClaimNextTask marks the oldest due pending task of one of the given types
// as running and returns it. Returns nil, nil when nothing is due.
func (s *Store) ClaimNextTask(ctx context.Context, types []string) (*Task, error) {
	if len(types) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	args := []any{TaskPending, formatTime(now)}
	for _, t := range types {
		args = append(args, t)
	}
	query := `SELECT id, type, payload_json, attempts, max_attempts, run_after, created_at, last_error
		FROM tasks
		WHERE status = ? AND run_after <= ? AND type IN (?` + strings.Repeat(",?", len(types)-1) + `)
		ORDER BY run_after ASC, created_at ASC
		LIMIT 1`

	var task *Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var t Task
		var runAfter, createdAt string
		var lastError sql.NullString
		err := tx.QueryRowContext(ctx, query, args...).Scan(
			&t.ID, &t.Type, &t.PayloadJSON, &t.Attempts, &t.MaxAttempts,
			&runAfter, &createdAt, &lastError,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("selecting next task: %w", err)
		}

		res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			TaskRunning, formatTime(now), t.ID, TaskPending)
		if err != nil {
			return fmt.Errorf("marking task %s running: %w", t.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return err
		}

		if t.RunAfter, err = parseTime(runAfter); err != nil {
			return fmt.Errorf("task %s run_after: %w", t.ID, err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("task %s created_at: %w", t.ID, err)
		}
		t.Status = TaskRunning
		t.UpdatedAt = now
		t.LastError = lastError.String
		task = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marks a task completed.
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		TaskCompleted, formatTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailTask records a failed attempt. The task is retried with exponential
// backoff until max_attempts is reached, then marked failed.
func (s *Store) FailTask(ctx context.Context, id string, errMsg string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var attempts, maxAttempts int
		err := tx.QueryRowContext(ctx, `SELECT attempts, max_attempts FROM tasks WHERE id = ?`, id).Scan(&attempts, &maxAttempts)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		attempts++
		if attempts >= maxAttempts {
			_, err = tx.ExecContext(ctx, `UPDATE tasks SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
				TaskFailed, attempts, errMsg, formatTime(now), id)
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET status = ?, attempts = ?, last_error = ?, run_after = ?, updated_at = ? WHERE id = ?`,
			TaskPending, attempts, errMsg, formatTime(now.Add(retryDelay(attempts))), formatTime(now), id)
		return err
	})
}

// RequeueRunningTasks returns tasks left running by a process that stopped
// mid-task to the pending state. Attempts are not counted. Returns the
// number of tasks requeued.
func (s *Store) RequeueRunningTasks(ctx context.Context) (int, error) {
	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, run_after = ?, updated_at = ? WHERE status = ?`,
		TaskPending, now, now, TaskRunning)
	if err != nil {
		return 0, fmt.Errorf("requeueing running tasks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
