// Package sync drains the offline cache's pending-update queue into the
// remote store. The transport itself is an external collaborator; this
// package only defines the seam and the drain loop.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/repository"
)

// Remote is the cloud side of the local-cache-plus-cloud model.
type Remote interface {
	UpsertTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// Syncer pushes queued local changes to the remote store. A failed push is a
// "will sync later" state, not an error: the change is re-queued and the rest
// of the batch still goes out.
type Syncer struct {
	cache  *repository.SQLiteCache
	remote Remote
	logger *slog.Logger
}

func NewSyncer(cache *repository.SQLiteCache, remote Remote, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{cache: cache, remote: remote, logger: logger}
}

// Flush drains the queue once. Returns how many changes were pushed.
func (s *Syncer) Flush(ctx context.Context) (int, error) {
	changes, err := s.cache.PopPending(ctx)
	if err != nil {
		return 0, err
	}

	pushed := 0
	for _, ch := range changes {
		if err := s.push(ctx, ch); err != nil {
			s.logger.Warn("push failed, change re-queued",
				"task_id", ch.TaskID, "op", ch.Op, "error", err)
			if requeueErr := s.requeue(ctx, ch); requeueErr != nil {
				return pushed, fmt.Errorf("failed to re-queue change for task %s: %w", ch.TaskID, requeueErr)
			}
			continue
		}
		pushed++
	}
	return pushed, nil
}

func (s *Syncer) push(ctx context.Context, ch repository.PendingChange) error {
	var task model.Task
	if err := json.Unmarshal([]byte(ch.Payload), &task); err != nil {
		return fmt.Errorf("corrupt pending payload: %w", err)
	}
	if ch.Op == repository.OpDelete {
		return s.remote.DeleteTask(ctx, task.UserID, task.ID)
	}
	return s.remote.UpsertTask(ctx, task)
}

func (s *Syncer) requeue(ctx context.Context, ch repository.PendingChange) error {
	var task model.Task
	if err := json.Unmarshal([]byte(ch.Payload), &task); err != nil {
		return fmt.Errorf("corrupt pending payload: %w", err)
	}
	return s.cache.Enqueue(ctx, ch.Op, task)
}
