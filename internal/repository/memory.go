package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
)

// MemoryTaskRepository is an in-memory TaskRepository. It backs deterministic
// lifecycle tests and mirrors the SQL implementations' semantics: Upsert
// fills timestamps, Delete on a missing row returns sql.ErrNoRows.
type MemoryTaskRepository struct {
	mu    sync.Mutex
	tasks map[string]model.Task

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewMemoryTask() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[string]model.Task),
		Now:   time.Now,
	}
}

func (r *MemoryTaskRepository) Upsert(_ context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	if existing, ok := r.tasks[task.ID]; ok {
		task.CreatedAt = existing.CreatedAt
	} else {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, userID, taskID string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return model.Task{}, sql.ErrNoRows
	}
	return task, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *MemoryTaskRepository) ListByUser(_ context.Context, userID string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tasks []model.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *MemoryTaskRepository) List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error) {
	all, err := r.ListByUser(ctx, params.UserID)
	if err != nil {
		return model.TaskListResult{}, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// Newest first, like the SQL ORDER BY created_at DESC.
	filtered := make([]model.Task, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		t := all[i]
		if t.DeletedAt != nil {
			continue
		}
		if !params.IncludeTemplates && t.IsTemplate() {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		filtered = append(filtered, t)
	}

	start := 0
	if params.Cursor != "" {
		for i, t := range filtered {
			if t.ID == params.Cursor {
				start = i + 1
				break
			}
		}
	}
	filtered = filtered[start:]

	var nextCursor string
	if len(filtered) > limit {
		nextCursor = filtered[limit-1].ID
		filtered = filtered[:limit]
	}
	return model.TaskListResult{Tasks: filtered, NextCursor: nextCursor}, nil
}

func (r *MemoryTaskRepository) ListUserIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var ids []string
	for _, t := range r.tasks {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ TaskRepository = (*MemoryTaskRepository)(nil)
