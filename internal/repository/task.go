package repository

import (
	"context"

	"github.com/mydailyops/dailyops-api/internal/model"
)

// TaskRepository is the storage collaborator of the recurrence core. The
// lifecycle manager never talks to a database directly; it works on snapshots
// from ListByUser and writes back through Upsert/Delete.
type TaskRepository interface {
	Upsert(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	// ListByUser returns every task row for the user, templates and
	// soft-deleted rows included; callers filter.
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error)
	// ListUserIDs feeds the periodic active-occurrence sweep.
	ListUserIDs(ctx context.Context) ([]string, error)
}
