package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/repository"
)

func newMemory(t *testing.T) *repository.MemoryTaskRepository {
	t.Helper()
	repo := repository.NewMemoryTask()
	// Deterministic, strictly increasing timestamps.
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	n := 0
	repo.Now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return repo
}

func TestMemory_UpsertSetsTimestamps(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, model.Task{ID: "t1", UserID: "u1", Title: "first"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	updated, err := repo.Upsert(ctx, model.Task{ID: "t1", UserID: "u1", Title: "renamed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt must be preserved on update")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt must advance on update")
	}
}

func TestMemory_GetByID(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, model.Task{ID: "t1", UserID: "u1", Title: "mine"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("got title %q, want %q", got.Title, "mine")
	}

	if _, err := repo.GetByID(ctx, "u2", "t1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for foreign owner, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "u1", "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for missing task, got %v", err)
	}
}

func TestMemory_Delete(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, model.Task{ID: "t1", UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.Delete(ctx, "u2", "t1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for foreign owner, got %v", err)
	}
	if err := repo.Delete(ctx, "u1", "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, "u1", "t1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows on second delete, got %v", err)
	}
}

func TestMemory_ListByUser(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	for _, task := range []model.Task{
		{ID: "t1", UserID: "u1"},
		{ID: "t2", UserID: "u1"},
		{ID: "other", UserID: "u2"},
	} {
		if _, err := repo.Upsert(ctx, task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	tasks, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	// Oldest first.
	if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Errorf("unexpected order: %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestMemory_List(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	done := model.TaskStatusDone
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	for _, task := range []model.Task{
		{ID: "t1", UserID: "u1", Status: model.TaskStatusPending},
		{ID: "t2", UserID: "u1", Status: model.TaskStatusDone},
		{ID: "t3", UserID: "u1", Status: model.TaskStatusPending},
		{ID: "tpl", UserID: "u1", Status: model.TaskStatusPending,
			Recurrence: &model.RecurrenceRule{Kind: model.RecurrenceDaily}},
		{ID: "trashed", UserID: "u1", Status: model.TaskStatusPending, DeletedAt: &now},
	} {
		if _, err := repo.Upsert(ctx, task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("excludes templates and deleted by default", func(t *testing.T) {
		result, err := repo.List(ctx, model.TaskListParams{UserID: "u1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Newest first.
		wantIDs := []string{"t3", "t2", "t1"}
		if len(result.Tasks) != len(wantIDs) {
			t.Fatalf("expected %d tasks, got %d", len(wantIDs), len(result.Tasks))
		}
		for i, want := range wantIDs {
			if result.Tasks[i].ID != want {
				t.Errorf("tasks[%d]: got %s, want %s", i, result.Tasks[i].ID, want)
			}
		}
	})

	t.Run("status filter", func(t *testing.T) {
		result, err := repo.List(ctx, model.TaskListParams{UserID: "u1", Status: &done})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Tasks) != 1 || result.Tasks[0].ID != "t2" {
			t.Errorf("expected only t2, got %+v", result.Tasks)
		}
	})

	t.Run("include templates", func(t *testing.T) {
		result, err := repo.List(ctx, model.TaskListParams{UserID: "u1", IncludeTemplates: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Tasks) != 4 {
			t.Errorf("expected 4 tasks, got %d", len(result.Tasks))
		}
	})

	t.Run("cursor pagination", func(t *testing.T) {
		first, err := repo.List(ctx, model.TaskListParams{UserID: "u1", Limit: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Tasks) != 2 || first.NextCursor == "" {
			t.Fatalf("expected 2 tasks and a cursor, got %+v", first)
		}

		second, err := repo.List(ctx, model.TaskListParams{UserID: "u1", Limit: 2, Cursor: first.NextCursor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(second.Tasks) != 1 || second.NextCursor != "" {
			t.Fatalf("expected final page of 1, got %+v", second)
		}
		if second.Tasks[0].ID == first.Tasks[0].ID || second.Tasks[0].ID == first.Tasks[1].ID {
			t.Error("pages overlap")
		}
	})
}

func TestMemory_ListUserIDs(t *testing.T) {
	repo := newMemory(t)
	ctx := context.Background()

	for _, task := range []model.Task{
		{ID: "t1", UserID: "zoe"},
		{ID: "t2", UserID: "ann"},
		{ID: "t3", UserID: "ann"},
	} {
		if _, err := repo.Upsert(ctx, task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "ann" || ids[1] != "zoe" {
		t.Errorf("expected [ann zoe], got %v", ids)
	}
}
