package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/repository"
	"github.com/mydailyops/dailyops-api/internal/visibility"
)

// deadline formats accepted on the wire, tried in order. Dates are naive
// local calendar time; offsets in RFC3339 input are kept verbatim but never
// converted.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	model.DateLayout,
}

// parseDeadline parses a deadline string into *time.Time.
// Returns nil if input is nil.
func parseDeadline(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid deadline format, expected RFC3339 or YYYY-MM-DD", ErrInvalidInput)
}

func parseStartDate(s *string) (*model.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := model.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &d, nil
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Priority     string
	Category     string
	Pinned       bool
	Deadline     *string // parsed with parseDeadline
	StartDate    *string // YYYY-MM-DD
	DurationDays int
	Recurrence   *model.RecurrenceRule
}

type UpdateTaskInput struct {
	Title           *string
	Description     *string
	Priority        *string
	Category        *string
	Pinned          *bool
	Deadline        *string
	StartDate       *string
	DurationDays    *int
	Recurrence      *model.RecurrenceRule
	ClearRecurrence bool
}

// TaskService is the write path for tasks. Every create/update recomputes the
// visibility window, and template writes are routed through the lifecycle
// manager so the active-occurrence invariant holds across edits.
type TaskService struct {
	repo      repository.TaskRepository
	lifecycle *LifecycleService

	// NewID is overridable for tests; defaults to uuid.NewString.
	NewID func() string
}

func NewTaskService(repo repository.TaskRepository, lifecycle *LifecycleService) *TaskService {
	return &TaskService{repo: repo, lifecycle: lifecycle, NewID: uuid.NewString}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (model.Task, error) {
	if input.Title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	priority := model.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, input.Priority)
	}

	deadline, err := parseDeadline(input.Deadline)
	if err != nil {
		return model.Task{}, err
	}
	startDate, err := parseStartDate(input.StartDate)
	if err != nil {
		return model.Task{}, err
	}

	if input.Recurrence != nil {
		if err := input.Recurrence.Validate(); err != nil {
			return model.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	task := model.Task{
		ID:           s.NewID(),
		UserID:       userID,
		Title:        input.Title,
		Description:  input.Description,
		Priority:     priority,
		Category:     input.Category,
		Status:       model.TaskStatusPending,
		Pinned:       input.Pinned,
		Deadline:     deadline,
		StartDate:    startDate,
		DurationDays: input.DurationDays,
		Recurrence:   input.Recurrence,
	}
	if task.DurationDays < 1 {
		task.DurationDays = 1
	}
	task.VisibleFrom, task.VisibleUntil = visibility.Calculate(task.Deadline, task.DurationDays, task.StartDate)

	created, err := s.repo.Upsert(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	if created.IsTemplate() {
		if _, err := s.lifecycle.OnTemplateCreated(ctx, created); err != nil {
			return model.Task{}, err
		}
	}
	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (model.Task, error) {
	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for update: %w", err)
	}

	wasTemplate := existing.IsTemplate()
	schedulingChanged := false

	if input.Title != nil {
		if *input.Title == "" {
			return model.Task{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		existing.Title = *input.Title
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Priority != nil {
		p := model.TaskPriority(*input.Priority)
		if !p.IsValid() {
			return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *input.Priority)
		}
		existing.Priority = p
	}
	if input.Category != nil {
		existing.Category = *input.Category
	}
	if input.Pinned != nil {
		existing.Pinned = *input.Pinned
	}
	if input.Deadline != nil {
		deadline, err := parseDeadline(input.Deadline)
		if err != nil {
			return model.Task{}, err
		}
		existing.Deadline = deadline
		schedulingChanged = true
	}
	if input.StartDate != nil {
		startDate, err := parseStartDate(input.StartDate)
		if err != nil {
			return model.Task{}, err
		}
		existing.StartDate = startDate
		schedulingChanged = true
	}
	if input.DurationDays != nil {
		d := *input.DurationDays
		if d < 1 {
			d = 1
		}
		existing.DurationDays = d
		schedulingChanged = true
	}
	if input.ClearRecurrence {
		existing.Recurrence = nil
		schedulingChanged = true
	} else if input.Recurrence != nil {
		if err := input.Recurrence.Validate(); err != nil {
			return model.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		existing.Recurrence = input.Recurrence
		schedulingChanged = true
	}

	existing.VisibleFrom, existing.VisibleUntil = visibility.Calculate(
		existing.Deadline, existing.EffectiveDuration(), existing.StartDate)

	updated, err := s.repo.Upsert(ctx, existing)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	// A scheduling change on a template invalidates its future instances.
	// The demoted-template case (recurrence cleared) still retires them; the
	// ensure pass is a no-op for a non-template.
	if wasTemplate && schedulingChanged {
		if _, err := s.lifecycle.OnTemplateEdited(ctx, updated); err != nil {
			return model.Task{}, err
		}
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get task for delete: %w", err)
	}

	if existing.IsTemplate() {
		return s.lifecycle.OnTemplateDeleted(ctx, existing)
	}

	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID string, status model.TaskStatus) (model.Task, error) {
	if !status.IsValid() {
		return model.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}

	existing, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, fmt.Errorf("failed to get task for status update: %w", err)
	}

	existing.Status = status

	updated, err := s.repo.Upsert(ctx, existing)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to update task status: %w", err)
	}

	// Completing an instance does not regenerate here; the periodic sweep
	// picks the template up and materializes the next occurrence.
	return updated, nil
}

func (s *TaskService) List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return model.TaskListResult{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return result, nil
}
