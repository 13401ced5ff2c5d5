package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/recurrence"
	"github.com/mydailyops/dailyops-api/internal/repository"
)

// ensureSearchBound caps how many rule steps the active-occurrence search
// walks forward from a stale anchor before declaring the rule exhausted.
const ensureSearchBound = 1000

// LifecycleService keeps templates and their generated instances consistent:
// at any time a template has at most one non-completed instance with a
// current-or-future deadline (the active occurrence), template edits retire
// only future incomplete instances, and template deletion cascades.
type LifecycleService struct {
	repo   repository.TaskRepository
	gen    *recurrence.Generator
	logger *slog.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

func NewLifecycleService(repo repository.TaskRepository, logger *slog.Logger) *LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleService{
		repo:   repo,
		gen:    recurrence.NewGenerator(logger),
		logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// Generate computes a template's instance batch without persisting anything.
func (s *LifecycleService) Generate(tpl model.Task) []model.Task {
	s.gen.Now = s.Now
	return s.gen.Generate(tpl)
}

// EnsureActiveOccurrence materializes the template's next instance unless an
// active one already exists in the given snapshot. Idempotent: a second call
// with the same snapshot creates nothing. The snapshot must be freshly loaded
// by the caller; a stale one can create duplicates.
func (s *LifecycleService) EnsureActiveOccurrence(ctx context.Context, tpl model.Task, existing []model.Task) (*model.Task, error) {
	if !tpl.IsTemplate() {
		return nil, nil
	}
	today := model.DateOf(s.Now())

	for _, t := range existing {
		if !t.IsInstanceOf(tpl) || t.DeletedAt != nil {
			continue
		}
		if t.Status == model.TaskStatusDone {
			continue
		}
		if day := t.DeadlineDay(); day != nil && !day.Before(today) {
			// Active occurrence already present.
			return nil, nil
		}
	}

	next, ok := s.nextOccurrenceDate(tpl, today)
	if !ok {
		s.logger.Info("recurrence rule exhausted, no occurrence created",
			"template_id", tpl.ID, "kind", tpl.Recurrence.Kind)
		return nil, nil
	}

	inst := recurrence.NewInstance(tpl, next)
	inst.ID = s.NewID()

	created, err := s.repo.Upsert(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("failed to persist occurrence: %w", err)
	}
	return &created, nil
}

// nextOccurrenceDate walks the rule forward from the template's anchor until
// it reaches a today-or-future date.
func (s *LifecycleService) nextOccurrenceDate(tpl model.Task, today model.Date) (time.Time, bool) {
	anchor := s.Now()
	if tpl.Deadline != nil {
		anchor = *tpl.Deadline
	}

	cur := anchor
	for i := 0; i < ensureSearchBound; i++ {
		next, ok := recurrence.NextDate(*tpl.Recurrence, cur)
		if !ok {
			return time.Time{}, false
		}
		if !model.DateOf(next).Before(today) {
			return next, true
		}
		cur = next
	}
	return time.Time{}, false
}

// DeleteFutureInstances removes the template's incomplete instances whose
// deadline day is strictly after today. Overdue and completed instances are
// never touched, so missed occurrences stay in front of the user.
func (s *LifecycleService) DeleteFutureInstances(ctx context.Context, tpl model.Task) (int, error) {
	tasks, err := s.repo.ListByUser(ctx, tpl.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tasks: %w", err)
	}

	today := model.DateOf(s.Now())
	deleted := 0
	for _, t := range tasks {
		if t.IsTemplate() || t.TemplateID != tpl.ID || t.DeletedAt != nil {
			continue
		}
		if t.UserID != tpl.UserID {
			s.logger.Warn("skipping instance with mismatched owner",
				"instance_id", t.ID, "template_id", tpl.ID)
			continue
		}
		if t.Status == model.TaskStatusDone {
			continue
		}
		day := t.DeadlineDay()
		if day == nil || !day.After(today) {
			continue
		}
		if err := s.repo.Delete(ctx, t.UserID, t.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete instance %s: %w", t.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// DeleteAllInstances removes every instance of the template regardless of
// date or status. Ownership is re-validated per instance: a structurally
// matched row belonging to another user is skipped and logged, never deleted.
func (s *LifecycleService) DeleteAllInstances(ctx context.Context, tpl model.Task) (int, error) {
	tasks, err := s.repo.ListByUser(ctx, tpl.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tasks: %w", err)
	}

	deleted := 0
	for _, t := range tasks {
		if t.IsTemplate() || t.TemplateID != tpl.ID {
			continue
		}
		if t.UserID != tpl.UserID {
			s.logger.Warn("skipping instance with mismatched owner",
				"instance_id", t.ID, "template_id", tpl.ID)
			continue
		}
		if err := s.repo.Delete(ctx, t.UserID, t.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete instance %s: %w", t.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// OnTemplateCreated runs after a new template is persisted.
func (s *LifecycleService) OnTemplateCreated(ctx context.Context, tpl model.Task) (*model.Task, error) {
	existing, err := s.repo.ListByUser(ctx, tpl.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return s.EnsureActiveOccurrence(ctx, tpl, existing)
}

// OnTemplateEdited runs after a template's scheduling fields change. Future
// instances must be deleted before the ensure pass, or the scan would count
// an about-to-be-deleted instance as the active occurrence.
func (s *LifecycleService) OnTemplateEdited(ctx context.Context, tpl model.Task) (*model.Task, error) {
	if _, err := s.DeleteFutureInstances(ctx, tpl); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListByUser(ctx, tpl.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return s.EnsureActiveOccurrence(ctx, tpl, existing)
}

// OnTemplateDeleted cascades: every instance first, then the template itself.
func (s *LifecycleService) OnTemplateDeleted(ctx context.Context, tpl model.Task) error {
	if _, err := s.DeleteAllInstances(ctx, tpl); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tpl.UserID, tpl.ID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// Sweep re-checks the active-occurrence invariant for every template of every
// user. The scheduler runs it periodically so a completed instance is
// eventually replaced by the next occurrence.
func (s *LifecycleService) Sweep(ctx context.Context) error {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, userID := range userIDs {
		tasks, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load tasks for user %s: %w", userID, err)
		}
		for _, t := range tasks {
			if !t.IsTemplate() || t.DeletedAt != nil {
				continue
			}
			if _, err := s.EnsureActiveOccurrence(ctx, t, tasks); err != nil {
				return err
			}
		}
	}
	return nil
}
