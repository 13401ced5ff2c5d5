package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mydailyops/dailyops-api/internal/calendarview"
	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/repository"
	"github.com/mydailyops/dailyops-api/internal/visibility"
)

// CalendarService is the read path for the calendar and Today/Upcoming views.
// It never mutates storage.
type CalendarService struct {
	repo repository.TaskRepository

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewCalendarService(repo repository.TaskRepository) *CalendarService {
	return &CalendarService{repo: repo, Now: time.Now}
}

// Range returns day-grouped view models for the inclusive [start, end] range.
func (s *CalendarService) Range(ctx context.Context, userID string, start, end model.Date, includeCompleted bool) ([]calendarview.DayBucket, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidInput)
	}

	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	eligible := calendarview.TasksForRange(tasks, start, end, includeCompleted, userID)
	return calendarview.GroupByDay(eligible, start, end), nil
}

// Today returns the user's tasks visible today, list-sorted.
func (s *CalendarService) Today(ctx context.Context, userID string, includeCompleted bool) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	today := model.DateOf(s.Now())
	var out []model.Task
	for _, t := range tasks {
		if t.IsTemplate() || t.DeletedAt != nil {
			continue
		}
		if !includeCompleted && t.Status == model.TaskStatusDone {
			continue
		}
		if visibility.IsVisible(t.VisibleFrom, t.VisibleUntil, today) {
			out = append(out, t)
		}
	}
	return model.SortTasks(out), nil
}

// Upcoming returns tasks that will become visible within daysAhead days but
// are not visible yet. Tasks already visible today are excluded by
// construction: visible and upcoming are mutually exclusive.
func (s *CalendarService) Upcoming(ctx context.Context, userID string, daysAhead int) ([]model.Task, error) {
	if daysAhead <= 0 {
		daysAhead = visibility.DefaultUpcomingDays
	}

	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	today := model.DateOf(s.Now())
	var out []model.Task
	for _, t := range tasks {
		if t.IsTemplate() || t.DeletedAt != nil || t.Status == model.TaskStatusDone {
			continue
		}
		if visibility.IsUpcoming(t.VisibleFrom, today, daysAhead) {
			out = append(out, t)
		}
	}
	return model.SortTasks(out), nil
}

// Grouped returns the flat list view: filtered, sorted, and bucketed by how
// soon each task is due.
func (s *CalendarService) Grouped(ctx context.Context, userID string, filter model.TaskFilter) (map[calendarview.DeadlineGroup][]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var visible []model.Task
	for _, t := range tasks {
		if t.IsTemplate() || t.DeletedAt != nil {
			continue
		}
		visible = append(visible, t)
	}

	visible = model.SortTasks(model.FilterTasks(visible, filter))
	return calendarview.GroupByDeadline(visible, model.DateOf(s.Now())), nil
}
