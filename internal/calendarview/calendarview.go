// Package calendarview decides which tasks render on which calendar days.
// All calendar views (day, week, month, year) and the Today/Upcoming filters
// run the same visibility-window test; the only difference is the query range.
package calendarview

import (
	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/visibility"
)

// Intersects is the inclusive interval-overlap test between a visibility
// window and a query range. A nil window bound extends to infinity on that
// side; a fully open window overlaps every range.
func Intersects(from, until *model.Date, rangeStart, rangeEnd model.Date) bool {
	if from != nil && from.After(rangeEnd) {
		return false
	}
	if until != nil && until.Before(rangeStart) {
		return false
	}
	return true
}

// TasksForRange filters tasks down to those that can appear somewhere in
// [start, end]: owned by userID, not a template, not soft-deleted, not done
// unless includeCompleted, and with a window overlapping the range.
func TasksForRange(tasks []model.Task, start, end model.Date, includeCompleted bool, userID string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.UserID != userID || t.IsTemplate() || t.DeletedAt != nil {
			continue
		}
		if !includeCompleted && t.Status == model.TaskStatusDone {
			continue
		}
		if !Intersects(t.VisibleFrom, t.VisibleUntil, start, end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Entry is one task's appearance on one day. DayIndex/TotalDays describe the
// day's 1-based position within the task's own window (for span context in
// the UI), clamped to the window even when the query range is narrower. Both
// are zero when the window is open on either side: an unbounded span has no
// meaningful position.
type Entry struct {
	Task      model.Task `json:"task"`
	DayIndex  int        `json:"day_index"`
	TotalDays int        `json:"total_days"`
}

// DayBucket holds every task visible on one calendar day.
type DayBucket struct {
	Day     model.Date `json:"day"`
	Entries []Entry    `json:"entries"`
}

// GroupByDay buckets tasks per calendar day over the inclusive [start, end]
// range. A task spanning N days of the range appears in N buckets.
func GroupByDay(tasks []model.Task, start, end model.Date) []DayBucket {
	if end.Before(start) {
		return nil
	}

	var buckets []DayBucket
	for day := start; !day.After(end); day = day.AddDays(1) {
		bucket := DayBucket{Day: day, Entries: []Entry{}}
		for _, t := range tasks {
			if !visibility.IsVisible(t.VisibleFrom, t.VisibleUntil, day) {
				continue
			}
			idx, total := spanPosition(t.VisibleFrom, t.VisibleUntil, day)
			bucket.Entries = append(bucket.Entries, Entry{Task: t, DayIndex: idx, TotalDays: total})
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func spanPosition(from, until *model.Date, day model.Date) (idx, total int) {
	if from == nil || until == nil {
		return 0, 0
	}
	total = from.DaysUntil(*until) + 1
	idx = from.DaysUntil(day) + 1
	if idx < 1 {
		idx = 1
	}
	if idx > total {
		idx = total
	}
	return idx, total
}
