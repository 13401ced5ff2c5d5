// Package visibility computes the inclusive day-range during which a task is
// eligible to appear in Today, Upcoming and Calendar views.
package visibility

import (
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
)

// DefaultUpcomingDays is the lookahead window for the Upcoming view.
const DefaultUpcomingDays = 7

// Calculate derives a task's visibility window.
//
// A deadline anchors the window backward: the task ramps up into visibility
// over durationDays and disappears exactly at its deadline day, never before.
// Without a deadline, a start date anchors it forward. With neither, both
// bounds are nil, meaning always visible (distinct from never visible).
// Any time-of-day on the deadline is discarded.
func Calculate(deadline *time.Time, durationDays int, startDate *model.Date) (from, until *model.Date) {
	if durationDays < 1 {
		durationDays = 1
	}

	switch {
	case deadline != nil:
		u := model.DateOf(*deadline)
		f := u.AddDays(-(durationDays - 1))
		return &f, &u
	case startDate != nil:
		f := *startDate
		u := f.AddDays(durationDays - 1)
		return &f, &u
	default:
		return nil, nil
	}
}

// IsVisible reports whether the window contains the given day. A nil bound is
// unconstrained on that side.
func IsVisible(from, until *model.Date, on model.Date) bool {
	if from != nil && on.Before(*from) {
		return false
	}
	if until != nil && on.After(*until) {
		return false
	}
	return true
}

// IsUpcoming reports whether a task will become visible within daysAhead days
// but is not visible yet: from must be strictly after today and on or before
// today+daysAhead. A task already visible today is never upcoming.
func IsUpcoming(from *model.Date, today model.Date, daysAhead int) bool {
	if from == nil {
		return false
	}
	if !from.After(today) {
		return false
	}
	return !from.After(today.AddDays(daysAhead))
}
