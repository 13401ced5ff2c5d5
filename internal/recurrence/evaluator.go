// Package recurrence evaluates recurrence rules and materializes task
// instances from recurring templates. All date math is timezone-naive: a
// rule advances the calendar-date part of the anchor and keeps its
// time-of-day untouched.
package recurrence

import (
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
)

// monthlyRetryBound caps the forward search for monthly-by-weekday rules
// whose occurrence does not exist in a given month (e.g. a 5th Monday).
const monthlyRetryBound = 12

// NextDate computes the first occurrence of rule strictly after anchor.
// The boolean is false when the rule yields no further date: kind none,
// a malformed rule, or a bounded search that was exhausted.
func NextDate(rule model.RecurrenceRule, anchor time.Time) (time.Time, bool) {
	switch rule.Kind {
	case model.RecurrenceDaily:
		return anchor.AddDate(0, 0, 1), true
	case model.RecurrenceInterval:
		if rule.IntervalDays < 1 {
			return time.Time{}, false
		}
		return anchor.AddDate(0, 0, rule.IntervalDays), true
	case model.RecurrenceWeekly:
		return nextWeekly(rule, anchor)
	case model.RecurrenceMonthlyDate:
		return nextMonthlyDate(rule, anchor)
	case model.RecurrenceMonthlyWeekday:
		return nextMonthlyWeekday(rule, anchor)
	default:
		return time.Time{}, false
	}
}

// NextDates applies NextDate n times, each result anchoring the next. Fewer
// than n dates are returned when the rule runs out.
func NextDates(rule model.RecurrenceRule, anchor time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	cur := anchor
	for i := 0; i < n; i++ {
		next, ok := NextDate(rule, cur)
		if !ok {
			break
		}
		dates = append(dates, next)
		cur = next
	}
	return dates
}

// DatesInRange returns every occurrence strictly after start and on or before
// end. Weekly generation is driven by a target end date rather than a count,
// because the number of matches in a window depends on how many weekdays the
// rule selects.
func DatesInRange(rule model.RecurrenceRule, start, end time.Time) []time.Time {
	var dates []time.Time
	cur := start
	for {
		next, ok := NextDate(rule, cur)
		if !ok || next.After(end) {
			return dates
		}
		dates = append(dates, next)
		cur = next
	}
}

func nextWeekly(rule model.RecurrenceRule, anchor time.Time) (time.Time, bool) {
	if len(rule.Weekdays) == 0 {
		return time.Time{}, false
	}
	d := anchor
	for i := 0; i < 7; i++ {
		d = d.AddDate(0, 0, 1)
		if rule.HasWeekday(d.Weekday()) {
			return d, true
		}
	}
	return time.Time{}, false
}

func nextMonthlyDate(rule model.RecurrenceRule, anchor time.Time) (time.Time, bool) {
	if rule.DayOfMonth < 1 || rule.DayOfMonth > 31 {
		return time.Time{}, false
	}
	target := rule.DayOfMonth
	// A clamped occurrence stays clamped: when the anchor was already pushed
	// onto its month's last day (Jan 31 rule landing on Feb 29), subsequent
	// months keep that day rather than springing back to the rule's target.
	if d := anchor.Day(); d < target && d == daysInMonth(anchor.Year(), anchor.Month()) {
		target = d
	}
	year, month := addMonths(anchor.Year(), anchor.Month(), 1)
	day := target
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return withDate(anchor, year, month, day), true
}

func nextMonthlyWeekday(rule model.RecurrenceRule, anchor time.Time) (time.Time, bool) {
	if rule.Occurrence != model.LastOccurrence && (rule.Occurrence < 1 || rule.Occurrence > 5) {
		return time.Time{}, false
	}
	for i := 1; i <= monthlyRetryBound; i++ {
		year, month := addMonths(anchor.Year(), anchor.Month(), i)
		if day, ok := nthWeekdayOfMonth(year, month, rule.Weekday, rule.Occurrence); ok {
			return withDate(anchor, year, month, day), true
		}
	}
	return time.Time{}, false
}

// nthWeekdayOfMonth finds the day-of-month of the nth (or last) weekday.
// ok is false when the month has fewer than n such weekdays.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) (int, bool) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day-of-month of the first matching weekday.
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	firstMatch := 1 + offset
	last := daysInMonth(year, month)

	if n == model.LastOccurrence {
		day := firstMatch
		for day+7 <= last {
			day += 7
		}
		return day, true
	}

	day := firstMatch + (n-1)*7
	if day > last {
		return 0, false
	}
	return day, true
}

// addMonths advances (year, month) without day normalization, so Jan 31 plus
// one month lands in February rather than overflowing into March.
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	m := int(month) - 1 + n
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return year, time.Month(m + 1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// withDate replaces the date part of t, preserving its clock time.
func withDate(t time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
