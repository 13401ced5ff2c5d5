package model

import (
	"fmt"
	"time"
)

type RecurrenceKind string

const (
	RecurrenceNone           RecurrenceKind = "none"
	RecurrenceDaily          RecurrenceKind = "daily"
	RecurrenceInterval       RecurrenceKind = "interval"
	RecurrenceWeekly         RecurrenceKind = "weekly"
	RecurrenceMonthlyDate    RecurrenceKind = "monthly_date"
	RecurrenceMonthlyWeekday RecurrenceKind = "monthly_weekday"
)

// LastOccurrence selects the last matching weekday of the month for
// monthly_weekday rules ("last Friday").
const LastOccurrence = -1

type PolicyUnit string

const (
	PolicyUnitDays   PolicyUnit = "days"
	PolicyUnitWeeks  PolicyUnit = "weeks"
	PolicyUnitMonths PolicyUnit = "months"
)

// GenerationPolicy bounds how far ahead occurrences are materialized from a
// template: Value×Unit from the anchor.
type GenerationPolicy struct {
	Unit  PolicyUnit `json:"unit"`
	Value int        `json:"value"`
}

// HorizonDays converts the policy into a day count. Months are approximated
// at 30 days; the approximation only bounds generation counts, it never moves
// a computed date.
func (p GenerationPolicy) HorizonDays() int {
	switch p.Unit {
	case PolicyUnitWeeks:
		return p.Value * 7
	case PolicyUnitMonths:
		return p.Value * 30
	default:
		return p.Value
	}
}

// RecurrenceRule describes how a template task repeats. Exactly one variant is
// active, selected by Kind; the sibling fields belonging to other variants are
// ignored. A nil *RecurrenceRule (or Kind none) means the task does not recur.
type RecurrenceRule struct {
	Kind RecurrenceKind `json:"kind"`

	// interval
	IntervalDays int `json:"interval_days,omitempty"`

	// weekly
	Weekdays []time.Weekday `json:"weekdays,omitempty"`

	// monthly_date
	DayOfMonth int `json:"day_of_month,omitempty"`

	// monthly_weekday
	Weekday    time.Weekday `json:"weekday,omitempty"`
	Occurrence int          `json:"occurrence,omitempty"` // 1..5 or LastOccurrence

	// Optional override of the per-variant default horizon.
	Policy *GenerationPolicy `json:"policy,omitempty"`
}

// EffectivePolicy returns the explicit policy, or the per-variant default:
// daily and interval look 7 days ahead, weekly 4 weeks, monthly rules 3 months.
func (r RecurrenceRule) EffectivePolicy() GenerationPolicy {
	if r.Policy != nil && r.Policy.Value >= 1 {
		return *r.Policy
	}
	switch r.Kind {
	case RecurrenceWeekly:
		return GenerationPolicy{Unit: PolicyUnitWeeks, Value: 4}
	case RecurrenceMonthlyDate, RecurrenceMonthlyWeekday:
		return GenerationPolicy{Unit: PolicyUnitMonths, Value: 3}
	default:
		return GenerationPolicy{Unit: PolicyUnitDays, Value: 7}
	}
}

// Validate checks rule well-formedness. The evaluator itself degrades to "no
// next date" on bad rules; this is the caller-facing check done at write time.
func (r RecurrenceRule) Validate() error {
	switch r.Kind {
	case RecurrenceNone, RecurrenceDaily:
		return nil
	case RecurrenceInterval:
		if r.IntervalDays < 1 {
			return fmt.Errorf("interval_days must be >= 1, got %d", r.IntervalDays)
		}
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("weekly rule requires at least one weekday")
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return fmt.Errorf("invalid weekday %d", wd)
			}
		}
	case RecurrenceMonthlyDate:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("day_of_month must be in 1..31, got %d", r.DayOfMonth)
		}
	case RecurrenceMonthlyWeekday:
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("invalid weekday %d", r.Weekday)
		}
		if r.Occurrence != LastOccurrence && (r.Occurrence < 1 || r.Occurrence > 5) {
			return fmt.Errorf("occurrence must be 1..5 or -1 (last), got %d", r.Occurrence)
		}
	default:
		return fmt.Errorf("unknown recurrence kind %q", r.Kind)
	}
	if r.Policy != nil {
		if r.Policy.Value < 1 {
			return fmt.Errorf("policy value must be >= 1, got %d", r.Policy.Value)
		}
		switch r.Policy.Unit {
		case PolicyUnitDays, PolicyUnitWeeks, PolicyUnitMonths:
		default:
			return fmt.Errorf("unknown policy unit %q", r.Policy.Unit)
		}
	}
	return nil
}

// HasWeekday reports whether wd is in the weekly rule's set.
func (r RecurrenceRule) HasWeekday(wd time.Weekday) bool {
	for _, w := range r.Weekdays {
		if w == wd {
			return true
		}
	}
	return false
}
