package recurrence_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/recurrence"
)

func newGenerator(now time.Time) *recurrence.Generator {
	g := recurrence.NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.Now = func() time.Time { return now }
	return g
}

func template(rule model.RecurrenceRule, deadline *time.Time) model.Task {
	return model.Task{
		ID:           "tpl-1",
		UserID:       "user-1",
		Title:        "Weekly review",
		Description:  "Review the week",
		Priority:     model.TaskPriorityHigh,
		Category:     "work",
		Status:       model.TaskStatusPending,
		Pinned:       true,
		Deadline:     deadline,
		DurationDays: 2,
		Recurrence:   &rule,
	}
}

func TestGenerate_NonTemplateYieldsNothing(t *testing.T) {
	g := newGenerator(day(2024, time.June, 10))

	assert.Nil(t, g.Generate(model.Task{ID: "plain"}))
	assert.Nil(t, g.Generate(model.Task{ID: "none", Recurrence: &model.RecurrenceRule{Kind: model.RecurrenceNone}}))
}

func TestGenerate_WeeklyTwoWeekWindow(t *testing.T) {
	// Monday anchor, Wed+Fri rule, two-week policy: exactly the Wed and Fri of
	// this week and the next, nothing on the anchor Monday itself.
	anchor := day(2024, time.June, 10)
	rule := model.RecurrenceRule{
		Kind:     model.RecurrenceWeekly,
		Weekdays: []time.Weekday{time.Wednesday, time.Friday},
		Policy:   &model.GenerationPolicy{Unit: model.PolicyUnitWeeks, Value: 2},
	}

	g := newGenerator(anchor)
	instances := g.Generate(template(rule, &anchor))

	require.Len(t, instances, 4)
	want := []time.Time{
		day(2024, time.June, 12),
		day(2024, time.June, 14),
		day(2024, time.June, 19),
		day(2024, time.June, 21),
	}
	for i, inst := range instances {
		assert.Equal(t, want[i], *inst.Deadline)
	}
}

func TestGenerate_WeeklyDropsPastMatches(t *testing.T) {
	// Anchor a week in the past: matches before today are not materialized.
	anchor := day(2024, time.June, 3)
	now := day(2024, time.June, 13)
	rule := model.RecurrenceRule{
		Kind:     model.RecurrenceWeekly,
		Weekdays: []time.Weekday{time.Wednesday},
		Policy:   &model.GenerationPolicy{Unit: model.PolicyUnitWeeks, Value: 2},
	}

	g := newGenerator(now)
	instances := g.Generate(template(rule, &anchor))

	for _, inst := range instances {
		assert.False(t, model.DateOf(*inst.Deadline).Before(model.DateOf(now)),
			"generated %s before today", inst.Deadline)
	}
}

func TestGenerate_DailyDefaultHorizon(t *testing.T) {
	anchor := day(2024, time.June, 10)
	g := newGenerator(anchor)

	instances := g.Generate(template(model.RecurrenceRule{Kind: model.RecurrenceDaily}, &anchor))

	require.Len(t, instances, 7, "daily default horizon is seven days")
	assert.Equal(t, day(2024, time.June, 11), *instances[0].Deadline)
	assert.Equal(t, day(2024, time.June, 17), *instances[6].Deadline)
}

func TestGenerate_IntervalCountBoundedByHorizon(t *testing.T) {
	anchor := day(2024, time.June, 10)
	g := newGenerator(anchor)

	rule := model.RecurrenceRule{Kind: model.RecurrenceInterval, IntervalDays: 3}
	instances := g.Generate(template(rule, &anchor))

	// 7-day horizon holds two 3-day steps.
	require.Len(t, instances, 2)
	assert.Equal(t, day(2024, time.June, 13), *instances[0].Deadline)
	assert.Equal(t, day(2024, time.June, 16), *instances[1].Deadline)
}

func TestGenerate_MonthlyThreeMonthDefault(t *testing.T) {
	anchor := day(2024, time.June, 15)
	g := newGenerator(anchor)

	rule := model.RecurrenceRule{Kind: model.RecurrenceMonthlyDate, DayOfMonth: 15}
	instances := g.Generate(template(rule, &anchor))

	require.Len(t, instances, 3)
	assert.Equal(t, day(2024, time.July, 15), *instances[0].Deadline)
	assert.Equal(t, day(2024, time.September, 15), *instances[2].Deadline)
}

func TestGenerate_AnchorsOnNowWithoutDeadline(t *testing.T) {
	now := day(2024, time.June, 10)
	g := newGenerator(now)

	instances := g.Generate(template(model.RecurrenceRule{Kind: model.RecurrenceDaily}, nil))

	require.NotEmpty(t, instances)
	assert.Equal(t, day(2024, time.June, 11), *instances[0].Deadline)
}

func TestNewInstance(t *testing.T) {
	anchor := day(2024, time.June, 10)
	tpl := template(model.RecurrenceRule{Kind: model.RecurrenceDaily}, &anchor)

	deadline := day(2024, time.June, 14)
	inst := recurrence.NewInstance(tpl, deadline)

	assert.Empty(t, inst.ID, "persisting code mints the ID")
	assert.Equal(t, tpl.UserID, inst.UserID)
	assert.Equal(t, tpl.Title, inst.Title)
	assert.Equal(t, tpl.Description, inst.Description)
	assert.Equal(t, tpl.Priority, inst.Priority)
	assert.Equal(t, tpl.Category, inst.Category)
	assert.Equal(t, tpl.ID, inst.TemplateID)
	assert.Equal(t, model.TaskStatusPending, inst.Status)
	assert.False(t, inst.Pinned, "instances start unpinned even for pinned templates")
	assert.Nil(t, inst.Recurrence, "instances never recur")

	require.NotNil(t, inst.VisibleFrom)
	require.NotNil(t, inst.VisibleUntil)
	assert.Equal(t, "2024-06-13", inst.VisibleFrom.String(), "two-day duration opens the day before")
	assert.Equal(t, "2024-06-14", inst.VisibleUntil.String())
}
