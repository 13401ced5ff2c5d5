package recurrence

import (
	"log/slog"
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/visibility"
)

// Generator materializes concrete task instances from a recurring template.
// It is pure computation: nothing is persisted and no IDs are minted here.
type Generator struct {
	logger *slog.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger, Now: time.Now}
}

// Generate computes the batch of instances for a template within its
// generation policy horizon. An empty batch is a valid outcome (the rule and
// anchor produce no future matches), logged but never an error.
func (g *Generator) Generate(tpl model.Task) []model.Task {
	if !tpl.IsTemplate() {
		return nil
	}
	rule := *tpl.Recurrence

	now := g.Now()
	anchor := now
	if tpl.Deadline != nil {
		anchor = *tpl.Deadline
	}

	policy := rule.EffectivePolicy()
	horizonDays := policy.HorizonDays()
	end := anchor.AddDate(0, 0, horizonDays)
	today := model.DateOf(now)

	var dates []time.Time
	if rule.Kind == model.RecurrenceWeekly {
		// Weekly generation is window-driven: fill the horizon and drop
		// matches that already passed.
		for _, d := range DatesInRange(rule, anchor, end) {
			if !model.DateOf(d).Before(today) {
				dates = append(dates, d)
			}
		}
	} else {
		dates = NextDates(rule, anchor, instanceCount(rule, horizonDays))
	}

	if len(dates) == 0 {
		g.logger.Info("recurrence produced no instances",
			"template_id", tpl.ID,
			"kind", rule.Kind,
			"anchor", anchor.Format(model.DateLayout),
		)
		return nil
	}

	instances := make([]model.Task, 0, len(dates))
	for _, d := range dates {
		instances = append(instances, NewInstance(tpl, d))
	}
	return instances
}

// NewInstance builds one concrete instance of tpl due at deadline. The
// instance carries the template's descriptive fields, starts out pending and
// unpinned, does not itself recur, and gets its own visibility window from
// the template's duration.
func NewInstance(tpl model.Task, deadline time.Time) model.Task {
	inst := model.Task{
		UserID:       tpl.UserID,
		Title:        tpl.Title,
		Description:  tpl.Description,
		Priority:     tpl.Priority,
		Category:     tpl.Category,
		Status:       model.TaskStatusPending,
		Pinned:       false,
		Deadline:     &deadline,
		StartDate:    tpl.StartDate,
		DurationDays: tpl.EffectiveDuration(),
		TemplateID:   tpl.ID,
	}
	inst.VisibleFrom, inst.VisibleUntil = visibility.Calculate(inst.Deadline, inst.DurationDays, inst.StartDate)
	return inst
}

// instanceCount converts a policy horizon into a count of occurrences for
// count-based rules: how many occurrences fit in the requested horizon, not
// how many days it spans.
func instanceCount(rule model.RecurrenceRule, horizonDays int) int {
	step := 1
	switch rule.Kind {
	case model.RecurrenceInterval:
		if rule.IntervalDays < 1 {
			return 0
		}
		step = rule.IntervalDays
	case model.RecurrenceMonthlyDate, model.RecurrenceMonthlyWeekday:
		step = 30
	}
	return horizonDays / step
}
