package model_test

import (
	"testing"
	"time"

	"github.com/mydailyops/dailyops-api/internal/model"
)

func TestTask_IsTemplate(t *testing.T) {
	tests := []struct {
		name string
		rule *model.RecurrenceRule
		want bool
	}{
		{"nil rule", nil, false},
		{"kind none", &model.RecurrenceRule{Kind: model.RecurrenceNone}, false},
		{"daily rule", &model.RecurrenceRule{Kind: model.RecurrenceDaily}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := model.Task{Recurrence: tt.rule}
			if got := task.IsTemplate(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_IsInstanceOf(t *testing.T) {
	tpl := model.Task{
		ID:         "tpl-1",
		UserID:     "user-1",
		Recurrence: &model.RecurrenceRule{Kind: model.RecurrenceDaily},
	}

	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{"matching instance", model.Task{ID: "i-1", UserID: "user-1", TemplateID: "tpl-1"}, true},
		{"different template", model.Task{ID: "i-2", UserID: "user-1", TemplateID: "tpl-9"}, false},
		{"no template link", model.Task{ID: "i-3", UserID: "user-1"}, false},
		{"foreign owner", model.Task{ID: "i-4", UserID: "user-2", TemplateID: "tpl-1"}, false},
		{"template itself", tpl, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsInstanceOf(tpl); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_EffectiveDuration(t *testing.T) {
	if got := (model.Task{DurationDays: 0}).EffectiveDuration(); got != 1 {
		t.Errorf("expected clamp to 1, got %d", got)
	}
	if got := (model.Task{DurationDays: -2}).EffectiveDuration(); got != 1 {
		t.Errorf("expected clamp to 1, got %d", got)
	}
	if got := (model.Task{DurationDays: 5}).EffectiveDuration(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestTask_DeadlineDay(t *testing.T) {
	if got := (model.Task{}).DeadlineDay(); got != nil {
		t.Errorf("expected nil for no deadline, got %v", got)
	}

	dl := time.Date(2024, 6, 10, 18, 30, 0, 0, time.UTC)
	day := model.Task{Deadline: &dl}.DeadlineDay()
	if day == nil || day.String() != "2024-06-10" {
		t.Errorf("expected 2024-06-10, got %v", day)
	}
}

func TestTaskStatus_IsValid(t *testing.T) {
	for _, s := range []model.TaskStatus{model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusDone} {
		if !s.IsValid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if model.TaskStatus("completed").IsValid() {
		t.Error("expected 'completed' to be invalid")
	}
}

func TestTaskPriority_IsValid(t *testing.T) {
	for _, p := range []model.TaskPriority{model.TaskPriorityLow, model.TaskPriorityMedium, model.TaskPriorityHigh} {
		if !p.IsValid() {
			t.Errorf("expected %s to be valid", p)
		}
	}
	if model.TaskPriority("urgent").IsValid() {
		t.Error("expected 'urgent' to be invalid")
	}
}
