package model

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusDone
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

// rank orders priorities for sorting, high first.
func (p TaskPriority) rank() int {
	switch p {
	case TaskPriorityHigh:
		return 0
	case TaskPriorityLow:
		return 2
	default:
		return 1
	}
}

// Task is both a recurring template (Recurrence set) and a concrete task or
// generated instance (Recurrence nil). Templates never appear in views; they
// exist only to generate instances.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Category    string       `json:"category,omitempty"`
	Status      TaskStatus   `json:"status"`
	Pinned      bool         `json:"pinned"`

	// Scheduling inputs. Deadline keeps its time-of-day; StartDate is a plain
	// calendar day used when no deadline is set.
	Deadline     *time.Time `json:"deadline,omitempty"`
	StartDate    *Date      `json:"start_date,omitempty"`
	DurationDays int        `json:"duration_days"`

	// Computed visibility window, recomputed on every create/update. Both nil
	// means always visible.
	VisibleFrom  *Date `json:"visible_from,omitempty"`
	VisibleUntil *Date `json:"visible_until,omitempty"`

	Recurrence *RecurrenceRule `json:"recurrence,omitempty"`

	// TemplateID links a generated instance back to its template. Empty for
	// templates and hand-created tasks.
	TemplateID string `json:"template_id,omitempty"`

	// DeletedAt is owned by the trash subsystem; this core only reads it.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTemplate reports whether the task is a recurring template.
func (t Task) IsTemplate() bool {
	return t.Recurrence != nil && t.Recurrence.Kind != RecurrenceNone
}

// IsInstanceOf reports whether t is a generated instance of tpl. Association
// is by explicit template id; ownership is re-checked because a foreign key
// alone must never authorize a cross-user mutation.
func (t Task) IsInstanceOf(tpl Task) bool {
	return !t.IsTemplate() && t.TemplateID != "" && t.TemplateID == tpl.ID && t.UserID == tpl.UserID
}

// EffectiveDuration clamps DurationDays to at least one day.
func (t Task) EffectiveDuration() int {
	if t.DurationDays < 1 {
		return 1
	}
	return t.DurationDays
}

// DeadlineDay returns the calendar day of the deadline, if any.
func (t Task) DeadlineDay() *Date {
	if t.Deadline == nil {
		return nil
	}
	d := DateOf(*t.Deadline)
	return &d
}

type TaskListParams struct {
	UserID string
	Status *TaskStatus
	// Templates are hidden from list views unless explicitly requested.
	IncludeTemplates bool
	Cursor           string
	Limit            int
}

type TaskListResult struct {
	Tasks      []Task `json:"tasks"`
	NextCursor string `json:"next_cursor,omitempty"`
}
