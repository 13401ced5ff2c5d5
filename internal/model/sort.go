package model

import "sort"

type TaskFilter string

const (
	TaskFilterAll        TaskFilter = "all"
	TaskFilterPending    TaskFilter = "pending"
	TaskFilterInProgress TaskFilter = "in_progress"
	TaskFilterDone       TaskFilter = "done"
	TaskFilterPinned     TaskFilter = "pinned"
	TaskFilterHigh       TaskFilter = "high"
	TaskFilterMedium     TaskFilter = "medium"
	TaskFilterLow        TaskFilter = "low"
)

// FilterTasks returns the tasks matching f. Unknown filters pass everything
// through, matching the permissive behavior of the list views.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	var keep func(Task) bool
	switch f {
	case TaskFilterPending:
		keep = func(t Task) bool { return t.Status == TaskStatusPending }
	case TaskFilterInProgress:
		keep = func(t Task) bool { return t.Status == TaskStatusInProgress }
	case TaskFilterDone:
		keep = func(t Task) bool { return t.Status == TaskStatusDone }
	case TaskFilterPinned:
		keep = func(t Task) bool { return t.Pinned }
	case TaskFilterHigh, TaskFilterMedium, TaskFilterLow:
		keep = func(t Task) bool { return t.Priority == TaskPriority(f) }
	default:
		keep = func(Task) bool { return true }
	}

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortTasks orders tasks for the list view: pinned first, open before done,
// then priority high to low, then newest created first. The input slice is
// not modified.
func SortTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		aDone, bDone := a.Status == TaskStatusDone, b.Status == TaskStatusDone
		if aDone != bDone {
			return !aDone
		}
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}
