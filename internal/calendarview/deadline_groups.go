package calendarview

import "github.com/mydailyops/dailyops-api/internal/model"

// DeadlineGroup buckets the flat list view by how soon a task is due.
type DeadlineGroup string

const (
	GroupToday      DeadlineGroup = "today"
	GroupTomorrow   DeadlineGroup = "tomorrow"
	GroupThisWeek   DeadlineGroup = "this_week"
	GroupLater      DeadlineGroup = "later"
	GroupNoDeadline DeadlineGroup = "no_deadline"
)

// DeadlineGroupOrder is the display order of the groups.
var DeadlineGroupOrder = []DeadlineGroup{
	GroupToday, GroupTomorrow, GroupThisWeek, GroupLater, GroupNoDeadline,
}

// GroupByDeadline splits tasks into Today / Tomorrow / This Week (within 7
// days) / Later / No Deadline buckets relative to today. Overdue tasks land
// in Today so missed work stays in front of the user.
func GroupByDeadline(tasks []model.Task, today model.Date) map[DeadlineGroup][]model.Task {
	groups := map[DeadlineGroup][]model.Task{
		GroupToday:      {},
		GroupTomorrow:   {},
		GroupThisWeek:   {},
		GroupLater:      {},
		GroupNoDeadline: {},
	}

	tomorrow := today.AddDays(1)
	weekEnd := today.AddDays(7)

	for _, t := range tasks {
		if t.IsTemplate() {
			continue
		}
		day := t.DeadlineDay()
		switch {
		case day == nil:
			groups[GroupNoDeadline] = append(groups[GroupNoDeadline], t)
		case !day.After(today):
			groups[GroupToday] = append(groups[GroupToday], t)
		case day.Equal(tomorrow):
			groups[GroupTomorrow] = append(groups[GroupTomorrow], t)
		case !day.After(weekEnd):
			groups[GroupThisWeek] = append(groups[GroupThisWeek], t)
		default:
			groups[GroupLater] = append(groups[GroupLater], t)
		}
	}
	return groups
}
