// Package schedule selects the events that belong on a printed schedule.
package schedule

import (
	"slices"

	"majalis/internal/daterange"
	"majalis/internal/model"
)

// FilterSort returns the events whose start date (in the event's own
// location) lies inside r, ordered by start instant. Events sharing a start
// instant keep their input order. The input slice is left untouched.
func FilterSort(events []model.CalendarEvent, r daterange.Range) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if r.Contains(daterange.DateOf(ev.Start)) {
			out = append(out, ev)
		}
	}

	slices.SortStableFunc(out, func(a, b model.CalendarEvent) int {
		return a.Start.Compare(b.Start)
	})
	return out
}
