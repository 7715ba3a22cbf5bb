package model

import "time"

// CalendarEvent is a single timed VEVENT taken from the feed.
//
// Events without a concrete start time of day (all-day events, missing or
// unparsable DTSTART) never become a CalendarEvent; the parser drops them.
type CalendarEvent struct {
	// Title is the SUMMARY, shown as the host of the majlis. May be empty.
	Title string

	// Start keeps the location the feed provided; it is not normalized.
	Start time.Time

	// Location is optional. Empty means the feed had no LOCATION.
	Location string
}

// HasLocation reports whether the event carries a location line.
func (e CalendarEvent) HasLocation() bool {
	return e.Location != ""
}
