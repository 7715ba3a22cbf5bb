package ics

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "majalis/internal/log"
	"majalis/internal/model"
)

// ParseFeed turns an ICS payload into timed events, in feed order.
//
//   - A payload the library cannot read is a *ParseError.
//   - VEVENTs whose DTSTART is a bare date (VALUE=DATE, or no 'T' in the
//     value) are dropped: the schedule only lists events with a time of day.
//   - VEVENTs with a missing or unreadable DTSTART are dropped as well.
//
// Timezones are whatever the library derives from TZID/UTC markers; no
// further normalization happens here.
func ParseFeed(body []byte) ([]model.CalendarEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ParseError{Err: errors.New("empty ICS body")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	vevents := cal.Events()
	events := make([]model.CalendarEvent, 0, len(vevents))
	skipped := 0

	for _, ve := range vevents {
		ev, ok := toCalendarEvent(ve)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(events), "skipped", skipped)
	return events, nil
}

func toCalendarEvent(ve *ical.VEvent) (model.CalendarEvent, bool) {
	var out model.CalendarEvent

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		appLog.Debug("ics vevent skipped: no DTSTART", "uid", propValue(ve, ical.ComponentPropertyUniqueId))
		return out, false
	}
	if isDateOnly(dtStart) {
		// TODO: confirm with the schedule owners whether all-day majalis should be listed.
		appLog.Debug("ics vevent skipped: all-day", "uid", propValue(ve, ical.ComponentPropertyUniqueId))
		return out, false
	}

	start, err := ve.GetStartAt()
	if err != nil || start.IsZero() {
		appLog.Debug("ics vevent skipped: unreadable DTSTART", "uid", propValue(ve, ical.ComponentPropertyUniqueId), "value", dtStart.Value)
		return out, false
	}

	out.Start = start
	out.Title = propValue(ve, ical.ComponentPropertySummary)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	return out, true
}

// isDateOnly detects DTSTART values without a time of day.
func isDateOnly(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}
