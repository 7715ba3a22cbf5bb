package daterange

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned by ParsePreset for input outside the preset list.
var ErrUnknownPreset = errors.New("unknown date range preset")

// Preset is one of the fixed choices offered on the form.
type Preset int

const (
	AllDates Preset = iota
	TodayOnly
	Next7Days
	Next30Days
	ThisMonth
	NextMonth
)

var presetLabels = [...]string{
	AllDates:   "All dates",
	TodayOnly:  "Today only",
	Next7Days:  "Next 7 days",
	Next30Days: "Next 30 days",
	ThisMonth:  "This month",
	NextMonth:  "Next month",
}

// Presets returns every preset in form order.
func Presets() []Preset {
	return []Preset{AllDates, TodayOnly, Next7Days, Next30Days, ThisMonth, NextMonth}
}

func (p Preset) String() string {
	if p < 0 || int(p) >= len(presetLabels) {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presetLabels[p]
}

// ParsePreset matches a label case-insensitively. The empty string selects
// AllDates, the form's default.
func ParsePreset(s string) (Preset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllDates, nil
	}
	for _, p := range Presets() {
		if strings.EqualFold(s, presetLabels[p]) {
			return p, nil
		}
	}
	return AllDates, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Range is an inclusive span of calendar days. A zero Start or End leaves
// that side unbounded.
type Range struct {
	Start Date
	End   Date
}

// Resolve maps p onto a concrete range relative to today.
// Presets are a closed set, so an out-of-range value panics.
func Resolve(p Preset, today Date) Range {
	switch p {
	case AllDates:
		return Range{}
	case TodayOnly:
		return Range{Start: today, End: today}
	case Next7Days:
		return Range{Start: today, End: today.AddDays(7)}
	case Next30Days:
		return Range{Start: today, End: today.AddDays(30)}
	case ThisMonth:
		return Range{Start: today.FirstOfMonth(), End: today.LastOfMonth()}
	case NextMonth:
		next := NewDate(today.Year, today.Month+1, 1)
		return Range{Start: next, End: next.LastOfMonth()}
	default:
		panic(fmt.Sprintf("daterange: unhandled preset %d", int(p)))
	}
}

// Contains reports whether d lies within r, bounds included.
func (r Range) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

func (r Range) Unbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Describe is the banner line printed under the document title.
func (r Range) Describe() string {
	from, to := "the beginning", "the end"
	if !r.Start.IsZero() {
		from = r.Start.Format()
	}
	if !r.End.IsZero() {
		to = r.End.Format()
	}
	return "From " + from + " to " + to
}

// Summary is the short line shown on the form next to the preset choice.
// It is empty for an unbounded range.
func (r Range) Summary() string {
	if r.Unbounded() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Showing events")
	if !r.Start.IsZero() {
		b.WriteString(" from ")
		b.WriteString(r.Start.Format())
	}
	if !r.End.IsZero() && r.End != r.Start {
		b.WriteString(" to ")
		b.WriteString(r.End.Format())
	}
	return b.String()
}
