// Package render lays out a schedule and turns it into a PDF.
//
// Build produces an engine-independent Layout; a Renderer draws it. Both
// engines print the same lines in the same order.
package render

import (
	"context"

	"majalis/internal/daterange"
	"majalis/internal/model"
)

// Title is the fixed heading of every generated document.
const Title = "Majalis List 2025"

// Filename is offered to the browser for the download.
const Filename = "majalis_schedule.pdf"

// ContentType of every Renderer's output.
const ContentType = "application/pdf"

const (
	dateLayout = "Monday January 02 2006"
	timeLayout = "03:04 PM"
)

// Block is the group of lines printed for one event.
type Block struct {
	Lines []string
}

// Layout is a complete schedule document before drawing.
type Layout struct {
	Title  string
	Banner string
	Blocks []Block
}

// Renderer draws a Layout into document bytes.
type Renderer interface {
	Render(ctx context.Context, l Layout) ([]byte, error)
	Engine() string
}

// Build lays out events (already filtered and sorted) under the banner for r.
func Build(events []model.CalendarEvent, r daterange.Range) Layout {
	l := Layout{
		Title:  Title,
		Banner: r.Describe(),
		Blocks: make([]Block, 0, len(events)),
	}
	for _, ev := range events {
		l.Blocks = append(l.Blocks, EventBlock(ev))
	}
	return l
}

// EventBlock formats the host, date, time and optional location lines.
func EventBlock(ev model.CalendarEvent) Block {
	lines := []string{
		"Host: " + ev.Title,
		"Date: " + ev.Start.Format(dateLayout),
		"Time: " + ev.Start.Format(timeLayout),
	}
	if ev.HasLocation() {
		lines = append(lines, "Location: "+ev.Location)
	}
	return Block{Lines: lines}
}
