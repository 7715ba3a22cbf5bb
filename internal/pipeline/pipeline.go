// Package pipeline runs one schedule request end to end: resolve the date
// range, load the feed, filter and sort, lay out and render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"majalis/internal/daterange"
	"majalis/internal/ics"
	appLog "majalis/internal/log"
	"majalis/internal/model"
	"majalis/internal/render"
	"majalis/internal/schedule"
)

// ErrFeedUnavailable is the single failure callers see when the feed could
// not be fetched or parsed. The cause stays reachable through errors.As.
var ErrFeedUnavailable = errors.New("calendar feed unavailable")

// FeedLoader is satisfied by *ics.Feed.
type FeedLoader interface {
	Load(ctx context.Context) ics.Result
}

// RenderObserver receives render timings. *metrics.PrometheusObserver satisfies it.
type RenderObserver interface {
	RecordRender(engine string, took time.Duration, events int, err error)
}

// Output is one generated document.
type Output struct {
	PDF         []byte
	Filename    string
	ContentType string
	Range       daterange.Range
	EventCount  int
}

// Selection is the filtered, sorted view used for previews.
type Selection struct {
	Preset daterange.Preset
	Range  daterange.Range
	Events []model.CalendarEvent
}

// Service wires the pipeline stages together. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	feed     FeedLoader
	renderer render.Renderer
	loc      *time.Location
	now      func() time.Time
	observer RenderObserver
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver attaches a render observer.
func WithObserver(o RenderObserver) Option {
	return func(s *Service) { s.observer = o }
}

// New builds a Service. loc decides which calendar day "today" is; nil means time.Local.
func New(feed FeedLoader, renderer render.Renderer, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		feed:     feed,
		renderer: renderer,
		loc:      loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Range resolves preset against the current date.
func (s *Service) Range(preset daterange.Preset) daterange.Range {
	return daterange.Resolve(preset, daterange.Today(s.now(), s.loc))
}

// Select loads the feed once and returns the events inside the preset's range.
func (s *Service) Select(ctx context.Context, preset daterange.Preset) (Selection, error) {
	r := s.Range(preset)

	res := s.feed.Load(ctx)
	if !res.Available() {
		return Selection{}, fmt.Errorf("%w: %w", ErrFeedUnavailable, res.Err)
	}

	return Selection{
		Preset: preset,
		Range:  r,
		Events: schedule.FilterSort(res.Events, r),
	}, nil
}

// Generate produces the schedule PDF for preset. The feed is fetched anew
// on every call.
func (s *Service) Generate(ctx context.Context, preset daterange.Preset) (Output, error) {
	sel, err := s.Select(ctx, preset)
	if err != nil {
		return Output{}, err
	}

	started := time.Now()
	pdf, err := s.renderer.Render(ctx, render.Build(sel.Events, sel.Range))
	if s.observer != nil {
		s.observer.RecordRender(s.renderer.Engine(), time.Since(started), len(sel.Events), err)
	}
	if err != nil {
		return Output{}, fmt.Errorf("render schedule: %w", err)
	}

	appLog.Info("schedule generated",
		"preset", preset,
		"range", sel.Range.Describe(),
		"events", len(sel.Events),
		"bytes", len(pdf),
		"engine", s.renderer.Engine(),
	)

	return Output{
		PDF:         pdf,
		Filename:    render.Filename,
		ContentType: render.ContentType,
		Range:       sel.Range,
		EventCount:  len(sel.Events),
	}, nil
}

// Probe performs the startup fetch so a broken feed shows up in the logs
// right away. It never fails the process.
func (s *Service) Probe(ctx context.Context) bool {
	res := s.feed.Load(ctx)
	if res.Available() {
		appLog.Info("feed reachable", "events", len(res.Events), "took", res.Took.Round(time.Millisecond))
	}
	return res.Available()
}
