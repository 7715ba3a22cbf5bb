package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majalis/internal/daterange"
	"majalis/internal/ics"
	"majalis/internal/model"
	"majalis/internal/render"
)

type fakeFeed struct {
	result ics.Result
	calls  int
}

func (f *fakeFeed) Load(context.Context) ics.Result {
	f.calls++
	return f.result
}

type fakeRenderer struct {
	got render.Layout
	err error
}

func (r *fakeRenderer) Engine() string { return "fake" }

func (r *fakeRenderer) Render(_ context.Context, l render.Layout) ([]byte, error) {
	r.got = l
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

type renderCall struct {
	engine string
	events int
	err    error
}

type fakeObserver struct{ calls []renderCall }

func (o *fakeObserver) RecordRender(engine string, _ time.Duration, events int, err error) {
	o.calls = append(o.calls, renderCall{engine, events, err})
}

func ev(day, hour int, title string) model.CalendarEvent {
	return model.CalendarEvent{Title: title, Start: time.Date(2025, time.January, day, hour, 0, 0, 0, time.UTC)}
}

var fixedNow = func() time.Time { return time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC) }

func TestGenerate(t *testing.T) {
	feed := &fakeFeed{result: ics.Result{
		Outcome: ics.OutcomeOK,
		Events:  []model.CalendarEvent{ev(10, 19, "c"), ev(1, 19, "a"), ev(20, 19, "out"), ev(5, 19, "b")},
	}}
	rnd := &fakeRenderer{}
	obs := &fakeObserver{}
	svc := New(feed, rnd, time.UTC, WithClock(fixedNow), WithObserver(obs))

	out, err := svc.Generate(context.Background(), daterange.Next7Days)
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-fake"), out.PDF)
	assert.Equal(t, "majalis_schedule.pdf", out.Filename)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, 2, out.EventCount)
	assert.Equal(t, daterange.NewDate(2025, time.January, 8), out.Range.End)

	require.Len(t, rnd.got.Blocks, 2)
	assert.Equal(t, "Host: a", rnd.got.Blocks[0].Lines[0])
	assert.Equal(t, "Host: b", rnd.got.Blocks[1].Lines[0])
	assert.Equal(t, "From Jan 01, 2025 to Jan 08, 2025", rnd.got.Banner)

	assert.Equal(t, []renderCall{{"fake", 2, nil}}, obs.calls)
	assert.Equal(t, 1, feed.calls)
}

func TestGenerateRefetchesEachCall(t *testing.T) {
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeOK}}
	svc := New(feed, &fakeRenderer{}, time.UTC, WithClock(fixedNow))

	_, err := svc.Generate(context.Background(), daterange.AllDates)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), daterange.AllDates)
	require.NoError(t, err)

	assert.Equal(t, 2, feed.calls)
}

func TestGenerateEmptySelectionStillRenders(t *testing.T) {
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeOK, Events: []model.CalendarEvent{ev(20, 19, "later")}}}
	rnd := &fakeRenderer{}
	svc := New(feed, rnd, time.UTC, WithClock(fixedNow))

	out, err := svc.Generate(context.Background(), daterange.TodayOnly)
	require.NoError(t, err)

	assert.Zero(t, out.EventCount)
	assert.Equal(t, render.Title, rnd.got.Title)
	assert.Empty(t, rnd.got.Blocks)
}

func TestGenerateFeedUnavailable(t *testing.T) {
	cause := &ics.TransportError{URL: "https://x/...(redacted)", Err: errors.New("connection refused")}
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeTransportFailure, Err: cause}}
	rnd := &fakeRenderer{}
	svc := New(feed, rnd, time.UTC, WithClock(fixedNow))

	_, err := svc.Generate(context.Background(), daterange.AllDates)

	require.ErrorIs(t, err, ErrFeedUnavailable)
	assert.True(t, ics.IsTransport(err), "cause must stay reachable")
	assert.Empty(t, rnd.got.Title, "renderer must not run")
}

func TestGenerateParseFailure(t *testing.T) {
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeParseFailure, Err: &ics.ParseError{Err: errors.New("bad")}}}
	svc := New(feed, &fakeRenderer{}, time.UTC, WithClock(fixedNow))

	_, err := svc.Generate(context.Background(), daterange.AllDates)

	require.ErrorIs(t, err, ErrFeedUnavailable)
	assert.True(t, ics.IsParse(err))
}

func TestGenerateRenderError(t *testing.T) {
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeOK}}
	obs := &fakeObserver{}
	boom := errors.New("no chrome")
	svc := New(feed, &fakeRenderer{err: boom}, time.UTC, WithClock(fixedNow), WithObserver(obs))

	_, err := svc.Generate(context.Background(), daterange.AllDates)

	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrFeedUnavailable)
	require.Len(t, obs.calls, 1)
	assert.Equal(t, boom, obs.calls[0].err)
}

func TestSelectUsesConfiguredZoneForToday(t *testing.T) {
	// 22:00 UTC on Jan 1 is already Jan 2 in Bahrain (UTC+3).
	late := func() time.Time { return time.Date(2025, time.January, 1, 22, 0, 0, 0, time.UTC) }
	bahrain := time.FixedZone("AST", 3*60*60)
	feed := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeOK, Events: []model.CalendarEvent{ev(1, 19, "jan1"), ev(2, 19, "jan2")}}}

	sel, err := New(feed, &fakeRenderer{}, bahrain, WithClock(late)).Select(context.Background(), daterange.TodayOnly)
	require.NoError(t, err)

	require.Len(t, sel.Events, 1)
	assert.Equal(t, "jan2", sel.Events[0].Title)
}

func TestProbe(t *testing.T) {
	ok := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeOK}}
	down := &fakeFeed{result: ics.Result{Outcome: ics.OutcomeTransportFailure, Err: errors.New("x")}}

	assert.True(t, New(ok, &fakeRenderer{}, nil).Probe(context.Background()))
	assert.False(t, New(down, &fakeRenderer{}, nil).Probe(context.Background()))
}
