package ics

import (
	"context"
	"time"

	appLog "majalis/internal/log"
	"majalis/internal/model"
)

// Outcome tags how a feed load ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTransportFailure
	OutcomeParseFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTransportFailure:
		return "transport_error"
	case OutcomeParseFailure:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one feed load. Events is nil unless Outcome is OutcomeOK.
type Result struct {
	Outcome Outcome
	Events  []model.CalendarEvent
	Err     error
	Took    time.Duration
}

// Available collapses both failure kinds into the single signal callers act on.
func (r Result) Available() bool {
	return r.Outcome == OutcomeOK
}

// Observer is notified after each load. metrics.PrometheusObserver satisfies it.
type Observer interface {
	RecordFetch(outcome string, took time.Duration, events int)
}

// Feed binds a Fetcher to the configured feed URL.
type Feed struct {
	url      string
	fetcher  *Fetcher
	observer Observer
}

// NewFeed creates a Feed. observer may be nil.
func NewFeed(url string, fetcher *Fetcher, observer Observer) *Feed {
	if fetcher == nil {
		fetcher = NewFetcher(FetcherConfig{Timeout: DefaultTimeout, MaxBodyBytes: DefaultMaxBodyBytes})
	}
	return &Feed{url: url, fetcher: fetcher, observer: observer}
}

// Load performs exactly one fetch and parse. It never returns an error
// directly: failures are reported through Result.
func (f *Feed) Load(ctx context.Context) Result {
	started := time.Now()
	res := f.load(ctx)
	res.Took = time.Since(started)

	if res.Err != nil {
		appLog.Error("ics feed unavailable", res.Err, "outcome", res.Outcome, "url", redactURL(f.url))
	}
	if f.observer != nil {
		f.observer.RecordFetch(res.Outcome.String(), res.Took, len(res.Events))
	}
	return res
}

func (f *Feed) load(ctx context.Context) Result {
	body, err := f.fetcher.Fetch(ctx, f.url)
	if err != nil {
		return Result{Outcome: OutcomeTransportFailure, Err: err}
	}
	events, err := ParseFeed(body)
	if err != nil {
		return Result{Outcome: OutcomeParseFailure, Err: err}
	}
	return Result{Outcome: OutcomeOK, Events: events}
}
