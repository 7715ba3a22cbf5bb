package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "majalis"

// PrometheusObserver exports feed and render metrics.
type PrometheusObserver struct {
	fetchTotal     *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	eventsRendered prometheus.Counter
}

// NewPrometheusObserver registers the collectors on reg. A nil reg means the
// default registerer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "Feed loads by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Time spent fetching and parsing the feed.",
			Buckets:   prometheus.DefBuckets,
		}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering the schedule document.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Failed document renders.",
		}, []string{"engine"}),
		eventsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rendered_total",
			Help:      "Event blocks written into generated documents.",
		}),
	}

	var err error
	if o.fetchTotal, err = register(reg, o.fetchTotal); err != nil {
		return nil, err
	}
	if o.fetchDuration, err = register(reg, o.fetchDuration); err != nil {
		return nil, err
	}
	if o.renderDuration, err = register(reg, o.renderDuration); err != nil {
		return nil, err
	}
	if o.renderErrors, err = register(reg, o.renderErrors); err != nil {
		return nil, err
	}
	if o.eventsRendered, err = register(reg, o.eventsRendered); err != nil {
		return nil, err
	}
	return o, nil
}

// register adds c to reg, reusing an identical collector that is already there.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// RecordFetch tracks one feed load.
func (o *PrometheusObserver) RecordFetch(outcome string, took time.Duration, _ int) {
	if o == nil {
		return
	}
	o.fetchTotal.WithLabelValues(outcome).Inc()
	o.fetchDuration.Observe(took.Seconds())
}

// RecordRender tracks one document render.
func (o *PrometheusObserver) RecordRender(engine string, took time.Duration, events int, err error) {
	if o == nil {
		return
	}
	o.renderDuration.WithLabelValues(engine).Observe(took.Seconds())
	if err != nil {
		o.renderErrors.WithLabelValues(engine).Inc()
		return
	}
	o.eventsRendered.Add(float64(events))
}
