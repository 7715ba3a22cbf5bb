package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"majalis/internal/config"
	"majalis/internal/ics"
	appLog "majalis/internal/log"
	"majalis/internal/metrics"
	"majalis/internal/pipeline"
	"majalis/internal/render"
)

// newRenderer picks the PDF engine named in the config.
func newRenderer(cfg *config.Config) render.Renderer {
	if cfg.Engine == render.EngineChromium {
		return &render.ChromiumRenderer{ExecPath: cfg.ChromePath}
	}
	return render.NewPDFRenderer()
}

// newService wires feed, renderer and metrics into a pipeline.Service.
// reg may be nil when metrics are not exported.
func newService(cfg *config.Config, reg prometheus.Registerer) (*pipeline.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Warn("unknown timezone, falling back to local time", "timezone", cfg.Timezone, "err", err)
		loc = time.Local
	}

	var opts []pipeline.Option
	var fetchObserver ics.Observer
	if reg != nil {
		obs, err := metrics.NewPrometheusObserver(reg)
		if err != nil {
			return nil, err
		}
		fetchObserver = obs
		opts = append(opts, pipeline.WithObserver(obs))
	}

	fetcher := ics.NewFetcher(ics.FetcherConfig{
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.MaxFeedBytes,
	})
	feed := ics.NewFeed(cfg.FeedURL, fetcher, fetchObserver)

	return pipeline.New(feed, newRenderer(cfg), loc, opts...), nil
}
