package ics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "majalis/internal/log"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

// FetcherConfig tunes the HTTP side of a Fetcher.
type FetcherConfig struct {
	// Timeout bounds one request. Zero disables the client timeout; the
	// caller's context still applies.
	Timeout time.Duration

	// MaxBodyBytes caps the payload size. Zero means unlimited.
	MaxBodyBytes int64

	// Client overrides the HTTP client entirely (tests). Timeout is ignored when set.
	Client *http.Client
}

// Fetcher downloads a calendar feed with a single GET. It never retries and
// keeps no cache: every call goes to the network.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a Fetcher from cfg.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:   client,
		maxBytes: cfg.MaxBodyBytes,
	}
}

// Fetch returns the raw feed body. Any failure is a *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	redacted := redactURL(url)
	if url == "" {
		return nil, &TransportError{URL: redacted, Err: errors.New("feed URL is empty")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalizeScheme(url), nil)
	if err != nil {
		return nil, &TransportError{URL: redacted, Err: err}
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	appLog.Debug("ics fetch start", "url", redacted)
	started := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &TransportError{URL: redacted, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := readAllWithLimit(resp.Body, f.maxBytes)
	if err != nil {
		return nil, &TransportError{URL: redacted, StatusCode: resp.StatusCode, Err: err}
	}

	appLog.Info("ics fetch success",
		"url", redacted,
		"status", resp.StatusCode,
		"bytes", len(body),
		"took", time.Since(started).Round(time.Millisecond),
	)
	return body, nil
}

// readAllWithLimit reads r up to limit bytes. limit <= 0 reads everything.
func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}

// normalizeScheme turns the webcal:// links calendar apps hand out into https.
func normalizeScheme(u string) string {
	if len(u) >= len("webcal://") && strings.EqualFold(u[:len("webcal://")], "webcal://") {
		return "https://" + u[len("webcal://"):]
	}
	return u
}

// redactURL hides everything after the host. Feed URLs usually embed a
// private token in the path or query.
//
//	https://calendar.example.com/ical/abc123/basic.ics -> https://calendar.example.com/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j != -1 {
		rest = rest[:j]
	}
	// Drop userinfo as well.
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	return u[:i+3] + rest + redactedSuffix
}
