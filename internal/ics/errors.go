package ics

import (
	"errors"
	"fmt"
)

// TransportError covers everything that went wrong before a complete body
// was in hand: DNS, connect, non-2xx status, oversized or truncated body.
type TransportError struct {
	URL        string // already redacted
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the body arrived but is not a usable calendar.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse calendar: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResponseTooLargeError reports that the feed body exceeded the configured limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsTransport reports whether err came from the fetch step.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse reports whether err came from the parse step.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
