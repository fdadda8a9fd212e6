package contactout

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Sentinel errors for upstream failures. Match with errors.Is.
var (
	ErrBadRequest           = errors.New("contactout: bad request")
	ErrAuthenticationFailed = errors.New("contactout: authentication failed")
	ErrForbidden            = errors.New("contactout: access forbidden")
	ErrRateLimited          = errors.New("contactout: rate limit exceeded")
	ErrUpstream             = errors.New("contactout: upstream error")
	ErrNetwork              = errors.New("contactout: network error")
)

// APIError is a non-2xx response. Body holds the raw response for logging
// and must not be returned to callers.
type APIError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
	Body       []byte
}

func (e *APIError) Error() string {
	switch e.Status {
	case http.StatusUnauthorized:
		return "contactout: authentication failed: invalid API key"
	case http.StatusTooManyRequests:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("contactout: rate limit exceeded, retry after %d seconds", int(e.RetryAfter.Seconds()))
		}
		return "contactout: rate limit exceeded"
	}
	return fmt.Sprintf("contactout: API error (%d): %s", e.Status, e.Message)
}

// Unwrap maps the status to its sentinel.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrAuthenticationFailed
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("contactout: network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now).Round(time.Second)
	}
	return 0
}
