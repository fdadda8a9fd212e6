// Package ratelimit enforces per-organization request budgets for upstream
// endpoints using a fixed one-minute window in a shared counter store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadgen/internal/metrics"
)

// Class is an upstream endpoint tier with its own capacity.
type Class string

const (
	PeopleSearch   Class = "people_search"
	ContactChecker Class = "contact_checker"
	Other          Class = "other"
)

// Window is the length of one counting window.
const Window = time.Minute

// KeyPrefix namespaces counter keys in the shared store.
const KeyPrefix = "leadgen:ratelimit:"

var (
	// ErrExceeded matches every *ExceededError.
	ErrExceeded = errors.New("rate limit exceeded")
	// ErrStoreUnavailable is returned when the counter store fails and the
	// limiter is configured to fail closed.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)

// ExceededError reports a rejected admission and how long until the window resets.
type ExceededError struct {
	Class      Class
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Class, e.RetryAfter.Round(time.Second))
}

func (e *ExceededError) Is(target error) bool {
	return target == ErrExceeded
}

// Classify maps an upstream path to its class.
func Classify(path string) Class {
	switch {
	case strings.Contains(path, "search"):
		return PeopleSearch
	case strings.HasSuffix(path, "status"):
		return ContactChecker
	default:
		return Other
	}
}

// Counter atomically increments the counter at key when it is below limit.
// The counter expires after ttl. It returns whether the increment happened
// and the count afterwards.
type Counter interface {
	Increment(ctx context.Context, key string, limit int, ttl time.Duration) (allowed bool, count int, err error)
}

// DefaultCapacities are the per-window budgets per class.
func DefaultCapacities() map[Class]int {
	return map[Class]int{
		PeopleSearch:   60,
		ContactChecker: 150,
		Other:          1000,
	}
}

// Limiter admits or rejects calls per (organization, class).
type Limiter struct {
	counter    Counter
	capacities map[Class]int
	failClosed bool
	now        func() time.Time
}

// New creates a limiter. Capacities missing from caps use DefaultCapacities.
// With failClosed set, counter store errors reject the call with
// ErrStoreUnavailable; otherwise the call is admitted.
func New(counter Counter, caps map[Class]int, failClosed bool) *Limiter {
	merged := DefaultCapacities()
	for class, n := range caps {
		if n > 0 {
			merged[class] = n
		}
	}
	return &Limiter{
		counter:    counter,
		capacities: merged,
		failClosed: failClosed,
		now:        time.Now,
	}
}

// Capacity returns the per-window budget of a class.
func (l *Limiter) Capacity(class Class) int {
	if n, ok := l.capacities[class]; ok {
		return n
	}
	return l.capacities[Other]
}

// Admit consumes one unit of the organization's budget for class. It returns
// nil, an *ExceededError, or ErrStoreUnavailable.
func (l *Limiter) Admit(ctx context.Context, org string, class Class) error {
	now := l.now()
	windowStart := now.Truncate(Window)
	key := fmt.Sprintf("%s%s:%s:%d", KeyPrefix, class, org, windowStart.UnixMilli())

	allowed, count, err := l.counter.Increment(ctx, key, l.Capacity(class), Window)
	if err != nil {
		metrics.RecordRateLimit(string(class), "store_error")
		if l.failClosed {
			slog.Error("rate limit store unavailable, rejecting", "class", class, "org", org, "error", err)
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		slog.Warn("rate limit store unavailable, admitting", "class", class, "org", org, "error", err)
		return nil
	}

	if !allowed {
		metrics.RecordRateLimit(string(class), "rejected")
		retryAfter := windowStart.Add(Window).Sub(now)
		slog.Info("rate limit exceeded", "class", class, "org", org, "count", count, "retry_after", retryAfter)
		return &ExceededError{Class: class, RetryAfter: retryAfter}
	}

	metrics.RecordRateLimit(string(class), "admitted")
	return nil
}
