// Package gateway orchestrates validation, caching, rate limiting and
// upstream calls for every operation the HTTP API exposes.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"leadgen/internal/cache"
	"leadgen/internal/contactout"
	"leadgen/internal/metrics"
	"leadgen/internal/quality"
	"leadgen/internal/ratelimit"
)

// Mode says where a result came from.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeCached   Mode = "cached"
	ModeDegraded Mode = "degraded"
)

// ErrCompanyNotFound is returned when domain enrichment has no match.
var ErrCompanyNotFound = errors.New("company not found")

// Upstream is the ContactOut API as the service uses it.
type Upstream interface {
	Search(ctx context.Context, params map[string]any) (*contactout.SearchResponse, error)
	DecisionMakers(ctx context.Context, domain string, reveal bool) (*contactout.SearchResponse, error)
	CompanyEmployees(ctx context.Context, company string) (*contactout.SearchResponse, error)
	EnrichLinkedIn(ctx context.Context, profileURL string, profileOnly bool) (*contactout.EnrichResponse, error)
	EnrichEmail(ctx context.Context, email string, includeWork bool) (*contactout.EnrichResponse, error)
	EnrichDomains(ctx context.Context, domains []string) (*contactout.CompanyResponse, error)
	VerifyEmail(ctx context.Context, email string) (*contactout.VerifyResponse, error)
	ContactStatus(ctx context.Context, profileURL, contactType string) (*contactout.StatusResponse, error)
	Stats(ctx context.Context, period string) (*contactout.UsageStats, error)
	SubmitBulk(ctx context.Context, profileURLs []string, includePhone bool) (*contactout.BulkJob, error)
	BulkStatus(ctx context.Context, jobID string) (*contactout.BulkResult, error)
}

// Admitter decides whether an organization may make another upstream call.
type Admitter interface {
	Admit(ctx context.Context, org string, class ratelimit.Class) error
}

// Options tune the quality scorer.
type Options struct {
	QualityBatchSize  int
	QualityBatchPause time.Duration
}

// Service is created once at startup and shared by all handlers.
type Service struct {
	upstream Upstream
	cache    *cache.Cache
	limiter  Admitter
	scorer   *quality.Scorer
	now      func() time.Time
}

// NewService wires the service. A nil cache disables caching.
func NewService(upstream Upstream, c *cache.Cache, limiter Admitter, opts Options) *Service {
	if opts.QualityBatchSize < 1 {
		opts.QualityBatchSize = 5
	}
	s := &Service{
		upstream: upstream,
		cache:    c,
		limiter:  limiter,
		now:      time.Now,
	}
	s.scorer = quality.NewScorer(s, opts.QualityBatchSize, opts.QualityBatchPause)
	return s
}

// admit charges one call against the class of an upstream path.
func (s *Service) admit(ctx context.Context, org, path string) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Admit(ctx, org, ratelimit.Classify(path))
}

func modeFor(cached bool) Mode {
	if cached {
		return ModeCached
	}
	return ModeLive
}

// Probe runs one free availability check. It is charged to the
// contact_checker class, so a rejected admission fails the probe.
func (s *Service) Probe(ctx context.Context, org, profileURL string, t quality.ProbeType) (quality.ProbeResult, error) {
	path := contactout.StatusPath(string(t))
	if err := s.admit(ctx, org, path); err != nil {
		return quality.ProbeResult{}, err
	}

	resp, err := s.upstream.ContactStatus(ctx, profileURL, string(t))
	if err != nil {
		return quality.ProbeResult{}, err
	}

	if t == quality.ProbePhone {
		return quality.ProbeResult{Available: resp.Profile.Phone}, nil
	}
	return quality.ProbeResult{
		Available: resp.Profile.Email,
		Verified:  t == quality.ProbeWorkEmail && strings.EqualFold(resp.Profile.EmailStatus, "verified"),
	}, nil
}

// HealthStatus reports upstream connectivity.
type HealthStatus struct {
	Status           string `json:"status"`
	APIConnected     bool   `json:"api_connected"`
	RemainingCredits int    `json:"remaining_credits,omitempty"`
	CacheEnabled     bool   `json:"cache_enabled"`
	Error            string `json:"error,omitempty"`
}

// Healthy reports whether the upstream answered.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// Health checks the upstream with a usage stats call. It bypasses the rate
// limiter and never returns an error. Failure details are logged, not reported.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{CacheEnabled: s.cache.Enabled()}

	stats, err := s.upstream.Stats(ctx, "")
	if err != nil {
		slog.Warn("upstream health check failed", "error", err)
		status.Status = "unhealthy"
		status.Error = "upstream unreachable"
		return status
	}

	status.Status = "healthy"
	status.APIConnected = true
	status.RemainingCredits = stats.Usage.Remaining
	if status.RemainingCredits == 0 {
		status.RemainingCredits = stats.Usage.Quota
	}
	return status
}

// IsRateLimited reports whether err came from either our limiter or the
// upstream's.
func IsRateLimited(err error) bool {
	return errors.Is(err, ratelimit.ErrExceeded) || errors.Is(err, contactout.ErrRateLimited)
}

// creditBalances flattens usage stats into the metric snapshot.
func creditBalances(stats *contactout.UsageStats) []metrics.CreditBalance {
	u := stats.Usage
	return []metrics.CreditBalance{
		{Kind: "email", Used: u.Count, Quota: u.Quota, Remaining: u.Remaining},
		{Kind: "phone", Used: u.PhoneCount, Quota: u.PhoneQuota, Remaining: u.PhoneRemaining},
		{Kind: "search", Used: u.SearchCount, Quota: u.SearchQuota, Remaining: u.SearchRemaining},
	}
}
