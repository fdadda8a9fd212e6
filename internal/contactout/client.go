// Package contactout is the HTTP client for the ContactOut API. It applies
// the fixed authentication headers and timeout, classifies failures into
// typed errors and normalizes response shapes.
package contactout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leadgen/internal/metrics"
)

// Upstream paths.
const (
	PathSearch         = "/v1/people/search"
	PathDecisionMakers = "/v1/people/decision-makers"
	PathLinkedInEnrich = "/v1/linkedin/enrich"
	PathEmailEnrich    = "/v1/email/enrich"
	PathDomainEnrich   = "/v1/domain/enrich"
	PathEmailVerify    = "/v1/email/verify"
	PathStats          = "/v1/stats"
	PathBulkSubmit     = "/v2/people/linkedin/batch"
	pathBulkStatus     = "/v2/people/linkedin/batch/{id}"
)

// StatusPath returns the availability check path for a contact type:
// personal_email, work_email or phone.
func StatusPath(contactType string) string {
	return "/v1/people/linkedin/" + contactType + "_status"
}

// DefaultTimeout bounds every upstream call.
const DefaultTimeout = 30 * time.Second

const (
	userAgent       = "leadgen-gateway/1.0"
	maxResponseBody = 10 << 20
)

// Client calls the ContactOut API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type request struct {
	method string
	path   string
	label  string // metrics label, defaults to path
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.label == "" {
		r.label = r.path
	}
	op := r.method + " " + r.label

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("authorization", "basic")
	req.Header.Set("token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(r.label, 0, time.Since(start))
		slog.Error("contactout request failed", "op", op, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(r.label, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:     resp.StatusCode,
			Message:    errorMessage(data, resp.Status),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Body:       data,
		}
		slog.Error("contactout API error",
			"op", op,
			"status", resp.StatusCode,
			"message", apiErr.Message,
			"body", string(data),
		)
		return apiErr
	}

	slog.Debug("contactout response", "op", op, "status", resp.StatusCode, "bytes", len(data))

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Error("contactout response not decodable", "op", op, "error", err)
		return &APIError{Status: resp.StatusCode, Message: "invalid response body", Body: data}
	}
	return nil
}

// errorMessage pulls a message out of an error body, falling back to the status text.
func errorMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fallback
}

// Search runs a people search with normalized parameters.
func (c *Client) Search(ctx context.Context, params map[string]any) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: PathSearch, body: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecisionMakers finds leadership profiles at a company domain.
func (c *Client) DecisionMakers(ctx context.Context, domain string, reveal bool) (*SearchResponse, error) {
	return c.decisionMakers(ctx, "domain", domain, reveal)
}

// CompanyEmployees finds profiles at a company by name. Contact values are
// never revealed, so the call is free.
func (c *Client) CompanyEmployees(ctx context.Context, company string) (*SearchResponse, error) {
	return c.decisionMakers(ctx, "name", company, false)
}

func (c *Client) decisionMakers(ctx context.Context, field, value string, reveal bool) (*SearchResponse, error) {
	q := url.Values{}
	q.Set(field, value)
	q.Set("reveal_info", strconv.FormatBool(reveal))

	var out SearchResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: PathDecisionMakers, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrichLinkedIn enriches a LinkedIn profile. Unless profileOnly is set the
// response includes contact values and consumes credits.
func (c *Client) EnrichLinkedIn(ctx context.Context, profileURL string, profileOnly bool) (*EnrichResponse, error) {
	q := url.Values{}
	q.Set("profile", profileURL)
	q.Set("profile_only", strconv.FormatBool(profileOnly))

	var out EnrichResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: PathLinkedInEnrich, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrichEmail looks up a profile by email address.
func (c *Client) EnrichEmail(ctx context.Context, email string, includeWork bool) (*EnrichResponse, error) {
	q := url.Values{}
	q.Set("email", email)
	if includeWork {
		q.Set("include", "work_email")
	}

	var out EnrichResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: PathEmailEnrich, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrichDomains fetches company data for one or more domains.
func (c *Client) EnrichDomains(ctx context.Context, domains []string) (*CompanyResponse, error) {
	body := map[string]any{"domains": domains}

	var out CompanyResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: PathDomainEnrich, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail checks deliverability of an email address.
func (c *Client) VerifyEmail(ctx context.Context, email string) (*VerifyResponse, error) {
	q := url.Values{}
	q.Set("email", email)

	var out VerifyResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: PathEmailVerify, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContactStatus runs a free availability check for one contact type.
func (c *Client) ContactStatus(ctx context.Context, profileURL, contactType string) (*StatusResponse, error) {
	q := url.Values{}
	q.Set("profile", profileURL)

	var out StatusResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: StatusPath(contactType), query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns credit usage. period may be empty.
func (c *Client) Stats(ctx context.Context, period string) (*UsageStats, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}

	var out UsageStats
	if err := c.do(ctx, request{method: http.MethodGet, path: PathStats, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBulk queues a bulk LinkedIn enrichment.
func (c *Client) SubmitBulk(ctx context.Context, profileURLs []string, includePhone bool) (*BulkJob, error) {
	body := map[string]any{"profiles": profileURLs, "include_phone": includePhone}

	var out BulkJob
	if err := c.do(ctx, request{method: http.MethodPost, path: PathBulkSubmit, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkStatus fetches the state and results of a bulk job.
func (c *Client) BulkStatus(ctx context.Context, jobID string) (*BulkResult, error) {
	if jobID == "" {
		return nil, errors.New("contactout: job id is required")
	}

	var out BulkResult
	r := request{method: http.MethodGet, path: PathBulkSubmit + "/" + url.PathEscape(jobID), label: pathBulkStatus}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
