package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/contactout"
	"leadgen/internal/gateway"
	"leadgen/internal/middleware"
	"leadgen/internal/models"
	"leadgen/internal/ratelimit"
	"leadgen/internal/search"
	"leadgen/internal/validation"
)

// fakeGateway records the last call and returns err when set.
type fakeGateway struct {
	err     error
	org     string
	filter  search.Filter
	reveal  []string
	domain  string
	urls    []string
	health  gateway.HealthStatus
	scored  []models.Profile
	jobID   string
	revealD bool
	company string
}

func (f *fakeGateway) Search(_ context.Context, org string, filter search.Filter) (*gateway.SearchPage, error) {
	f.org, f.filter = org, filter
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.SearchPage{Profiles: []models.Profile{{FullName: "X"}}, Mode: gateway.ModeLive}, nil
}

func (f *fakeGateway) Reveal(_ context.Context, org, url string, types []string) (*gateway.RevealResult, error) {
	f.org, f.reveal = org, types
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.RevealResult{LinkedInURL: url, CreditsUsed: 1, Mode: gateway.ModeLive}, nil
}

func (f *fakeGateway) VerifyEmail(_ context.Context, org, email string) (*gateway.EmailVerification, error) {
	f.org = org
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.EmailVerification{Email: email, IsValid: true, Status: "valid"}, nil
}

func (f *fakeGateway) EnrichEmail(_ context.Context, org, email string, _ bool) (*gateway.EmailEnrichment, error) {
	f.org = org
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.EmailEnrichment{Email: email}, nil
}

func (f *fakeGateway) Credits(_ context.Context, org string) (*gateway.Credits, error) {
	f.org = org
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Credits{EmailCredits: 42}, nil
}

func (f *fakeGateway) Company(_ context.Context, org, domain string) (*gateway.CompanyInfo, error) {
	f.org, f.domain = org, domain
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.CompanyInfo{Domain: domain, Company: &models.Company{Name: "Acme"}}, nil
}

func (f *fakeGateway) DecisionMakers(_ context.Context, org, domain string, reveal bool) (*gateway.DecisionMakers, error) {
	f.org, f.domain, f.revealD = org, domain, reveal
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.DecisionMakers{Domain: domain}, nil
}

func (f *fakeGateway) CompanyEmployees(_ context.Context, org, company string) (*gateway.CompanyEmployees, error) {
	f.org, f.company = org, company
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.CompanyEmployees{
		CompanyName:       company,
		EmployeesReturned: 2,
		Statistics:        gateway.EmployeeStats{TotalEmployees: 2, WithTitles: 2, WithLocations: 1},
	}, nil
}

func (f *fakeGateway) SubmitBulk(_ context.Context, org string, urls []string, _ bool) (*gateway.BulkSubmission, error) {
	f.org, f.urls = org, urls
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.BulkSubmission{JobID: "job-1", ProfilesQueued: len(urls)}, nil
}

func (f *fakeGateway) BulkStatus(_ context.Context, org, jobID string) (*gateway.BulkJobStatus, error) {
	f.org, f.jobID = org, jobID
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.BulkJobStatus{JobID: jobID, Status: "DONE"}, nil
}

func (f *fakeGateway) ScoreProfiles(_ context.Context, org string, profiles []models.Profile) (*gateway.ScoreReport, error) {
	f.org, f.scored = org, profiles
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.ScoreReport{}, nil
}

func (f *fakeGateway) Health(context.Context) gateway.HealthStatus {
	return f.health
}

func newTestApp(gw *fakeGateway, degraded bool) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewOrgMiddleware(nil, "").Resolve)

	searchHandler := NewSearchHandler(gw, degraded)
	contacts := NewContactsHandler(gw)
	company := NewCompanyHandler(gw)
	qualityHandler := NewQualityHandler(gw)
	health := NewHealthHandler(gw, nil)

	app.Post("/api/search", searchHandler.Search)
	app.Get("/api/search/filters", searchHandler.Filters)
	app.Post("/api/contacts/reveal", contacts.Reveal)
	app.Post("/api/contacts/verify-email", contacts.VerifyEmail)
	app.Post("/api/contacts/enrich-email", contacts.EnrichEmail)
	app.Get("/api/credits", contacts.Credits)
	app.Get("/api/company/:domain", company.Get)
	app.Get("/api/company/:domain/decision-makers", company.DecisionMakers)
	app.Get("/api/company-employees", company.Employees)
	app.Post("/api/company/bulk-enrich", company.BulkEnrich)
	app.Get("/api/company/bulk-job/:jobId", company.BulkJob)
	app.Post("/api/quality/score", qualityHandler.Score)
	app.Get("/health", health.Upstream)
	return app
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    []string        `json:"details"`
	RetryAfter int             `json:"retry_after"`
	Timestamp  string          `json:"timestamp"`
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: response is not JSON: %s", method, path, raw)
	}
	return resp, env
}

func TestSearch_Success(t *testing.T) {
	gw := &fakeGateway{}
	app := newTestApp(gw, false)

	resp, env := do(t, app, "POST", "/api/search", `{"job_title":"CEO","company":"Microsoft"}`,
		map[string]string{middleware.HeaderOrgID: "acme"})
	if resp.StatusCode != 200 || !env.Success {
		t.Fatalf("status = %d env = %+v", resp.StatusCode, env)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", env.Timestamp, err)
	}
	if gw.org != "acme" || gw.filter["job_title"] != "CEO" {
		t.Errorf("org = %q filter = %v", gw.org, gw.filter)
	}

	var page gateway.SearchPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.Mode != gateway.ModeLive || len(page.Profiles) != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"array body", `[]`},
		{"bad page", `{"job_title":"CEO","page":0}`},
		{"bad company size", `{"company_size":["huge"]}`},
		{"too many excluded", `{"job_title":"x","exclude_companies":["a","b","c","d","e","f"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			resp, env := do(t, newTestApp(gw, false), "POST", "/api/search", tt.body, nil)
			if resp.StatusCode != 400 || env.Success {
				t.Errorf("status = %d env = %+v", resp.StatusCode, env)
			}
			if gw.filter != nil {
				t.Error("invalid request reached the gateway")
			}
		})
	}
}

func TestSearch_DegradedMode(t *testing.T) {
	limited := &ratelimit.ExceededError{Class: ratelimit.PeopleSearch, RetryAfter: 12 * time.Second}

	t.Run("enabled", func(t *testing.T) {
		resp, env := do(t, newTestApp(&fakeGateway{err: limited}, true), "POST", "/api/search", `{"keyword":"go"}`, nil)
		if resp.StatusCode != 200 {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var page gateway.SearchPage
		if err := json.Unmarshal(env.Data, &page); err != nil {
			t.Fatal(err)
		}
		if page.Mode != gateway.ModeDegraded {
			t.Errorf("Mode = %q, want degraded", page.Mode)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		resp, env := do(t, newTestApp(&fakeGateway{err: limited}, false), "POST", "/api/search", `{"keyword":"go"}`, nil)
		if resp.StatusCode != 429 || env.RetryAfter != 12 {
			t.Errorf("status = %d retry_after = %d", resp.StatusCode, env.RetryAfter)
		}
		if resp.Header.Get("Retry-After") != "12" {
			t.Errorf("Retry-After = %q", resp.Header.Get("Retry-After"))
		}
	})

	t.Run("other errors are not masked", func(t *testing.T) {
		gw := &fakeGateway{err: &contactout.APIError{Status: 500, Message: "boom"}}
		resp, _ := do(t, newTestApp(gw, true), "POST", "/api/search", `{"keyword":"go"}`, nil)
		if resp.StatusCode != 502 {
			t.Errorf("status = %d, want 502", resp.StatusCode)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRetry  string
	}{
		{"validation", validation.NewError("Validation failed", "bad"), 400, ""},
		{"upstream bad request", &contactout.APIError{Status: 400, Message: "bad filter"}, 400, ""},
		{"authentication", &contactout.APIError{Status: 401}, 401, ""},
		{"forbidden", &contactout.APIError{Status: 403}, 403, ""},
		{"upstream rate limit", &contactout.APIError{Status: 429, RetryAfter: 30 * time.Second}, 429, "30"},
		{"upstream rate limit without hint", &contactout.APIError{Status: 429}, 429, "60"},
		{"local rate limit", &ratelimit.ExceededError{Class: ratelimit.Other, RetryAfter: 1500 * time.Millisecond}, 429, "2"},
		{"upstream failure", &contactout.APIError{Status: 503, Message: "secret internals"}, 502, ""},
		{"network", &contactout.NetworkError{Op: "GET /v1/stats", Err: errors.New("refused")}, 500, ""},
		{"store unavailable", ratelimit.ErrStoreUnavailable, 503, ""},
		{"company not found", gateway.ErrCompanyNotFound, 404, ""},
		{"unknown", errors.New("kaboom"), 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeGateway{err: tt.err}, false)
			resp, env := do(t, app, "GET", "/api/credits", "", nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if env.Success || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
			if got := resp.Header.Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			if strings.Contains(env.Error, "secret internals") {
				t.Error("upstream message leaked to client")
			}
		})
	}
}

func TestErrorMapping_ValidationDetails(t *testing.T) {
	gw := &fakeGateway{err: validation.NewError("Validation failed", "first", "second")}
	_, env := do(t, newTestApp(gw, false), "GET", "/api/credits", "", nil)
	if len(env.Details) != 2 || env.Details[0] != "first" {
		t.Errorf("Details = %v", env.Details)
	}
}

func TestContacts_Reveal(t *testing.T) {
	gw := &fakeGateway{}
	app := newTestApp(gw, false)

	resp, _ := do(t, app, "POST", "/api/contacts/reveal", `{"reveal_types":["email"]}`, nil)
	if resp.StatusCode != 400 {
		t.Errorf("missing url status = %d, want 400", resp.StatusCode)
	}

	resp, env := do(t, app, "POST", "/api/contacts/reveal",
		`{"linkedin_url":"https://linkedin.com/in/jane","reveal_types":["email","phone"]}`, nil)
	if resp.StatusCode != 200 || !env.Success {
		t.Fatalf("status = %d env = %+v", resp.StatusCode, env)
	}
	if gw.org != middleware.DefaultOrg || len(gw.reveal) != 2 {
		t.Errorf("org = %q types = %v", gw.org, gw.reveal)
	}
}

func TestContacts_RequiredEmail(t *testing.T) {
	app := newTestApp(&fakeGateway{}, false)
	for _, path := range []string{"/api/contacts/verify-email", "/api/contacts/enrich-email"} {
		t.Run(path, func(t *testing.T) {
			resp, env := do(t, app, "POST", path, `{}`, nil)
			if resp.StatusCode != 400 || env.Error != "email is required" {
				t.Errorf("status = %d error = %q", resp.StatusCode, env.Error)
			}
		})
	}
}

func TestCompany_Routes(t *testing.T) {
	gw := &fakeGateway{}
	app := newTestApp(gw, false)

	resp, _ := do(t, app, "GET", "/api/company/microsoft.com", "", nil)
	if resp.StatusCode != 200 || gw.domain != "microsoft.com" {
		t.Errorf("status = %d domain = %q", resp.StatusCode, gw.domain)
	}

	resp, _ = do(t, app, "GET", "/api/company/acme.com/decision-makers?reveal_info=true", "", nil)
	if resp.StatusCode != 200 || gw.domain != "acme.com" || !gw.revealD {
		t.Errorf("status = %d domain = %q reveal = %v", resp.StatusCode, gw.domain, gw.revealD)
	}

	resp, _ = do(t, app, "POST", "/api/company/bulk-enrich", `{"linkedin_urls":["https://linkedin.com/in/a"]}`, nil)
	if resp.StatusCode != 200 || len(gw.urls) != 1 {
		t.Errorf("status = %d urls = %v", resp.StatusCode, gw.urls)
	}

	resp, _ = do(t, app, "GET", "/api/company/bulk-job/job-7", "", nil)
	if resp.StatusCode != 200 || gw.jobID != "job-7" {
		t.Errorf("status = %d job = %q", resp.StatusCode, gw.jobID)
	}
}

func TestCompany_Employees(t *testing.T) {
	gw := &fakeGateway{}
	app := newTestApp(gw, false)

	resp, env := do(t, app, "GET", "/api/company-employees", "", nil)
	if resp.StatusCode != 400 || env.Error != "company is required" {
		t.Errorf("missing company status = %d error = %q", resp.StatusCode, env.Error)
	}
	if gw.company != "" {
		t.Error("request without company reached the gateway")
	}

	resp, env = do(t, app, "GET", "/api/company-employees?company=Microsoft", "", nil)
	if resp.StatusCode != 200 || gw.company != "Microsoft" {
		t.Fatalf("status = %d company = %q", resp.StatusCode, gw.company)
	}
	var data struct {
		CreditsUsed int `json:"credits_used"`
		Statistics  struct {
			TotalEmployees int `json:"total_employees"`
			WithTitles     int `json:"with_titles"`
			WithLocations  int `json:"with_locations"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.CreditsUsed != 0 || data.Statistics.WithTitles != 2 || data.Statistics.WithLocations != 1 {
		t.Errorf("data = %+v", data)
	}
}

func TestQuality_Score(t *testing.T) {
	gw := &fakeGateway{}
	resp, _ := do(t, newTestApp(gw, false), "POST", "/api/quality/score",
		`{"profiles":[{"full_name":"Jane Doe","linkedin_url":"https://linkedin.com/in/jane"}]}`, nil)
	if resp.StatusCode != 200 || len(gw.scored) != 1 || gw.scored[0].FullName != "Jane Doe" {
		t.Errorf("status = %d scored = %+v", resp.StatusCode, gw.scored)
	}
}

func TestFilters(t *testing.T) {
	_, env := do(t, newTestApp(&fakeGateway{}, false), "GET", "/api/search/filters", "", nil)
	var cat search.Catalogue
	if err := json.Unmarshal(env.Data, &cat); err != nil {
		t.Fatal(err)
	}
	if _, ok := cat.Filters["match_experience"]; !ok {
		t.Error("catalogue is missing match_experience")
	}
	if len(cat.Examples) == 0 {
		t.Error("catalogue has no examples")
	}
}

func TestHealth_Upstream(t *testing.T) {
	resp, _ := do(t, newTestApp(&fakeGateway{health: gateway.HealthStatus{Status: "healthy"}}, false), "GET", "/health", "", nil)
	if resp.StatusCode != 200 {
		t.Errorf("healthy status = %d", resp.StatusCode)
	}

	resp, env := do(t, newTestApp(&fakeGateway{health: gateway.HealthStatus{Status: "unhealthy"}}, false), "GET", "/health", "", nil)
	if resp.StatusCode != 503 || env.Success {
		t.Errorf("unhealthy status = %d env = %+v", resp.StatusCode, env)
	}
}
