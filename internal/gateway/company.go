package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"leadgen/internal/cache"
	"leadgen/internal/contactout"
	"leadgen/internal/models"
	"leadgen/internal/validation"
)

// MaxBulkProfiles caps one bulk enrichment submission.
const MaxBulkProfiles = 100

// CompanyInfo is the enrichment result for one domain. Company lookups are free.
type CompanyInfo struct {
	Domain      string          `json:"domain"`
	Company     *models.Company `json:"company"`
	CreditsUsed int             `json:"credits_used"`
	Source      string          `json:"source"`
	Mode        Mode            `json:"mode"`
}

// Company enriches a company domain.
func (s *Service) Company(ctx context.Context, org, domain string) (*CompanyInfo, error) {
	domain = validation.NormalizeDomain(domain)
	if ok, msg := validation.ValidateDomain(domain); !ok {
		return nil, validation.NewError("Validation failed", msg)
	}

	key := cache.CompanyKey(domain)
	var resp contactout.CompanyResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathDomainEnrich); err != nil {
			return nil, err
		}
		live, err := s.upstream.EnrichDomains(ctx, []string{domain})
		if err != nil {
			return nil, fmt.Errorf("domain enrichment: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	company, ok := resp.Lookup(domain)
	if !ok {
		return nil, fmt.Errorf("%s: %w", domain, ErrCompanyNotFound)
	}
	return &CompanyInfo{
		Domain:  domain,
		Company: company,
		Source:  "contactout",
		Mode:    modeFor(cached),
	}, nil
}

// DecisionMakers lists leadership profiles at a company.
type DecisionMakers struct {
	Domain      string           `json:"company_domain"`
	Profiles    []models.Profile `json:"decision_makers"`
	TotalFound  int              `json:"total_found"`
	CreditsUsed int              `json:"credits_used"`
	Mode        Mode             `json:"mode"`
}

// DecisionMakers finds leadership at a domain. With reveal set, each profile
// returned by a live call costs one credit.
func (s *Service) DecisionMakers(ctx context.Context, org, domain string, reveal bool) (*DecisionMakers, error) {
	domain = validation.NormalizeDomain(domain)
	if ok, msg := validation.ValidateDomain(domain); !ok {
		return nil, validation.NewError("Validation failed", msg)
	}

	key := cache.DecisionMakersKey(map[string]any{"domain": domain, "reveal_info": reveal})
	var resp contactout.SearchResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathDecisionMakers); err != nil {
			return nil, err
		}
		live, err := s.upstream.DecisionMakers(ctx, domain, reveal)
		if err != nil {
			return nil, fmt.Errorf("decision makers: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	out := &DecisionMakers{
		Domain:     domain,
		Profiles:   []models.Profile(resp.Profiles),
		TotalFound: len(resp.Profiles),
		Mode:       modeFor(cached),
	}
	if out.Profiles == nil {
		out.Profiles = []models.Profile{}
	}
	if reveal && !cached {
		out.CreditsUsed = out.TotalFound
	}
	return out, nil
}

// maxCompanyNameLength caps the company-employees lookup term.
const maxCompanyNameLength = 100

// Employee is the trimmed profile returned by a company employees lookup.
type Employee struct {
	Name        string          `json:"name"`
	JobTitle    string          `json:"job_title,omitempty"`
	Headline    string          `json:"headline,omitempty"`
	LinkedInURL string          `json:"linkedin_url"`
	Location    string          `json:"location,omitempty"`
	Company     *models.Company `json:"company,omitempty"`
}

// EmployeeStats counts how complete the returned employees are.
type EmployeeStats struct {
	TotalEmployees int `json:"total_employees"`
	WithTitles     int `json:"with_titles"`
	WithLocations  int `json:"with_locations"`
}

// CompanyEmployees lists people at a company found by name.
type CompanyEmployees struct {
	CompanyName       string        `json:"company_name"`
	TotalResults      int           `json:"total_results"`
	EmployeesReturned int           `json:"employees_returned"`
	Employees         []Employee    `json:"profiles"`
	Statistics        EmployeeStats `json:"statistics"`
	CreditsUsed       int           `json:"credits_used"`
	Mode              Mode          `json:"mode"`
}

// CompanyEmployees looks up people at a company by name. Contact values are
// never revealed, so it never costs credits.
func (s *Service) CompanyEmployees(ctx context.Context, org, company string) (*CompanyEmployees, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, validation.NewError("Validation failed", "company is required")
	}
	if utf8.RuneCountInString(company) > maxCompanyNameLength {
		return nil, validation.NewError("Validation failed",
			fmt.Sprintf("company must be a string with max %d characters", maxCompanyNameLength))
	}

	key := cache.DecisionMakersKey(map[string]any{"name": strings.ToLower(company), "reveal_info": false})
	var resp contactout.SearchResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathDecisionMakers); err != nil {
			return nil, err
		}
		live, err := s.upstream.CompanyEmployees(ctx, company)
		if err != nil {
			return nil, fmt.Errorf("company employees: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	out := &CompanyEmployees{
		CompanyName: company,
		Employees:   make([]Employee, 0, len(resp.Profiles)),
		Mode:        modeFor(cached),
	}
	if resp.Metadata != nil {
		out.TotalResults = resp.Metadata.TotalResults
	}
	for _, p := range resp.Profiles {
		out.Employees = append(out.Employees, Employee{
			Name:        p.FullName,
			JobTitle:    p.Title,
			Headline:    p.Headline,
			LinkedInURL: p.LinkedInURL,
			Location:    p.Location,
			Company:     p.Company,
		})
		if p.Title != "" {
			out.Statistics.WithTitles++
		}
		if p.Location != "" {
			out.Statistics.WithLocations++
		}
	}
	out.EmployeesReturned = len(out.Employees)
	out.Statistics.TotalEmployees = len(out.Employees)

	slog.Info("company employees retrieved", "org", org, "company", company,
		"total_results", out.TotalResults, "returned", out.EmployeesReturned, "mode", out.Mode)
	return out, nil
}

// BulkSubmission acknowledges a queued bulk enrichment.
type BulkSubmission struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	ProfilesQueued int    `json:"prospects_queued"`
	Mode           Mode   `json:"mode"`
}

// SubmitBulk queues enrichment of up to MaxBulkProfiles LinkedIn profiles.
func (s *Service) SubmitBulk(ctx context.Context, org string, profileURLs []string, includePhone bool) (*BulkSubmission, error) {
	if len(profileURLs) == 0 {
		return nil, validation.NewError("Validation failed", "linkedin_urls array is required")
	}
	if len(profileURLs) > MaxBulkProfiles {
		return nil, validation.NewError("Validation failed",
			fmt.Sprintf("Maximum %d prospects can be enriched per request", MaxBulkProfiles))
	}
	var details []string
	for i, u := range profileURLs {
		if ok, msg := validation.ValidateLinkedInURL(u); !ok {
			details = append(details, fmt.Sprintf("linkedin_urls[%d]: %s", i, msg))
		}
	}
	if len(details) > 0 {
		return nil, validation.NewError("Validation failed", details...)
	}

	if err := s.admit(ctx, org, contactout.PathBulkSubmit); err != nil {
		return nil, err
	}
	job, err := s.upstream.SubmitBulk(ctx, profileURLs, includePhone)
	if err != nil {
		return nil, fmt.Errorf("bulk submit: %w", err)
	}

	slog.Info("bulk enrichment queued", "org", org, "job_id", job.JobID, "profiles", len(profileURLs))
	return &BulkSubmission{
		JobID:          job.JobID,
		Status:         job.Status,
		ProfilesQueued: len(profileURLs),
		Mode:           ModeLive,
	}, nil
}

// BulkJobStatus is the state of a bulk job and, once done, its results keyed
// by LinkedIn URL.
type BulkJobStatus struct {
	JobID   string                             `json:"job_id"`
	Status  string                             `json:"status"`
	Results map[string]contactout.BulkContacts `json:"results,omitempty"`
	Mode    Mode                               `json:"mode"`
}

// BulkStatus fetches a bulk job.
func (s *Service) BulkStatus(ctx context.Context, org, jobID string) (*BulkJobStatus, error) {
	if jobID == "" {
		return nil, validation.NewError("Validation failed", "jobId is required")
	}

	if err := s.admit(ctx, org, contactout.PathBulkSubmit); err != nil {
		return nil, err
	}
	res, err := s.upstream.BulkStatus(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("bulk status: %w", err)
	}

	id := res.Data.UUID
	if id == "" {
		id = jobID
	}
	return &BulkJobStatus{
		JobID:   id,
		Status:  res.Data.Status,
		Results: res.Data.Result,
		Mode:    ModeLive,
	}, nil
}
