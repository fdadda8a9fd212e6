package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"leadgen/internal/cache"
	"leadgen/internal/contactout"
	"leadgen/internal/models"
	"leadgen/internal/quality"
	"leadgen/internal/search"
	"leadgen/internal/validation"
)

// fallbackPageSize is used for total_pages when the upstream omits page_size.
const fallbackPageSize = 25

// maxScoredProfiles caps a direct scoring request.
const maxScoredProfiles = 100

// SearchMetadata is the pagination block of a search page.
type SearchMetadata struct {
	TotalResults int `json:"total_results"`
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
}

// QualitySummary counts scored profiles per confidence bucket.
type QualitySummary struct {
	High            int `json:"high"`
	Medium          int `json:"medium"`
	Low             int `json:"low"`
	CostRecommended int `json:"cost_recommended"`
}

// SearchPage is one page of people search results.
type SearchPage struct {
	Metadata       SearchMetadata   `json:"metadata"`
	FiltersApplied []string         `json:"filters_applied"`
	Profiles       []models.Profile `json:"profiles"`
	CreditsUsed    int              `json:"credits_used"`
	QualitySummary *QualitySummary  `json:"quality_summary,omitempty"`
	Mode           Mode             `json:"mode"`
}

// Search runs a people search. Identical normalized filters are served from
// the cache. Revealed profiles cost one credit each on a live call.
func (s *Service) Search(ctx context.Context, org string, filter search.Filter) (*SearchPage, error) {
	params, err := search.Normalize(filter)
	if err != nil {
		return nil, err
	}

	key := cache.SearchKey(params)
	var resp contactout.SearchResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathSearch); err != nil {
			return nil, err
		}
		live, err := s.upstream.Search(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("people search: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	page := &SearchPage{
		Metadata:       searchMetadata(resp.Metadata, params, len(resp.Profiles)),
		FiltersApplied: params.AppliedFilters(),
		Profiles:       []models.Profile(resp.Profiles),
		Mode:           modeFor(cached),
	}
	if page.Profiles == nil {
		page.Profiles = []models.Profile{}
	}
	if params.RevealInfo() && !cached {
		page.CreditsUsed = len(page.Profiles)
	}

	if opts := filter.QualityOptions(); opts.Verify && len(page.Profiles) > 0 {
		results, err := s.scorer.ScoreAll(ctx, org, page.Profiles)
		if err != nil {
			return nil, fmt.Errorf("quality scoring: %w", err)
		}
		page.Profiles, page.QualitySummary = applyScores(results, len(page.Profiles), opts.SortByQuality)
	}

	slog.Info("people search completed",
		"org", org,
		"mode", page.Mode,
		"total_results", page.Metadata.TotalResults,
		"returned", len(page.Profiles),
		"credits_used", page.CreditsUsed,
	)
	return page, nil
}

func searchMetadata(m *contactout.SearchMetadata, params search.Params, returned int) SearchMetadata {
	out := SearchMetadata{Page: params.Page(), PageSize: fallbackPageSize, TotalResults: returned}
	if m != nil {
		out.TotalResults = m.TotalResults
		if m.Page > 0 {
			out.Page = m.Page
		}
		if m.PageSize > 0 {
			out.PageSize = m.PageSize
		}
	}
	out.TotalPages = (out.TotalResults + out.PageSize - 1) / out.PageSize
	return out
}

// applyScores attaches scores to profiles. Without sortByQuality the
// upstream order is restored.
func applyScores(results []quality.Result, n int, sortByQuality bool) ([]models.Profile, *QualitySummary) {
	profiles := make([]models.Profile, n)
	summary := &QualitySummary{}
	for pos, r := range results {
		p := r.Profile
		q := r.Quality
		p.Quality = &q
		if sortByQuality {
			profiles[pos] = p
		} else {
			profiles[r.Index] = p
		}

		switch q.Confidence {
		case models.ConfidenceHigh:
			summary.High++
		case models.ConfidenceMedium:
			summary.Medium++
		default:
			summary.Low++
		}
		if q.CostRecommended {
			summary.CostRecommended++
		}
	}
	return profiles, summary
}

// ScoredProfile is a profile with the probe results and score behind it.
type ScoredProfile struct {
	Profile      models.Profile             `json:"profile"`
	Availability models.ContactAvailability `json:"contact_availability"`
	Quality      models.QualityScore        `json:"quality"`
}

// ScoreReport is the outcome of a direct scoring request, best first.
type ScoreReport struct {
	Profiles []ScoredProfile `json:"profiles"`
	Summary  QualitySummary  `json:"summary"`
}

// ScoreProfiles probes and scores caller-supplied profiles.
func (s *Service) ScoreProfiles(ctx context.Context, org string, profiles []models.Profile) (*ScoreReport, error) {
	if len(profiles) == 0 {
		return nil, validation.NewError("Validation failed", "profiles array is required")
	}
	if len(profiles) > maxScoredProfiles {
		return nil, validation.NewError("Validation failed",
			fmt.Sprintf("At most %d profiles can be scored per request", maxScoredProfiles))
	}

	results, err := s.scorer.ScoreAll(ctx, org, profiles)
	if err != nil {
		return nil, fmt.Errorf("quality scoring: %w", err)
	}

	_, summary := applyScores(results, len(results), true)
	report := &ScoreReport{Profiles: make([]ScoredProfile, len(results)), Summary: *summary}
	for i, r := range results {
		report.Profiles[i] = ScoredProfile{Profile: r.Profile, Availability: r.Availability, Quality: r.Quality}
	}
	return report, nil
}

// DegradedSearchPage returns canned demo profiles for a filter. It never
// touches the upstream and reports no credits.
func DegradedSearchPage(filter search.Filter) *SearchPage {
	applied := []string{}
	if params, err := search.Normalize(filter); err == nil {
		applied = params.AppliedFilters()
	}

	profiles := demoProfiles()
	for i := range profiles {
		q := quality.Score(&profiles[i], models.ContactAvailability{})
		profiles[i].Quality = &q
	}

	return &SearchPage{
		Metadata: SearchMetadata{
			TotalResults: len(profiles),
			Page:         1,
			PageSize:     fallbackPageSize,
			TotalPages:   1,
		},
		FiltersApplied: applied,
		Profiles:       profiles,
		Mode:           ModeDegraded,
	}
}

func demoProfiles() []models.Profile {
	return []models.Profile{
		{
			FullName:        "Alex Morgan",
			FirstName:       "Alex",
			LastName:        "Morgan",
			Title:           "Chief Executive Officer",
			Headline:        "CEO at Example Corp",
			Location:        "San Francisco, California",
			Industry:        "Computer Software",
			LinkedInURL:     "https://linkedin.com/in/demo-alex-morgan",
			ConfidenceLevel: models.ConfidenceHigh,
			Company:         &models.Company{Name: "Example Corp", Domain: "example.com", Size: 250},
		},
		{
			FullName:        "Sam Rivera",
			FirstName:       "Sam",
			LastName:        "Rivera",
			Title:           "VP Engineering",
			Headline:        "Engineering leader",
			Location:        "Austin, Texas",
			Industry:        "Computer Software",
			LinkedInURL:     "https://linkedin.com/in/demo-sam-rivera",
			ConfidenceLevel: models.ConfidenceMedium,
			Company:         &models.Company{Name: "Sample Labs", Domain: "sample.dev", Size: 80},
		},
		{
			FullName:        "Jordan Lee",
			FirstName:       "Jordan",
			LastName:        "Lee",
			Title:           "Head of Marketing",
			Location:        "London, United Kingdom",
			Industry:        "Marketing and Advertising",
			LinkedInURL:     "https://linkedin.com/in/demo-jordan-lee",
			ConfidenceLevel: models.ConfidenceLow,
			Company:         &models.Company{Name: "Demo Media", Domain: "demo.media", Size: 40},
		},
	}
}
