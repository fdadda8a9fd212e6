// Package search turns loosely-typed search filters into the canonical
// payload the people search endpoint accepts.
package search

import (
	"log/slog"
	"slices"

	"leadgen/internal/validation"
)

// Filter is a decoded search request body.
type Filter map[string]any

// Params is the normalized upstream payload. Treat it as immutable once built.
type Params map[string]any

// upstreamFields are the filter fields the people search endpoint understands.
var upstreamFields = []string{
	"name", "job_title", "company", "location", "industry",
	"exclude_job_titles", "current_titles_only", "include_related_job_titles",
	"skills", "education", "years_of_experience", "years_in_current_role",
	"company_filter", "exclude_companies", "current_company_only", "domain", "company_size",
	"keyword", "match_experience", "data_types", "reveal_info",
	"page", "page_size", "limit", "offset",
}

// DiscriminatingFields narrow a search enough to be worth sending upstream.
var DiscriminatingFields = []string{
	"name", "job_title", "company", "location", "industry",
	"skills", "education", "keyword", "domain", "company_size",
}

// conflictsWithMatchExperience cannot be combined with match_experience upstream.
var conflictsWithMatchExperience = []string{"company_filter", "current_titles_only", "current_company_only"}

var paginationFields = []string{"page", "page_size", "limit", "offset", "reveal_info", "data_types"}

// QualityOptions are the internal toggles carried on a filter. They never
// reach the upstream payload.
type QualityOptions struct {
	Verify        bool
	SortByQuality bool
}

// QualityOptions reads enable_quality_verification and sort_by_quality.
// Both default to off.
func (f Filter) QualityOptions() QualityOptions {
	var opts QualityOptions
	if v, ok := f["enable_quality_verification"].(bool); ok {
		opts.Verify = v
	}
	if v, ok := f["sort_by_quality"].(bool); ok {
		opts.SortByQuality = v
	}
	return opts
}

// Normalize builds the canonical upstream payload from a filter. Applying it
// to its own output returns an equal map.
func Normalize(f Filter) (Params, error) {
	out := make(Params, len(f)+2)
	for _, field := range upstreamFields {
		if v, ok := f[field]; ok {
			out[field] = v
		}
	}

	if isEmpty(out["page"]) {
		out["page"] = 1
	}
	if isEmpty(out["reveal_info"]) {
		out["reveal_info"] = false
	}

	if !isEmpty(out["match_experience"]) {
		var dropped []string
		for _, field := range conflictsWithMatchExperience {
			if _, ok := out[field]; ok {
				delete(out, field)
				dropped = append(dropped, field)
			}
		}
		if len(dropped) > 0 {
			slog.Info("match_experience set, dropped conflicting filters",
				"match_experience", out["match_experience"], "dropped", dropped)
		}
	}

	for k, v := range out {
		if isEmpty(v) {
			delete(out, k)
		}
	}

	if !out.hasDiscriminatingFilter() {
		return nil, validation.NewError("Insufficient search criteria",
			"At least one search filter is required: name, job_title, company, location, industry, skills, education, keyword, domain or company_size")
	}
	return out, nil
}

func (p Params) hasDiscriminatingFilter() bool {
	for _, field := range DiscriminatingFields {
		if _, ok := p[field]; ok {
			return true
		}
	}
	return false
}

// AppliedFilters lists the search criteria in p, excluding pagination and
// reveal switches, in a stable order.
func (p Params) AppliedFilters() []string {
	var applied []string
	for k := range p {
		if !slices.Contains(paginationFields, k) {
			applied = append(applied, k)
		}
	}
	slices.Sort(applied)
	return applied
}

// Page returns the requested page, defaulting to 1.
func (p Params) Page() int {
	switch v := p["page"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 1
}

// PageSize returns the requested page size or 0 when none was given.
func (p Params) PageSize() int {
	switch v := p["page_size"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// RevealInfo reports whether contact values were requested.
func (p Params) RevealInfo() bool {
	v, _ := p["reveal_info"].(bool)
	return v
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}
