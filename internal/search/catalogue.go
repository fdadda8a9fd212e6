package search

import "leadgen/internal/validation"

// FilterSpec documents one accepted filter for API consumers.
type FilterSpec struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	MaxItems    int      `json:"max_items,omitempty"`
	Options     []string `json:"options,omitempty"`
	Default     any      `json:"default,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Catalogue is served by the filters endpoint.
type Catalogue struct {
	Filters  map[string]FilterSpec `json:"filters"`
	Examples map[string]Filter     `json:"examples"`
}

// FilterCatalogue describes every supported filter and a few sample requests.
func FilterCatalogue() Catalogue {
	return Catalogue{
		Filters: map[string]FilterSpec{
			"name":    {Type: "string", Description: "Name of the person", Examples: []string{"John Smith"}},
			"keyword": {Type: "string", Description: "Keyword matched across the entire profile", Examples: []string{"machine learning"}},
			"job_title": {Type: "array", MaxItems: 50, Description: "Job titles to search for",
				Examples: []string{"CEO", "Vice President", "Software Engineer"}},
			"exclude_job_titles": {Type: "array", MaxItems: 5, Description: "Job titles to exclude",
				Examples: []string{"Intern", "Student"}},
			"current_titles_only": {Type: "boolean", Default: true,
				Description: "Match only current job titles"},
			"include_related_job_titles": {Type: "boolean", Default: false,
				Description: "Include related job titles"},
			"company": {Type: "array", MaxItems: 50, Description: "Company names",
				Examples: []string{"Microsoft", "Google"}},
			"exclude_companies": {Type: "array", MaxItems: 5, Description: "Companies to exclude"},
			"company_filter": {Type: "string", Options: validation.ExperienceScopes, Default: "current",
				Description: "Match current, past or both company experiences"},
			"current_company_only": {Type: "boolean", Default: true,
				Description: "Only profiles whose current company matches"},
			"match_experience": {Type: "string", Options: validation.ExperienceScopes,
				Description: "Match job title and company in the same experience. Cannot be combined with company_filter, current_titles_only or current_company_only"},
			"domain": {Type: "array", MaxItems: 50, Description: "Company domains",
				Examples: []string{"microsoft.com", "google.com"}},
			"company_size": {Type: "array", Options: validation.CompanySizes,
				Description: "Company size ranges by employee count"},
			"years_of_experience": {Type: "array", Options: validation.ExperienceRanges,
				Description: "Years of experience ranges"},
			"years_in_current_role": {Type: "array", Options: validation.ExperienceRanges,
				Description: "Years in current role ranges"},
			"location": {Type: "array", MaxItems: 50, Description: "Geographic locations",
				Examples: []string{"New York", "London", "Remote"}},
			"industry": {Type: "array", MaxItems: 50, Description: "Industry sectors",
				Examples: []string{"Computer Software", "Financial Services"}},
			"education": {Type: "array", MaxItems: 50, Description: "Schools or degrees",
				Examples: []string{"Stanford", "MBA"}},
			"skills": {Type: "array", MaxItems: 50, Description: "Professional skills",
				Examples: []string{"Go", "Project Management"}},
			"data_types": {Type: "array", Options: validation.DataTypes,
				Description: "Required contact information types"},
			"reveal_info": {Type: "boolean", Default: false,
				Description: "Reveal contact information (consumes credits)"},
			"page":      {Type: "integer", Default: 1, Description: "Page number"},
			"page_size": {Type: "integer", Description: "Results per page, 1 to 100"},
			"enable_quality_verification": {Type: "boolean", Default: false,
				Description: "Score profiles using free availability checks"},
			"sort_by_quality": {Type: "boolean", Default: false,
				Description: "Sort by quality score (requires enable_quality_verification)"},
		},
		Examples: map[string]Filter{
			"tech_executives": {
				"job_title":                   []string{"CEO", "CTO", "VP Engineering"},
				"company":                     []string{"Microsoft", "Google", "Apple"},
				"company_size":                []string{"1001_5000", "5001+"},
				"enable_quality_verification": true,
			},
			"marketing_professionals": {
				"job_title":           []string{"Marketing Manager", "CMO"},
				"industry":            []string{"Computer Software", "E-commerce"},
				"years_of_experience": []string{"3_5", "6_10"},
			},
			"startup_founders": {
				"job_title":                   []string{"Founder", "Co-Founder"},
				"company_size":                []string{"1_10", "11_50"},
				"keyword":                     "startup",
				"enable_quality_verification": true,
				"sort_by_quality":             true,
			},
		},
	}
}
