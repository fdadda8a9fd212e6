package search

import (
	"errors"
	"reflect"
	"testing"

	"leadgen/internal/validation"
)

func TestNormalize_RequiresDiscriminatingFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"empty", Filter{}},
		{"pagination only", Filter{"page": float64(2), "page_size": float64(10)}},
		{"toggles only", Filter{"current_titles_only": true, "reveal_info": true}},
		{"empty values", Filter{"job_title": []any{}, "company": "", "location": nil}},
		{"unrecognized field", Filter{"favourite_colour": "blue"}},
		{"internal toggles", Filter{"enable_quality_verification": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.filter)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Normalize() error = %v, want *validation.Error", err)
			}
		})
	}
}

func TestNormalize_MatchExperienceConflicts(t *testing.T) {
	for _, scope := range []string{"current", "previous", "both"} {
		t.Run(scope, func(t *testing.T) {
			params, err := Normalize(Filter{
				"job_title":            "CTO",
				"match_experience":     scope,
				"company_filter":       "current",
				"current_titles_only":  true,
				"current_company_only": false,
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			for _, field := range conflictsWithMatchExperience {
				if _, ok := params[field]; ok {
					t.Errorf("params contains %q alongside match_experience", field)
				}
			}
			if params["match_experience"] != scope {
				t.Errorf("match_experience = %v, want %q", params["match_experience"], scope)
			}
		})
	}
}

func TestNormalize_KeepsConflictFieldsWithoutMatchExperience(t *testing.T) {
	params, err := Normalize(Filter{"company": "Acme", "company_filter": "current", "current_titles_only": true})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if params["company_filter"] != "current" || params["current_titles_only"] != true {
		t.Errorf("conflict fields dropped without match_experience: %v", params)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	params, err := Normalize(Filter{"job_title": "CEO", "company": "Microsoft"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := Params{"job_title": "CEO", "company": "Microsoft", "page": 1, "reveal_info": false}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("Normalize() = %v, want %v", params, want)
	}
}

func TestNormalize_ExplicitValuesWin(t *testing.T) {
	params, err := Normalize(Filter{"keyword": "kubernetes", "page": float64(3), "reveal_info": true})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if params.Page() != 3 || !params.RevealInfo() {
		t.Errorf("page = %d reveal = %v, want 3 true", params.Page(), params.RevealInfo())
	}
}

func TestNormalize_StripsInternalAndEmptyFields(t *testing.T) {
	params, err := Normalize(Filter{
		"skills":                      []any{"Go"},
		"enable_quality_verification": true,
		"sort_by_quality":             true,
		"location":                    []any{},
		"industry":                    "",
		"education":                   nil,
		"favourite_colour":            "blue",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for _, field := range []string{"enable_quality_verification", "sort_by_quality", "location", "industry", "education", "favourite_colour"} {
		if _, ok := params[field]; ok {
			t.Errorf("params still contains %q", field)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	filters := []Filter{
		{"job_title": "CEO", "company": "Microsoft"},
		{"keyword": "rust", "page": float64(4), "reveal_info": true, "match_experience": "both", "company_filter": "current"},
		{"skills": []any{"Go", "SQL"}, "location": []any{}, "sort_by_quality": false},
	}

	for _, f := range filters {
		once, err := Normalize(f)
		if err != nil {
			t.Fatalf("Normalize(%v) error = %v", f, err)
		}
		twice, err := Normalize(Filter(once))
		if err != nil {
			t.Fatalf("Normalize(normalized) error = %v", err)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("not idempotent: %v then %v", once, twice)
		}
	}
}

func TestFilter_QualityOptions(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   QualityOptions
	}{
		{"absent", Filter{}, QualityOptions{}},
		{"verify only", Filter{"enable_quality_verification": true}, QualityOptions{Verify: true}},
		{"verify and sort", Filter{"enable_quality_verification": true, "sort_by_quality": true}, QualityOptions{Verify: true, SortByQuality: true}},
		{"wrong type ignored", Filter{"enable_quality_verification": "yes"}, QualityOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.QualityOptions(); got != tt.want {
				t.Errorf("QualityOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParams_AppliedFilters(t *testing.T) {
	p := Params{"job_title": "CEO", "company": "Microsoft", "page": 1, "reveal_info": false, "page_size": 10}
	want := []string{"company", "job_title"}
	if got := p.AppliedFilters(); !reflect.DeepEqual(got, want) {
		t.Errorf("AppliedFilters() = %v, want %v", got, want)
	}
}
