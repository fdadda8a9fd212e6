package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// Error is returned for malformed or insufficient input. Details lists one
// message per offending field.
type Error struct {
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// NewError builds a validation error.
func NewError(message string, details ...string) *Error {
	return &Error{Message: message, Details: details}
}

var (
	// LinkedInProfilePattern matches public profile URLs, e.g. https://linkedin.com/in/username.
	LinkedInProfilePattern = regexp.MustCompile(`^https://(www\.)?linkedin\.com/in/[a-zA-Z0-9-]+/?$`)

	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// Accepted filter tokens.
var (
	ExperienceRanges = []string{"0_1", "1_2", "2_3", "1_3", "3_5", "3_6", "5_7", "6_10", "7_10", "10", "10+"}
	CompanySizes     = []string{"1_10", "11_50", "51_200", "201_500", "501_1000", "1001_5000", "5001_10000", "5001+", "10001+"}
	ExperienceScopes = []string{"current", "previous", "past", "both"}
	DataTypes        = []string{"personal_email", "work_email", "phone"}
	RevealTypes      = []string{"email", "phone"}
)

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// ValidateLinkedInURL checks a LinkedIn public profile URL.
func ValidateLinkedInURL(urlStr string) (bool, string) {
	if valid, msg := ValidateURL(urlStr); !valid {
		return false, msg
	}
	if !LinkedInProfilePattern.MatchString(urlStr) {
		return false, "Invalid LinkedIn URL format. Expected: https://linkedin.com/in/username"
	}
	return true, ""
}

// ValidateEmail checks the basic shape and length of an email address.
func ValidateEmail(email string) (bool, string) {
	if email == "" {
		return false, "email is required"
	}
	if len(email) > 320 {
		return false, "Email address too long (max 320 characters)"
	}
	if !emailPattern.MatchString(email) {
		return false, "Invalid email format"
	}
	return true, ""
}

// NormalizeDomain lowercases and trims a domain so cache keys and lookups agree.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// ValidateDomain checks a company domain such as "microsoft.com".
func ValidateDomain(domain string) (bool, string) {
	if domain == "" {
		return false, "Company domain is required"
	}
	if len(domain) > 253 {
		return false, "Domain name too long"
	}
	if !domainPattern.MatchString(domain) {
		return false, "Invalid domain format"
	}
	return true, ""
}

// ValidateRevealTypes checks the requested reveal types. An empty input is
// rejected; callers default to ["email"] when the field is absent.
func ValidateRevealTypes(types []string) []string {
	if len(types) == 0 {
		return []string{"reveal_types array cannot be empty"}
	}
	var invalid []string
	for _, t := range types {
		if !slices.Contains(RevealTypes, t) {
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		return []string{fmt.Sprintf("Invalid reveal types: %s. Valid types: %s",
			strings.Join(invalid, ", "), strings.Join(RevealTypes, ", "))}
	}
	return nil
}

// listLimits caps array-valued filters: max items and max length per item.
var listLimits = map[string][2]int{
	"job_title":          {50, 100},
	"company":            {50, 100},
	"location":           {50, 100},
	"industry":           {50, 100},
	"education":          {50, 100},
	"domain":             {50, 100},
	"exclude_job_titles": {5, 100},
	"exclude_companies":  {5, 100},
	"skills":             {50, 50},
}

// arrayOnly fields must be sent as JSON arrays.
var arrayOnly = []string{"exclude_job_titles", "exclude_companies", "skills"}

// ValidateSearchFilter checks field shapes of a decoded search filter and
// returns one message per problem. Presence of a discriminating filter is
// checked by the parameter builder, not here.
func ValidateSearchFilter(f map[string]any) []string {
	var errs []string

	if v, ok := f["name"]; ok && v != nil {
		if s, isStr := v.(string); !isStr || len(s) > 100 {
			errs = append(errs, "name must be a string with max 100 characters")
		}
	}
	if v, ok := f["keyword"]; ok && v != nil {
		if s, isStr := v.(string); !isStr || len(s) > 200 {
			errs = append(errs, "keyword must be a string with max 200 characters")
		}
	}

	for _, field := range sortedKeys(listLimits) {
		v, ok := f[field]
		if !ok || v == nil {
			continue
		}
		limits := listLimits[field]
		errs = append(errs, validateStringOrArray(v, field, limits[0], limits[1], slices.Contains(arrayOnly, field))...)
	}

	errs = append(errs, validateTokens(f, "years_of_experience", ExperienceRanges, "a valid experience range")...)
	errs = append(errs, validateTokens(f, "years_in_current_role", ExperienceRanges, "a valid experience range")...)
	errs = append(errs, validateTokens(f, "company_size", CompanySizes, "a valid company size range")...)

	for _, field := range []string{"company_filter", "match_experience"} {
		if v, ok := f[field]; ok && v != nil {
			if s, isStr := v.(string); !isStr || !slices.Contains(ExperienceScopes, s) {
				errs = append(errs, fmt.Sprintf(`%s must be "current", "previous", "past", or "both"`, field))
			}
		}
	}

	for _, field := range []string{"current_titles_only", "include_related_job_titles", "current_company_only",
		"reveal_info", "enable_quality_verification", "sort_by_quality"} {
		if v, ok := f[field]; ok && v != nil {
			if _, isBool := v.(bool); !isBool {
				errs = append(errs, field+" must be a boolean")
			}
		}
	}

	if v, ok := f["data_types"]; ok && v != nil {
		items, isList := v.([]any)
		if !isList {
			errs = append(errs, "data_types must be an array")
		} else {
			for _, item := range items {
				if s, isStr := item.(string); !isStr || !slices.Contains(DataTypes, s) {
					errs = append(errs, "data_types contains invalid values")
					break
				}
			}
		}
	}

	if v, ok := f["page"]; ok && v != nil {
		if n, isInt := asInt(v); !isInt || n < 1 {
			errs = append(errs, "page must be a positive integer")
		}
	}
	for _, field := range []string{"page_size", "limit"} {
		if v, ok := f[field]; ok && v != nil {
			if n, isInt := asInt(v); !isInt || n < 1 || n > 100 {
				errs = append(errs, field+" must be an integer between 1 and 100")
			}
		}
	}

	return errs
}

func validateStringOrArray(v any, field string, maxItems, maxLength int, arrayRequired bool) []string {
	switch val := v.(type) {
	case string:
		if arrayRequired {
			return []string{field + " must be an array"}
		}
		if len(val) > maxLength {
			return []string{fmt.Sprintf("%s must be a string with max %d characters", field, maxLength)}
		}
	case []any:
		if len(val) > maxItems {
			return []string{fmt.Sprintf("%s array must contain max %d items", field, maxItems)}
		}
		for _, item := range val {
			if s, ok := item.(string); !ok || len(s) > maxLength {
				return []string{fmt.Sprintf("%s items must be strings with max %d characters", field, maxLength)}
			}
		}
	default:
		if arrayRequired {
			return []string{field + " must be an array"}
		}
		return []string{fmt.Sprintf("%s must be a string or string array", field)}
	}
	return nil
}

func validateTokens(f map[string]any, field string, allowed []string, what string) []string {
	v, ok := f[field]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if !slices.Contains(allowed, val) {
			return []string{fmt.Sprintf("%s must be %s", field, what)}
		}
	case []any:
		for _, item := range val {
			if s, isStr := item.(string); !isStr || !slices.Contains(allowed, s) {
				return []string{field + " contains invalid values"}
			}
		}
	default:
		return []string{field + " must be a string or string array"}
	}
	return nil
}

// asInt accepts JSON numbers (float64 after decoding) that hold whole values.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func sortedKeys(m map[string][2]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
