package models

import "encoding/json"

// Confidence levels used both as the upstream hint and as the derived bucket.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Quality flags attached to a score.
const (
	FlagIncompleteName = "incomplete_name"
	FlagNoJobTitle     = "no_job_title"
	FlagNoContactInfo  = "no_contact_info"
)

// Company is the company sub-record of a profile or a domain enrichment result.
type Company struct {
	Name              string          `json:"name,omitempty"`
	URL               string          `json:"url,omitempty"`
	LinkedInCompanyID int64           `json:"linkedin_company_id,omitempty"`
	Domain            string          `json:"domain,omitempty"`
	EmailDomain       string          `json:"email_domain,omitempty"`
	Overview          string          `json:"overview,omitempty"`
	Type              string          `json:"type,omitempty"`
	Size              int             `json:"size,omitempty"`
	Country           string          `json:"country,omitempty"`
	Revenue           int64           `json:"revenue,omitempty"`
	FoundedAt         int             `json:"founded_at,omitempty"`
	Industry          string          `json:"industry,omitempty"`
	Headquarter       string          `json:"headquarter,omitempty"`
	Website           string          `json:"website,omitempty"`
	LogoURL           string          `json:"logo_url,omitempty"`
	Specialties       []string        `json:"specialties,omitempty"`
	Locations         json.RawMessage `json:"locations,omitempty"`
}

// ContactInfo is present on search results requested with reveal_info.
type ContactInfo struct {
	Emails          []string          `json:"emails,omitempty"`
	PersonalEmails  []string          `json:"personal_emails,omitempty"`
	WorkEmails      []string          `json:"work_emails,omitempty"`
	WorkEmailStatus map[string]string `json:"work_email_status,omitempty"`
	Phones          []string          `json:"phones,omitempty"`
}

// Profile is an upstream person record. Contact fields are populated only
// when a reveal was requested.
type Profile struct {
	ID                string   `json:"id,omitempty"`
	URL               string   `json:"url,omitempty"`
	LIVanity          string   `json:"li_vanity,omitempty"`
	FullName          string   `json:"full_name"`
	FirstName         string   `json:"first_name,omitempty"`
	LastName          string   `json:"last_name,omitempty"`
	Headline          string   `json:"headline,omitempty"`
	Title             string   `json:"title,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	Location          string   `json:"location,omitempty"`
	Country           string   `json:"country,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Company           *Company `json:"company,omitempty"`
	Email             []string `json:"email,omitempty"`
	WorkEmail         []string `json:"work_email,omitempty"`
	PersonalEmail     []string `json:"personal_email,omitempty"`
	Phone             []string `json:"phone,omitempty"`
	Github            []string `json:"github,omitempty"`
	Twitter           []string `json:"twitter,omitempty"`
	LinkedInURL       string   `json:"linkedin_url,omitempty"`
	Followers         int      `json:"followers,omitempty"`
	ProfilePictureURL string   `json:"profile_picture_url,omitempty"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
	ConfidenceScore   float64  `json:"confidence_score,omitempty"`
	ConfidenceLevel   string   `json:"confidenceLevel,omitempty"`

	ContactAvailability *ContactFlags `json:"contact_availability,omitempty"`
	ContactInfo         *ContactInfo  `json:"contact_info,omitempty"`

	// Passed through untouched.
	Experience     json.RawMessage `json:"experience,omitempty"`
	Education      json.RawMessage `json:"education,omitempty"`
	Certifications json.RawMessage `json:"certifications,omitempty"`
	Publications   json.RawMessage `json:"publications,omitempty"`
	Projects       json.RawMessage `json:"projects,omitempty"`

	Quality *QualityScore `json:"quality,omitempty"`
}

// ContactFlags is the availability summary some search responses embed.
type ContactFlags struct {
	PersonalEmail bool `json:"personal_email,omitempty"`
	WorkEmail     bool `json:"work_email,omitempty"`
	Phone         bool `json:"phone,omitempty"`
}

// HasEmail reports whether any revealed email is present.
func (p *Profile) HasEmail() bool {
	return len(p.Email) > 0 || len(p.WorkEmail) > 0 || len(p.PersonalEmail) > 0
}

// AllEmails returns every revealed email without duplicates, in field order.
func (p *Profile) AllEmails() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{p.Email, p.WorkEmail, p.PersonalEmail} {
		for _, e := range list {
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// ContactAvailability is the outcome of the free existence probes.
// It never carries actual contact values.
type ContactAvailability struct {
	PersonalEmail     bool `json:"personal_email"`
	WorkEmail         bool `json:"work_email"`
	WorkEmailVerified bool `json:"work_email_verified"`
	Phone             bool `json:"phone"`
}

// QualityScore is derived per request from a profile and its availability.
type QualityScore struct {
	Overall         int      `json:"overall_score"`
	Confidence      string   `json:"confidence_level"`
	Flags           []string `json:"flags"`
	CostRecommended bool     `json:"cost_recommended"`
	BaseScore       int      `json:"profile_completeness"`
	ContactBonus    int      `json:"contact_availability"`
}
