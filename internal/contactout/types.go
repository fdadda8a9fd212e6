package contactout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"leadgen/internal/models"
)

// ProfileSet is a list of profiles decoded from either shape the API uses:
// an object keyed by LinkedIn URL, or an array. Keyed objects keep their
// upstream order and each profile gets the key as its linkedin_url.
type ProfileSet []models.Profile

func (s *ProfileSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []models.Profile
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode profile list: %w", err)
		}
		*s = list
		return nil
	case '{':
		return s.decodeKeyed(data)
	default:
		return fmt.Errorf("decode profiles: unexpected JSON %q", data[:1])
	}
}

func (s *ProfileSet) decodeKeyed(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode profile map: %w", err)
	}

	out := ProfileSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode profile map: %w", err)
		}
		url, ok := tok.(string)
		if !ok {
			return errors.New("decode profile map: non-string key")
		}
		var p models.Profile
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("decode profile %s: %w", url, err)
		}
		p.LinkedInURL = url
		out = append(out, p)
	}
	*s = out
	return nil
}

// SearchMetadata is the pagination block of a search response.
type SearchMetadata struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
}

// SearchResponse is returned by people search and decision makers.
type SearchResponse struct {
	StatusCode int             `json:"status_code"`
	Metadata   *SearchMetadata `json:"metadata,omitempty"`
	Profiles   ProfileSet      `json:"profiles"`
}

// EnrichResponse is returned by LinkedIn and email enrichment. Profile is
// nil when nothing matched.
type EnrichResponse struct {
	StatusCode int             `json:"status_code"`
	Profile    *models.Profile `json:"profile,omitempty"`
}

// UnmarshalJSON accepts a profile object or an array holding one.
func (r *EnrichResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		StatusCode int             `json:"status_code"`
		Profile    json.RawMessage `json:"profile"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.StatusCode = raw.StatusCode
	r.Profile = nil

	body := bytes.TrimSpace(raw.Profile)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	if body[0] == '[' {
		var list []models.Profile
		if err := json.Unmarshal(body, &list); err != nil {
			return fmt.Errorf("decode enriched profiles: %w", err)
		}
		if len(list) > 0 {
			r.Profile = &list[0]
		}
		return nil
	}
	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return fmt.Errorf("decode enriched profile: %w", err)
	}
	r.Profile = &p
	return nil
}

// CompanyResponse is returned by domain enrichment.
type CompanyResponse struct {
	StatusCode int                         `json:"status_code"`
	Companies  []map[string]models.Company `json:"companies"`
}

// Lookup returns the company enriched for domain, if any.
func (r *CompanyResponse) Lookup(domain string) (*models.Company, bool) {
	for _, entry := range r.Companies {
		if c, ok := entry[domain]; ok {
			return &c, true
		}
	}
	return nil, false
}

// VerifyResponse is returned by email verification.
type VerifyResponse struct {
	StatusCode int `json:"status_code"`
	Data       struct {
		Status string `json:"status"`
	} `json:"data"`
}

// StatusResponse is returned by the free availability checks.
type StatusResponse struct {
	StatusCode int `json:"status_code"`
	Profile    struct {
		Email       bool   `json:"email"`
		Phone       bool   `json:"phone"`
		EmailStatus string `json:"email_status"`
	} `json:"profile"`
}

// UsageStats is returned by the stats endpoint.
type UsageStats struct {
	StatusCode int `json:"status_code"`
	Period     struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Usage struct {
		Count           int `json:"count"`
		Quota           int `json:"quota"`
		Remaining       int `json:"remaining"`
		OverQuota       int `json:"over_quota"`
		PhoneCount      int `json:"phone_count"`
		PhoneQuota      int `json:"phone_quota"`
		PhoneRemaining  int `json:"phone_remaining"`
		PhoneOverQuota  int `json:"phone_over_quota"`
		SearchCount     int `json:"search_count"`
		SearchQuota     int `json:"search_quota"`
		SearchRemaining int `json:"search_remaining"`
		SearchOverQuota int `json:"search_over_quota"`
	} `json:"usage"`
}

// BulkJob is the acknowledgement of a bulk enrichment submission.
type BulkJob struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// BulkContacts are the contact values found for one profile of a bulk job.
type BulkContacts struct {
	Emails         []string `json:"emails,omitempty"`
	PersonalEmails []string `json:"personal_emails,omitempty"`
	WorkEmails     []string `json:"work_emails,omitempty"`
	Phones         []string `json:"phones,omitempty"`
}

// BulkResult is the state of a bulk enrichment job.
type BulkResult struct {
	Data struct {
		UUID   string                  `json:"uuid"`
		Status string                  `json:"status"`
		Result map[string]BulkContacts `json:"result,omitempty"`
	} `json:"data"`
}
