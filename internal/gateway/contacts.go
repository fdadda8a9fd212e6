package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"leadgen/internal/cache"
	"leadgen/internal/contactout"
	"leadgen/internal/metrics"
	"leadgen/internal/models"
	"leadgen/internal/validation"
)

// Reveal types.
const (
	RevealEmail = "email"
	RevealPhone = "phone"
)

// RevealResult holds the contact values disclosed for one LinkedIn profile.
type RevealResult struct {
	Name          string   `json:"name"`
	JobTitle      string   `json:"job_title,omitempty"`
	Company       string   `json:"company,omitempty"`
	Location      string   `json:"location,omitempty"`
	LinkedInURL   string   `json:"linkedin_url"`
	Emails        []string `json:"emails"`
	WorkEmails    []string `json:"work_emails,omitempty"`
	Phones        []string `json:"phones"`
	RevealSuccess bool     `json:"reveal_success"`
	CreditsUsed   int      `json:"credits_used"`
	Mode          Mode     `json:"mode"`
}

// Reveal enriches a LinkedIn profile with contact values, keeping only the
// requested types. An empty types list means email only. A live reveal that
// found something costs one credit; a cached one is free.
func (s *Service) Reveal(ctx context.Context, org, linkedinURL string, types []string) (*RevealResult, error) {
	if ok, msg := validation.ValidateLinkedInURL(linkedinURL); !ok {
		return nil, validation.NewError("Validation failed", msg)
	}
	if types == nil {
		types = []string{RevealEmail}
	}
	if details := validation.ValidateRevealTypes(types); len(details) > 0 {
		return nil, validation.NewError("Validation failed", details...)
	}

	key := cache.LinkedInKey(linkedinURL, false)
	var resp contactout.EnrichResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathLinkedInEnrich); err != nil {
			return nil, err
		}
		live, err := s.upstream.EnrichLinkedIn(ctx, linkedinURL, false)
		if err != nil {
			return nil, fmt.Errorf("linkedin enrichment: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	out := &RevealResult{
		LinkedInURL: linkedinURL,
		Emails:      []string{},
		Phones:      []string{},
		Mode:        modeFor(cached),
	}
	if p := resp.Profile; p != nil {
		out.Name = p.FullName
		out.JobTitle = p.Title
		out.Location = p.Location
		if p.Company != nil {
			out.Company = p.Company.Name
		}
		if slices.Contains(types, RevealEmail) {
			if emails := p.AllEmails(); emails != nil {
				out.Emails = emails
			}
			out.WorkEmails = p.WorkEmail
		}
		if slices.Contains(types, RevealPhone) && p.Phone != nil {
			out.Phones = p.Phone
		}
	}
	out.RevealSuccess = len(out.Emails) > 0 || len(out.Phones) > 0
	if out.RevealSuccess && !cached {
		out.CreditsUsed = 1
	}

	slog.Info("contact reveal completed",
		"org", org,
		"mode", out.Mode,
		"types", types,
		"success", out.RevealSuccess,
		"credits_used", out.CreditsUsed,
	)
	return out, nil
}

// EmailVerification is the deliverability verdict for an address.
type EmailVerification struct {
	Email      string    `json:"email"`
	IsValid    bool      `json:"is_valid"`
	Status     string    `json:"status"`
	VerifiedAt time.Time `json:"verified_at"`
	Mode       Mode      `json:"mode"`
}

// VerifyEmail checks an address. Verdicts are cached with the time they were made.
func (s *Service) VerifyEmail(ctx context.Context, org, email string) (*EmailVerification, error) {
	if ok, msg := validation.ValidateEmail(email); !ok {
		return nil, validation.NewError("Validation failed", msg)
	}

	key := cache.VerifyKey(email)
	var out EmailVerification
	if s.cache.Get(ctx, key, &out) {
		out.Mode = ModeCached
		return &out, nil
	}

	if err := s.admit(ctx, org, contactout.PathEmailVerify); err != nil {
		return nil, err
	}
	resp, err := s.upstream.VerifyEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("email verification: %w", err)
	}

	out = EmailVerification{
		Email:      email,
		Status:     resp.Data.Status,
		IsValid:    resp.Data.Status == "valid",
		VerifiedAt: s.now().UTC(),
	}
	if out.Status == "" {
		out.Status = "unknown"
	}
	s.cache.Set(ctx, key, out)

	out.Mode = ModeLive
	return &out, nil
}

// EmailEnrichment is the profile found for an email address, if any.
type EmailEnrichment struct {
	Email   string          `json:"email"`
	Found   bool            `json:"found"`
	Profile *models.Profile `json:"profile,omitempty"`
	Mode    Mode            `json:"mode"`
}

// EnrichEmail looks up the person behind an address.
func (s *Service) EnrichEmail(ctx context.Context, org, email string, includeWork bool) (*EmailEnrichment, error) {
	if ok, msg := validation.ValidateEmail(email); !ok {
		return nil, validation.NewError("Validation failed", msg)
	}

	key := cache.EmailKey(email, includeWork)
	var resp contactout.EnrichResponse
	cached := s.cache.Get(ctx, key, &resp)
	if !cached {
		if err := s.admit(ctx, org, contactout.PathEmailEnrich); err != nil {
			return nil, err
		}
		live, err := s.upstream.EnrichEmail(ctx, email, includeWork)
		if err != nil {
			return nil, fmt.Errorf("email enrichment: %w", err)
		}
		resp = *live
		s.cache.Set(ctx, key, resp)
	}

	return &EmailEnrichment{
		Email:   email,
		Found:   resp.Profile != nil,
		Profile: resp.Profile,
		Mode:    modeFor(cached),
	}, nil
}

// UsageCounts are the credits spent in the current period.
type UsageCounts struct {
	EmailReveals int `json:"email_reveals"`
	PhoneReveals int `json:"phone_reveals"`
	Searches     int `json:"searches"`
}

// Credits summarizes the account's remaining credits.
type Credits struct {
	EmailCredits  int         `json:"email_credits"`
	PhoneCredits  int         `json:"phone_credits"`
	SearchCredits int         `json:"search_credits"`
	Usage         UsageCounts `json:"usage_today"`
	PeriodStart   string      `json:"period_start,omitempty"`
	PeriodEnd     string      `json:"period_end,omitempty"`
	Mode          Mode        `json:"mode"`
}

// Credits fetches live usage stats and refreshes the credit gauges.
func (s *Service) Credits(ctx context.Context, org string) (*Credits, error) {
	if err := s.admit(ctx, org, contactout.PathStats); err != nil {
		return nil, err
	}
	stats, err := s.upstream.Stats(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	metrics.SetCredits(creditBalances(stats))

	u := stats.Usage
	return &Credits{
		EmailCredits:  u.Remaining,
		PhoneCredits:  u.PhoneRemaining,
		SearchCredits: u.SearchRemaining,
		Usage: UsageCounts{
			EmailReveals: u.Count,
			PhoneReveals: u.PhoneCount,
			Searches:     u.SearchCount,
		},
		PeriodStart: stats.Period.Start,
		PeriodEnd:   stats.Period.End,
		Mode:        ModeLive,
	}, nil
}
