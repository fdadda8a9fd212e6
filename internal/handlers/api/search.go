package api

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/gateway"
	"leadgen/internal/middleware"
	"leadgen/internal/models"
	"leadgen/internal/search"
	"leadgen/internal/validation"
)

// Gateway is the orchestration service behind the JSON API.
type Gateway interface {
	Search(ctx context.Context, org string, filter search.Filter) (*gateway.SearchPage, error)
	Reveal(ctx context.Context, org, linkedinURL string, types []string) (*gateway.RevealResult, error)
	VerifyEmail(ctx context.Context, org, email string) (*gateway.EmailVerification, error)
	EnrichEmail(ctx context.Context, org, email string, includeWork bool) (*gateway.EmailEnrichment, error)
	Credits(ctx context.Context, org string) (*gateway.Credits, error)
	Company(ctx context.Context, org, domain string) (*gateway.CompanyInfo, error)
	DecisionMakers(ctx context.Context, org, domain string, reveal bool) (*gateway.DecisionMakers, error)
	CompanyEmployees(ctx context.Context, org, company string) (*gateway.CompanyEmployees, error)
	SubmitBulk(ctx context.Context, org string, profileURLs []string, includePhone bool) (*gateway.BulkSubmission, error)
	BulkStatus(ctx context.Context, org, jobID string) (*gateway.BulkJobStatus, error)
	ScoreProfiles(ctx context.Context, org string, profiles []models.Profile) (*gateway.ScoreReport, error)
	Health(ctx context.Context) gateway.HealthStatus
}

// SearchHandler serves people search.
type SearchHandler struct {
	svc      Gateway
	degraded bool
}

// NewSearchHandler creates a search handler. With degraded set, rate limited
// searches are answered with demo data instead of 429.
func NewSearchHandler(svc Gateway, degraded bool) *SearchHandler {
	return &SearchHandler{svc: svc, degraded: degraded}
}

// Search runs a filtered people search.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var filter search.Filter
	if err := json.Unmarshal(c.Body(), &filter); err != nil || filter == nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if details := validation.ValidateSearchFilter(filter); len(details) > 0 {
		return jsonError(c, fiber.StatusBadRequest, "Validation failed", details...)
	}

	org := middleware.OrgID(c)
	page, err := h.svc.Search(c.Context(), org, filter)
	if err != nil {
		if h.degraded && gateway.IsRateLimited(err) {
			slog.Warn("search rate limited, serving degraded results", "org", org, "error", err)
			return jsonSuccess(c, gateway.DegradedSearchPage(filter))
		}
		return writeError(c, err)
	}

	return jsonSuccess(c, page)
}

// Filters describes the accepted filters.
func (h *SearchHandler) Filters(c fiber.Ctx) error {
	return jsonSuccess(c, search.FilterCatalogue())
}
