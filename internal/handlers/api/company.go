package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/middleware"
)

// CompanyHandler serves company lookups and bulk enrichment.
type CompanyHandler struct {
	svc Gateway
}

// NewCompanyHandler creates a company handler.
func NewCompanyHandler(svc Gateway) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Get returns company data for a domain. It costs no credits.
func (h *CompanyHandler) Get(c fiber.Ctx) error {
	res, err := h.svc.Company(c.Context(), middleware.OrgID(c), c.Params("domain"))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// DecisionMakers lists leadership at a domain. ?reveal_info=true reveals
// contact values and costs credits.
func (h *CompanyHandler) DecisionMakers(c fiber.Ctx) error {
	reveal := c.Query("reveal_info") == "true"
	res, err := h.svc.DecisionMakers(c.Context(), middleware.OrgID(c), c.Params("domain"), reveal)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// Employees lists people at a company by name, ?company=Microsoft. It costs
// no credits.
func (h *CompanyHandler) Employees(c fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return jsonError(c, fiber.StatusBadRequest, "company is required")
	}

	res, err := h.svc.CompanyEmployees(c.Context(), middleware.OrgID(c), company)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// BulkEnrich queues enrichment of many LinkedIn profiles.
func (h *CompanyHandler) BulkEnrich(c fiber.Ctx) error {
	var body struct {
		LinkedInURLs []string `json:"linkedin_urls"`
		IncludePhone bool     `json:"include_phone"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.SubmitBulk(c.Context(), middleware.OrgID(c), body.LinkedInURLs, body.IncludePhone)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// BulkJob returns the state of a bulk job.
func (h *CompanyHandler) BulkJob(c fiber.Ctx) error {
	res, err := h.svc.BulkStatus(c.Context(), middleware.OrgID(c), c.Params("jobId"))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}
