package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/middleware"
)

// ContactsHandler serves reveal, verification and credit endpoints.
type ContactsHandler struct {
	svc Gateway
}

// NewContactsHandler creates a contacts handler.
func NewContactsHandler(svc Gateway) *ContactsHandler {
	return &ContactsHandler{svc: svc}
}

// Reveal discloses contact values for a LinkedIn profile.
func (h *ContactsHandler) Reveal(c fiber.Ctx) error {
	var body struct {
		LinkedInURL string   `json:"linkedin_url"`
		RevealTypes []string `json:"reveal_types"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.LinkedInURL == "" {
		return jsonError(c, fiber.StatusBadRequest, "linkedin_url is required")
	}

	res, err := h.svc.Reveal(c.Context(), middleware.OrgID(c), body.LinkedInURL, body.RevealTypes)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// VerifyEmail checks deliverability of an address.
func (h *ContactsHandler) VerifyEmail(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Email == "" {
		return jsonError(c, fiber.StatusBadRequest, "email is required")
	}

	res, err := h.svc.VerifyEmail(c.Context(), middleware.OrgID(c), body.Email)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// EnrichEmail finds the profile behind an address.
func (h *ContactsHandler) EnrichEmail(c fiber.Ctx) error {
	var body struct {
		Email            string `json:"email"`
		IncludeWorkEmail bool   `json:"include_work_email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Email == "" {
		return jsonError(c, fiber.StatusBadRequest, "email is required")
	}

	res, err := h.svc.EnrichEmail(c.Context(), middleware.OrgID(c), body.Email, body.IncludeWorkEmail)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}

// Credits reports remaining upstream credits.
func (h *ContactsHandler) Credits(c fiber.Ctx) error {
	res, err := h.svc.Credits(c.Context(), middleware.OrgID(c))
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}
