package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/middleware"
	"leadgen/internal/models"
)

// QualityHandler scores caller-supplied profiles.
type QualityHandler struct {
	svc Gateway
}

// NewQualityHandler creates a quality handler.
func NewQualityHandler(svc Gateway) *QualityHandler {
	return &QualityHandler{svc: svc}
}

// Score probes contact availability for each profile and ranks them.
func (h *QualityHandler) Score(c fiber.Ctx) error {
	var body struct {
		Profiles []models.Profile `json:"profiles"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.ScoreProfiles(c.Context(), middleware.OrgID(c), body.Profiles)
	if err != nil {
		return writeError(c, err)
	}
	return jsonSuccess(c, res)
}
