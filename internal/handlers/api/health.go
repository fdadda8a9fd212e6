package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger is a dependency readiness depends on, such as Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves upstream health and the orchestrator probes.
type HealthHandler struct {
	svc     Gateway
	pingers map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler. Readiness fails while any of
// pingers fails.
func NewHealthHandler(svc Gateway, pingers map[string]Pinger) *HealthHandler {
	return &HealthHandler{svc: svc, pingers: pingers, timeout: 2 * time.Second}
}

// Upstream reports ContactOut connectivity. Unhealthy answers 503.
func (h *HealthHandler) Upstream(c fiber.Ctx) error {
	status := h.svc.Health(c.Context())
	if !status.Healthy() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":   false,
			"data":      status,
			"error":     "Upstream unavailable",
			"timestamp": timestamp(),
		})
	}
	return jsonSuccess(c, status)
}

// Live always answers while the process is serving.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready checks every registered dependency.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	checks := fiber.Map{}
	ready := true
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "checks": checks})
	}
	return c.JSON(fiber.Map{"status": "ok", "checks": checks})
}
