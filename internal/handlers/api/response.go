package api

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"leadgen/internal/contactout"
	"leadgen/internal/gateway"
	"leadgen/internal/ratelimit"
	"leadgen/internal/validation"
)

// defaultRetryAfter is used when a rate limit error carries no wait time.
const defaultRetryAfter = 60 * time.Second

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"data":      data,
		"timestamp": timestamp(),
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string, details ...string) error {
	body := fiber.Map{
		"success":   false,
		"error":     message,
		"timestamp": timestamp(),
	}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.Status(status).JSON(body)
}

// jsonRateLimited returns 429 with both a Retry-After header and body field.
func jsonRateLimited(c fiber.Ctx, message string, retryAfter time.Duration) error {
	if retryAfter <= 0 {
		retryAfter = defaultRetryAfter
	}
	secs := int(math.Ceil(retryAfter.Seconds()))
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success":     false,
		"error":       message,
		"retry_after": secs,
		"timestamp":   timestamp(),
	})
}

// writeError maps a service error onto the response envelope. Upstream
// messages never reach the client.
func writeError(c fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return jsonError(c, fiber.StatusBadRequest, verr.Message, verr.Details...)
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		return jsonRateLimited(c, "Rate limit exceeded for "+string(exceeded.Class)+" requests", exceeded.RetryAfter)
	}

	var retryAfter time.Duration
	var upstreamMessage []string
	var apiErr *contactout.APIError
	if errors.As(err, &apiErr) {
		retryAfter = apiErr.RetryAfter
		if apiErr.Message != "" {
			upstreamMessage = []string{apiErr.Message}
		}
	}

	switch {
	case errors.Is(err, contactout.ErrRateLimited):
		return jsonRateLimited(c, "Upstream rate limit exceeded", retryAfter)
	case errors.Is(err, contactout.ErrBadRequest):
		return jsonError(c, fiber.StatusBadRequest, "Upstream rejected the request", upstreamMessage...)
	case errors.Is(err, contactout.ErrAuthenticationFailed):
		slog.Error("upstream rejected API credentials", "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusUnauthorized, "Upstream authentication failed")
	case errors.Is(err, contactout.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "Access to this upstream resource is forbidden")
	case errors.Is(err, gateway.ErrCompanyNotFound):
		return jsonError(c, fiber.StatusNotFound, "Company not found")
	case errors.Is(err, ratelimit.ErrStoreUnavailable):
		slog.Error("rate limit store unavailable", "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusServiceUnavailable, "Rate limiting unavailable, try again later")
	case errors.Is(err, contactout.ErrUpstream):
		slog.Error("upstream error", "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusBadGateway, "Upstream service error")
	case errors.Is(err, contactout.ErrNetwork):
		slog.Error("upstream unreachable", "path", c.Path(), "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "Upstream service unreachable")
	}

	slog.Error("request failed", "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, "Internal server error")
}
