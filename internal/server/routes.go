package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadgen/internal/handlers/api"
	"leadgen/internal/middleware"
)

// Deps are the collaborators routes are wired to.
type Deps struct {
	Gateway api.Gateway

	// Verifier enables bearer token authentication on /api when set.
	Verifier middleware.ClaimsVerifier

	// Pingers are checked by /readyz.
	Pingers map[string]api.Pinger

	// LimiterStorage backs the inbound limiter. Nil keeps counters in memory.
	LimiterStorage fiber.Storage
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(deps Deps) {
	orgMiddleware := middleware.NewOrgMiddleware(deps.Verifier, s.Cfg.OIDCOrgClaim)

	searchHandler := api.NewSearchHandler(deps.Gateway, s.Cfg.DegradedModeEnabled)
	contactsHandler := api.NewContactsHandler(deps.Gateway)
	companyHandler := api.NewCompanyHandler(deps.Gateway)
	qualityHandler := api.NewQualityHandler(deps.Gateway)
	healthHandler := api.NewHealthHandler(deps.Gateway, deps.Pingers)

	// Operational routes, no organization required
	s.App.Get("/health", healthHandler.Upstream)
	s.App.Get("/healthz", healthHandler.Live)
	s.App.Get("/readyz", healthHandler.Ready)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiGroup := s.App.Group("/api", orgMiddleware.Resolve, s.inboundLimiter(deps.LimiterStorage))

	// Search
	apiGroup.Post("/search", searchHandler.Search)
	apiGroup.Post("/search/prospects", searchHandler.Search)
	apiGroup.Get("/search/filters", searchHandler.Filters)

	// Contacts
	apiGroup.Post("/contacts/reveal", contactsHandler.Reveal)
	apiGroup.Post("/contacts/verify-email", contactsHandler.VerifyEmail)
	apiGroup.Post("/email/verify", contactsHandler.VerifyEmail)
	apiGroup.Post("/contacts/enrich-email", contactsHandler.EnrichEmail)
	apiGroup.Get("/contacts/credits", contactsHandler.Credits)
	apiGroup.Get("/credits", contactsHandler.Credits)

	// Company; static segments before :domain
	apiGroup.Post("/company/bulk-enrich", companyHandler.BulkEnrich)
	apiGroup.Get("/company/bulk-job/:jobId", companyHandler.BulkJob)
	apiGroup.Get("/company/:domain/decision-makers", companyHandler.DecisionMakers)
	apiGroup.Get("/company/:domain", companyHandler.Get)
	apiGroup.Get("/company-employees", companyHandler.Employees)

	// Quality
	apiGroup.Post("/quality/score", qualityHandler.Score)
}

// inboundLimiter caps requests per organization per minute at the edge,
// ahead of the per-class upstream limiter.
func (s *Server) inboundLimiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        s.Cfg.InboundRateLimit,
		Expiration: 1 * time.Minute,
		Storage:    storage,
		KeyGenerator: func(c fiber.Ctx) string {
			return "inbound:" + middleware.OrgID(c)
		},
		LimitReached: func(c fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(60))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": 60,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			})
		},
	})
}
