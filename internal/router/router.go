package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/handler"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Claim     *handler.ClaimHandler
	Upload    *handler.UploadHandler
	RateLimit *handler.RateLimitHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health checks (before API group, no limits)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// Abuse limits on raw request volume, distinct from the per-profile
	// business quota enforced at claim creation.
	claimLimiter := middleware.NewClaimCreateRateLimiter()
	uploadLimiter := middleware.NewUploadRateLimiter()
	queryLimiter := middleware.NewQueryRateLimiter()

	api := app.Group("/api")

	// Claim routes
	api.Post("/claims", h.Claim.Create, claimLimiter.Handler())
	api.Get("/claims/:claimId", h.Claim.Get, queryLimiter.Handler())

	// Upload routes
	api.Post("/uploads/:claimId", h.Upload.UploadImage, uploadLimiter.Handler())
	api.Post("/uploads/:claimId/direct", h.Upload.CreateDirect, uploadLimiter.Handler())

	// Rate-limit query
	api.Get("/ratelimit", h.RateLimit.Get, queryLimiter.Handler())
}
