package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/Andreo9078/orgdirectory/internal/pkg/metrics"
)

// SetupRoutes registers middleware and all REST routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Health & readiness (unauthenticated, uncached)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 behind the API key, with response caching and a 15s
	// per-request timeout.
	v1 := app.Group("/v1", APIKeyMiddleware(deps.APIKey))
	v1.Use(ResponseCacheMiddleware(deps.Cache, deps.ResponseTTL))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, 15*time.Second)
	}

	v1.Get("/organizations", withTimeout(ListOrganizationsHandler(deps)))
	v1.Get("/organizations/in_radius", withTimeout(OrganizationsInRadiusHandler(deps)))
	v1.Get("/organizations/in_bbox", withTimeout(OrganizationsInBBoxHandler(deps)))
	v1.Get("/organizations/by_activity/:id", withTimeout(OrganizationsByActivityHandler(deps)))
	v1.Get("/organizations/:id", withTimeout(GetOrganizationHandler(deps)))

	v1.Get("/buildings", withTimeout(ListBuildingsHandler(deps)))
	v1.Get("/buildings/:id", withTimeout(GetBuildingHandler(deps)))

	v1.Get("/activities", withTimeout(ListActivitiesHandler(deps)))
	v1.Get("/activities/:id", withTimeout(GetActivityHandler(deps)))
	v1.Post("/activities/:id/children", withTimeout(CreateChildActivityHandler(deps)))
}
