package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-daily-challenge/internal/config"
	"github.com/noah-isme/gema-daily-challenge/internal/handler"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ChallengeListHandler  *handler.ChallengeListHandler
	DailyChallengeHandler *handler.DailyChallengeHandler
	SectionHandler        *handler.SectionHandler
	GradingHandler        *handler.GradingHandler
	HealthProbes          []handler.HealthProbe
	JWTMiddleware         fiber.Handler
	// RateLimitRedis shares AI rate limit counters across instances when set.
	RateLimitRedis        *redis.Client
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health, metrics & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", jwtMiddleware)

	// Student challenge list
	if deps.ChallengeListHandler != nil {
		deps.ChallengeListHandler.Register(v2.Group("/classes"))
	}

	// Teacher authoring and grading
	if deps.DailyChallengeHandler != nil {
		deps.DailyChallengeHandler.Register(v2.Group("/daily-challenges", middleware.RequireTeacher()))
	}
	if deps.SectionHandler != nil {
		deps.SectionHandler.Register(v2.Group("/sections", middleware.RequireTeacher()))
	}
	if deps.GradingHandler != nil {
		aiLimiter := middleware.RateLimit(middleware.RateLimitConfig{
			Scope:  "ai_feedback",
			Max:    cfg.AIRateLimit,
			Window: cfg.AIRateWindow,
			Redis:  deps.RateLimitRedis,
		})
		deps.GradingHandler.Register(v2.Group("/grading", middleware.RequireTeacher()), aiLimiter)
	}
}
