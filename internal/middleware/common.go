package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the gateway's shared middleware chain.
type Config struct {
	Logger         *zerolog.Logger
	AllowedOrigins []string
}

// Register installs panic recovery, correlation ids, request logging and
// CORS for the grading UI origins.
func Register(app *fiber.App, cfg Config) {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	origins := "*"
	if len(cfg.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.AllowedOrigins, ",")
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, panicked interface{}) {
			logger.Error().
				Str("path", c.Path()).
				Str("correlation_id", GetCorrelationID(c)).
				Str("panic", fmt.Sprint(panicked)).
				Msg("request panicked")
		},
	}))
	app.Use(CorrelationID())
	app.Use(Observability(logger))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + CorrelationHeader,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: CorrelationHeader + ", " + fiber.HeaderRetryAfter,
	}))
}
