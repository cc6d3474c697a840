package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-daily-challenge/internal/config"
	"github.com/noah-isme/gema-daily-challenge/internal/database"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/handler"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
	"github.com/noah-isme/gema-daily-challenge/internal/router"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
	"github.com/noah-isme/gema-daily-challenge/pkg/ai"
	cloud "github.com/noah-isme/gema-daily-challenge/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	observability.RegisterMetrics()

	var (
		redisClient *redis.Client
		db          *gorm.DB
		probes      []handler.HealthProbe
	)

	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes = append(probes, handler.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	var drafts repository.DraftStore
	switch {
	case redisClient != nil:
		drafts = repository.NewRedisDraftStore(redisClient, cfg.DraftTTL)
		logger.Info().Msg("drafts stored in redis")
	case cfg.DatabaseURL != "":
		db, err = database.ConnectSQL(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("failed to access database handle: %v", err)
		}
		defer sqlDB.Close()
		probes = append(probes, handler.HealthProbe{Name: "database", Check: sqlDB.PingContext})
		drafts = repository.NewSQLDraftStore(db)
		logger.Info().Msg("drafts stored in sql database")
	default:
		drafts = repository.NewMemoryDraftStore()
		logger.Warn().Msg("no redis or database configured, drafts kept in memory")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("grading events disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	backend := upstream.New(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		Timeout: cfg.UpstreamTimeout,
	}, logger)

	generator := service.NewBackendGenerator(backend)
	if cfg.AIProvider == config.AIProviderOpenAI {
		reviewer, err := ai.NewOpenAIReviewer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai reviewer: %v", err)
		}
		generator = service.NewReviewerGenerator(reviewer)
	}

	var audio service.AudioUploader
	if cfg.CloudinaryEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		audio = store
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	fence := feedback.NewFence()
	events := service.NewNATSPublisher(natsConn, cfg.NATSSubject, logger)

	listService := service.NewChallengeListService(backend, redisClient, cfg.ListCacheTTL, cfg.DefaultPageSize, validate, logger)
	challengeService := service.NewDailyChallengeService(backend, validate, logger)
	sectionService := service.NewSectionService(backend, validate, logger)
	gradingService := service.NewGradingService(backend, drafts, fence, events, validate, logger)
	annotationService := service.NewAnnotationService(backend, drafts, fence, validate, logger)
	feedbackService := service.NewFeedbackService(service.FeedbackServiceConfig{
		Backend:       backend,
		AI:            backend,
		Generator:     generator,
		Provider:      cfg.AIProvider,
		Audio:         audio,
		MaxAudioBytes: int64(cfg.AudioMaxSizeMB) << 20,
		Store:         drafts,
		Fence:         fence,
		Validator:     validate,
		Logger:        logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.AudioMaxSizeMB + 1) << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		ChallengeListHandler:  handler.NewChallengeListHandler(listService, logger),
		DailyChallengeHandler: handler.NewDailyChallengeHandler(challengeService, logger),
		SectionHandler:        handler.NewSectionHandler(sectionService, logger),
		GradingHandler:        handler.NewGradingHandler(gradingService, annotationService, feedbackService, logger),
		HealthProbes:          probes,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		RateLimitRedis:        redisClient,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
