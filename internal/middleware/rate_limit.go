package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-daily-challenge/internal/observability"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// RateLimitConfig bounds how often one caller may hit a scope.
type RateLimitConfig struct {
	Scope  string
	Max    int
	Window time.Duration
	// Redis shares counters between gateway instances. Nil keeps them in process.
	Redis *redis.Client
}

// RateLimit limits a scope per authenticated caller, falling back to the
// client IP when the route is not behind JWTProtected.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}

	limiterCfg := limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			caller := CallerFrom(c)
			if caller.Authenticated() {
				return cfg.Scope + ":user:" + caller.ID
			}
			return cfg.Scope + ":ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			observability.RateLimited().WithLabelValues(cfg.Scope).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, try again later")
		},
	}
	if cfg.Redis != nil {
		limiterCfg.Storage = &redisLimiterStorage{client: cfg.Redis, prefix: "gema:ratelimit:"}
	}
	return limiter.New(limiterCfg)
}

// redisLimiterStorage adapts go-redis to fiber.Storage for the limiter.
type redisLimiterStorage struct {
	client *redis.Client
	prefix string
}

func (s *redisLimiterStorage) Get(key string) ([]byte, error) {
	value, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (s *redisLimiterStorage) Set(key string, value []byte, exp time.Duration) error {
	if key == "" || len(value) == 0 {
		return nil
	}
	return s.client.Set(context.Background(), s.prefix+key, value, exp).Err()
}

func (s *redisLimiterStorage) Delete(key string) error {
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

func (s *redisLimiterStorage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client belongs to the caller.
func (s *redisLimiterStorage) Close() error {
	return nil
}
