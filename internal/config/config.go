package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AI providers for writing feedback.
const (
	AIProviderUpstream = "upstream"
	AIProviderOpenAI   = "openai"
)

// Config holds runtime configuration values for the gateway.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	AllowedOrigins         []string
	UpstreamBaseURL        string
	UpstreamTimeout        time.Duration
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	DraftTTL               time.Duration
	ListCacheTTL           time.Duration
	DefaultPageSize        int
	AIProvider             string
	OpenAIAPIKey           string
	OpenAIModel            string
	AIRateLimit            int
	AIRateWindow           time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AudioMaxSizeMB         int
	NATSURL                string
	NATSSubject            string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether audio uploads can be stored.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Daily Challenge")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("draft.ttl", "168h")
	v.SetDefault("list.cache_ttl", "30s")
	v.SetDefault("list.page_size", 10)
	v.SetDefault("ai.provider", AIProviderUpstream)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("rate_limit.ai", 5)
	v.SetDefault("rate_limit.ai_window", "1m")
	v.SetDefault("cloudinary.folder", "gema/daily-challenge/audio")
	v.SetDefault("audio.max_size_mb", 15)
	v.SetDefault("nats.subject", "gema.daily_challenge.grading")

	durations := map[string]time.Duration{}
	for _, key := range []string{"upstream.timeout", "draft.ttl", "list.cache_ttl", "rate_limit.ai_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AllowedOrigins:         splitList(v.GetString("cors.origins")),
		UpstreamBaseURL:        strings.TrimRight(v.GetString("upstream.base_url"), "/"),
		UpstreamTimeout:        durations["upstream.timeout"],
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		DraftTTL:               durations["draft.ttl"],
		ListCacheTTL:           durations["list.cache_ttl"],
		DefaultPageSize:        v.GetInt("list.page_size"),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		AIRateLimit:            v.GetInt("rate_limit.ai"),
		AIRateWindow:           durations["rate_limit.ai_window"],
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AudioMaxSizeMB:         v.GetInt("audio.max_size_mb"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
	}

	if cfg.UpstreamBaseURL == "" {
		return Config{}, fmt.Errorf("upstream base url must be provided")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case AIProviderUpstream:
	case AIProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai api key is required when ai provider is openai")
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}

	if cfg.AudioMaxSizeMB <= 0 {
		cfg.AudioMaxSizeMB = 15
	}

	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
