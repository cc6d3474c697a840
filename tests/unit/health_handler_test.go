package unit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gema-daily-challenge/internal/config"
	"github.com/noah-isme/gema-daily-challenge/internal/handler"
)

type response struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName: "GEMA Daily Challenge",
		AppEnv:  "test",
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload response
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Empty(t, payload.Data.Dependencies)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckReportsFailingProbe(t *testing.T) {
	cfg := config.Config{AppName: "GEMA Daily Challenge", AppEnv: "test"}
	probes := []handler.HealthProbe{
		{Name: "redis", Check: func(context.Context) error { return nil }},
		{Name: "database", Check: func(context.Context) error { return errors.New("dial tcp: connection refused") }},
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg, probes...))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var payload response
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Equal(t, "ok", payload.Data.Dependencies["redis"])
	assert.Contains(t, payload.Data.Dependencies["database"], "connection refused")
}
