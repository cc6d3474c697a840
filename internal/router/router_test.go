package router_test

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/config"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/handler"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/router"
)

const secret = "router-secret"

type stubFeedback struct{}

func (stubFeedback) Transition(context.Context, int64, dto.FeedbackEventRequest) (dto.DraftResponse, error) {
	return dto.DraftResponse{}, nil
}

func (stubFeedback) GenerateAI(_ context.Context, id int64) (dto.DraftResponse, error) {
	return dto.DraftResponse{SubmissionQuestionID: id, State: "ai_generated"}, nil
}

func (stubFeedback) SaveDraft(context.Context, int64, dto.DraftUpdateRequest) (dto.DraftResponse, error) {
	return dto.DraftResponse{}, nil
}

func (stubFeedback) Clear(context.Context, int64) (dto.DraftResponse, error) {
	return dto.DraftResponse{}, nil
}

func (stubFeedback) AssessPronunciation(context.Context, dto.PronunciationRequest, *multipart.FileHeader) (dto.PronunciationResponse, error) {
	return dto.PronunciationResponse{}, nil
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   float64(7),
		"roles": []interface{}{role},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newApp(probes ...handler.HealthProbe) *fiber.App {
	cfg := config.Config{AppName: "gateway-test", AppEnv: "test", AIRateLimit: 1, AIRateWindow: time.Minute}
	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		GradingHandler: handler.NewGradingHandler(nil, nil, stubFeedback{}, zerolog.Nop()),
		HealthProbes:   probes,
		JWTMiddleware:  middleware.JWTProtected(secret),
	})
	return app
}

func TestHealthReportsDependencies(t *testing.T) {
	app := newApp(handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return nil }})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "gateway-test", resp.Header.Get("X-Application"))
}

func TestHealthDegradesOnFailingProbe(t *testing.T) {
	app := newApp(handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGradingRequiresTeacher(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v2/grading/submission-questions/3/ai-feedback", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v2/grading/submission-questions/3/ai-feedback", nil)
	req.Header.Set("Authorization", bearer(t, "ROLE_STUDENT"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAIFeedbackIsRateLimited(t *testing.T) {
	app := newApp()
	token := bearer(t, "ROLE_TEACHER")

	req := httptest.NewRequest(http.MethodPost, "/api/v2/grading/submission-questions/3/ai-feedback", nil)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v2/grading/submission-questions/3/ai-feedback", nil)
	req.Header.Set("Authorization", token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
