package performance_test

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/handler"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

func largeClass(lessons, perLesson int) []challenge.Lesson {
	types := challenge.AllTypes
	result := make([]challenge.Lesson, 0, lessons)
	id := int64(1)
	for l := 0; l < lessons; l++ {
		lesson := challenge.Lesson{LessonID: int64(l + 1), LessonName: fmt.Sprintf("Lesson %03d", l+1)}
		for c := 0; c < perLesson; c++ {
			lesson.DailyChallenges = append(lesson.DailyChallenges, challenge.LessonChallenge{
				ID:     id,
				Title:  fmt.Sprintf("Challenge %d", id),
				Type:   types[int(id)%len(types)],
				Status: "PUBLISHED",
			})
			id++
		}
		result = append(result, lesson)
	}
	return result
}

func setupChallengeListApp(t *testing.T) (*fiber.App, *int64) {
	t.Helper()

	var backendCalls int64
	payload, err := json.Marshal(map[string]interface{}{"success": true, "data": largeClass(200, 5)})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backendCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	client := upstream.New(upstream.Config{BaseURL: server.URL}, zerolog.Nop())
	listService := service.NewChallengeListService(client, cache, time.Minute, 10, validator.New(), zerolog.Nop())

	app := fiber.New()
	handler.NewChallengeListHandler(listService, zerolog.Nop()).Register(app.Group("/api/v2/classes"))
	return app, &backendCalls
}

func TestChallengeListP95LatencyBelow250ms(t *testing.T) {
	app, backendCalls := setupChallengeListApp(t)

	runs := 40
	durations := make([]time.Duration, 0, runs)

	for i := 0; i < runs; i++ {
		target := fmt.Sprintf("/api/v2/classes/4/daily-challenges?page=%d&types=WR,SP&text=challenge", i%5+1)
		req := httptest.NewRequest(http.MethodGet, target, nil)
		start := time.Now()
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	index := int(math.Ceil(0.95*float64(len(durations)))) - 1
	if index < 0 {
		index = 0
	}
	p95 := durations[index]

	require.LessOrEqual(t, p95, 250*time.Millisecond)
	require.Equal(t, int64(1), atomic.LoadInt64(backendCalls))
}
