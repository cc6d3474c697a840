package contract_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/handler"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
)

func TestChallengeListContract(t *testing.T) {
	schema := compileSchema(t, "challenge_list.schema.json")

	client := backend(t, map[string]interface{}{
		"/daily-challenges/class/4": []map[string]interface{}{
			{
				"lessonId":   1,
				"lessonName": "Past tense",
				"dailyChallenges": []map[string]interface{}{
					{"id": 10, "challengeName": "Irregular verbs", "challengeType": "GV", "status": "PUBLISHED", "startDate": "2026-10-01T07:00:00Z", "endDate": "2026-10-02T07:00:00Z", "totalScore": 12.5, "submissionStatus": "GRADED"},
					{"id": 11, "challengeName": "Weekend story", "challengeType": "WR", "status": "PUBLISHED"},
				},
			},
			{"lessonId": 2, "lessonName": "Food", "dailyChallenges": []interface{}{}},
		},
	})

	svc := service.NewChallengeListService(client, nil, 0, 10, newValidator(), zerolog.Nop())
	app := fiber.New()
	handler.NewChallengeListHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/classes"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/classes/4/daily-challenges?types=GV,WR", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := validateBody(t, schema, resp)
	rows := payload["data"].([]interface{})
	require.Len(t, rows, 3)

	first := rows[0].(map[string]interface{})
	require.Equal(t, true, first["is_first_in_group"])
	require.EqualValues(t, 2, first["group_span"])
	require.EqualValues(t, 10, first["total_score"])

	placeholder := rows[2].(map[string]interface{})
	require.Equal(t, true, placeholder["is_empty_group"])
}

func TestChallengeListDegradedContract(t *testing.T) {
	schema := compileSchema(t, "challenge_list.schema.json")

	client := backend(t, map[string]interface{}{})
	svc := service.NewChallengeListService(client, nil, 0, 10, newValidator(), zerolog.Nop())
	app := fiber.New()
	handler.NewChallengeListHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/classes"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/classes/9/daily-challenges", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := validateBody(t, schema, resp)
	require.Empty(t, payload["data"])
	require.Equal(t, true, payload["meta"].(map[string]interface{})["degraded"])
	require.Equal(t, "not found", payload["message"])
}
