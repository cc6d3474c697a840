package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

// ListClassChallenges returns the lessons of a class with their challenges.
func (c *Client) ListClassChallenges(ctx context.Context, classID int64, query ListQuery) ([]challenge.Lesson, error) {
	raw, err := c.list(ctx, "list_class_challenges", fmt.Sprintf("/daily-challenges/class/%d", classID), query.values())
	if err != nil {
		return nil, err
	}
	page, err := decodeList[challenge.Lesson](raw)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ListChallenges returns the challenges visible to the calling teacher.
func (c *Client) ListChallenges(ctx context.Context, query ListQuery) (Page[models.DailyChallenge], error) {
	raw, err := c.list(ctx, "list_challenges", "/daily-challenges", query.values())
	if err != nil {
		return Page[models.DailyChallenge]{}, err
	}
	return decodeList[models.DailyChallenge](raw)
}

// GetChallenge fetches one challenge.
func (c *Client) GetChallenge(ctx context.Context, id int64) (models.DailyChallenge, error) {
	var out models.DailyChallenge
	err := c.do(ctx, "get_challenge", http.MethodGet, fmt.Sprintf("/daily-challenges/%d", id), nil, nil, &out)
	return out, err
}

// CreateChallenge creates a challenge.
func (c *Client) CreateChallenge(ctx context.Context, input models.DailyChallenge) (models.DailyChallenge, error) {
	var out models.DailyChallenge
	err := c.do(ctx, "create_challenge", http.MethodPost, "/daily-challenges", nil, input, &out)
	return out, err
}

// UpdateChallenge replaces a challenge.
func (c *Client) UpdateChallenge(ctx context.Context, id int64, input models.DailyChallenge) (models.DailyChallenge, error) {
	var out models.DailyChallenge
	err := c.do(ctx, "update_challenge", http.MethodPut, fmt.Sprintf("/daily-challenges/%d", id), nil, input, &out)
	return out, err
}

// DeleteChallenge removes a challenge.
func (c *Client) DeleteChallenge(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_challenge", http.MethodDelete, fmt.Sprintf("/daily-challenges/%d", id), nil, nil, nil)
}

// UpdateChallengeStatus moves a challenge to status.
func (c *Client) UpdateChallengeStatus(ctx context.Context, id int64, status models.ChallengeStatus) (models.DailyChallenge, error) {
	var out models.DailyChallenge
	query := url.Values{"challengeStatus": []string{string(status)}}
	err := c.do(ctx, "update_challenge_status", http.MethodPut, fmt.Sprintf("/daily-challenges/%d/status", id), query, nil, &out)
	return out, err
}

// ToggleChallengeStatus flips a challenge between open and closed.
func (c *Client) ToggleChallengeStatus(ctx context.Context, id int64) (models.DailyChallenge, error) {
	var out models.DailyChallenge
	err := c.do(ctx, "toggle_challenge_status", http.MethodPatch, fmt.Sprintf("/daily-challenges/%d/toggle-status", id), nil, nil, &out)
	return out, err
}

// ListSubmissions lists student submissions for a challenge.
func (c *Client) ListSubmissions(ctx context.Context, id int64, query ListQuery) (Page[models.ChallengeSubmission], error) {
	raw, err := c.list(ctx, "list_submissions", fmt.Sprintf("/daily-challenges/%d/submissions", id), query.values())
	if err != nil {
		return Page[models.ChallengeSubmission]{}, err
	}
	return decodeList[models.ChallengeSubmission](raw)
}

// GetPerformance returns aggregated results for a challenge.
func (c *Client) GetPerformance(ctx context.Context, id int64) (models.ChallengePerformance, error) {
	var out models.ChallengePerformance
	err := c.do(ctx, "get_performance", http.MethodGet, fmt.Sprintf("/daily-challenges/%d/performance", id), nil, nil, &out)
	return out, err
}
