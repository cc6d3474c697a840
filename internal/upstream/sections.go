package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

// ListSections lists the sections of a challenge with their questions.
func (c *Client) ListSections(ctx context.Context, challengeID int64, query ListQuery) (Page[models.SectionWithQuestions], error) {
	raw, err := c.list(ctx, "list_sections", fmt.Sprintf("/sections/challenge/%d", challengeID), query.values())
	if err != nil {
		return Page[models.SectionWithQuestions]{}, err
	}
	return decodeList[models.SectionWithQuestions](raw)
}

// SaveSection creates or updates a section and its questions.
func (c *Client) SaveSection(ctx context.Context, challengeID int64, payload models.SectionWithQuestions) (models.SectionWithQuestions, error) {
	var out models.SectionWithQuestions
	err := c.do(ctx, "save_section", http.MethodPost, fmt.Sprintf("/sections/%d", challengeID), nil, payload, &out)
	return out, err
}

// BulkSections deletes and reorders sections in one call.
func (c *Client) BulkSections(ctx context.Context, challengeID int64, payload models.BulkSectionRequest) error {
	return c.do(ctx, "bulk_sections", http.MethodPost, fmt.Sprintf("/sections/bulk/%d", challengeID), nil, payload, nil)
}
