package dto

import (
	"time"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

// ChallengeListQuery is the student list view query string.
type ChallengeListQuery struct {
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Size  int    `query:"size" validate:"omitempty,min=1,max=100"`
	Text  string `query:"text" validate:"max=200"`
	Types string `query:"types" validate:"max=32"`
}

// ChallengeListResponse is one page of the lesson-grouped challenge table.
type ChallengeListResponse struct {
	Rows       []challenge.Row `json:"rows"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Types      []string        `json:"types"`
	Search     string          `json:"search"`
	Degraded   bool            `json:"degraded"`
	Message    string          `json:"message,omitempty"`
}

// NewChallengeListResponse converts a computed page into its response.
func NewChallengeListResponse(page challenge.PageResult, filter challenge.FilterState) ChallengeListResponse {
	rows := page.Rows
	if rows == nil {
		rows = []challenge.Row{}
	}
	types := make([]string, 0, len(filter.SelectedTypes))
	for _, t := range filter.Types() {
		types = append(types, string(t))
	}
	return ChallengeListResponse{
		Rows:       rows,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		Types:      types,
		Search:     filter.SearchText,
	}
}

// PageQuery is the paging query accepted by teacher listings.
type PageQuery struct {
	Page    int    `query:"page" validate:"omitempty,min=0"`
	Size    int    `query:"size" validate:"omitempty,min=1,max=200"`
	Text    string `query:"text" validate:"max=200"`
	SortBy  string `query:"sortBy" validate:"omitempty,max=64"`
	SortDir string `query:"sortDir" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// DailyChallengeRequest is the create/update payload of a challenge.
type DailyChallengeRequest struct {
	ChallengeName   string     `json:"challengeName" validate:"required,min=3,max=200"`
	Description     string     `json:"description" validate:"max=2000"`
	ChallengeType   string     `json:"challengeType" validate:"required,oneof=GV RE WR LI SP"`
	LessonID        *int64     `json:"lessonId" validate:"omitempty,gt=0"`
	ClassID         *int64     `json:"classId" validate:"omitempty,gt=0"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	DurationMinutes int        `json:"durationMinutes" validate:"omitempty,min=1,max=600"`
	Status          string     `json:"status" validate:"omitempty,oneof=DRAFT OPEN CLOSED ARCHIVED"`
}

// Model converts the request into the backend representation.
func (r DailyChallengeRequest) Model() models.DailyChallenge {
	status := models.ChallengeStatus(r.Status)
	if status == "" {
		status = models.ChallengeStatusDraft
	}
	return models.DailyChallenge{
		LessonID:      r.LessonID,
		ClassID:       r.ClassID,
		ChallengeName: r.ChallengeName,
		Description:   r.Description,
		ChallengeType: r.ChallengeType,
		Status:        status,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		DurationMin:   r.DurationMinutes,
	}
}

// ChallengeStatusRequest moves a challenge to a new status.
type ChallengeStatusRequest struct {
	Status string `json:"status" query:"challengeStatus" validate:"required,oneof=DRAFT OPEN CLOSED ARCHIVED"`
}

// ListResponse wraps a backend listing.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// BulkSectionRequest deletes and reorders sections.
type BulkSectionRequest struct {
	DeleteSectionIDs []int64               `json:"deleteSectionIds" validate:"omitempty,dive,gt=0"`
	Orders           []SectionOrderRequest `json:"sectionOrders" validate:"omitempty,dive"`
}

// SectionOrderRequest is one reordered section.
type SectionOrderRequest struct {
	SectionID     int64 `json:"sectionId" validate:"required,gt=0"`
	SectionsOrder int   `json:"sectionsOrder" validate:"required,gt=0"`
}

// Model converts the request into the backend representation.
func (r BulkSectionRequest) Model() models.BulkSectionRequest {
	orders := make([]models.SectionOrder, 0, len(r.Orders))
	for _, order := range r.Orders {
		orders = append(orders, models.SectionOrder{SectionID: order.SectionID, SectionsOrder: order.SectionsOrder})
	}
	return models.BulkSectionRequest{DeleteSectionIDs: r.DeleteSectionIDs, Orders: orders}
}
