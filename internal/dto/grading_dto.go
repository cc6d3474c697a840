package dto

import (
	"time"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

// SaveGradingRequest is the teacher's final grade for a submission question.
type SaveGradingRequest struct {
	ReceivedWeight *float64 `json:"receivedWeight" validate:"required,gte=0"`
	Feedback       string   `json:"feedback" validate:"max=20000"`
}

// FeedbackEventRequest fires an editor event.
type FeedbackEventRequest struct {
	Event string `json:"event" validate:"required"`
}

// DraftUpdateRequest stores in-progress feedback.
type DraftUpdateRequest struct {
	Feedback       string   `json:"feedback" validate:"max=20000"`
	SuggestedScore *float64 `json:"suggestedScore" validate:"omitempty,gte=0"`
}

// LocateRequest maps a selection in the rendered answer onto offsets.
type LocateRequest struct {
	Container annotation.Container `json:"container"`
	Selection annotation.Selection `json:"selection"`
}

// LocateResponse is the located span, if any.
type LocateResponse struct {
	Found bool `json:"found"`
	Start int  `json:"start"`
	End   int  `json:"end"`
}

// HighlightCreateRequest adds a highlight comment.
type HighlightCreateRequest struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Comment string `json:"comment" validate:"max=5000"`
}

// HighlightUpdateRequest edits a highlight comment.
type HighlightUpdateRequest struct {
	Comment string `json:"comment" validate:"max=5000"`
}

// RenderResponse is the answer partitioned into highlight segments.
type RenderResponse struct {
	Source   string               `json:"source"`
	Segments []annotation.Segment `json:"segments"`
	Ranges   []annotation.Range   `json:"ranges"`
	Stale    []string             `json:"stale_range_ids,omitempty"`
}

// DraftResponse is the editor state of a submission question.
type DraftResponse struct {
	SubmissionQuestionID int64              `json:"submission_question_id"`
	State                string             `json:"state"`
	AllowedEvents        []string           `json:"allowed_events"`
	Editable             bool               `json:"editable"`
	Feedback             string             `json:"feedback"`
	SuggestedScore       *float64           `json:"suggested_score,omitempty"`
	AIGenerated          bool               `json:"ai_generated"`
	Highlights           []annotation.Range `json:"highlights"`
	Revision             int64              `json:"revision"`
	UpdatedAt            *time.Time         `json:"updated_at,omitempty"`
}

// GradingResponse is everything the grading screen needs for one question.
type GradingResponse struct {
	Question   models.SubmissionQuestion `json:"question"`
	Result     *models.SubmissionResult  `json:"result,omitempty"`
	Grading    models.Grading            `json:"grading"`
	AnswerText string                    `json:"answer_text"`
	Draft      DraftResponse             `json:"draft"`
}

// PronunciationRequest asks for a speaking assessment. AudioURL may be
// omitted when a recording is uploaded in the same request.
type PronunciationRequest struct {
	SubmissionQuestionID int64  `json:"submissionQuestionId" form:"submissionQuestionId" validate:"omitempty,gt=0"`
	AudioURL             string `json:"audioUrl" form:"audioUrl" validate:"omitempty,url"`
	ReferenceText        string `json:"referenceText" form:"referenceText" validate:"max=5000"`
	Age                  *int   `json:"age" form:"age" validate:"omitempty,min=3,max=120"`
}

// PronunciationResponse is the assessment plus the audio it was computed on.
type PronunciationResponse struct {
	AudioURL string                     `json:"audio_url"`
	Result   models.PronunciationResult `json:"result"`
}
