package ai

import "context"

// WritingInput is the material needed to review one written answer.
type WritingInput struct {
	QuestionText string
	AnswerText   string
	MaxScore     float64
}

// Highlight is a reviewer remark attached to an excerpt of the answer.
type Highlight struct {
	Excerpt string `json:"excerpt"`
	Comment string `json:"comment"`
}

// WritingFeedback is the structured review returned by a model.
type WritingFeedback struct {
	Feedback       string      `json:"feedback"`
	SuggestedScore *float64    `json:"suggestedScore,omitempty"`
	Highlights     []Highlight `json:"highlights,omitempty"`
	Model          string      `json:"model,omitempty"`
}

// WritingReviewer produces feedback for written answers.
type WritingReviewer interface {
	ReviewWriting(ctx context.Context, input WritingInput) (WritingFeedback, error)
}
