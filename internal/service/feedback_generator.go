package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/pkg/ai"
)

// FeedbackGenerator proposes feedback for a writing answer. Highlight offsets
// in the result are rune offsets into the normalised answer text.
type FeedbackGenerator interface {
	GenerateWriting(ctx context.Context, question models.SubmissionQuestion) (models.WritingFeedback, error)
}

type backendGenerator struct {
	backend AIBackend
}

// NewBackendGenerator asks the daily-challenge backend for writing feedback.
func NewBackendGenerator(backend AIBackend) FeedbackGenerator {
	return &backendGenerator{backend: backend}
}

func (g *backendGenerator) GenerateWriting(ctx context.Context, question models.SubmissionQuestion) (models.WritingFeedback, error) {
	return g.backend.GenerateWritingFeedback(ctx, models.WritingFeedbackRequest{
		SubmissionQuestionID: question.ID,
		QuestionText:         question.QuestionText,
		AnswerText:           question.AnswerText,
		MaxWeight:            question.MaxWeight,
	})
}

type reviewerGenerator struct {
	reviewer ai.WritingReviewer
}

// NewReviewerGenerator adapts a model-backed reviewer. Its excerpt highlights
// are mapped onto the first literal match in the answer; unmatched excerpts
// are dropped.
func NewReviewerGenerator(reviewer ai.WritingReviewer) FeedbackGenerator {
	return &reviewerGenerator{reviewer: reviewer}
}

func (g *reviewerGenerator) GenerateWriting(ctx context.Context, question models.SubmissionQuestion) (models.WritingFeedback, error) {
	source := annotation.Normalize(question.AnswerText)
	review, err := g.reviewer.ReviewWriting(ctx, ai.WritingInput{
		QuestionText: question.QuestionText,
		AnswerText:   source,
		MaxScore:     question.MaxWeight,
	})
	if err != nil {
		return models.WritingFeedback{}, err
	}

	result := models.WritingFeedback{
		Feedback:       review.Feedback,
		SuggestedScore: review.SuggestedScore,
	}
	for _, highlight := range review.Highlights {
		start, end, ok := excerptSpan(source, highlight.Excerpt)
		if !ok {
			continue
		}
		result.HighlightComments = append(result.HighlightComments, models.HighlightComment{
			StartIndex: start,
			EndIndex:   end,
			Comment:    highlight.Comment,
		})
	}
	return result, nil
}

func excerptSpan(source, excerpt string) (int, int, bool) {
	excerpt = strings.TrimSpace(annotation.Normalize(excerpt))
	if excerpt == "" {
		return 0, 0, false
	}
	index := strings.Index(source, excerpt)
	if index < 0 {
		return 0, 0, false
	}
	start := utf8.RuneCountInString(source[:index])
	return start, start + utf8.RuneCountInString(excerpt), true
}
