package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

// GetSubmissionResult fetches the graded result of a submission.
func (c *Client) GetSubmissionResult(ctx context.Context, submissionID int64) (models.SubmissionResult, error) {
	var out models.SubmissionResult
	err := c.do(ctx, "get_submission_result", http.MethodGet, fmt.Sprintf("/submissions/%d/result", submissionID), nil, nil, &out)
	return out, err
}

// GetSubmissionQuestion fetches one answered question.
func (c *Client) GetSubmissionQuestion(ctx context.Context, id int64) (models.SubmissionQuestion, error) {
	var out models.SubmissionQuestion
	err := c.do(ctx, "get_submission_question", http.MethodGet, fmt.Sprintf("/submission-questions/%d", id), nil, nil, &out)
	return out, err
}

// GetGrading fetches the saved grading of a submission question.
func (c *Client) GetGrading(ctx context.Context, id int64) (models.Grading, error) {
	var out models.Grading
	err := c.do(ctx, "get_grading", http.MethodGet, fmt.Sprintf("/submission-questions/%d/grading", id), nil, nil, &out)
	return out, err
}

// SaveGrading stores the grading of a submission question.
func (c *Client) SaveGrading(ctx context.Context, grading models.Grading) (models.Grading, error) {
	var out models.Grading
	path := fmt.Sprintf("/submission-questions/%d/grading", grading.SubmissionQuestionID)
	if err := c.do(ctx, "save_grading", http.MethodPut, path, nil, grading, &out); err != nil {
		return models.Grading{}, err
	}
	if out.SubmissionQuestionID == 0 {
		out = grading
	}
	return out, nil
}

// GenerateWritingFeedback asks the backend AI for writing feedback.
func (c *Client) GenerateWritingFeedback(ctx context.Context, req models.WritingFeedbackRequest) (models.WritingFeedback, error) {
	var out models.WritingFeedback
	err := c.do(ctx, "generate_writing_feedback", http.MethodPost, "/ai/writing-feedback", nil, req, &out)
	return out, err
}

// AssessPronunciation asks the backend to score a spoken answer.
func (c *Client) AssessPronunciation(ctx context.Context, req models.PronunciationRequest) (models.PronunciationResult, error) {
	var out models.PronunciationResult
	err := c.do(ctx, "assess_pronunciation", http.MethodPost, "/ai/pronunciation-assessment", nil, req, &out)
	return out, err
}
