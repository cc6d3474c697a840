package service

import (
	"context"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

// ChallengeBackend is the part of the backend serving challenges.
type ChallengeBackend interface {
	ListClassChallenges(ctx context.Context, classID int64, query upstream.ListQuery) ([]challenge.Lesson, error)
	ListChallenges(ctx context.Context, query upstream.ListQuery) (upstream.Page[models.DailyChallenge], error)
	GetChallenge(ctx context.Context, id int64) (models.DailyChallenge, error)
	CreateChallenge(ctx context.Context, input models.DailyChallenge) (models.DailyChallenge, error)
	UpdateChallenge(ctx context.Context, id int64, input models.DailyChallenge) (models.DailyChallenge, error)
	DeleteChallenge(ctx context.Context, id int64) error
	UpdateChallengeStatus(ctx context.Context, id int64, status models.ChallengeStatus) (models.DailyChallenge, error)
	ToggleChallengeStatus(ctx context.Context, id int64) (models.DailyChallenge, error)
	ListSubmissions(ctx context.Context, id int64, query upstream.ListQuery) (upstream.Page[models.ChallengeSubmission], error)
	GetPerformance(ctx context.Context, id int64) (models.ChallengePerformance, error)
}

// SectionBackend is the part of the backend serving sections.
type SectionBackend interface {
	ListSections(ctx context.Context, challengeID int64, query upstream.ListQuery) (upstream.Page[models.SectionWithQuestions], error)
	SaveSection(ctx context.Context, challengeID int64, payload models.SectionWithQuestions) (models.SectionWithQuestions, error)
	BulkSections(ctx context.Context, challengeID int64, payload models.BulkSectionRequest) error
}

// GradingBackend is the part of the backend serving grading.
type GradingBackend interface {
	GetSubmissionResult(ctx context.Context, submissionID int64) (models.SubmissionResult, error)
	GetSubmissionQuestion(ctx context.Context, id int64) (models.SubmissionQuestion, error)
	GetGrading(ctx context.Context, id int64) (models.Grading, error)
	SaveGrading(ctx context.Context, grading models.Grading) (models.Grading, error)
}

// AIBackend is the part of the backend running AI assessments.
type AIBackend interface {
	GenerateWritingFeedback(ctx context.Context, req models.WritingFeedbackRequest) (models.WritingFeedback, error)
	AssessPronunciation(ctx context.Context, req models.PronunciationRequest) (models.PronunciationResult, error)
}

var (
	_ ChallengeBackend = (*upstream.Client)(nil)
	_ SectionBackend   = (*upstream.Client)(nil)
	_ GradingBackend   = (*upstream.Client)(nil)
	_ AIBackend        = (*upstream.Client)(nil)
)
