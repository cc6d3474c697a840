package service

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type fakeBackend struct {
	mu sync.Mutex

	lessons      []challenge.Lesson
	lessonsErr   error
	lessonsCalls int

	challenges   map[int64]models.DailyChallenge
	created      []models.DailyChallenge
	statusCalls  []models.ChallengeStatus
	sectionSaves []models.SectionWithQuestions
	bulkCalls    []models.BulkSectionRequest

	questions    map[int64]models.SubmissionQuestion
	gradings     map[int64]models.Grading
	savedGrading []models.Grading
	result       models.SubmissionResult

	writingFeedback models.WritingFeedback
	writingErr      error
	writingHook     func()
	pronunciation   []models.PronunciationRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		challenges: map[int64]models.DailyChallenge{},
		questions:  map[int64]models.SubmissionQuestion{},
		gradings:   map[int64]models.Grading{},
	}
}

func notFound() error {
	return &upstream.APIError{Status: 404, Message: "not found"}
}

func (f *fakeBackend) ListClassChallenges(_ context.Context, _ int64, _ upstream.ListQuery) ([]challenge.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessonsCalls++
	return f.lessons, f.lessonsErr
}

func (f *fakeBackend) ListChallenges(_ context.Context, _ upstream.ListQuery) (upstream.Page[models.DailyChallenge], error) {
	items := make([]models.DailyChallenge, 0, len(f.challenges))
	for _, item := range f.challenges {
		items = append(items, item)
	}
	return upstream.Page[models.DailyChallenge]{Items: items, Total: len(items)}, nil
}

func (f *fakeBackend) GetChallenge(_ context.Context, id int64) (models.DailyChallenge, error) {
	item, ok := f.challenges[id]
	if !ok {
		return models.DailyChallenge{}, notFound()
	}
	return item, nil
}

func (f *fakeBackend) CreateChallenge(_ context.Context, input models.DailyChallenge) (models.DailyChallenge, error) {
	input.ID = int64(len(f.challenges) + 1)
	f.challenges[input.ID] = input
	f.created = append(f.created, input)
	return input, nil
}

func (f *fakeBackend) UpdateChallenge(_ context.Context, id int64, input models.DailyChallenge) (models.DailyChallenge, error) {
	if _, ok := f.challenges[id]; !ok {
		return models.DailyChallenge{}, notFound()
	}
	f.challenges[id] = input
	return input, nil
}

func (f *fakeBackend) DeleteChallenge(_ context.Context, id int64) error {
	if _, ok := f.challenges[id]; !ok {
		return notFound()
	}
	delete(f.challenges, id)
	return nil
}

func (f *fakeBackend) UpdateChallengeStatus(_ context.Context, id int64, status models.ChallengeStatus) (models.DailyChallenge, error) {
	item, ok := f.challenges[id]
	if !ok {
		return models.DailyChallenge{}, notFound()
	}
	f.statusCalls = append(f.statusCalls, status)
	item.Status = status
	f.challenges[id] = item
	return item, nil
}

func (f *fakeBackend) ToggleChallengeStatus(ctx context.Context, id int64) (models.DailyChallenge, error) {
	return f.GetChallenge(ctx, id)
}

func (f *fakeBackend) ListSubmissions(_ context.Context, _ int64, _ upstream.ListQuery) (upstream.Page[models.ChallengeSubmission], error) {
	return upstream.Page[models.ChallengeSubmission]{}, nil
}

func (f *fakeBackend) GetPerformance(_ context.Context, _ int64) (models.ChallengePerformance, error) {
	return models.ChallengePerformance{}, nil
}

func (f *fakeBackend) ListSections(_ context.Context, _ int64, _ upstream.ListQuery) (upstream.Page[models.SectionWithQuestions], error) {
	return upstream.Page[models.SectionWithQuestions]{Items: f.sectionSaves, Total: len(f.sectionSaves)}, nil
}

func (f *fakeBackend) SaveSection(_ context.Context, _ int64, payload models.SectionWithQuestions) (models.SectionWithQuestions, error) {
	payload.Section.ID = int64(len(f.sectionSaves) + 1)
	f.sectionSaves = append(f.sectionSaves, payload)
	return payload, nil
}

func (f *fakeBackend) BulkSections(_ context.Context, _ int64, payload models.BulkSectionRequest) error {
	f.bulkCalls = append(f.bulkCalls, payload)
	return nil
}

func (f *fakeBackend) GetSubmissionResult(_ context.Context, submissionID int64) (models.SubmissionResult, error) {
	if f.result.SubmissionID != submissionID {
		return models.SubmissionResult{}, notFound()
	}
	return f.result, nil
}

func (f *fakeBackend) GetSubmissionQuestion(_ context.Context, id int64) (models.SubmissionQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	question, ok := f.questions[id]
	if !ok {
		return models.SubmissionQuestion{}, notFound()
	}
	return question, nil
}

func (f *fakeBackend) GetGrading(_ context.Context, id int64) (models.Grading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grading, ok := f.gradings[id]
	if !ok {
		return models.Grading{}, notFound()
	}
	return grading, nil
}

func (f *fakeBackend) SaveGrading(_ context.Context, grading models.Grading) (models.Grading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedGrading = append(f.savedGrading, grading)
	f.gradings[grading.SubmissionQuestionID] = grading
	return grading, nil
}

func (f *fakeBackend) GenerateWritingFeedback(_ context.Context, _ models.WritingFeedbackRequest) (models.WritingFeedback, error) {
	if f.writingHook != nil {
		f.writingHook()
	}
	return f.writingFeedback, f.writingErr
}

func (f *fakeBackend) AssessPronunciation(_ context.Context, req models.PronunciationRequest) (models.PronunciationResult, error) {
	f.pronunciation = append(f.pronunciation, req)
	return models.PronunciationResult{PronScore: 87.5, RecognizedText: req.ReferenceText}, nil
}

type recordingPublisher struct {
	events []GradingSavedEvent
}

func (p *recordingPublisher) PublishGradingSaved(_ context.Context, event GradingSavedEvent) error {
	p.events = append(p.events, event)
	return nil
}
