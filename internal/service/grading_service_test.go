package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
)

func writingQuestion() models.SubmissionQuestion {
	return models.SubmissionQuestion{
		ID:           21,
		SubmissionID: 8,
		QuestionText: "Describe your weekend",
		QuestionType: models.QuestionWriting,
		AnswerText:   "<p>I goed to the park.</p><p>It was fun.</p>",
		MaxWeight:    10,
	}
}

func TestGradingServiceLoadSeedsFromSavedGrading(t *testing.T) {
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	backend.result = models.SubmissionResult{SubmissionID: 8, StudentName: "Rani"}
	score := 7.0
	backend.gradings[21] = models.Grading{
		SubmissionQuestionID: 21,
		ReceivedWeight:       &score,
		Feedback:             "Watch your verbs.",
		HighlightComments:    []models.HighlightComment{{StartIndex: 2, EndIndex: 6, Comment: "went"}},
	}
	svc := NewGradingService(backend, repository.NewMemoryDraftStore(), feedback.NewFence(), &recordingPublisher{}, testValidator(), testLogger())

	resp, err := svc.Load(context.Background(), 21, 8)
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	require.Equal(t, "Rani", resp.Result.StudentName)
	require.Equal(t, "I goed to the park.\nIt was fun.", resp.AnswerText)
	require.Equal(t, string(feedback.ManualEditing), resp.Draft.State)
	require.True(t, resp.Draft.Editable)
	require.Equal(t, "Watch your verbs.", resp.Draft.Feedback)
	require.Len(t, resp.Draft.Highlights, 1)
	require.NotEmpty(t, resp.Draft.Highlights[0].ID)
	require.Nil(t, resp.Draft.UpdatedAt)
}

func TestGradingServiceLoadRestoresDraft(t *testing.T) {
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	store := repository.NewMemoryDraftStore()
	require.NoError(t, store.Set(context.Background(), models.Draft{
		SubmissionQuestionID: 21,
		Mode:                 string(feedback.AIPending),
		Feedback:             "AI says: good effort",
		AIGenerated:          true,
		Revision:             3,
		UpdatedAt:            time.Now(),
	}))
	svc := NewGradingService(backend, store, feedback.NewFence(), &recordingPublisher{}, testValidator(), testLogger())

	resp, err := svc.Load(context.Background(), 21, 0)
	require.NoError(t, err)
	require.Nil(t, resp.Result)
	require.Equal(t, string(feedback.AIGenerated), resp.Draft.State)
	require.Equal(t, int64(3), resp.Draft.Revision)
	require.Contains(t, resp.Draft.AllowedEvents, string(feedback.StartEdit))
	require.NotNil(t, resp.Draft.UpdatedAt)
}

func TestGradingServiceLoadMissingQuestion(t *testing.T) {
	svc := NewGradingService(newFakeBackend(), repository.NewMemoryDraftStore(), feedback.NewFence(), &recordingPublisher{}, testValidator(), testLogger())

	_, err := svc.Load(context.Background(), 404, 0)
	require.ErrorIs(t, err, ErrSubmissionQuestionNotFound)
}

func TestGradingServiceSaveRejectsScoreAboveMax(t *testing.T) {
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	svc := NewGradingService(backend, repository.NewMemoryDraftStore(), feedback.NewFence(), &recordingPublisher{}, testValidator(), testLogger())

	score := 12.5
	_, err := svc.Save(context.Background(), 21, dto.SaveGradingRequest{ReceivedWeight: &score})
	require.ErrorIs(t, err, ErrScoreExceedsMax)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "receivedWeight", fieldErr.Field)
	require.Empty(t, backend.savedGrading)
}

func TestGradingServiceSaveUsesDraftAndClearsIt(t *testing.T) {
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	store := repository.NewMemoryDraftStore()
	stamp := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(context.Background(), models.Draft{
		SubmissionQuestionID: 21,
		Mode:                 string(feedback.AIGenerated),
		Feedback:             "Nice <script>alert(1)</script><b>work</b>",
		AIGenerated:          true,
		Highlights: []annotation.Range{
			{ID: "h1", Start: 2, End: 6, Comment: "went", Timestamp: stamp},
			{ID: "stale", Start: 40, End: 90, Comment: "gone", Timestamp: stamp},
		},
	}))
	events := &recordingPublisher{}
	fence := feedback.NewFence()
	svc := NewGradingService(backend, store, fence, events, testValidator(), testLogger())

	ctx := middleware.ContextWithCorrelation(context.Background(), "corr-1")
	score := 8.0
	saved, err := svc.Save(ctx, 21, dto.SaveGradingRequest{ReceivedWeight: &score})
	require.NoError(t, err)
	require.Equal(t, "Nice <b>work</b>", saved.Feedback)
	require.Len(t, saved.HighlightComments, 1)
	require.Equal(t, "h1", saved.HighlightComments[0].ID)
	require.Equal(t, 2, saved.HighlightComments[0].StartIndex)

	_, err = store.Get(context.Background(), 21)
	require.ErrorIs(t, err, repository.ErrDraftNotFound)
	require.Equal(t, uint64(1), fence.Current(fenceKey(21)))

	require.Len(t, events.events, 1)
	event := events.events[0]
	require.Equal(t, int64(8), event.SubmissionID)
	require.True(t, event.AIAssisted)
	require.Equal(t, 1, event.Highlights)
	require.Equal(t, "corr-1", event.CorrelationID)
}

func TestGradingServiceScoreOnlySaveKeepsBackendFeedback(t *testing.T) {
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	previous := 6.0
	backend.gradings[21] = models.Grading{
		SubmissionQuestionID: 21,
		ReceivedWeight:       &previous,
		Feedback:             "Watch your verbs.",
		HighlightComments:    []models.HighlightComment{{StartIndex: 2, EndIndex: 6, Comment: "went"}},
	}
	svc := NewGradingService(backend, repository.NewMemoryDraftStore(), feedback.NewFence(), &recordingPublisher{}, testValidator(), testLogger())
	ctx := context.Background()

	loaded, err := svc.Load(ctx, 21, 0)
	require.NoError(t, err)
	require.Len(t, loaded.Draft.Highlights, 1)

	score := 8.0
	saved, err := svc.Save(ctx, 21, dto.SaveGradingRequest{ReceivedWeight: &score})
	require.NoError(t, err)
	require.Equal(t, "Watch your verbs.", saved.Feedback)
	require.Len(t, saved.HighlightComments, 1)
	require.Equal(t, loaded.Draft.Highlights[0].ID, saved.HighlightComments[0].ID)
	require.Equal(t, 2, saved.HighlightComments[0].StartIndex)
	require.Equal(t, "went", saved.HighlightComments[0].Comment)
	require.Equal(t, 8.0, *saved.ReceivedWeight)
}

func TestRangesFromCommentsDerivesStableIDs(t *testing.T) {
	comments := []models.HighlightComment{
		{StartIndex: 2, EndIndex: 6, Comment: "went"},
		{ID: "kept", StartIndex: 10, EndIndex: 14, Comment: "the"},
	}

	first := rangesFromComments(21, comments)
	second := rangesFromComments(21, comments)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, "kept", first[1].ID)
	require.NotEqual(t, first[0].ID, rangesFromComments(22, comments)[0].ID)
}
