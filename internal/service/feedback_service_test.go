package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
	"github.com/noah-isme/gema-daily-challenge/pkg/ai"
)

type fakeUploader struct {
	names []string
	sizes []int
}

func (u *fakeUploader) UploadAudio(_ context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.names = append(u.names, name)
	u.sizes = append(u.sizes, len(data))
	return "https://res.cloudinary.com/demo/video/upload/" + name, nil
}

type fakeReviewer struct {
	result ai.WritingFeedback
	input  ai.WritingInput
}

func (r *fakeReviewer) ReviewWriting(_ context.Context, input ai.WritingInput) (ai.WritingFeedback, error) {
	r.input = input
	return r.result, nil
}

type feedbackFixture struct {
	backend *fakeBackend
	store   repository.DraftStore
	fence   *feedback.Fence
	audio   *fakeUploader
	svc     FeedbackService
}

func newFeedbackFixture(t *testing.T, withAudio bool) *feedbackFixture {
	t.Helper()
	backend := newFakeBackend()
	backend.questions[21] = writingQuestion()
	backend.questions[22] = models.SubmissionQuestion{
		ID:            22,
		QuestionType:  models.QuestionSpeaking,
		AudioURL:      "https://cdn.example.com/answer-22.mp3",
		ReferenceText: "hello world",
		MaxWeight:     5,
	}

	f := &feedbackFixture{
		backend: backend,
		store:   repository.NewMemoryDraftStore(),
		fence:   feedback.NewFence(),
	}
	cfg := FeedbackServiceConfig{
		Backend:       backend,
		AI:            backend,
		Generator:     NewBackendGenerator(backend),
		Provider:      "upstream",
		MaxAudioBytes: 1 << 10,
		Store:         f.store,
		Fence:         f.fence,
		Validator:     testValidator(),
		Logger:        testLogger(),
	}
	if withAudio {
		f.audio = &fakeUploader{}
		cfg.Audio = f.audio
	}
	f.svc = NewFeedbackService(cfg)
	return f
}

func recordingHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["audio"][0]
}

func wavBytes(size int) []byte {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")
	return append(header, make([]byte, size)...)
}

func TestFeedbackServiceManualFlow(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.SaveDraft(ctx, 21, dto.DraftUpdateRequest{Feedback: "too early"})
	require.ErrorIs(t, err, ErrNotEditable)

	state, err := f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "choose_manual"})
	require.NoError(t, err)
	require.Equal(t, string(feedback.ManualEditing), state.State)
	require.True(t, state.Editable)

	state, err = f.svc.SaveDraft(ctx, 21, dto.DraftUpdateRequest{Feedback: "Good <i>structure</i>"})
	require.NoError(t, err)
	require.Equal(t, "Good <i>structure</i>", state.Feedback)
	require.Equal(t, int64(2), state.Revision)

	state, err = f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "BACK"})
	require.NoError(t, err)
	require.Equal(t, string(feedback.ChoosingMode), state.State)
	require.Empty(t, state.Feedback)
}

func TestFeedbackServiceRejectsBadEvents(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "ai_succeeded"})
	require.ErrorIs(t, err, ErrServerDrivenEvent)

	_, err = f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "start_edit"})
	require.ErrorIs(t, err, feedback.ErrInvalidTransition)

	_, err = f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "dance"})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "event", fieldErr.Field)
}

func TestFeedbackServiceGenerateAI(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()
	suggested := 14.0
	f.backend.writingFeedback = models.WritingFeedback{
		Feedback:       "Mostly clear. Check irregular verbs.",
		SuggestedScore: &suggested,
		HighlightComments: []models.HighlightComment{
			{StartIndex: 2, EndIndex: 6, Comment: "Use <b>went</b>"},
			{StartIndex: 30, EndIndex: 99, Comment: "out of range"},
			{StartIndex: 4, EndIndex: 4, Comment: "empty"},
		},
	}

	state, err := f.svc.GenerateAI(ctx, 21)
	require.NoError(t, err)
	require.Equal(t, string(feedback.AIGenerated), state.State)
	require.True(t, state.AIGenerated)
	require.False(t, state.Editable)
	require.Equal(t, 10.0, *state.SuggestedScore)
	require.Len(t, state.Highlights, 1)
	require.Equal(t, 2, state.Highlights[0].Start)

	_, err = f.svc.SaveDraft(ctx, 21, dto.DraftUpdateRequest{Feedback: "edit"})
	require.ErrorIs(t, err, ErrNotEditable)

	state, err = f.svc.Transition(ctx, 21, dto.FeedbackEventRequest{Event: "start_edit"})
	require.NoError(t, err)
	require.Equal(t, string(feedback.AIEditing), state.State)

	state, err = f.svc.SaveDraft(ctx, 21, dto.DraftUpdateRequest{Feedback: "Mostly clear."})
	require.NoError(t, err)
	require.Equal(t, "Mostly clear.", state.Feedback)
	require.True(t, state.AIGenerated)
}

func TestFeedbackServiceGenerateAIFailureResetsMode(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()
	f.backend.writingErr = errors.New("model overloaded")

	_, err := f.svc.GenerateAI(ctx, 21)
	require.ErrorIs(t, err, ErrAIUnavailable)

	draft, err := f.store.Get(ctx, 21)
	require.NoError(t, err)
	require.Equal(t, string(feedback.ChoosingMode), draft.Mode)
}

func TestFeedbackServiceGenerateAIDropsStaleResponse(t *testing.T) {
	f := newFeedbackFixture(t, false)
	ctx := context.Background()
	f.backend.writingFeedback = models.WritingFeedback{Feedback: "late answer"}
	f.backend.writingHook = func() {
		_, err := f.svc.Clear(ctx, 21)
		require.NoError(t, err)
	}

	_, err := f.svc.GenerateAI(ctx, 21)
	require.ErrorIs(t, err, ErrStaleResponse)

	_, err = f.store.Get(ctx, 21)
	require.ErrorIs(t, err, repository.ErrDraftNotFound)
}

func TestFeedbackServiceGenerateAIRequiresWriting(t *testing.T) {
	f := newFeedbackFixture(t, false)

	_, err := f.svc.GenerateAI(context.Background(), 22)
	require.ErrorIs(t, err, ErrUnsupportedQuestion)
}

func TestReviewerGeneratorMapsExcerpts(t *testing.T) {
	score := 6.0
	reviewer := &fakeReviewer{result: ai.WritingFeedback{
		Feedback:       "Fine.",
		SuggestedScore: &score,
		Highlights: []ai.Highlight{
			{Excerpt: "goed", Comment: "went"},
			{Excerpt: "not in the answer", Comment: "dropped"},
			{Excerpt: "was fun", Comment: "nice"},
		},
	}}
	generator := NewReviewerGenerator(reviewer)

	result, err := generator.GenerateWriting(context.Background(), writingQuestion())
	require.NoError(t, err)
	require.Equal(t, "I goed to the park.\nIt was fun.", reviewer.input.AnswerText)
	require.Equal(t, 10.0, reviewer.input.MaxScore)
	require.Len(t, result.HighlightComments, 2)
	require.Equal(t, 2, result.HighlightComments[0].StartIndex)
	require.Equal(t, 6, result.HighlightComments[0].EndIndex)
	require.Equal(t, 23, result.HighlightComments[1].StartIndex)
	require.Equal(t, 30, result.HighlightComments[1].EndIndex)
}

func TestFeedbackServicePronunciationDefaultsFromQuestion(t *testing.T) {
	f := newFeedbackFixture(t, false)

	resp, err := f.svc.AssessPronunciation(context.Background(), dto.PronunciationRequest{SubmissionQuestionID: 22}, nil)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/answer-22.mp3", resp.AudioURL)
	require.Len(t, f.backend.pronunciation, 1)
	require.Equal(t, "hello world", f.backend.pronunciation[0].ReferenceText)

	_, err = f.svc.AssessPronunciation(context.Background(), dto.PronunciationRequest{}, nil)
	require.ErrorIs(t, err, ErrAudioRequired)

	_, err = f.svc.AssessPronunciation(context.Background(), dto.PronunciationRequest{SubmissionQuestionID: 21}, nil)
	require.ErrorIs(t, err, ErrUnsupportedQuestion)
}

func TestFeedbackServicePronunciationUpload(t *testing.T) {
	f := newFeedbackFixture(t, true)
	ctx := context.Background()

	resp, err := f.svc.AssessPronunciation(ctx, dto.PronunciationRequest{ReferenceText: "hello"}, recordingHeader(t, "take-1.wav", wavBytes(200)))
	require.NoError(t, err)
	require.Equal(t, "https://res.cloudinary.com/demo/video/upload/take-1.wav", resp.AudioURL)
	require.Equal(t, []string{"take-1.wav"}, f.audio.names)
	require.Equal(t, resp.AudioURL, f.backend.pronunciation[0].AudioURL)

	_, err = f.svc.AssessPronunciation(ctx, dto.PronunciationRequest{}, recordingHeader(t, "notes.pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")))
	require.ErrorIs(t, err, ErrAudioTypeNotAllowed)

	_, err = f.svc.AssessPronunciation(ctx, dto.PronunciationRequest{}, recordingHeader(t, "long.wav", wavBytes(4096)))
	require.ErrorIs(t, err, ErrAudioTooLarge)
	require.Len(t, f.audio.names, 1)
}

func TestFeedbackServicePronunciationUploadDisabled(t *testing.T) {
	f := newFeedbackFixture(t, false)

	_, err := f.svc.AssessPronunciation(context.Background(), dto.PronunciationRequest{}, recordingHeader(t, "take.wav", wavBytes(10)))
	require.ErrorIs(t, err, ErrAudioStorageDisabled)
}
