package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
)

// AudioUploader stores speaking recordings and returns their public URL.
type AudioUploader interface {
	UploadAudio(ctx context.Context, name string, reader io.Reader) (string, error)
}

// FeedbackService drives the feedback editor of a submission question.
type FeedbackService interface {
	Transition(ctx context.Context, submissionQuestionID int64, payload dto.FeedbackEventRequest) (dto.DraftResponse, error)
	GenerateAI(ctx context.Context, submissionQuestionID int64) (dto.DraftResponse, error)
	SaveDraft(ctx context.Context, submissionQuestionID int64, payload dto.DraftUpdateRequest) (dto.DraftResponse, error)
	Clear(ctx context.Context, submissionQuestionID int64) (dto.DraftResponse, error)
	AssessPronunciation(ctx context.Context, payload dto.PronunciationRequest, recording *multipart.FileHeader) (dto.PronunciationResponse, error)
}

// FeedbackServiceConfig wires the feedback service.
type FeedbackServiceConfig struct {
	Backend       GradingBackend
	AI            AIBackend
	Generator     FeedbackGenerator
	Provider      string
	Audio         AudioUploader
	MaxAudioBytes int64
	Store         repository.DraftStore
	Fence         *feedback.Fence
	Validator     *validator.Validate
	Logger        zerolog.Logger
}

type feedbackService struct {
	backend       GradingBackend
	ai            AIBackend
	generator     FeedbackGenerator
	provider      string
	audio         AudioUploader
	maxAudioBytes int64
	drafts        *draftKeeper
	policy        *bluemonday.Policy
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewFeedbackService constructs the feedback service. Audio may be nil when
// recording uploads are disabled.
func NewFeedbackService(cfg FeedbackServiceConfig) FeedbackService {
	maxAudio := cfg.MaxAudioBytes
	if maxAudio <= 0 {
		maxAudio = 15 << 20
	}
	return &feedbackService{
		backend:       cfg.Backend,
		ai:            cfg.AI,
		generator:     cfg.Generator,
		provider:      cfg.Provider,
		audio:         cfg.Audio,
		maxAudioBytes: maxAudio,
		drafts:        newDraftKeeper(cfg.Store, cfg.Fence),
		policy:        bluemonday.UGCPolicy(),
		validator:     cfg.Validator,
		logger:        cfg.Logger.With().Str("component", "feedback_service").Logger(),
	}
}

func (s *feedbackService) Transition(ctx context.Context, submissionQuestionID int64, payload dto.FeedbackEventRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	event, err := feedback.ParseEvent(payload.Event)
	if err != nil {
		return dto.DraftResponse{}, &FieldError{Field: "event", Message: err.Error(), Err: err}
	}
	switch event {
	case feedback.RequestAI, feedback.AISucceeded, feedback.AIFailed, feedback.Saved:
		return dto.DraftResponse{}, fmt.Errorf("%w: %s", ErrServerDrivenEvent, event)
	}

	draft, machine, err := s.current(ctx, submissionQuestionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if err := machine.Fire(event); err != nil {
		return dto.DraftResponse{}, err
	}

	switch event {
	case feedback.Clear:
		return s.Clear(ctx, submissionQuestionID)
	case feedback.Back:
		draft.Feedback = ""
		draft.SuggestedScore = nil
		draft.AIGenerated = false
	}

	draft.Mode = string(machine.State())
	saved, err := s.drafts.save(ctx, draft)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	s.logger.Debug().
		Int64("submission_question_id", submissionQuestionID).
		Str("event", string(event)).
		Str("state", saved.Mode).
		Msg("feedback transition")
	return newDraftResponse(saved, true), nil
}

func (s *feedbackService) GenerateAI(ctx context.Context, submissionQuestionID int64) (dto.DraftResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/feedback")
	ctx, span := tracer.Start(ctx, "feedback.generate_ai")
	span.SetAttributes(
		attribute.Int64("feedback.submission_question_id", submissionQuestionID),
		attribute.String("feedback.provider", s.provider),
	)
	defer span.End()

	question, err := s.backend.GetSubmissionQuestion(ctx, submissionQuestionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question_lookup_failed")
		return dto.DraftResponse{}, submissionQuestionError(err)
	}
	if question.QuestionType != models.QuestionWriting {
		return dto.DraftResponse{}, ErrUnsupportedQuestion
	}
	source := annotation.Normalize(question.AnswerText)
	if strings.TrimSpace(source) == "" {
		return dto.DraftResponse{}, &FieldError{Field: "answerText", Message: ErrEmptyAnswer.Error(), Err: ErrEmptyAnswer}
	}

	draft, machine, err := s.current(ctx, submissionQuestionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if err := machine.Fire(feedback.RequestAI); err != nil {
		return dto.DraftResponse{}, err
	}
	draft.Mode = string(machine.State())
	draft, err = s.drafts.save(ctx, draft)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	key := fenceKey(submissionQuestionID)
	token := s.drafts.fence.Begin(key)
	revision := draft.Revision

	generated, genErr := s.generator.GenerateWriting(ctx, question)

	// Finish the draft even when the caller went away.
	persistCtx := context.WithoutCancel(ctx)
	if !s.drafts.fence.Valid(key, token) {
		observability.AIFeedback().WithLabelValues(s.provider, "stale").Inc()
		span.SetStatus(codes.Error, "stale")
		return dto.DraftResponse{}, ErrStaleResponse
	}
	latest, _, err := s.drafts.load(persistCtx, submissionQuestionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if latest.Revision != revision {
		observability.AIFeedback().WithLabelValues(s.provider, "stale").Inc()
		span.SetStatus(codes.Error, "stale")
		return dto.DraftResponse{}, ErrStaleResponse
	}

	if genErr != nil {
		observability.AIFeedback().WithLabelValues(s.provider, "failed").Inc()
		span.RecordError(genErr)
		span.SetStatus(codes.Error, "generation_failed")
		s.logger.Warn().Err(genErr).Int64("submission_question_id", submissionQuestionID).Msg("ai feedback generation failed")

		if err := machine.Fire(feedback.AIFailed); err == nil {
			latest.Mode = string(machine.State())
			if _, err := s.drafts.save(persistCtx, latest); err != nil {
				s.logger.Warn().Err(err).Msg("failed to reset draft after ai failure")
			}
		}
		return dto.DraftResponse{}, fmt.Errorf("%w: %v", ErrAIUnavailable, genErr)
	}

	if err := machine.Fire(feedback.AISucceeded); err != nil {
		return dto.DraftResponse{}, err
	}

	set := annotation.NewSet(annotation.WithClock(s.drafts.now))
	sourceLength := annotation.RuneLen(source)
	for _, comment := range generated.HighlightComments {
		if comment.EndIndex > sourceLength {
			continue
		}
		if _, err := set.Add(comment.StartIndex, comment.EndIndex, s.policy.Sanitize(comment.Comment)); err != nil {
			s.logger.Debug().Err(err).Int("start", comment.StartIndex).Int("end", comment.EndIndex).Msg("ai highlight dropped")
		}
	}

	latest.Mode = string(machine.State())
	latest.Feedback = s.policy.Sanitize(generated.Feedback)
	latest.SuggestedScore = clampScore(generated.SuggestedScore, question.MaxWeight)
	latest.AIGenerated = true
	latest.Highlights = set.Ranges()

	saved, err := s.drafts.save(persistCtx, latest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "draft_save_failed")
		return dto.DraftResponse{}, err
	}

	observability.AIFeedback().WithLabelValues(s.provider, "succeeded").Inc()
	s.logger.Info().
		Int64("submission_question_id", submissionQuestionID).
		Int("highlights", len(saved.Highlights)).
		Msg("ai feedback generated")
	return newDraftResponse(saved, true), nil
}

func (s *feedbackService) SaveDraft(ctx context.Context, submissionQuestionID int64, payload dto.DraftUpdateRequest) (dto.DraftResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftResponse{}, err
	}

	draft, machine, err := s.current(ctx, submissionQuestionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	if !machine.Editable() {
		return dto.DraftResponse{}, fmt.Errorf("%w: %s", ErrNotEditable, machine.State())
	}

	draft.Mode = string(machine.State())
	draft.Feedback = s.policy.Sanitize(payload.Feedback)
	if payload.SuggestedScore != nil {
		draft.SuggestedScore = payload.SuggestedScore
	}

	saved, err := s.drafts.save(ctx, draft)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	return newDraftResponse(saved, true), nil
}

func (s *feedbackService) Clear(ctx context.Context, submissionQuestionID int64) (dto.DraftResponse, error) {
	if err := s.drafts.clear(ctx, submissionQuestionID); err != nil {
		return dto.DraftResponse{}, err
	}
	draft, _, err := s.drafts.load(ctx, submissionQuestionID)
	if err != nil {
		return dto.DraftResponse{}, err
	}
	s.logger.Debug().Int64("submission_question_id", submissionQuestionID).Msg("draft cleared")
	return newDraftResponse(draft, false), nil
}

func (s *feedbackService) AssessPronunciation(ctx context.Context, payload dto.PronunciationRequest, recording *multipart.FileHeader) (dto.PronunciationResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/feedback")
	ctx, span := tracer.Start(ctx, "feedback.assess_pronunciation")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PronunciationResponse{}, err
	}

	if payload.SubmissionQuestionID > 0 {
		question, err := s.backend.GetSubmissionQuestion(ctx, payload.SubmissionQuestionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "question_lookup_failed")
			return dto.PronunciationResponse{}, submissionQuestionError(err)
		}
		if question.QuestionType != models.QuestionSpeaking {
			return dto.PronunciationResponse{}, ErrUnsupportedQuestion
		}
		if payload.AudioURL == "" && recording == nil {
			payload.AudioURL = question.AudioURL
		}
		if payload.ReferenceText == "" {
			payload.ReferenceText = question.ReferenceText
		}
	}

	if recording != nil {
		url, err := s.uploadRecording(ctx, recording)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload_failed")
			return dto.PronunciationResponse{}, err
		}
		payload.AudioURL = url
	}
	if payload.AudioURL == "" {
		return dto.PronunciationResponse{}, &FieldError{Field: "audioUrl", Message: ErrAudioRequired.Error(), Err: ErrAudioRequired}
	}
	span.SetAttributes(attribute.Bool("feedback.uploaded", recording != nil))

	result, err := s.ai.AssessPronunciation(ctx, models.PronunciationRequest{
		AudioURL:      payload.AudioURL,
		ReferenceText: payload.ReferenceText,
		Age:           payload.Age,
	})
	if err != nil {
		observability.AIFeedback().WithLabelValues("pronunciation", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "assessment_failed")
		return dto.PronunciationResponse{}, err
	}

	observability.AIFeedback().WithLabelValues("pronunciation", "succeeded").Inc()
	return dto.PronunciationResponse{AudioURL: payload.AudioURL, Result: result}, nil
}

func (s *feedbackService) uploadRecording(ctx context.Context, recording *multipart.FileHeader) (string, error) {
	if s.audio == nil {
		return "", ErrAudioStorageDisabled
	}
	if recording.Size > s.maxAudioBytes {
		return "", ErrAudioTooLarge
	}

	handle, err := recording.Open()
	if err != nil {
		return "", err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxAudioBytes+1)); err != nil {
		return "", err
	}
	if int64(buf.Len()) > s.maxAudioBytes {
		return "", ErrAudioTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !isAudio(mime) {
		s.logger.Debug().Str("mime", mime.String()).Msg("recording rejected")
		return "", fmt.Errorf("%w: %s", ErrAudioTypeNotAllowed, mime.String())
	}

	return s.audio.UploadAudio(ctx, recording.Filename, bytes.NewReader(buf.Bytes()))
}

// current loads the draft with the editor state it should resume in.
func (s *feedbackService) current(ctx context.Context, submissionQuestionID int64) (models.Draft, *feedback.Machine, error) {
	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		return models.Draft{}, nil, err
	}
	state := feedback.InitialState(feedback.ParseState(draft.Mode), draft.Feedback != "", draft.AIGenerated)
	return draft, feedback.NewMachine(state), nil
}

// isAudio accepts audio types plus the containers browsers record into.
func isAudio(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return true
		}
	}
	return mime.Is("video/webm") || mime.Is("application/ogg") || mime.Is("video/mp4")
}

func clampScore(score *float64, maxWeight float64) *float64 {
	if score == nil {
		return nil
	}
	value := *score
	if value < 0 {
		value = 0
	}
	if maxWeight > 0 && value > maxWeight {
		value = maxWeight
	}
	return &value
}
