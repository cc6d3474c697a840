package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

// GradingService loads and saves the teacher's grading of one submission question.
type GradingService interface {
	Load(ctx context.Context, submissionQuestionID, submissionID int64) (dto.GradingResponse, error)
	Save(ctx context.Context, submissionQuestionID int64, payload dto.SaveGradingRequest) (models.Grading, error)
}

type gradingService struct {
	backend   GradingBackend
	drafts    *draftKeeper
	events    EventPublisher
	policy    *bluemonday.Policy
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingService constructs the grading service. The fence must be the one
// shared with the feedback and annotation services.
func NewGradingService(backend GradingBackend, store repository.DraftStore, fence *feedback.Fence, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		backend:   backend,
		drafts:    newDraftKeeper(store, fence),
		events:    events,
		policy:    bluemonday.UGCPolicy(),
		validator: validate,
		logger:    logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Load(ctx context.Context, submissionQuestionID, submissionID int64) (dto.GradingResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.load")
	span.SetAttributes(attribute.Int64("grading.submission_question_id", submissionQuestionID))
	defer span.End()

	key := fenceKey(submissionQuestionID)
	token := s.drafts.fence.Current(key)

	var (
		result   *models.SubmissionResult
		question models.SubmissionQuestion
		grading  models.Grading
		draft    models.Draft
		stored   bool
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if submissionID > 0 {
		group.Go(func() error {
			loaded, err := s.backend.GetSubmissionResult(groupCtx, submissionID)
			if err != nil {
				return submissionQuestionError(err)
			}
			result = &loaded
			return nil
		})
	}
	group.Go(func() error {
		loaded, err := s.backend.GetSubmissionQuestion(groupCtx, submissionQuestionID)
		if err != nil {
			return submissionQuestionError(err)
		}
		question = loaded
		return nil
	})
	group.Go(func() error {
		loaded, err := s.backend.GetGrading(groupCtx, submissionQuestionID)
		if err != nil {
			if upstream.IsNotFound(err) {
				grading = models.Grading{SubmissionQuestionID: submissionQuestionID}
				return nil
			}
			return err
		}
		grading = loaded
		return nil
	})
	group.Go(func() error {
		var err error
		draft, stored, err = s.drafts.load(groupCtx, submissionQuestionID)
		return err
	})

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load_failed")
		return dto.GradingResponse{}, err
	}

	// A draft written while the backend calls were in flight wins.
	if !s.drafts.fence.Valid(key, token) {
		var err error
		draft, stored, err = s.drafts.load(ctx, submissionQuestionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "draft_reload_failed")
			return dto.GradingResponse{}, err
		}
	}

	var state feedback.State
	if stored {
		state = feedback.InitialState(feedback.ParseState(draft.Mode), draft.Feedback != "", draft.AIGenerated)
	} else {
		draft.Feedback = grading.Feedback
		draft.Highlights = rangesFromComments(submissionQuestionID, grading.HighlightComments)
		state = feedback.InitialState(feedback.ChoosingMode, grading.Feedback != "", false)
	}
	draft.Mode = string(state)

	return dto.GradingResponse{
		Question:   question,
		Result:     result,
		Grading:    grading,
		AnswerText: annotation.Normalize(question.AnswerText),
		Draft:      newDraftResponse(draft, stored),
	}, nil
}

func (s *gradingService) Save(ctx context.Context, submissionQuestionID int64, payload dto.SaveGradingRequest) (models.Grading, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.save")
	span.SetAttributes(attribute.Int64("grading.submission_question_id", submissionQuestionID))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return models.Grading{}, err
	}

	question, err := s.backend.GetSubmissionQuestion(ctx, submissionQuestionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question_lookup_failed")
		return models.Grading{}, submissionQuestionError(err)
	}

	score := *payload.ReceivedWeight
	if question.MaxWeight > 0 && score > question.MaxWeight {
		span.SetStatus(codes.Error, "score_exceeds_max")
		return models.Grading{}, &FieldError{
			Field:   "receivedWeight",
			Message: fmt.Sprintf("score must not exceed %g", question.MaxWeight),
			Err:     ErrScoreExceedsMax,
		}
	}

	// Without a stored draft the backend grading is what the teacher saw.
	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "draft_lookup_failed")
		return models.Grading{}, err
	}

	text := payload.Feedback
	if text == "" {
		text = draft.Feedback
	}
	sourceLength := annotation.RuneLen(annotation.Normalize(question.AnswerText))

	grading := models.Grading{
		SubmissionQuestionID: submissionQuestionID,
		ReceivedWeight:       &score,
		Feedback:             s.policy.Sanitize(text),
		HighlightComments:    commentsFromRanges(draft.Highlights, sourceLength),
	}

	saved, err := s.backend.SaveGrading(ctx, grading)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend_failed")
		return models.Grading{}, submissionQuestionError(err)
	}

	if err := s.drafts.clear(ctx, submissionQuestionID); err != nil {
		s.logger.Warn().Err(err).Int64("submission_question_id", submissionQuestionID).Msg("failed to clear grading draft")
	}

	event := GradingSavedEvent{
		SubmissionQuestionID: submissionQuestionID,
		SubmissionID:         question.SubmissionID,
		ReceivedWeight:       score,
		MaxWeight:            question.MaxWeight,
		Highlights:           len(grading.HighlightComments),
		AIAssisted:           draft.AIGenerated,
		CorrelationID:        middleware.CorrelationIDFromContext(ctx),
		OccurredAt:           s.drafts.now().UTC(),
	}
	if err := s.events.PublishGradingSaved(ctx, event); err != nil {
		s.logger.Warn().Err(err).Int64("submission_question_id", submissionQuestionID).Msg("grading saved but event not published")
	}

	s.logger.Info().
		Int64("submission_question_id", submissionQuestionID).
		Float64("received_weight", score).
		Int("highlights", len(grading.HighlightComments)).
		Msg("grading saved")
	return saved, nil
}

var seededHighlightNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gema:daily-challenge:highlight"))

func submissionQuestionError(err error) error {
	if upstream.IsNotFound(err) {
		return ErrSubmissionQuestionNotFound
	}
	return err
}

func newDraftResponse(draft models.Draft, stored bool) dto.DraftResponse {
	state := feedback.ParseState(draft.Mode)
	allowed := feedback.Allowed(state)
	events := make([]string, 0, len(allowed))
	for _, event := range allowed {
		events = append(events, string(event))
	}

	highlights := draft.Highlights
	if highlights == nil {
		highlights = []annotation.Range{}
	}

	response := dto.DraftResponse{
		SubmissionQuestionID: draft.SubmissionQuestionID,
		State:                string(state),
		AllowedEvents:        events,
		Editable:             feedback.NewMachine(state).Editable(),
		Feedback:             draft.Feedback,
		SuggestedScore:       draft.SuggestedScore,
		AIGenerated:          draft.AIGenerated,
		Highlights:           highlights,
		Revision:             draft.Revision,
	}
	if stored && !draft.UpdatedAt.IsZero() {
		updatedAt := draft.UpdatedAt
		response.UpdatedAt = &updatedAt
	}
	return response
}

// rangesFromComments converts backend highlight comments into draft ranges.
// Comments without an id get one derived from their position, so repeated
// reads of the same grading agree on it.
func rangesFromComments(submissionQuestionID int64, comments []models.HighlightComment) []annotation.Range {
	ranges := make([]annotation.Range, 0, len(comments))
	for index, comment := range comments {
		id := comment.ID
		if id == "" {
			name := fmt.Sprintf("%d/%d/%d-%d", submissionQuestionID, index, comment.StartIndex, comment.EndIndex)
			id = uuid.NewSHA1(seededHighlightNamespace, []byte(name)).String()
		}
		ranges = append(ranges, annotation.Range{
			ID:        id,
			Start:     comment.StartIndex,
			End:       comment.EndIndex,
			Comment:   comment.Comment,
			Timestamp: comment.Timestamp,
		})
	}
	return ranges
}

// commentsFromRanges converts draft highlights for the backend, dropping
// ranges that no longer fit the answer.
func commentsFromRanges(ranges []annotation.Range, sourceLength int) []models.HighlightComment {
	comments := make([]models.HighlightComment, 0, len(ranges))
	for _, r := range ranges {
		if r.End > sourceLength {
			continue
		}
		comments = append(comments, models.HighlightComment{
			ID:         r.ID,
			StartIndex: r.Start,
			EndIndex:   r.End,
			Comment:    r.Comment,
			Timestamp:  r.Timestamp,
		})
	}
	return comments
}
