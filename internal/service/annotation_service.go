package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
)

// AnnotationService edits the highlight comments of a submission question's
// draft. Offsets refer to the normalised answer text.
type AnnotationService interface {
	Locate(ctx context.Context, submissionQuestionID int64, payload dto.LocateRequest) (dto.LocateResponse, error)
	Add(ctx context.Context, submissionQuestionID int64, payload dto.HighlightCreateRequest) (annotation.Range, error)
	Update(ctx context.Context, submissionQuestionID int64, highlightID string, payload dto.HighlightUpdateRequest) (annotation.Range, error)
	Remove(ctx context.Context, submissionQuestionID int64, highlightID string) error
	Render(ctx context.Context, submissionQuestionID int64) (dto.RenderResponse, error)
}

type annotationService struct {
	backend   GradingBackend
	drafts    *draftKeeper
	policy    *bluemonday.Policy
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAnnotationService constructs the annotation service.
func NewAnnotationService(backend GradingBackend, store repository.DraftStore, fence *feedback.Fence, validate *validator.Validate, logger zerolog.Logger) AnnotationService {
	return &annotationService{
		backend:   backend,
		drafts:    newDraftKeeper(store, fence),
		policy:    bluemonday.UGCPolicy(),
		validator: validate,
		logger:    logger.With().Str("component", "annotation_service").Logger(),
	}
}

func (s *annotationService) Locate(ctx context.Context, submissionQuestionID int64, payload dto.LocateRequest) (dto.LocateResponse, error) {
	source, err := s.source(ctx, submissionQuestionID)
	if err != nil {
		return dto.LocateResponse{}, err
	}

	container := payload.Container
	if len(container.Nodes) == 0 {
		container = annotation.ContainerFromText(source)
	}
	span, ok := annotation.Locate(container, payload.Selection, source)
	if !ok {
		return dto.LocateResponse{Found: false}, nil
	}
	return dto.LocateResponse{Found: true, Start: span.Start, End: span.End}, nil
}

func (s *annotationService) Add(ctx context.Context, submissionQuestionID int64, payload dto.HighlightCreateRequest) (annotation.Range, error) {
	if err := s.validator.Struct(payload); err != nil {
		return annotation.Range{}, err
	}

	source, err := s.source(ctx, submissionQuestionID)
	if err != nil {
		return annotation.Range{}, err
	}
	if payload.End > annotation.RuneLen(source) {
		return annotation.Range{}, fmt.Errorf("%w: end %d beyond answer length %d", annotation.ErrInvalidRange, payload.End, annotation.RuneLen(source))
	}

	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		return annotation.Range{}, err
	}

	set := s.drafts.highlightSet(draft)
	id, err := set.Add(payload.Start, payload.End, s.policy.Sanitize(payload.Comment))
	if err != nil {
		return annotation.Range{}, err
	}
	if _, err := s.persist(ctx, draft, set); err != nil {
		return annotation.Range{}, err
	}

	s.logger.Debug().Int64("submission_question_id", submissionQuestionID).Str("highlight_id", id).Msg("highlight added")
	return set.Get(id)
}

func (s *annotationService) Update(ctx context.Context, submissionQuestionID int64, highlightID string, payload dto.HighlightUpdateRequest) (annotation.Range, error) {
	if err := s.validator.Struct(payload); err != nil {
		return annotation.Range{}, err
	}

	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		return annotation.Range{}, err
	}

	set := s.drafts.highlightSet(draft)
	if err := set.Update(highlightID, s.policy.Sanitize(payload.Comment)); err != nil {
		return annotation.Range{}, err
	}
	if _, err := s.persist(ctx, draft, set); err != nil {
		return annotation.Range{}, err
	}
	return set.Get(highlightID)
}

func (s *annotationService) Remove(ctx context.Context, submissionQuestionID int64, highlightID string) error {
	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		return err
	}

	set := s.drafts.highlightSet(draft)
	if err := set.Remove(highlightID); err != nil {
		return err
	}
	_, err = s.persist(ctx, draft, set)
	return err
}

func (s *annotationService) Render(ctx context.Context, submissionQuestionID int64) (dto.RenderResponse, error) {
	source, err := s.source(ctx, submissionQuestionID)
	if err != nil {
		return dto.RenderResponse{}, err
	}
	draft, err := s.drafts.loadOrSeed(ctx, s.backend, submissionQuestionID)
	if err != nil {
		return dto.RenderResponse{}, err
	}

	set := s.drafts.highlightSet(draft)
	return dto.RenderResponse{
		Source:   source,
		Segments: set.Render(source),
		Ranges:   set.Ranges(),
		Stale:    set.Validate(annotation.RuneLen(source)),
	}, nil
}

func (s *annotationService) source(ctx context.Context, submissionQuestionID int64) (string, error) {
	question, err := s.backend.GetSubmissionQuestion(ctx, submissionQuestionID)
	if err != nil {
		return "", submissionQuestionError(err)
	}
	return annotation.Normalize(question.AnswerText), nil
}

func (s *annotationService) persist(ctx context.Context, draft models.Draft, set *annotation.Set) (models.Draft, error) {
	draft.Highlights = set.Ranges()
	return s.drafts.save(ctx, draft)
}
