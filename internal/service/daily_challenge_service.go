package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

// DailyChallengeService manages challenges on behalf of teachers.
type DailyChallengeService interface {
	List(ctx context.Context, query dto.PageQuery) (dto.ListResponse[models.DailyChallenge], error)
	Get(ctx context.Context, id int64) (models.DailyChallenge, error)
	Create(ctx context.Context, payload dto.DailyChallengeRequest) (models.DailyChallenge, error)
	Update(ctx context.Context, id int64, payload dto.DailyChallengeRequest) (models.DailyChallenge, error)
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, payload dto.ChallengeStatusRequest) (models.DailyChallenge, error)
	ToggleStatus(ctx context.Context, id int64) (models.DailyChallenge, error)
	Submissions(ctx context.Context, id int64, query dto.PageQuery) (dto.ListResponse[models.ChallengeSubmission], error)
	Performance(ctx context.Context, id int64) (models.ChallengePerformance, error)
}

type dailyChallengeService struct {
	backend   ChallengeBackend
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewDailyChallengeService constructs the challenge service.
func NewDailyChallengeService(backend ChallengeBackend, validate *validator.Validate, logger zerolog.Logger) DailyChallengeService {
	return &dailyChallengeService{
		backend:   backend,
		validator: validate,
		tracer:    otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/daily_challenge"),
		logger:    logger.With().Str("component", "daily_challenge_service").Logger(),
	}
}

func (s *dailyChallengeService) List(ctx context.Context, query dto.PageQuery) (dto.ListResponse[models.DailyChallenge], error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ListResponse[models.DailyChallenge]{}, err
	}

	page, err := s.backend.ListChallenges(ctx, listQuery(query))
	if err != nil {
		return dto.ListResponse[models.DailyChallenge]{}, err
	}
	return dto.ListResponse[models.DailyChallenge]{Items: page.Items, Total: page.Total}, nil
}

func (s *dailyChallengeService) Get(ctx context.Context, id int64) (models.DailyChallenge, error) {
	item, err := s.backend.GetChallenge(ctx, id)
	return item, challengeError(err)
}

func (s *dailyChallengeService) Create(ctx context.Context, payload dto.DailyChallengeRequest) (models.DailyChallenge, error) {
	ctx, span := s.tracer.Start(ctx, "daily_challenge.create")
	defer span.End()

	if err := s.validate(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return models.DailyChallenge{}, err
	}

	created, err := s.backend.CreateChallenge(ctx, payload.Model())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend_failed")
		return models.DailyChallenge{}, err
	}

	span.SetAttributes(attribute.Int64("daily_challenge.id", created.ID))
	s.logger.Info().Int64("challenge_id", created.ID).Str("type", created.ChallengeType).Msg("daily challenge created")
	return created, nil
}

func (s *dailyChallengeService) Update(ctx context.Context, id int64, payload dto.DailyChallengeRequest) (models.DailyChallenge, error) {
	ctx, span := s.tracer.Start(ctx, "daily_challenge.update")
	span.SetAttributes(attribute.Int64("daily_challenge.id", id))
	defer span.End()

	if err := s.validate(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return models.DailyChallenge{}, err
	}

	model := payload.Model()
	model.ID = id
	updated, err := s.backend.UpdateChallenge(ctx, id, model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend_failed")
		return models.DailyChallenge{}, challengeError(err)
	}

	s.logger.Info().Int64("challenge_id", id).Msg("daily challenge updated")
	return updated, nil
}

func (s *dailyChallengeService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteChallenge(ctx, id); err != nil {
		return challengeError(err)
	}
	s.logger.Info().Int64("challenge_id", id).Msg("daily challenge deleted")
	return nil
}

func (s *dailyChallengeService) UpdateStatus(ctx context.Context, id int64, payload dto.ChallengeStatusRequest) (models.DailyChallenge, error) {
	payload.Status = strings.ToUpper(strings.TrimSpace(payload.Status))
	if err := s.validator.Struct(payload); err != nil {
		return models.DailyChallenge{}, err
	}

	updated, err := s.backend.UpdateChallengeStatus(ctx, id, models.ChallengeStatus(payload.Status))
	if err != nil {
		return models.DailyChallenge{}, challengeError(err)
	}

	s.logger.Info().Int64("challenge_id", id).Str("status", payload.Status).Msg("daily challenge status changed")
	return updated, nil
}

func (s *dailyChallengeService) ToggleStatus(ctx context.Context, id int64) (models.DailyChallenge, error) {
	updated, err := s.backend.ToggleChallengeStatus(ctx, id)
	return updated, challengeError(err)
}

func (s *dailyChallengeService) Submissions(ctx context.Context, id int64, query dto.PageQuery) (dto.ListResponse[models.ChallengeSubmission], error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ListResponse[models.ChallengeSubmission]{}, err
	}

	page, err := s.backend.ListSubmissions(ctx, id, listQuery(query))
	if err != nil {
		return dto.ListResponse[models.ChallengeSubmission]{}, challengeError(err)
	}
	return dto.ListResponse[models.ChallengeSubmission]{Items: page.Items, Total: page.Total}, nil
}

func (s *dailyChallengeService) Performance(ctx context.Context, id int64) (models.ChallengePerformance, error) {
	performance, err := s.backend.GetPerformance(ctx, id)
	return performance, challengeError(err)
}

func (s *dailyChallengeService) validate(payload dto.DailyChallengeRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}
	if payload.StartDate != nil && payload.EndDate != nil && !payload.EndDate.After(*payload.StartDate) {
		return &FieldError{Field: "endDate", Message: ErrInvalidSchedule.Error(), Err: ErrInvalidSchedule}
	}
	return nil
}

func challengeError(err error) error {
	if upstream.IsNotFound(err) {
		return ErrChallengeNotFound
	}
	return err
}

func listQuery(query dto.PageQuery) upstream.ListQuery {
	return upstream.ListQuery{
		Page:    query.Page,
		Size:    query.Size,
		Text:    query.Text,
		SortBy:  query.SortBy,
		SortDir: strings.ToLower(query.SortDir),
	}
}
