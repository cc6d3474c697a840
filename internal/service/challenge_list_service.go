package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

const degradedListMessage = "daily challenges are temporarily unavailable"

// ChallengeListService builds the lesson-grouped challenge table of a class.
type ChallengeListService interface {
	ListForClass(ctx context.Context, classID int64, query dto.ChallengeListQuery) (dto.ChallengeListResponse, error)
}

type challengeListService struct {
	backend         ChallengeBackend
	cache           *redis.Client
	cacheTTL        time.Duration
	defaultPageSize int
	validator       *validator.Validate
	logger          zerolog.Logger
}

// NewChallengeListService constructs the list service. cache may be nil.
func NewChallengeListService(backend ChallengeBackend, cache *redis.Client, ttl time.Duration, defaultPageSize int, validate *validator.Validate, logger zerolog.Logger) ChallengeListService {
	if defaultPageSize <= 0 {
		defaultPageSize = challenge.DefaultPageSize
	}
	return &challengeListService{
		backend:         backend,
		cache:           cache,
		cacheTTL:        ttl,
		defaultPageSize: defaultPageSize,
		validator:       validate,
		logger:          logger.With().Str("component", "challenge_list_service").Logger(),
	}
}

func (s *challengeListService) ListForClass(ctx context.Context, classID int64, query dto.ChallengeListQuery) (dto.ChallengeListResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/challenge_list")
	ctx, span := tracer.Start(ctx, "challenge_list.list_for_class")
	span.SetAttributes(attribute.Int64("challenge_list.class_id", classID))
	defer span.End()

	if err := s.validator.Struct(query); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ChallengeListResponse{}, err
	}

	types, err := challenge.ParseTypes(strings.Split(query.Types, ","))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ChallengeListResponse{}, &FieldError{Field: "types", Message: err.Error(), Err: err}
	}

	size := query.Size
	if size <= 0 {
		size = s.defaultPageSize
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	filter := challenge.NewFilterState(query.Text, types...)

	lessons, err := s.lessons(ctx, classID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return dto.ChallengeListResponse{}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "degraded")
		observability.ListDegraded().Inc()
		s.logger.Warn().Err(err).Int64("class_id", classID).Msg("challenge list degraded to empty")

		response := dto.NewChallengeListResponse(challenge.PageResult{Page: 1, PageSize: size, TotalPages: 1}, filter)
		response.Degraded = true
		response.Message = degradedMessage(err)
		return response, nil
	}

	view := challenge.NewListView(challenge.Flatten(lessons), size)
	view.SetSearchText(filter.SearchText)
	view.SetTypes(types...)
	view.SetPage(page)
	result := view.Page()

	span.SetAttributes(
		attribute.Int("challenge_list.total", result.Total),
		attribute.Int("challenge_list.page", result.Page),
	)

	return dto.NewChallengeListResponse(result, filter), nil
}

func (s *challengeListService) lessons(ctx context.Context, classID int64) ([]challenge.Lesson, error) {
	cacheKey := listCacheKey(classID, middleware.BearerTokenFromContext(ctx))

	if s.cache != nil && s.cacheTTL > 0 {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var lessons []challenge.Lesson
			if unmarshalErr := json.Unmarshal([]byte(cached), &lessons); unmarshalErr == nil {
				s.logger.Debug().Int64("class_id", classID).Msg("challenge list cache hit")
				return lessons, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read challenge list cache")
		}
	}

	lessons, err := s.backend.ListClassChallenges(ctx, classID, upstream.ListQuery{})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(lessons); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store challenge list cache")
			}
		}
	}

	return lessons, nil
}

// listCacheKey scopes cached listings to the caller, since submission status
// differs per student.
func listCacheKey(classID int64, token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("daily-challenges:class:%d:%s", classID, hex.EncodeToString(sum[:8]))
}

func degradedMessage(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return degradedListMessage
}
