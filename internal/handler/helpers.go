package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func parseIDParam(c *fiber.Ctx, key string) (int64, error) {
	value := strings.TrimSpace(c.Params(key))
	if value == "" {
		return 0, fmt.Errorf("%s required", key)
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func validationDetails(errs validator.ValidationErrors) []fieldDetail {
	details := make([]fieldDetail, 0, len(errs))
	for _, fieldErr := range errs {
		message := fieldErr.Tag()
		if fieldErr.Param() != "" {
			message = fmt.Sprintf("%s=%s", fieldErr.Tag(), fieldErr.Param())
		}
		details = append(details, fieldDetail{Field: fieldErr.Field(), Message: message})
	}
	return details
}

// respondError maps service errors onto the response envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErrors validator.ValidationErrors
		fieldErr         *service.FieldError
		payloadErr       *service.PayloadError
		apiErr           *upstream.APIError
	)

	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	case errors.As(err, &payloadErr):
		return utils.Fail(c, fiber.StatusBadRequest, payloadErr.Err.Error(), payloadErr.Problems)
	case errors.As(err, &fieldErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, fieldErr.Message, []fieldDetail{{Field: fieldErr.Field, Message: fieldErr.Message}})
	case errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, service.ErrSubmissionQuestionNotFound),
		errors.Is(err, annotation.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, rootMessage(err))
	case errors.Is(err, annotation.ErrInvalidRange),
		errors.Is(err, annotation.ErrEmptyComment),
		errors.Is(err, service.ErrUnsupportedQuestion),
		errors.Is(err, service.ErrAudioTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAudioTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrAudioStorageDisabled):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, feedback.ErrInvalidTransition),
		errors.Is(err, service.ErrNotEditable),
		errors.Is(err, service.ErrServerDrivenEvent),
		errors.Is(err, service.ErrStaleResponse):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAIUnavailable):
		requestLogger(logger, c).Warn().Err(err).Msg("ai feedback unavailable")
		return utils.SendError(c, fiber.StatusBadGateway, service.ErrAIUnavailable.Error())
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = fiber.StatusBadGateway
		}
		message := apiErr.Message
		if message == "" {
			message = "daily challenge backend request failed"
		}
		if status >= 500 {
			requestLogger(logger, c).Warn().Err(err).Msg("backend request failed")
		}
		return utils.SendError(c, status, message)
	case errors.Is(err, context.DeadlineExceeded):
		requestLogger(logger, c).Warn().Err(err).Msg("backend request timed out")
		return utils.SendError(c, fiber.StatusGatewayTimeout, "daily challenge backend timed out")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
