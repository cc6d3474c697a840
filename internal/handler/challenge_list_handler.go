package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// ChallengeListHandler serves the student challenge table of a class.
type ChallengeListHandler struct {
	service service.ChallengeListService
	logger  zerolog.Logger
}

// NewChallengeListHandler constructs the handler.
func NewChallengeListHandler(service service.ChallengeListService, logger zerolog.Logger) *ChallengeListHandler {
	return &ChallengeListHandler{
		service: service,
		logger:  logger.With().Str("component", "challenge_list_handler").Logger(),
	}
}

// Register attaches the class listing to a /classes group.
func (h *ChallengeListHandler) Register(router fiber.Router) {
	router.Get("/:classId/daily-challenges", h.list)
}

func (h *ChallengeListHandler) list(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var query dto.ChallengeListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	resp, err := h.service.ListForClass(withRequestContext(c), classID, query)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "daily challenges retrieved"
	if resp.Degraded {
		message = resp.Message
	}
	return utils.OK(c, resp.Rows, message, fiber.Map{
		"page":        resp.Page,
		"page_size":   resp.PageSize,
		"total":       resp.Total,
		"total_pages": resp.TotalPages,
		"types":       resp.Types,
		"search":      resp.Search,
		"degraded":    resp.Degraded,
	})
}
