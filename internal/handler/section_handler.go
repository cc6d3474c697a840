package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// SectionHandler wires section and question authoring routes.
type SectionHandler struct {
	service service.SectionService
	logger  zerolog.Logger
}

// NewSectionHandler constructs the handler.
func NewSectionHandler(service service.SectionService, logger zerolog.Logger) *SectionHandler {
	return &SectionHandler{
		service: service,
		logger:  logger.With().Str("component", "section_handler").Logger(),
	}
}

// Register attaches section endpoints to a /sections group.
func (h *SectionHandler) Register(router fiber.Router) {
	router.Get("/challenge/:id", h.list)
	router.Post("/bulk/:challengeId", h.bulk)
	router.Post("/:challengeId", h.save)
}

func (h *SectionHandler) list(c *fiber.Ctx) error {
	challengeID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var query dto.PageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	resp, err := h.service.List(withRequestContext(c), challengeID, query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, resp.Items, "sections retrieved", fiber.Map{"total": resp.Total})
}

func (h *SectionHandler) save(c *fiber.Ctx) error {
	challengeID, err := parseIDParam(c, "challengeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	saved, err := h.service.Save(withRequestContext(c), challengeID, c.Body())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "section saved", saved)
}

func (h *SectionHandler) bulk(c *fiber.Ctx) error {
	challengeID, err := parseIDParam(c, "challengeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.BulkSectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Bulk(withRequestContext(c), challengeID, payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "sections updated", nil)
}
