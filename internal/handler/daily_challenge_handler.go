package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// DailyChallengeHandler wires the teacher challenge management routes.
type DailyChallengeHandler struct {
	service service.DailyChallengeService
	logger  zerolog.Logger
}

// NewDailyChallengeHandler constructs the handler.
func NewDailyChallengeHandler(service service.DailyChallengeService, logger zerolog.Logger) *DailyChallengeHandler {
	return &DailyChallengeHandler{
		service: service,
		logger:  logger.With().Str("component", "daily_challenge_handler").Logger(),
	}
}

// Register attaches challenge endpoints to the router group.
func (h *DailyChallengeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Put("/:id/status", h.updateStatus)
	router.Patch("/:id/toggle-status", h.toggleStatus)
	router.Get("/:id/submissions", h.submissions)
	router.Get("/:id/performance", h.performance)
}

func (h *DailyChallengeHandler) list(c *fiber.Ctx) error {
	var query dto.PageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	resp, err := h.service.List(withRequestContext(c), query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, resp.Items, "daily challenges retrieved", fiber.Map{"total": resp.Total})
}

func (h *DailyChallengeHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "daily challenge retrieved", item)
}

func (h *DailyChallengeHandler) create(c *fiber.Ctx) error {
	var payload dto.DailyChallengeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Create(withRequestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "daily challenge created", created)
}

func (h *DailyChallengeHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DailyChallengeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.Update(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "daily challenge updated", updated)
}

func (h *DailyChallengeHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(withRequestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "daily challenge deleted", nil)
}

// updateStatus accepts the status in the body or, as the backend does, in
// the challengeStatus query parameter.
func (h *DailyChallengeHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if payload.Status == "" {
		payload.Status = c.Query("challengeStatus")
	}

	updated, err := h.service.UpdateStatus(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "daily challenge status updated", updated)
}

func (h *DailyChallengeHandler) toggleStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	updated, err := h.service.ToggleStatus(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "daily challenge status toggled", updated)
}

func (h *DailyChallengeHandler) submissions(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var query dto.PageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	resp, err := h.service.Submissions(withRequestContext(c), id, query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, resp.Items, "submissions retrieved", fiber.Map{"total": resp.Total})
}

func (h *DailyChallengeHandler) performance(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	performance, err := h.service.Performance(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "performance retrieved", performance)
}
