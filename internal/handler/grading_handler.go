package handler

import (
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/service"
	"github.com/noah-isme/gema-daily-challenge/internal/utils"
)

// GradingHandler wires the teacher grading screen: grading, the feedback
// editor, highlight comments and speaking assessment.
type GradingHandler struct {
	grading     service.GradingService
	annotations service.AnnotationService
	feedback    service.FeedbackService
	logger      zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, annotations service.AnnotationService, feedback service.FeedbackService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:     grading,
		annotations: annotations,
		feedback:    feedback,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to a /grading group. aiMiddleware runs
// in front of the endpoints that call a model.
func (h *GradingHandler) Register(router fiber.Router, aiMiddleware ...fiber.Handler) {
	questions := router.Group("/submission-questions/:id")
	questions.Get("", h.load)
	questions.Put("", h.save)
	questions.Post("/mode", h.transition)
	questions.Post("/ai-feedback", append(aiMiddleware, h.generateAI)...)
	questions.Put("/draft", h.saveDraft)
	questions.Delete("/draft", h.clearDraft)

	questions.Post("/highlights/locate", h.locate)
	questions.Get("/highlights/render", h.render)
	questions.Post("/highlights", h.addHighlight)
	questions.Patch("/highlights/:hid", h.updateHighlight)
	questions.Delete("/highlights/:hid", h.removeHighlight)

	router.Post("/pronunciation", append(aiMiddleware, h.pronunciation)...)
}

func (h *GradingHandler) load(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var submissionID int64
	if raw := strings.TrimSpace(c.Query("submissionId")); raw != "" {
		submissionID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || submissionID <= 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid submissionId")
		}
	}

	resp, err := h.grading.Load(withRequestContext(c), id, submissionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grading retrieved", resp)
}

func (h *GradingHandler) save(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SaveGradingRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	saved, err := h.grading.Save(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grading saved", saved)
}

func (h *GradingHandler) transition(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackEventRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.feedback.Transition(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "feedback mode updated", resp)
}

func (h *GradingHandler) generateAI(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.feedback.GenerateAI(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "ai feedback generated", resp)
}

func (h *GradingHandler) saveDraft(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DraftUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.feedback.SaveDraft(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "draft saved", resp)
}

func (h *GradingHandler) clearDraft(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.feedback.Clear(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "draft cleared", resp)
}

func (h *GradingHandler) locate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LocateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.annotations.Locate(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "selection located", resp)
}

func (h *GradingHandler) render(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.annotations.Render(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "highlights rendered", resp)
}

func (h *GradingHandler) addHighlight(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.HighlightCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	added, err := h.annotations.Add(withRequestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "highlight added", added)
}

func (h *GradingHandler) updateHighlight(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.HighlightUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.annotations.Update(withRequestContext(c), id, c.Params("hid"), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "highlight updated", updated)
}

func (h *GradingHandler) removeHighlight(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.annotations.Remove(withRequestContext(c), id, c.Params("hid")); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "highlight removed", nil)
}

// pronunciation accepts JSON, or a multipart form with an "audio" file.
func (h *GradingHandler) pronunciation(c *fiber.Ctx) error {
	var payload dto.PronunciationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	var recording *multipart.FileHeader
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if file, err := c.FormFile("audio"); err == nil {
			recording = file
		}
	}

	resp, err := h.feedback.AssessPronunciation(withRequestContext(c), payload, recording)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "pronunciation assessed", resp)
}
