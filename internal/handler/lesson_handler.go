package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// LessonHandler serves lesson management endpoints.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs the handler instance.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// RegisterPublic wires the read-only lesson routes under /courses.
func (h *LessonHandler) RegisterPublic(courses fiber.Router, lessons fiber.Router) {
	courses.Get("/:courseId/lessons", h.listByCourse)
	lessons.Get("/:id", h.get)
}

// RegisterProtected wires the routes that mutate lessons.
func (h *LessonHandler) RegisterProtected(courses fiber.Router, lessons fiber.Router) {
	courses.Post("/:courseId/lessons", h.create)
	lessons.Put("/:id", h.update)
	lessons.Delete("/:id", h.remove)
}

func (h *LessonHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	result, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch lessons")
	}

	return utils.SendSuccess(c, "lessons retrieved", result)
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	result, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err, "failed to fetch lesson")
	}

	return utils.SendSuccess(c, "lesson retrieved", result)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), identityFromContext(c), courseID, payload, attachmentsFromRequest(c))
	if err != nil {
		return h.handleError(c, err, "failed to create lesson")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", result)
}

func (h *LessonHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	var payload dto.LessonUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.Context(), identityFromContext(c), id, payload, attachmentsFromRequest(c))
	if err != nil {
		return h.handleError(c, err, "failed to update lesson")
	}

	return utils.SendSuccess(c, "lesson updated", result)
}

func (h *LessonHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	if err := h.service.Delete(c.Context(), identityFromContext(c), id); err != nil {
		return h.handleError(c, err, "failed to delete lesson")
	}

	return utils.SendSuccess(c, "lesson deleted", nil)
}

func attachmentsFromRequest(c *fiber.Ctx) service.LessonAttachments {
	attachments := service.LessonAttachments{}
	if video, err := c.FormFile("video"); err == nil {
		attachments.Video = video
	}
	if pdf, err := c.FormFile("pdf"); err == nil {
		attachments.PDF = pdf
	}
	return attachments
}

func (h *LessonHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrLessonNotFound), errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAttachmentTooLarge), errors.Is(err, service.ErrAttachmentType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
