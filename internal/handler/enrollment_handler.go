package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// EnrollmentHandler serves the enrollment request lifecycle endpoints.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler instance.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register wires the enrollment routes. All of them require authentication.
func (h *EnrollmentHandler) Register(requests fiber.Router, enrollments fiber.Router) {
	requests.Post("/", h.submit)
	requests.Get("/", h.list)
	requests.Get("/status/:courseId", h.status)
	requests.Post("/:id/approve", h.approve)
	requests.Post("/:id/reject", h.reject)
	requests.Delete("/:id", h.withdrawRequest)

	enrollments.Delete("/:courseId", h.withdrawEnrollment)
}

func (h *EnrollmentHandler) submit(c *fiber.Ctx) error {
	var payload dto.EnrollmentRequestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err, "failed to submit enrollment request")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment request submitted", result)
}

func (h *EnrollmentHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request id")
	}

	result, err := h.service.Approve(c.Context(), identityFromContext(c), id)
	if err != nil {
		return h.handleError(c, err, "failed to approve enrollment request")
	}

	observability.LifecycleDecisions().WithLabelValues("approved").Inc()

	return utils.SendSuccess(c, "enrollment request approved", result)
}

func (h *EnrollmentHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request id")
	}

	result, err := h.service.Reject(c.Context(), identityFromContext(c), id)
	if err != nil {
		return h.handleError(c, err, "failed to reject enrollment request")
	}

	observability.LifecycleDecisions().WithLabelValues("rejected").Inc()

	return utils.SendSuccess(c, "enrollment request rejected", result)
}

func (h *EnrollmentHandler) withdrawRequest(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request id")
	}

	result, err := h.service.WithdrawRequest(c.Context(), identityFromContext(c), id)
	if err != nil {
		return h.handleError(c, err, "failed to withdraw enrollment request")
	}

	observability.LifecycleDecisions().WithLabelValues("withdrawn").Inc()

	return utils.SendSuccess(c, "enrollment request withdrawn", result)
}

func (h *EnrollmentHandler) withdrawEnrollment(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	if err := h.service.WithdrawEnrollment(c.Context(), identityFromContext(c), courseID); err != nil {
		return h.handleError(c, err, "failed to withdraw enrollment")
	}

	return utils.SendSuccess(c, "enrollment withdrawn", nil)
}

func (h *EnrollmentHandler) status(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	result, err := h.service.Status(c.Context(), identityFromContext(c), courseID)
	if err != nil {
		return h.handleError(c, err, "failed to fetch enrollment status")
	}

	return utils.SendSuccess(c, "enrollment status retrieved", result)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	filter := dto.EnrollmentRequestFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if courseID, err := optionalQueryUint(c, "course"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course filter")
	} else {
		filter.CourseID = courseID
	}
	if studentID, err := optionalQueryUint(c, "student"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student filter")
	} else {
		filter.StudentID = studentID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.service.List(c.Context(), identityFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err, "failed to fetch enrollment requests")
	}

	return utils.SendSuccess(c, "enrollment requests retrieved", result)
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrRequestNotPending):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
