package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// DashboardHandler serves the role specific dashboard endpoints.
type DashboardHandler struct {
	students    service.StudentDashboardService
	instructors service.InstructorDashboardService
	logger      zerolog.Logger
}

// NewDashboardHandler constructs the handler instance.
func NewDashboardHandler(students service.StudentDashboardService, instructors service.InstructorDashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		students:    students,
		instructors: instructors,
		logger:      logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires the dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/student", h.student)
	router.Get("/instructor", h.instructor)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	result, err := h.students.GetDashboard(c.Context(), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to build student dashboard")
	}

	return utils.SendSuccess(c, "student dashboard retrieved", result)
}

func (h *DashboardHandler) instructor(c *fiber.Ctx) error {
	result, err := h.instructors.GetDashboard(c.Context(), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err, "failed to build instructor dashboard")
	}

	return utils.SendSuccess(c, "instructor dashboard retrieved", result)
}

func (h *DashboardHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
