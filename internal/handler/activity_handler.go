package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// ActivityHandler serves the admin audit trail endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the activity log routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	filter := dto.ActivityFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity"),
		Page:       page,
		PageSize:   pageSize,
	}
	if actorID, err := optionalQueryUint(c, "actor"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor filter")
	} else {
		filter.ActorID = actorID
	}
	if entityID, err := optionalQueryUint(c, "entityId"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity filter")
	} else {
		filter.EntityID = entityID
	}

	result, err := h.service.List(c.Context(), identityFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err, "failed to fetch activity log")
	}

	return utils.SendSuccess(c, "activity log retrieved", result)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrActivityForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
