package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// ErrActivityForbidden indicates the actor may not read the audit trail.
var ErrActivityForbidden = errors.New("activity log access denied")

// ActivityService records and lists the audit trail of moderation decisions.
type ActivityService interface {
	Record(ctx context.Context, actor authz.Identity, action, entityType string, entityID *uint, metadata map[string]interface{})
	List(ctx context.Context, actor authz.Identity, filter dto.ActivityFilter) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs an ActivityService instance.
func NewActivityService(repo repository.ActivityLogRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record persists the audit entry. Failures are logged, never propagated: a
// lifecycle mutation that already committed must not fail on its audit write.
func (s *activityService) Record(ctx context.Context, actor authz.Identity, action, entityType string, entityID *uint, metadata map[string]interface{}) {
	entry := models.ActivityLog{
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSONMap(metadata),
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *activityService) List(ctx context.Context, actor authz.Identity, filter dto.ActivityFilter) (dto.ActivityListResponse, error) {
	if !authz.CanPerform(actor, authz.ActionViewActivity, authz.Target{}) {
		return dto.ActivityListResponse{}, ErrActivityForbidden
	}

	if err := s.validator.Struct(filter); err != nil {
		return dto.ActivityListResponse{}, err
	}

	entries, total, err := s.repo.List(ctx, repository.ActivityLogFilter{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		ActorID:    filter.ActorID,
		Action:     filter.Action,
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
	})
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Entries: dto.NewActivityResponseSlice(entries),
		Total:   total,
	}, nil
}
