package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// CourseService manages instructor-owned courses. Creation fixes ownership to
// the calling instructor; mutation passes the authorization gate.
type CourseService interface {
	List(ctx context.Context, filter dto.CourseFilter) (dto.CourseListResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor authz.Identity, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor authz.Identity, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
}

type courseService struct {
	courses    repository.CourseRepository
	categories repository.CategoryRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, categories repository.CategoryRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:    courses,
		categories: categories,
		validator:  validate,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, filter dto.CourseFilter) (dto.CourseListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.CourseListResponse{}, err
	}

	courses, total, err := s.courses.ListWithFilter(ctx, repository.CourseFilter{
		Search:       filter.Search,
		CategoryID:   filter.CategoryID,
		InstructorID: filter.InstructorID,
		Sort:         filter.Sort,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	})
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	return dto.CourseListResponse{
		Courses: dto.NewCourseResponseSlice(courses),
		Total:   total,
	}, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor authz.Identity, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	// Only instructors create courses; admins moderate but do not own content.
	if actor.Role != authz.RoleInstructor {
		return dto.CourseResponse{}, ErrNotAllowed
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *payload.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseResponse{}, ErrCategoryNotFound
			}
			return dto.CourseResponse{}, err
		}
	}

	course := models.Course{
		Title:        strings.TrimSpace(payload.Title),
		Description:  s.sanitizer.Sanitize(payload.Description),
		InstructorID: actor.UserID,
		CategoryID:   payload.CategoryID,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("instructor_id", actor.UserID).Msg("course created")

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, actor authz.Identity, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if !authz.CanPerform(actor, authz.ActionManageCourse, authz.Target{CourseOwnerID: course.InstructorID}) {
		return dto.CourseResponse{}, ErrNotAllowed
	}

	if payload.Title != nil {
		course.Title = strings.TrimSpace(*payload.Title)
	}

	if payload.Description != nil {
		course.Description = s.sanitizer.Sanitize(*payload.Description)
	}

	if payload.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *payload.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseResponse{}, ErrCategoryNotFound
			}
			return dto.CourseResponse{}, err
		}
		course.CategoryID = payload.CategoryID
	}

	course.Lessons = nil
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	updated, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(updated), nil
}

func (s *courseService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if !authz.CanPerform(actor, authz.ActionManageCourse, authz.Target{CourseOwnerID: course.InstructorID}) {
		return ErrNotAllowed
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", id).Uint("actor_id", actor.UserID).Msg("course deleted")

	return nil
}
