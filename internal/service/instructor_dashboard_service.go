package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// InstructorDashboardService aggregates an instructor's courses with their
// enrollment counts and pending request queues.
type InstructorDashboardService interface {
	GetDashboard(ctx context.Context, actor authz.Identity) (dto.InstructorDashboardResponse, error)
}

type instructorDashboardService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	requests    repository.EnrollmentRequestRepository
	cache       *DashboardCache
	logger      zerolog.Logger
}

// NewInstructorDashboardService builds the instructor dashboard aggregator.
func NewInstructorDashboardService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, requests repository.EnrollmentRequestRepository, cache *DashboardCache, logger zerolog.Logger) InstructorDashboardService {
	return &instructorDashboardService{
		courses:     courses,
		enrollments: enrollments,
		requests:    requests,
		cache:       cache,
		logger:      logger.With().Str("component", "instructor_dashboard_service").Logger(),
	}
}

func (s *instructorDashboardService) GetDashboard(ctx context.Context, actor authz.Identity) (dto.InstructorDashboardResponse, error) {
	if actor.Role != authz.RoleInstructor {
		return dto.InstructorDashboardResponse{}, ErrNotAllowed
	}

	cacheKey := instructorDashboardKey(actor.UserID)

	var cached dto.InstructorDashboardResponse
	if s.cache.Get(ctx, cacheKey, &cached) {
		s.logger.Debug().Uint("instructor_id", actor.UserID).Msg("dashboard cache hit")
		return cached, nil
	}

	instructorID := actor.UserID
	courses, _, err := s.courses.ListWithFilter(ctx, repository.CourseFilter{InstructorID: &instructorID})
	if err != nil {
		return dto.InstructorDashboardResponse{}, err
	}

	response := dto.InstructorDashboardResponse{
		Courses: make([]dto.InstructorCourseOverview, 0, len(courses)),
	}
	response.Summary.Courses = len(courses)

	pending := models.RequestStatusPending
	for _, course := range courses {
		enrollments, err := s.enrollments.ListByCourse(ctx, course.ID)
		if err != nil {
			return dto.InstructorDashboardResponse{}, err
		}

		courseID := course.ID
		requests, _, err := s.requests.List(ctx, repository.EnrollmentRequestFilter{
			CourseID: &courseID,
			Status:   &pending,
		})
		if err != nil {
			return dto.InstructorDashboardResponse{}, err
		}

		response.Summary.PendingRequests += len(requests)
		response.Summary.EnrolledStudents += len(enrollments)
		response.Courses = append(response.Courses, dto.InstructorCourseOverview{
			CourseID:        course.ID,
			Title:           course.Title,
			EnrolledCount:   len(enrollments),
			PendingRequests: dto.NewEnrollmentRequestResponseSlice(requests),
			UpdatedAt:       course.UpdatedAt,
		})
	}

	s.cache.Set(ctx, cacheKey, response)

	return response, nil
}
