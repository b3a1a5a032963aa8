package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// StudentDashboardService aggregates a student's memberships and request history.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, actor authz.Identity) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	enrollments repository.EnrollmentRepository
	requests    repository.EnrollmentRequestRepository
	cache       *DashboardCache
	logger      zerolog.Logger
}

// NewStudentDashboardService builds the student dashboard aggregator.
func NewStudentDashboardService(enrollments repository.EnrollmentRepository, requests repository.EnrollmentRequestRepository, cache *DashboardCache, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		enrollments: enrollments,
		requests:    requests,
		cache:       cache,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, actor authz.Identity) (dto.StudentDashboardResponse, error) {
	if actor.Role != authz.RoleStudent {
		return dto.StudentDashboardResponse{}, ErrNotAllowed
	}

	cacheKey := studentDashboardKey(actor.UserID)

	var cached dto.StudentDashboardResponse
	if s.cache.Get(ctx, cacheKey, &cached) {
		s.logger.Debug().Uint("student_id", actor.UserID).Msg("dashboard cache hit")
		return cached, nil
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	studentID := actor.UserID
	requests, _, err := s.requests.List(ctx, repository.EnrollmentRequestFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := buildStudentDashboard(enrollments, requests)
	s.cache.Set(ctx, cacheKey, response)

	return response, nil
}

func buildStudentDashboard(enrollments []models.Enrollment, requests []models.EnrollmentRequest) dto.StudentDashboardResponse {
	response := dto.StudentDashboardResponse{
		Enrollments: make([]dto.EnrollmentResponse, 0, len(enrollments)),
		Requests:    dto.NewEnrollmentRequestResponseSlice(requests),
	}

	for _, enrollment := range enrollments {
		response.Enrollments = append(response.Enrollments, dto.NewEnrollmentResponse(enrollment))
	}

	response.Summary.ActiveEnrollments = len(enrollments)
	for _, request := range requests {
		switch request.Status {
		case models.RequestStatusPending:
			response.Summary.PendingRequests++
		case models.RequestStatusRejected:
			response.Summary.RejectedRequests++
		}
	}

	return response
}
