package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// Errors surfaced by the enrollment lifecycle. Every violated precondition
// maps to exactly one of these; handlers translate them to HTTP statuses.
var (
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrRequestNotFound indicates the referenced request does not exist.
	ErrRequestNotFound = errors.New("enrollment request not found")
	// ErrEnrollmentNotFound indicates no active membership exists for the pair.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled indicates the student already holds an active membership.
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	// ErrDuplicateRequest indicates a pending request already exists for the pair.
	ErrDuplicateRequest = errors.New("an open enrollment request already exists")
	// ErrRequestNotPending indicates a transition was attempted on a decided request.
	ErrRequestNotPending = errors.New("enrollment request is no longer pending")
	// ErrNotAllowed indicates the authorization gate denied the operation.
	ErrNotAllowed = errors.New("operation not permitted for this user")
)

// EnrollmentService is the lifecycle engine. All writes to request status and
// membership records pass through it; handlers and dashboards only read.
type EnrollmentService interface {
	Submit(ctx context.Context, actor authz.Identity, payload dto.EnrollmentRequestCreateRequest) (dto.EnrollmentRequestResponse, error)
	Approve(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error)
	Reject(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error)
	WithdrawRequest(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error)
	WithdrawEnrollment(ctx context.Context, actor authz.Identity, courseID uint) error
	Status(ctx context.Context, actor authz.Identity, courseID uint) (dto.EnrollmentStatusResponse, error)
	List(ctx context.Context, actor authz.Identity, filter dto.EnrollmentRequestFilter) (dto.EnrollmentRequestListResponse, error)
}

type enrollmentService struct {
	requests    repository.EnrollmentRequestRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	activity    ActivityService
	events      EventPublisher
	cache       *DashboardCache
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEnrollmentService constructs the lifecycle engine.
func NewEnrollmentService(
	requests repository.EnrollmentRequestRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	activity ActivityService,
	events EventPublisher,
	cache *DashboardCache,
	validate *validator.Validate,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		requests:    requests,
		enrollments: enrollments,
		courses:     courses,
		activity:    activity,
		events:      events,
		cache:       cache,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/lms-go-api/internal/service/enrollment"),
		now:         time.Now,
	}
}

func (s *enrollmentService) Submit(ctx context.Context, actor authz.Identity, payload dto.EnrollmentRequestCreateRequest) (dto.EnrollmentRequestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	if !authz.CanPerform(actor, authz.ActionSubmitRequest, authz.Target{}) {
		return dto.EnrollmentRequestResponse{}, ErrNotAllowed
	}

	ctx, span := s.tracer.Start(ctx, "enrollment.submit", trace.WithAttributes(
		attribute.Int("enrollment.student_id", int(actor.UserID)),
		attribute.Int("enrollment.course_id", int(payload.CourseID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentRequestResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentRequestResponse{}, err
	}

	enrolled, err := s.enrollments.Exists(ctx, actor.UserID, course.ID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}
	if enrolled {
		return dto.EnrollmentRequestResponse{}, ErrAlreadyEnrolled
	}

	request := models.EnrollmentRequest{
		StudentID:   actor.UserID,
		CourseID:    course.ID,
		Message:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Message)),
		Status:      models.RequestStatusPending,
		RequestedAt: s.now(),
	}

	if err := s.requests.Create(ctx, &request); err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestBlocked):
			return dto.EnrollmentRequestResponse{}, ErrDuplicateRequest
		case errors.Is(err, repository.ErrStudentEnrolled):
			return dto.EnrollmentRequestResponse{}, ErrAlreadyEnrolled
		default:
			return dto.EnrollmentRequestResponse{}, err
		}
	}

	s.logger.Info().
		Uint("request_id", request.ID).
		Uint("student_id", actor.UserID).
		Uint("course_id", course.ID).
		Msg("enrollment request submitted")

	s.recordAndPublish(ctx, actor, "enrollment_request.submitted", request.ID, request.StudentID, course.ID, models.RequestStatusPending)
	s.cache.InvalidateStudent(ctx, request.StudentID)
	s.cache.InvalidateInstructor(ctx, course.InstructorID)

	created, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	return dto.NewEnrollmentRequestResponse(created), nil
}

func (s *enrollmentService) Approve(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.approve", trace.WithAttributes(
		attribute.Int("enrollment.request_id", int(requestID)),
	))
	defer span.End()

	request, err := s.loadDecidableRequest(ctx, actor, requestID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	decidedAt := s.now()
	if err := s.requests.ApproveAndEnroll(ctx, request, decidedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race: another moderator decided first.
			return dto.EnrollmentRequestResponse{}, s.classifyStaleDecision(ctx, requestID)
		}
		return dto.EnrollmentRequestResponse{}, err
	}

	s.logger.Info().
		Uint("request_id", request.ID).
		Uint("actor_id", actor.UserID).
		Msg("enrollment request approved")

	s.recordAndPublish(ctx, actor, "enrollment_request.approved", request.ID, request.StudentID, request.CourseID, models.RequestStatusApproved)
	s.cache.InvalidateStudent(ctx, request.StudentID)
	s.cache.InvalidateInstructor(ctx, request.Course.InstructorID)

	decided, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	return dto.NewEnrollmentRequestResponse(decided), nil
}

func (s *enrollmentService) Reject(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.reject", trace.WithAttributes(
		attribute.Int("enrollment.request_id", int(requestID)),
	))
	defer span.End()

	request, err := s.loadDecidableRequest(ctx, actor, requestID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	decidedAt := s.now()
	if err := s.requests.Decide(ctx, request.ID, models.RequestStatusRejected, &decidedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentRequestResponse{}, s.classifyStaleDecision(ctx, requestID)
		}
		return dto.EnrollmentRequestResponse{}, err
	}

	s.logger.Info().
		Uint("request_id", request.ID).
		Uint("actor_id", actor.UserID).
		Msg("enrollment request rejected")

	s.recordAndPublish(ctx, actor, "enrollment_request.rejected", request.ID, request.StudentID, request.CourseID, models.RequestStatusRejected)
	s.cache.InvalidateStudent(ctx, request.StudentID)
	s.cache.InvalidateInstructor(ctx, request.Course.InstructorID)

	decided, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	return dto.NewEnrollmentRequestResponse(decided), nil
}

func (s *enrollmentService) WithdrawRequest(ctx context.Context, actor authz.Identity, requestID uint) (dto.EnrollmentRequestResponse, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.withdraw_request", trace.WithAttributes(
		attribute.Int("enrollment.request_id", int(requestID)),
	))
	defer span.End()

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentRequestResponse{}, ErrRequestNotFound
		}
		return dto.EnrollmentRequestResponse{}, err
	}

	if !authz.CanPerform(actor, authz.ActionWithdrawRequest, authz.Target{RequestStudentID: request.StudentID}) {
		return dto.EnrollmentRequestResponse{}, ErrNotAllowed
	}

	if !request.IsPending() {
		return dto.EnrollmentRequestResponse{}, ErrRequestNotPending
	}

	if err := s.requests.Decide(ctx, request.ID, models.RequestStatusWithdrawn, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentRequestResponse{}, s.classifyStaleDecision(ctx, requestID)
		}
		return dto.EnrollmentRequestResponse{}, err
	}

	s.logger.Info().
		Uint("request_id", request.ID).
		Uint("student_id", actor.UserID).
		Msg("enrollment request withdrawn")

	s.recordAndPublish(ctx, actor, "enrollment_request.withdrawn", request.ID, request.StudentID, request.CourseID, models.RequestStatusWithdrawn)
	s.cache.InvalidateStudent(ctx, request.StudentID)
	s.cache.InvalidateInstructor(ctx, request.Course.InstructorID)

	withdrawn, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return dto.EnrollmentRequestResponse{}, err
	}

	return dto.NewEnrollmentRequestResponse(withdrawn), nil
}

// WithdrawEnrollment removes an active membership. The historical approved
// request is left untouched; after a later fresh submission the status query
// reflects the new pending row as most recent.
func (s *enrollmentService) WithdrawEnrollment(ctx context.Context, actor authz.Identity, courseID uint) error {
	if !authz.CanPerform(actor, authz.ActionWithdrawEnrollment, authz.Target{}) {
		return ErrNotAllowed
	}

	ctx, span := s.tracer.Start(ctx, "enrollment.withdraw", trace.WithAttributes(
		attribute.Int("enrollment.student_id", int(actor.UserID)),
		attribute.Int("enrollment.course_id", int(courseID)),
	))
	defer span.End()

	if err := s.enrollments.Delete(ctx, actor.UserID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.logger.Info().
		Uint("student_id", actor.UserID).
		Uint("course_id", courseID).
		Msg("enrollment withdrawn")

	s.recordAndPublish(ctx, actor, "enrollment.withdrawn", 0, actor.UserID, courseID, "")
	s.cache.InvalidateStudent(ctx, actor.UserID)

	if course, err := s.courses.GetByID(ctx, courseID); err == nil {
		s.cache.InvalidateInstructor(ctx, course.InstructorID)
	}

	return nil
}

// Status answers with the most recent request's status for the pair, or
// "none" when no request was ever filed.
func (s *enrollmentService) Status(ctx context.Context, actor authz.Identity, courseID uint) (dto.EnrollmentStatusResponse, error) {
	enrolled, err := s.enrollments.Exists(ctx, actor.UserID, courseID)
	if err != nil {
		return dto.EnrollmentStatusResponse{}, err
	}

	response := dto.EnrollmentStatusResponse{
		CourseID: courseID,
		Status:   dto.RequestStatusNone,
		Enrolled: enrolled,
	}

	latest, err := s.requests.LatestForPair(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.EnrollmentStatusResponse{}, err
	}

	response.Status = latest.Status
	response.RequestID = &latest.ID

	return response, nil
}

func (s *enrollmentService) List(ctx context.Context, actor authz.Identity, filter dto.EnrollmentRequestFilter) (dto.EnrollmentRequestListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.EnrollmentRequestListResponse{}, err
	}

	if filter.CourseID == nil && filter.StudentID == nil {
		if actor.Role != authz.RoleAdmin {
			return dto.EnrollmentRequestListResponse{}, ErrNotAllowed
		}
	}

	if filter.CourseID != nil {
		course, err := s.courses.GetByID(ctx, *filter.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.EnrollmentRequestListResponse{}, ErrCourseNotFound
			}
			return dto.EnrollmentRequestListResponse{}, err
		}

		if !authz.CanPerform(actor, authz.ActionViewCourseRequests, authz.Target{CourseOwnerID: course.InstructorID}) {
			return dto.EnrollmentRequestListResponse{}, ErrNotAllowed
		}
	}

	if filter.StudentID != nil {
		if !authz.CanPerform(actor, authz.ActionViewStudentRequests, authz.Target{RequestStudentID: *filter.StudentID}) {
			return dto.EnrollmentRequestListResponse{}, ErrNotAllowed
		}
	}

	requests, total, err := s.requests.List(ctx, repository.EnrollmentRequestFilter{
		CourseID:  filter.CourseID,
		StudentID: filter.StudentID,
		Status:    filter.Status,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return dto.EnrollmentRequestListResponse{}, err
	}

	return dto.EnrollmentRequestListResponse{
		Requests: dto.NewEnrollmentRequestResponseSlice(requests),
		Total:    total,
	}, nil
}

// loadDecidableRequest fetches the request and checks the moderation gate and
// the pending precondition shared by approve and reject.
func (s *enrollmentService) loadDecidableRequest(ctx context.Context, actor authz.Identity, requestID uint) (models.EnrollmentRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EnrollmentRequest{}, ErrRequestNotFound
		}
		return models.EnrollmentRequest{}, err
	}

	if !authz.CanPerform(actor, authz.ActionDecideRequest, authz.Target{CourseOwnerID: request.Course.InstructorID}) {
		return models.EnrollmentRequest{}, ErrNotAllowed
	}

	if !request.IsPending() {
		return models.EnrollmentRequest{}, ErrRequestNotPending
	}

	return request, nil
}

// classifyStaleDecision distinguishes a vanished request from one that was
// decided concurrently, so the caller gets the precise error kind.
func (s *enrollmentService) classifyStaleDecision(ctx context.Context, requestID uint) error {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	return ErrRequestNotPending
}

func (s *enrollmentService) recordAndPublish(ctx context.Context, actor authz.Identity, action string, requestID, studentID, courseID uint, status string) {
	var entityID *uint
	entityType := "enrollment_request"
	if requestID != 0 {
		entityID = &requestID
	} else {
		entityType = "enrollment"
		entityID = &courseID
	}

	metadata := map[string]interface{}{
		"student_id": studentID,
		"course_id":  courseID,
	}
	if status != "" {
		metadata["status"] = status
	}

	if s.activity != nil {
		s.activity.Record(ctx, actor, action, entityType, entityID, metadata)
	}

	if s.events != nil {
		s.events.Publish(ctx, LifecycleEvent{
			Action:     action,
			RequestID:  requestID,
			StudentID:  studentID,
			CourseID:   courseID,
			Status:     status,
			ActorID:    actor.UserID,
			ActorRole:  string(actor.Role),
			OccurredAt: s.now(),
		})
	}
}
