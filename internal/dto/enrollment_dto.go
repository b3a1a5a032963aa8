package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// RequestStatusNone is returned by the status query when no request was ever
// filed for the pair.
const RequestStatusNone = "none"

// EnrollmentRequestCreateRequest is the payload a student submits to apply
// for a course.
type EnrollmentRequestCreateRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Message  string `json:"message" validate:"max=2000"`
}

// EnrollmentRequestFilter narrows request listings.
type EnrollmentRequestFilter struct {
	CourseID  *uint
	StudentID *uint
	Status    *string `validate:"omitempty,oneof=pending approved rejected withdrawn"`
	Page      int     `validate:"min=0"`
	PageSize  int     `validate:"min=0,max=100"`
}

// StudentSummary is the trimmed requester view embedded in request payloads.
type StudentSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// CourseSummary is the trimmed course view embedded in request payloads.
type CourseSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	InstructorID uint   `json:"instructor_id"`
}

// EnrollmentRequestResponse is the public view of an enrollment request.
type EnrollmentRequestResponse struct {
	ID          uint           `json:"id"`
	Student     StudentSummary `json:"student"`
	Course      CourseSummary  `json:"course"`
	Message     string         `json:"message"`
	Status      string         `json:"status"`
	RequestedAt time.Time      `json:"requested_at"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
}

// EnrollmentRequestListResponse carries a page of requests with totals.
type EnrollmentRequestListResponse struct {
	Requests []EnrollmentRequestResponse `json:"requests"`
	Total    int64                       `json:"total"`
}

// EnrollmentStatusResponse is the authoritative answer for "may I apply, or am
// I pending, enrolled or re-requestable". Clients derive their UI from this
// single enum plus the enrolled flag instead of juggling local booleans.
type EnrollmentStatusResponse struct {
	CourseID  uint   `json:"course_id"`
	Status    string `json:"status"`
	Enrolled  bool   `json:"enrolled"`
	RequestID *uint  `json:"request_id,omitempty"`
}

// EnrollmentResponse is the public view of an active membership.
type EnrollmentResponse struct {
	ID        uint           `json:"id"`
	Course    CourseResponse `json:"course"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEnrollmentRequestResponse maps the model to its public view.
func NewEnrollmentRequestResponse(request models.EnrollmentRequest) EnrollmentRequestResponse {
	return EnrollmentRequestResponse{
		ID: request.ID,
		Student: StudentSummary{
			ID:       request.StudentID,
			Username: request.Student.Username,
			FullName: request.Student.FullName,
		},
		Course: CourseSummary{
			ID:           request.CourseID,
			Title:        request.Course.Title,
			InstructorID: request.Course.InstructorID,
		},
		Message:     request.Message,
		Status:      request.Status,
		RequestedAt: request.RequestedAt,
		DecidedAt:   request.DecidedAt,
	}
}

// NewEnrollmentRequestResponseSlice maps a slice of models to their public views.
func NewEnrollmentRequestResponseSlice(requests []models.EnrollmentRequest) []EnrollmentRequestResponse {
	responses := make([]EnrollmentRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, NewEnrollmentRequestResponse(request))
	}
	return responses
}

// NewEnrollmentResponse maps the model to its public view.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:        enrollment.ID,
		Course:    NewCourseResponse(enrollment.Course),
		CreatedAt: enrollment.CreatedAt,
	}
}
