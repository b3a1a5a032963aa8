package dto

import "time"

// StudentDashboardResponse aggregates a student's memberships and request history.
type StudentDashboardResponse struct {
	Summary     StudentSummaryStats         `json:"summary"`
	Enrollments []EnrollmentResponse        `json:"enrollments"`
	Requests    []EnrollmentRequestResponse `json:"requests"`
}

// StudentSummaryStats captures aggregated counters for the student dashboard.
type StudentSummaryStats struct {
	ActiveEnrollments int `json:"active_enrollments"`
	PendingRequests   int `json:"pending_requests"`
	RejectedRequests  int `json:"rejected_requests"`
}

// InstructorDashboardResponse aggregates an instructor's courses and their
// pending request queues.
type InstructorDashboardResponse struct {
	Summary InstructorSummaryStats     `json:"summary"`
	Courses []InstructorCourseOverview `json:"courses"`
}

// InstructorSummaryStats captures aggregated counters for the instructor dashboard.
type InstructorSummaryStats struct {
	Courses          int `json:"courses"`
	PendingRequests  int `json:"pending_requests"`
	EnrolledStudents int `json:"enrolled_students"`
}

// InstructorCourseOverview is a single course row on the instructor dashboard.
type InstructorCourseOverview struct {
	CourseID        uint                        `json:"course_id"`
	Title           string                      `json:"title"`
	EnrolledCount   int                         `json:"enrolled_count"`
	PendingRequests []EnrollmentRequestResponse `json:"pending_requests"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}
