package models

import "time"

// Enrollment request statuses. Pending is the sole initial state; the other
// three are terminal for the request row they are written to.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusWithdrawn = "withdrawn"
)

// Enrollment represents confirmed, active membership of a student in a course.
// At most one row exists per (student, course) pair.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollments_pair" json:"student_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollments_pair" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	Student   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// EnrollmentRequest is a student's application to join a course. Requests are
// history: a rejected or withdrawn row is never mutated back to pending, the
// student files a fresh request instead.
type EnrollmentRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index:idx_enrollment_requests_pair" json:"student_id"`
	CourseID    uint       `gorm:"not null;index:idx_enrollment_requests_pair" json:"course_id"`
	Message     string     `gorm:"type:text" json:"message"`
	Status      string     `gorm:"size:16;not null;default:pending" json:"status"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at"`
	Student     User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course      Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// IsPending reports whether the request can still be decided or withdrawn.
func (r EnrollmentRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsTerminal reports whether the request has reached a final status.
func (r EnrollmentRequest) IsTerminal() bool {
	switch r.Status {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusWithdrawn:
		return true
	default:
		return false
	}
}

// BlocksResubmission reports whether this request, as the most recent one for
// its pair, prevents the student from filing a new request. Only an open
// pending request blocks: an approved row is history once the membership it
// produced is withdrawn, and active membership is guarded separately by the
// enrollment store.
func (r EnrollmentRequest) BlocksResubmission() bool {
	return r.Status == RequestStatusPending
}
