// Package authz holds the pure authorization decisions for the enrollment
// lifecycle and course management. Services consult it before every mutation;
// handlers never re-implement these rules.
package authz

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ParseRole normalizes a raw role string into a Role. The zero Role is
// returned for anything outside the closed set.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent
	case RoleInstructor:
		return RoleInstructor
	case RoleAdmin:
		return RoleAdmin
	default:
		return ""
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Identity is the authenticated actor performing an operation. It is resolved
// by the auth middleware and passed explicitly into every service call.
type Identity struct {
	UserID uint
	Role   Role
}

// Action enumerates the gated operations.
type Action string

const (
	ActionSubmitRequest       Action = "enrollment_request.submit"
	ActionDecideRequest       Action = "enrollment_request.decide"
	ActionWithdrawRequest     Action = "enrollment_request.withdraw"
	ActionWithdrawEnrollment  Action = "enrollment.withdraw"
	ActionViewCourseRequests  Action = "enrollment_request.list_course"
	ActionViewStudentRequests Action = "enrollment_request.list_student"
	ActionManageCourse        Action = "course.manage"
	ActionManageLessons       Action = "lesson.manage"
	ActionManageCategories    Action = "category.manage"
	ActionViewActivity        Action = "activity.view"
)

// Target carries the ownership facts a decision may depend on. Zero values
// mean the fact is irrelevant for the action.
type Target struct {
	// CourseOwnerID is the instructor owning the course the action touches.
	CourseOwnerID uint
	// RequestStudentID is the student that filed the enrollment request.
	RequestStudentID uint
}

// CanPerform decides whether the actor may perform the action on the target.
// Admins bypass ownership checks on moderation and management actions but can
// not act as students.
func CanPerform(actor Identity, action Action, target Target) bool {
	if actor.UserID == 0 || !actor.Role.Valid() {
		return false
	}

	switch action {
	case ActionSubmitRequest:
		return actor.Role == RoleStudent
	case ActionDecideRequest, ActionViewCourseRequests:
		if actor.Role == RoleAdmin {
			return true
		}
		return actor.Role == RoleInstructor && actor.UserID == target.CourseOwnerID
	case ActionWithdrawRequest:
		return actor.Role == RoleStudent && actor.UserID == target.RequestStudentID
	case ActionViewStudentRequests:
		if actor.Role == RoleAdmin {
			return true
		}
		return actor.Role == RoleStudent && actor.UserID == target.RequestStudentID
	case ActionWithdrawEnrollment:
		return actor.Role == RoleStudent
	case ActionManageCourse, ActionManageLessons:
		if actor.Role == RoleAdmin {
			return true
		}
		return actor.Role == RoleInstructor && actor.UserID == target.CourseOwnerID
	case ActionManageCategories, ActionViewActivity:
		return actor.Role == RoleAdmin
	default:
		return false
	}
}
