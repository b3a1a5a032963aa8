package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleStudent, ParseRole("student"))
	require.Equal(t, RoleInstructor, ParseRole("  Instructor "))
	require.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	require.Equal(t, Role(""), ParseRole("teacher"))
	require.False(t, ParseRole("").Valid())
}

func TestCanPerformSubmitRequest(t *testing.T) {
	require.True(t, CanPerform(Identity{UserID: 7, Role: RoleStudent}, ActionSubmitRequest, Target{}))
	require.False(t, CanPerform(Identity{UserID: 7, Role: RoleInstructor}, ActionSubmitRequest, Target{}))
	require.False(t, CanPerform(Identity{UserID: 7, Role: RoleAdmin}, ActionSubmitRequest, Target{}))
	require.False(t, CanPerform(Identity{Role: RoleStudent}, ActionSubmitRequest, Target{}))
}

func TestCanPerformDecideRequest(t *testing.T) {
	target := Target{CourseOwnerID: 3, RequestStudentID: 7}

	require.True(t, CanPerform(Identity{UserID: 3, Role: RoleInstructor}, ActionDecideRequest, target))
	require.False(t, CanPerform(Identity{UserID: 4, Role: RoleInstructor}, ActionDecideRequest, target))
	require.True(t, CanPerform(Identity{UserID: 99, Role: RoleAdmin}, ActionDecideRequest, target))
	require.False(t, CanPerform(Identity{UserID: 7, Role: RoleStudent}, ActionDecideRequest, target))
}

func TestCanPerformWithdrawRequest(t *testing.T) {
	target := Target{RequestStudentID: 7}

	require.True(t, CanPerform(Identity{UserID: 7, Role: RoleStudent}, ActionWithdrawRequest, target))
	require.False(t, CanPerform(Identity{UserID: 8, Role: RoleStudent}, ActionWithdrawRequest, target))
	// Moderators decide, they do not withdraw on the student's behalf.
	require.False(t, CanPerform(Identity{UserID: 99, Role: RoleAdmin}, ActionWithdrawRequest, target))
}

func TestCanPerformCourseManagement(t *testing.T) {
	target := Target{CourseOwnerID: 3}

	require.True(t, CanPerform(Identity{UserID: 3, Role: RoleInstructor}, ActionManageCourse, target))
	require.False(t, CanPerform(Identity{UserID: 5, Role: RoleInstructor}, ActionManageCourse, target))
	require.True(t, CanPerform(Identity{UserID: 1, Role: RoleAdmin}, ActionManageCourse, target))
	require.False(t, CanPerform(Identity{UserID: 7, Role: RoleStudent}, ActionManageLessons, target))
}

func TestCanPerformAdminOnly(t *testing.T) {
	require.True(t, CanPerform(Identity{UserID: 1, Role: RoleAdmin}, ActionManageCategories, Target{}))
	require.False(t, CanPerform(Identity{UserID: 3, Role: RoleInstructor}, ActionManageCategories, Target{}))
	require.True(t, CanPerform(Identity{UserID: 1, Role: RoleAdmin}, ActionViewActivity, Target{}))
	require.False(t, CanPerform(Identity{UserID: 7, Role: RoleStudent}, ActionViewActivity, Target{}))
}

func TestCanPerformUnknownAction(t *testing.T) {
	require.False(t, CanPerform(Identity{UserID: 1, Role: RoleAdmin}, Action("unknown"), Target{}))
}
