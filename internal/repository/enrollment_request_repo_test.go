package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/models"
)

func setupRequestRepo(t *testing.T) (EnrollmentRequestRepository, EnrollmentRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.EnrollmentRequest{},
	))
	require.NoError(t, EnsurePendingUniqueIndex(db))

	require.NoError(t, db.Create(&models.User{ID: 1, Username: "student", Role: models.RoleStudent}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Username: "teacher", Role: models.RoleInstructor}).Error)
	require.NoError(t, db.Create(&models.Course{ID: 10, Title: "Compilers", InstructorID: 2}).Error)

	return NewEnrollmentRequestRepository(db), NewEnrollmentRepository(db), db
}

func pendingRequest(studentID, courseID uint) *models.EnrollmentRequest {
	return &models.EnrollmentRequest{
		StudentID:   studentID,
		CourseID:    courseID,
		Status:      models.RequestStatusPending,
		RequestedAt: time.Now(),
	}
}

func TestRequestCreateBlocksOpenPair(t *testing.T) {
	repo, _, _ := setupRequestRepo(t)
	ctx := context.Background()

	first := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, first))

	require.ErrorIs(t, repo.Create(ctx, pendingRequest(1, 10)), ErrRequestBlocked)

	// A decided request unblocks the pair.
	now := time.Now()
	require.NoError(t, repo.Decide(ctx, first.ID, models.RequestStatusRejected, &now))
	require.NoError(t, repo.Create(ctx, pendingRequest(1, 10)))
}

func TestRequestCreateWhileEnrolled(t *testing.T) {
	repo, _, _ := setupRequestRepo(t)
	ctx := context.Background()

	request := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, request))

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.NoError(t, repo.ApproveAndEnroll(ctx, stored, time.Now()))

	// Active membership blocks a new request even though the latest row is
	// approved, not pending.
	require.ErrorIs(t, repo.Create(ctx, pendingRequest(1, 10)), ErrStudentEnrolled)
}

func TestRequestCreateAfterMembershipWithdrawal(t *testing.T) {
	repo, enrollments, _ := setupRequestRepo(t)
	ctx := context.Background()

	request := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, request))

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.NoError(t, repo.ApproveAndEnroll(ctx, stored, time.Now()))
	require.NoError(t, enrollments.Delete(ctx, 1, 10))

	// The approved row is history once the membership is gone: a fresh
	// lifecycle starts with a new pending request.
	fresh := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, fresh))

	latest, err := repo.LatestForPair(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, fresh.ID, latest.ID)
	require.Equal(t, models.RequestStatusPending, latest.Status)
}

func TestRequestCreateMapsUniqueViolation(t *testing.T) {
	repo, _, db := setupRequestRepo(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	// Seed the table so the latest row for the pair is decided while an older
	// pending row still holds the partial unique index. Create then passes the
	// latest-request check and lands on the index, the way the loser of a
	// concurrent submit does on postgres.
	require.NoError(t, db.Create(&models.EnrollmentRequest{
		StudentID: 1, CourseID: 10, Status: models.RequestStatusPending, RequestedAt: base,
	}).Error)
	now := time.Now()
	require.NoError(t, db.Create(&models.EnrollmentRequest{
		StudentID: 1, CourseID: 10, Status: models.RequestStatusRejected, RequestedAt: base.Add(time.Minute), DecidedAt: &now,
	}).Error)

	require.ErrorIs(t, repo.Create(ctx, pendingRequest(1, 10)), ErrRequestBlocked)
}

func TestRequestDecideIsCompareAndSwap(t *testing.T) {
	repo, _, _ := setupRequestRepo(t)
	ctx := context.Background()

	request := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, request))

	now := time.Now()
	require.NoError(t, repo.Decide(ctx, request.ID, models.RequestStatusRejected, &now))

	// The second transition loses the swap: the row is no longer pending.
	require.ErrorIs(t, repo.Decide(ctx, request.ID, models.RequestStatusWithdrawn, nil), gorm.ErrRecordNotFound)

	decided, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusRejected, decided.Status)
	require.NotNil(t, decided.DecidedAt)
}

func TestRequestDecideMissingRow(t *testing.T) {
	repo, _, _ := setupRequestRepo(t)

	require.ErrorIs(t, repo.Decide(context.Background(), 404, models.RequestStatusRejected, nil), gorm.ErrRecordNotFound)
}

func TestApproveAndEnrollAtomicity(t *testing.T) {
	repo, enrollments, _ := setupRequestRepo(t)
	ctx := context.Background()

	request := pendingRequest(1, 10)
	require.NoError(t, repo.Create(ctx, request))

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.NoError(t, repo.ApproveAndEnroll(ctx, stored, time.Now()))

	enrolled, err := enrollments.Exists(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, enrolled)

	// A retry loses the status swap and must not duplicate the membership.
	require.ErrorIs(t, repo.ApproveAndEnroll(ctx, stored, time.Now()), gorm.ErrRecordNotFound)

	memberships, err := enrollments.ListByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
}

func TestLatestForPairOrdering(t *testing.T) {
	repo, _, _ := setupRequestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)

	first := &models.EnrollmentRequest{StudentID: 1, CourseID: 10, Status: models.RequestStatusPending, RequestedAt: base}
	require.NoError(t, repo.Create(ctx, first))
	now := time.Now()
	require.NoError(t, repo.Decide(ctx, first.ID, models.RequestStatusRejected, &now))

	second := &models.EnrollmentRequest{StudentID: 1, CourseID: 10, Status: models.RequestStatusPending, RequestedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, second))

	latest, err := repo.LatestForPair(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, models.RequestStatusPending, latest.Status)
}

func TestEnrollmentCreateIdempotent(t *testing.T) {
	_, enrollments, _ := setupRequestRepo(t)
	ctx := context.Background()

	require.NoError(t, enrollments.Create(ctx, &models.Enrollment{StudentID: 1, CourseID: 10}))
	require.NoError(t, enrollments.Create(ctx, &models.Enrollment{StudentID: 1, CourseID: 10}))

	memberships, err := enrollments.ListByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, memberships, 1)

	require.NoError(t, enrollments.Delete(ctx, 1, 10))
	require.ErrorIs(t, enrollments.Delete(ctx, 1, 10), gorm.ErrRecordNotFound)
}
