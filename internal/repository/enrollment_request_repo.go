package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// ErrRequestBlocked indicates a pending request already exists for the
// (student, course) pair.
var ErrRequestBlocked = errors.New("an open enrollment request already exists for this course")

// ErrStudentEnrolled indicates the student already holds active membership in
// the course and must withdraw it before filing a new request.
var ErrStudentEnrolled = errors.New("student is already enrolled in this course")

// EnrollmentRequestFilter narrows request listings.
type EnrollmentRequestFilter struct {
	CourseID  *uint
	StudentID *uint
	CourseIDs []uint
	Status    *string
	Page      int
	PageSize  int
}

// EnrollmentRequestRepository is the append-and-update store for enrollment
// requests. Status writes go through compare-and-swap methods only, so a
// request that has left the pending state can never be decided twice.
type EnrollmentRequestRepository interface {
	// Create inserts a new pending request. At most one pending request may
	// exist per pair and an actively enrolled student may not file one; both
	// checks run inside a transaction and return ErrRequestBlocked and
	// ErrStudentEnrolled respectively.
	Create(ctx context.Context, request *models.EnrollmentRequest) error
	GetByID(ctx context.Context, id uint) (models.EnrollmentRequest, error)
	// LatestForPair returns the most recent request for the pair, ordered by
	// requested_at descending.
	LatestForPair(ctx context.Context, studentID, courseID uint) (models.EnrollmentRequest, error)
	List(ctx context.Context, filter EnrollmentRequestFilter) ([]models.EnrollmentRequest, int64, error)
	// Decide moves a pending request to rejected or withdrawn. The update is a
	// compare-and-swap on status; gorm.ErrRecordNotFound is returned when the
	// request is missing or no longer pending.
	Decide(ctx context.Context, id uint, status string, decidedAt *time.Time) error
	// ApproveAndEnroll atomically moves a pending request to approved and
	// creates the membership record. The record insert is idempotent so a
	// crash between retries cannot produce duplicates.
	ApproveAndEnroll(ctx context.Context, request models.EnrollmentRequest, decidedAt time.Time) error
}

type enrollmentRequestRepository struct {
	db *gorm.DB
}

// NewEnrollmentRequestRepository instantiates a GORM-backed repository.
func NewEnrollmentRequestRepository(db *gorm.DB) EnrollmentRequestRepository {
	return &enrollmentRequestRepository{db: db}
}

// EnsurePendingUniqueIndex creates the partial unique index backing the
// "at most one pending request per pair" invariant. AutoMigrate cannot express
// partial indexes, so it is applied separately after migration.
func EnsurePendingUniqueIndex(db *gorm.DB) error {
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollment_requests_pending_pair
		 ON enrollment_requests (student_id, course_id) WHERE status = 'pending'`,
	).Error
}

func (r *enrollmentRequestRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.EnrollmentRequest{}).
		Preload("Student").
		Preload("Course").
		Preload("Course.Instructor")
}

func (r *enrollmentRequestRepository) Create(ctx context.Context, request *models.EnrollmentRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrolled int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND course_id = ?", request.StudentID, request.CourseID).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled > 0 {
			return ErrStudentEnrolled
		}

		var latest models.EnrollmentRequest
		err := tx.Where("student_id = ? AND course_id = ?", request.StudentID, request.CourseID).
			Order("requested_at DESC").
			Order("id DESC").
			First(&latest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && latest.BlocksResubmission() {
			return ErrRequestBlocked
		}

		return tx.Create(request).Error
	})
	// A concurrent submit that slips past the check lands on the partial
	// unique pending index instead.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRequestBlocked
	}
	return err
}

func (r *enrollmentRequestRepository) GetByID(ctx context.Context, id uint) (models.EnrollmentRequest, error) {
	var request models.EnrollmentRequest
	if err := r.baseQuery(ctx).First(&request, id).Error; err != nil {
		return models.EnrollmentRequest{}, err
	}

	return request, nil
}

func (r *enrollmentRequestRepository) LatestForPair(ctx context.Context, studentID, courseID uint) (models.EnrollmentRequest, error) {
	var request models.EnrollmentRequest
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Order("requested_at DESC").
		Order("id DESC").
		First(&request).Error; err != nil {
		return models.EnrollmentRequest{}, err
	}

	return request, nil
}

func (r *enrollmentRequestRepository) List(ctx context.Context, filter EnrollmentRequestFilter) ([]models.EnrollmentRequest, int64, error) {
	query := r.baseQuery(ctx)

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if len(filter.CourseIDs) > 0 {
		query = query.Where("course_id IN ?", filter.CourseIDs)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var requests []models.EnrollmentRequest
	if err := query.Order("requested_at DESC").Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *enrollmentRequestRepository) Decide(ctx context.Context, id uint, status string, decidedAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.EnrollmentRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]interface{}{"status": status, "decided_at": decidedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRequestRepository) ApproveAndEnroll(ctx context.Context, request models.EnrollmentRequest, decidedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.EnrollmentRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Updates(map[string]interface{}{"status": models.RequestStatusApproved, "decided_at": decidedAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		enrollment := models.Enrollment{
			StudentID: request.StudentID,
			CourseID:  request.CourseID,
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&enrollment).Error
	})
}
