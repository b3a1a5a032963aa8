package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

type memActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	out := make([]models.ActivityLog, 0)
	for _, entry := range m.entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != nil && (entry.EntityID == nil || *entry.EntityID != *filter.EntityID) {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

func TestActivityServiceListAdminOnly(t *testing.T) {
	repo := &memActivityRepo{}
	svc := NewActivityService(repo, testValidator(), testLogger())

	svc.Record(context.Background(), testInstructor, "enrollment_request.approved", "enrollment_request", ptrUint(1), map[string]interface{}{
		"student_id": uint(1),
		"course_id":  uint(10),
	})

	_, err := svc.List(context.Background(), testInstructor, dto.ActivityFilter{})
	require.ErrorIs(t, err, ErrActivityForbidden)

	_, err = svc.List(context.Background(), testStudent, dto.ActivityFilter{})
	require.ErrorIs(t, err, ErrActivityForbidden)

	listed, err := svc.List(context.Background(), testAdmin, dto.ActivityFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), listed.Total)
	require.Equal(t, "enrollment_request.approved", listed.Entries[0].Action)
}

func TestActivityServiceFilters(t *testing.T) {
	repo := &memActivityRepo{}
	svc := NewActivityService(repo, testValidator(), testLogger())
	ctx := context.Background()

	svc.Record(ctx, testInstructor, "enrollment_request.approved", "enrollment_request", ptrUint(1), nil)
	svc.Record(ctx, testStudent, "enrollment_request.submitted", "enrollment_request", ptrUint(2), nil)
	svc.Record(ctx, testStudent, "enrollment.withdrawn", "enrollment", ptrUint(10), nil)

	byActor, err := svc.List(ctx, testAdmin, dto.ActivityFilter{ActorID: ptrUint(testStudent.UserID)})
	require.NoError(t, err)
	require.Equal(t, int64(2), byActor.Total)

	byAction, err := svc.List(ctx, testAdmin, dto.ActivityFilter{Action: "enrollment.withdrawn"})
	require.NoError(t, err)
	require.Equal(t, int64(1), byAction.Total)

	byEntity, err := svc.List(ctx, testAdmin, dto.ActivityFilter{EntityType: "enrollment_request"})
	require.NoError(t, err)
	require.Equal(t, int64(2), byEntity.Total)

	trail, err := svc.List(ctx, testAdmin, dto.ActivityFilter{EntityType: "enrollment_request", EntityID: ptrUint(2)})
	require.NoError(t, err)
	require.Equal(t, int64(1), trail.Total)
	require.Equal(t, "enrollment_request.submitted", trail.Entries[0].Action)
}
