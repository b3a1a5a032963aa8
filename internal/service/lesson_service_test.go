package service

import (
	"context"
	"io"
	"mime/multipart"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
)

type memLessonRepo struct {
	nextID  uint
	lessons map[uint]models.Lesson
}

func newMemLessonRepo() *memLessonRepo {
	return &memLessonRepo{lessons: make(map[uint]models.Lesson)}
}

func (m *memLessonRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	out := make([]models.Lesson, 0)
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			out = append(out, lesson)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memLessonRepo) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	lesson, ok := m.lessons[id]
	if !ok {
		return models.Lesson{}, gorm.ErrRecordNotFound
	}
	return lesson, nil
}

func (m *memLessonRepo) MaxPosition(ctx context.Context, courseID uint) (uint, error) {
	max := uint(0)
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID && lesson.Position > max {
			max = lesson.Position
		}
	}
	return max, nil
}

func (m *memLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	m.nextID++
	lesson.ID = m.nextID
	m.lessons[lesson.ID] = *lesson
	return nil
}

func (m *memLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	m.lessons[lesson.ID] = *lesson
	return nil
}

func (m *memLessonRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.lessons[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.lessons, id)
	return nil
}

type fakeStorage struct {
	uploads []string
}

func (f *fakeStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	f.uploads = append(f.uploads, name)
	return "https://cdn.example.com/" + name, nil
}

func newLessonFixture() (LessonService, *memLessonRepo, *fakeStorage) {
	courses := &memCourseRepo{courses: map[uint]models.Course{
		10: {ID: 10, Title: "Distributed Systems", InstructorID: 2},
	}}
	lessons := newMemLessonRepo()
	storage := &fakeStorage{}
	svc := NewLessonService(lessons, courses, storage, testValidator(), 1, testLogger())
	return svc, lessons, storage
}

func TestLessonCreateAppendsPosition(t *testing.T) {
	svc, _, _ := newLessonFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, testInstructor, 10, dto.LessonCreateRequest{Title: "Intro"}, LessonAttachments{})
	require.NoError(t, err)
	require.Equal(t, uint(1), first.Position)

	second, err := svc.Create(ctx, testInstructor, 10, dto.LessonCreateRequest{Title: "Consensus"}, LessonAttachments{})
	require.NoError(t, err)
	require.Equal(t, uint(2), second.Position)

	explicit := uint(7)
	third, err := svc.Create(ctx, testInstructor, 10, dto.LessonCreateRequest{Title: "Raft", Position: &explicit}, LessonAttachments{})
	require.NoError(t, err)
	require.Equal(t, uint(7), third.Position)

	listed, err := svc.ListByCourse(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "Intro", listed[0].Title)
}

func TestLessonCreateOwnershipGate(t *testing.T) {
	svc, _, _ := newLessonFixture()

	_, err := svc.Create(context.Background(), testOutsider, 10, dto.LessonCreateRequest{Title: "Nope"}, LessonAttachments{})
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = svc.Create(context.Background(), testStudent, 10, dto.LessonCreateRequest{Title: "Nope"}, LessonAttachments{})
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = svc.Create(context.Background(), testAdmin, 10, dto.LessonCreateRequest{Title: "Moderated"}, LessonAttachments{})
	require.NoError(t, err)
}

func TestLessonCreateUnknownCourse(t *testing.T) {
	svc, _, _ := newLessonFixture()

	_, err := svc.Create(context.Background(), testInstructor, 404, dto.LessonCreateRequest{Title: "Lost"}, LessonAttachments{})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestLessonAttachmentSizeLimit(t *testing.T) {
	svc, _, _ := newLessonFixture()

	oversized := &multipart.FileHeader{Filename: "lecture.mp4", Size: 2 * 1024 * 1024}
	_, err := svc.Create(context.Background(), testInstructor, 10, dto.LessonCreateRequest{Title: "Video"}, LessonAttachments{Video: oversized})
	require.ErrorIs(t, err, ErrAttachmentTooLarge)
}

func TestLessonUpdateAndDelete(t *testing.T) {
	svc, _, _ := newLessonFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, testInstructor, 10, dto.LessonCreateRequest{Title: "Draft"}, LessonAttachments{})
	require.NoError(t, err)

	title := "Final"
	updated, err := svc.Update(ctx, testInstructor, created.ID, dto.LessonUpdateRequest{Title: &title}, LessonAttachments{})
	require.NoError(t, err)
	require.Equal(t, "Final", updated.Title)

	_, err = svc.Update(ctx, testOutsider, created.ID, dto.LessonUpdateRequest{Title: &title}, LessonAttachments{})
	require.ErrorIs(t, err, ErrNotAllowed)

	require.ErrorIs(t, svc.Delete(ctx, testOutsider, created.ID), ErrNotAllowed)
	require.NoError(t, svc.Delete(ctx, testInstructor, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, testInstructor, created.ID), ErrLessonNotFound)

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrLessonNotFound)
}
