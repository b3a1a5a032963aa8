package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

var (
	// ErrLessonNotFound indicates the referenced lesson does not exist.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrAttachmentTooLarge indicates the upload exceeds the configured limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum allowed size")
	// ErrAttachmentType indicates the attachment MIME type is not permitted.
	ErrAttachmentType = errors.New("attachment type not allowed")
)

// FileStorage abstracts attachment destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// LessonAttachments groups the optional multipart files of a lesson write.
type LessonAttachments struct {
	Video *multipart.FileHeader
	PDF   *multipart.FileHeader
}

// LessonService manages course content. Mutations require course ownership
// (or admin) through the authorization gate.
type LessonService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]dto.LessonResponse, error)
	Get(ctx context.Context, id uint) (dto.LessonResponse, error)
	Create(ctx context.Context, actor authz.Identity, courseID uint, payload dto.LessonCreateRequest, attachments LessonAttachments) (dto.LessonResponse, error)
	Update(ctx context.Context, actor authz.Identity, id uint, payload dto.LessonUpdateRequest, attachments LessonAttachments) (dto.LessonResponse, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
}

type lessonService struct {
	lessons   repository.LessonRepository
	courses   repository.CourseRepository
	storage   FileStorage
	validator *validator.Validate
	maxSize   int64
	logger    zerolog.Logger
}

// NewLessonService constructs a LessonService instance.
func NewLessonService(lessons repository.LessonRepository, courses repository.CourseRepository, storage FileStorage, validate *validator.Validate, maxSizeMB int, logger zerolog.Logger) LessonService {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	return &lessonService{
		lessons:   lessons,
		courses:   courses,
		storage:   storage,
		validator: validate,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "lesson_service").Logger(),
	}
}

func (s *lessonService) ListByCourse(ctx context.Context, courseID uint) ([]dto.LessonResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) Get(ctx context.Context, id uint) (dto.LessonResponse, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Create(ctx context.Context, actor authz.Identity, courseID uint, payload dto.LessonCreateRequest, attachments LessonAttachments) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrCourseNotFound
		}
		return dto.LessonResponse{}, err
	}

	if !authz.CanPerform(actor, authz.ActionManageLessons, authz.Target{CourseOwnerID: course.InstructorID}) {
		return dto.LessonResponse{}, ErrNotAllowed
	}

	position := uint(0)
	if payload.Position != nil {
		position = *payload.Position
	} else {
		max, err := s.lessons.MaxPosition(ctx, courseID)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		position = max + 1
	}

	lesson := models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		Position:    position,
	}

	if err := s.applyAttachments(ctx, &lesson, attachments); err != nil {
		return dto.LessonResponse{}, err
	}

	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("course_id", courseID).Msg("lesson created")

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Update(ctx context.Context, actor authz.Identity, id uint, payload dto.LessonUpdateRequest, attachments LessonAttachments) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if !authz.CanPerform(actor, authz.ActionManageLessons, authz.Target{CourseOwnerID: course.InstructorID}) {
		return dto.LessonResponse{}, ErrNotAllowed
	}

	if payload.Title != nil {
		lesson.Title = strings.TrimSpace(*payload.Title)
	}

	if payload.Description != nil {
		lesson.Description = *payload.Description
	}

	if payload.Position != nil {
		lesson.Position = *payload.Position
	}

	if err := s.applyAttachments(ctx, &lesson, attachments); err != nil {
		return dto.LessonResponse{}, err
	}

	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	course, err := s.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return err
	}

	if !authz.CanPerform(actor, authz.ActionManageLessons, authz.Target{CourseOwnerID: course.InstructorID}) {
		return ErrNotAllowed
	}

	if err := s.lessons.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	s.logger.Info().Uint("lesson_id", id).Msg("lesson deleted")

	return nil
}

func (s *lessonService) applyAttachments(ctx context.Context, lesson *models.Lesson, attachments LessonAttachments) error {
	if attachments.Video != nil {
		url, err := s.uploadAttachment(ctx, attachments.Video, videoMIMETypes)
		if err != nil {
			return err
		}
		lesson.VideoURL = url
	}

	if attachments.PDF != nil {
		url, err := s.uploadAttachment(ctx, attachments.PDF, pdfMIMETypes)
		if err != nil {
			return err
		}
		lesson.PDFURL = url
	}

	return nil
}

var (
	videoMIMETypes = []string{"video/mp4", "video/webm", "video/quicktime"}
	pdfMIMETypes   = []string{"application/pdf"}
)

func (s *lessonService) uploadAttachment(ctx context.Context, file *multipart.FileHeader, allowed []string) (string, error) {
	if file.Size > s.maxSize {
		return "", ErrAttachmentTooLarge
	}

	if err := validateAttachmentType(file, allowed); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer reader.Close()

	url, err := s.storage.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return url, nil
}

func validateAttachmentType(file *multipart.FileHeader, allowed []string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect attachment type: %w", err)
	}

	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrAttachmentType, mime.String())
}
