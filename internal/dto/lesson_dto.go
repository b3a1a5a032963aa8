package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// LessonCreateRequest creates a lesson inside a course. Attachments arrive as
// multipart files alongside this payload.
type LessonCreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Position    *uint  `json:"position"`
}

// LessonUpdateRequest updates mutable lesson fields.
type LessonUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Position    *uint   `json:"position"`
}

// LessonResponse is the public view of a lesson.
type LessonResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    uint      `json:"position"`
	VideoURL    string    `json:"video_url,omitempty"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewLessonResponse maps the model to its public view.
func NewLessonResponse(lesson models.Lesson) LessonResponse {
	return LessonResponse{
		ID:          lesson.ID,
		CourseID:    lesson.CourseID,
		Title:       lesson.Title,
		Description: lesson.Description,
		Position:    lesson.Position,
		VideoURL:    lesson.VideoURL,
		PDFURL:      lesson.PDFURL,
		CreatedAt:   lesson.CreatedAt,
		UpdatedAt:   lesson.UpdatedAt,
	}
}

// NewLessonResponseSlice maps a slice of models to their public views.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}
	return responses
}
