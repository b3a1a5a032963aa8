package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// CategoryResponse is the public view of a category.
type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseCreateRequest creates a course owned by the calling instructor.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	CategoryID  *uint  `json:"category_id"`
}

// CourseUpdateRequest updates mutable course fields.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"category_id"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search       string `validate:"max=255"`
	CategoryID   *uint
	InstructorID *uint
	Sort         string
	Page         int `validate:"min=0"`
	PageSize     int `validate:"min=0,max=100"`
}

// InstructorSummary is the trimmed owner view embedded in course payloads.
type InstructorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// CourseResponse is the public view of a course.
type CourseResponse struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Instructor  InstructorSummary `json:"instructor"`
	Category    *CategoryResponse `json:"category,omitempty"`
	Lessons     []LessonResponse  `json:"lessons,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CourseListResponse carries a page of courses with the total match count.
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
	Total   int64            `json:"total"`
}

// NewCategoryResponse maps the model to its public view.
func NewCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}

// NewCourseResponse maps the model to its public view.
func NewCourseResponse(course models.Course) CourseResponse {
	response := CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		Instructor: InstructorSummary{
			ID:       course.InstructorID,
			Username: course.Instructor.Username,
			FullName: course.Instructor.FullName,
		},
		CreatedAt: course.CreatedAt,
		UpdatedAt: course.UpdatedAt,
	}

	if course.Category != nil {
		category := NewCategoryResponse(*course.Category)
		response.Category = &category
	}

	if len(course.Lessons) > 0 {
		response.Lessons = NewLessonResponseSlice(course.Lessons)
	}

	return response
}

// NewCourseResponseSlice maps a slice of models to their public views.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
