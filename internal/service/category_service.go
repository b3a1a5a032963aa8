package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/authz"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// ErrCategoryNotFound indicates the referenced category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryService manages the admin-curated course categories.
type CategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Create(ctx context.Context, actor authz.Identity, payload dto.CategoryRequest) (dto.CategoryResponse, error)
	Update(ctx context.Context, actor authz.Identity, id uint, payload dto.CategoryRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, actor authz.Identity, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewCategoryService constructs a CategoryService instance.
func NewCategoryService(categories repository.CategoryRepository, validate *validator.Validate, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categories: categories,
		validator:  validate,
		logger:     logger.With().Str("component", "category_service").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.NewCategoryResponse(category))
	}

	return responses, nil
}

func (s *categoryService) Create(ctx context.Context, actor authz.Identity, payload dto.CategoryRequest) (dto.CategoryResponse, error) {
	if !authz.CanPerform(actor, authz.ActionManageCategories, authz.Target{}) {
		return dto.CategoryResponse{}, ErrNotAllowed
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category := models.Category{
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
	}

	if err := s.categories.Create(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	s.logger.Info().Uint("category_id", category.ID).Msg("category created")

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Update(ctx context.Context, actor authz.Identity, id uint, payload dto.CategoryRequest) (dto.CategoryResponse, error) {
	if !authz.CanPerform(actor, authz.ActionManageCategories, authz.Target{}) {
		return dto.CategoryResponse{}, ErrNotAllowed
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}

	category.Name = strings.TrimSpace(payload.Name)
	category.Description = payload.Description

	if err := s.categories.Update(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, actor authz.Identity, id uint) error {
	if !authz.CanPerform(actor, authz.ActionManageCategories, authz.Target{}) {
		return ErrNotAllowed
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	s.logger.Info().Uint("category_id", id).Msg("category deleted")

	return nil
}
