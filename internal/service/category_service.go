package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/repository"
	"github.com/stjosephms/school-site-api/internal/slug"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.DocumentCategory, error)
	FindBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error)
	FindByID(ctx context.Context, id string) (*models.DocumentCategory, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, category *models.DocumentCategory) error
	Update(ctx context.Context, category *models.DocumentCategory) error
	DeleteEmpty(ctx context.Context, slug string) error
	GetOrCreate(ctx context.Context, category *models.DocumentCategory) (*models.DocumentCategory, error)
}

type categoryDocumentLister interface {
	ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error)
}

// WellKnownCategories seeds the categories referenced directly by public
// URLs so those pages never 404 before an administrator configures
// anything. Keyed by slug.
var WellKnownCategories = map[string]models.CategoryDefaults{
	"academic-calendar": {Name: "Academic Calendar", Icon: "fas fa-calendar-alt", DisplayOrder: 1, IsActive: true},
	"admissions":        {Name: "Admissions", Icon: "fas fa-graduation-cap", DisplayOrder: 2, IsActive: true},
	"application-forms": {Name: "Application Forms", Icon: "fas fa-file-alt", DisplayOrder: 3, IsActive: true},
	"school-policies":   {Name: "School Policies", Icon: "fas fa-gavel", DisplayOrder: 4, IsActive: true},
	"exam-papers":       {Name: "Exam Papers", Icon: "fas fa-file-contract", DisplayOrder: 5, IsActive: true},
	"reports":           {Name: "Reports", Icon: "fas fa-chart-bar", DisplayOrder: 6, IsActive: true},
}

// CreateCategoryRequest describes payload for creating a category.
type CreateCategoryRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

// UpdateCategoryRequest carries a partial update. The slug is immutable.
type UpdateCategoryRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Description  *string `json:"description"`
	Icon         *string `json:"icon"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

// CategoryService orchestrates document category workflows.
type CategoryService struct {
	repo      categoryRepository
	documents categoryDocumentLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService creates a new category service instance.
func NewCategoryService(repo categoryRepository, documents categoryDocumentLister, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, documents: documents, validator: validate, logger: logger}
}

// List returns all categories for the back-office.
func (s *CategoryService) List(ctx context.Context) ([]models.DocumentCategory, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Get returns a category by slug.
func (s *CategoryService) Get(ctx context.Context, slugValue string) (*models.DocumentCategory, error) {
	category, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create assigns a fresh identifier, derives the slug and persists the
// category.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*models.DocumentCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	id := uuid.NewString()
	slugValue, err := slug.Generate(ctx, req.Name, id, s.repo.SlugExists)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive category slug")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	icon := req.Icon
	if icon == "" {
		icon = "fas fa-file"
	}

	category := &models.DocumentCategory{
		ID:           id,
		Name:         req.Name,
		Slug:         slugValue,
		Description:  req.Description,
		Icon:         icon,
		DisplayOrder: req.DisplayOrder,
		IsActive:     active,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "category slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// Update applies a partial update. The slug is never recomputed.
func (s *CategoryService) Update(ctx context.Context, slugOrID string, req UpdateCategoryRequest) (*models.DocumentCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.resolve(ctx, slugOrID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// Delete removes a category, refusing while it still owns documents.
func (s *CategoryService) Delete(ctx context.Context, slugValue string) error {
	err := s.repo.DeleteEmpty(ctx, slugValue)
	if err == nil {
		return nil
	}
	var notEmpty *repository.CategoryNotEmptyError
	if errors.As(err, &notEmpty) {
		return appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot delete category: it contains %d document(s)", notEmpty.Count))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
}

// GetOrCreateDefault bootstraps a category with the given defaults when
// it does not exist yet, returning the stored row either way.
func (s *CategoryService) GetOrCreateDefault(ctx context.Context, slugValue string, defaults models.CategoryDefaults) (*models.DocumentCategory, error) {
	candidate := &models.DocumentCategory{
		ID:           uuid.NewString(),
		Name:         defaults.Name,
		Slug:         slugValue,
		Icon:         defaults.Icon,
		DisplayOrder: defaults.DisplayOrder,
		IsActive:     defaults.IsActive,
	}
	category, err := s.repo.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bootstrap category")
	}
	return category, nil
}

// WellKnownPage bootstraps a well-known category and returns it with its
// active documents, backing the fixed public URLs.
func (s *CategoryService) WellKnownPage(ctx context.Context, slugValue string) (*models.DocumentCategory, []models.Document, error) {
	defaults, ok := WellKnownCategories[slugValue]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "unknown page")
	}
	category, err := s.GetOrCreateDefault(ctx, slugValue, defaults)
	if err != nil {
		return nil, nil, err
	}
	documents, err := s.documents.ListActiveByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list page documents")
	}
	return category, documents, nil
}

// ResolveByID maps a stable identifier to the current slug, for
// legacy-link redirection. It never mutates the record.
func (s *CategoryService) ResolveByID(ctx context.Context, id string) (string, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
	}
	return category.Slug, nil
}

func (s *CategoryService) resolve(ctx context.Context, slugOrID string) (*models.DocumentCategory, error) {
	category, err := s.repo.FindBySlug(ctx, slugOrID)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if _, parseErr := uuid.Parse(slugOrID); parseErr == nil {
		category, err = s.repo.FindByID(ctx, slugOrID)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
}
