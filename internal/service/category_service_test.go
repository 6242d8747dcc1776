package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/repository"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

type categoryRepoStub struct {
	bySlug    map[string]*models.DocumentCategory
	docCounts map[string]int
	created   int
}

func newCategoryRepoStub() *categoryRepoStub {
	return &categoryRepoStub{bySlug: map[string]*models.DocumentCategory{}, docCounts: map[string]int{}}
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.DocumentCategory, error) {
	out := make([]models.DocumentCategory, 0, len(s.bySlug))
	for _, c := range s.bySlug {
		out = append(out, *c)
	}
	return out, nil
}

func (s *categoryRepoStub) FindBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error) {
	if c, ok := s.bySlug[slug]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *categoryRepoStub) FindByID(ctx context.Context, id string) (*models.DocumentCategory, error) {
	for _, c := range s.bySlug {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *categoryRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *categoryRepoStub) Create(ctx context.Context, category *models.DocumentCategory) error {
	s.created++
	s.bySlug[category.Slug] = category
	return nil
}

func (s *categoryRepoStub) Update(ctx context.Context, category *models.DocumentCategory) error {
	for slug, c := range s.bySlug {
		if c.ID == category.ID {
			category.Slug = slug
			s.bySlug[slug] = category
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *categoryRepoStub) DeleteEmpty(ctx context.Context, slug string) error {
	c, ok := s.bySlug[slug]
	if !ok {
		return sql.ErrNoRows
	}
	if count := s.docCounts[c.ID]; count > 0 {
		return &repository.CategoryNotEmptyError{Count: count}
	}
	delete(s.bySlug, slug)
	return nil
}

func (s *categoryRepoStub) GetOrCreate(ctx context.Context, category *models.DocumentCategory) (*models.DocumentCategory, error) {
	if existing, ok := s.bySlug[category.Slug]; ok {
		copied := *existing
		return &copied, nil
	}
	s.created++
	s.bySlug[category.Slug] = category
	copied := *category
	return &copied, nil
}

type docListerStub struct {
	byCategory map[string][]models.Document
}

func (s *docListerStub) ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error) {
	return s.byCategory[categoryID], nil
}

func TestCategoryCreateDerivesSlug(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, &docListerStub{}, nil, nil)

	category, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "Exam Papers"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(category.Slug, "exam-papers-"), "slug %q", category.Slug)
	assert.Len(t, category.Slug, len("exam-papers-")+8)
	assert.Equal(t, category.ID[:8], category.Slug[len("exam-papers-"):])
	assert.True(t, category.IsActive)
	assert.Equal(t, "fas fa-file", category.Icon)
}

func TestCategoryCreateRejectsEmptyName(t *testing.T) {
	svc := NewCategoryService(newCategoryRepoStub(), &docListerStub{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateCategoryRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCategoryUpdateNeverTouchesSlug(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, &docListerStub{}, nil, nil)

	category, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "Reports"})
	require.NoError(t, err)
	originalSlug := category.Slug

	newName := "Term Reports"
	updated, err := svc.Update(context.Background(), originalSlug, UpdateCategoryRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Term Reports", updated.Name)
	assert.Equal(t, originalSlug, updated.Slug)
}

func TestCategoryDeleteBlockedWhileDocumentsRemain(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, &docListerStub{}, nil, nil)

	category, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "Admissions"})
	require.NoError(t, err)
	repo.docCounts[category.ID] = 2

	err = svc.Delete(context.Background(), category.Slug)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "2 document(s)")

	// Still present after the failed delete.
	_, err = svc.Get(context.Background(), category.Slug)
	require.NoError(t, err)

	repo.docCounts[category.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), category.Slug))
	_, err = svc.Get(context.Background(), category.Slug)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCategoryDeleteMissing(t *testing.T) {
	svc := NewCategoryService(newCategoryRepoStub(), &docListerStub{}, nil, nil)

	err := svc.Delete(context.Background(), "nope")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestWellKnownPageBootstrapsOnce(t *testing.T) {
	repo := newCategoryRepoStub()
	lister := &docListerStub{byCategory: map[string][]models.Document{}}
	svc := NewCategoryService(repo, lister, nil, nil)

	first, _, err := svc.WellKnownPage(context.Background(), "academic-calendar")
	require.NoError(t, err)
	assert.Equal(t, "academic-calendar", first.Slug)
	assert.Equal(t, "Academic Calendar", first.Name)

	second, _, err := svc.WellKnownPage(context.Background(), "academic-calendar")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.created)
}

func TestWellKnownPageRejectsUnknownSlug(t *testing.T) {
	svc := NewCategoryService(newCategoryRepoStub(), &docListerStub{}, nil, nil)

	_, _, err := svc.WellKnownPage(context.Background(), "pricing")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCategoryResolveByID(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, &docListerStub{}, nil, nil)

	category, err := svc.Create(context.Background(), CreateCategoryRequest{Name: "School Policies"})
	require.NoError(t, err)

	slug, err := svc.ResolveByID(context.Background(), category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.Slug, slug)

	_, err = svc.ResolveByID(context.Background(), "missing-id")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
