package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjosephms/school-site-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCategoryFindBySlug(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "description", "icon", "display_order", "is_active"}).
		AddRow("cat-1", "Admissions", "admissions", "", "fas fa-graduation-cap", 2, true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, slug, description, icon, display_order, is_active FROM document_categories WHERE slug = $1")).
		WithArgs("admissions").
		WillReturnRows(rows)

	category, err := repo.FindBySlug(context.Background(), "admissions")
	require.NoError(t, err)
	assert.Equal(t, "Admissions", category.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteEmptySucceedsWithoutDocuments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM document_categories WHERE slug = $1 FOR UPDATE")).
		WithArgs("exam-papers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cat-5"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE category_id = $1")).
		WithArgs("cat-5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM document_categories WHERE id = $1")).
		WithArgs("cat-5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteEmpty(context.Background(), "exam-papers"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteEmptyBlockedByDocuments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM document_categories WHERE slug = $1 FOR UPDATE")).
		WithArgs("admissions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cat-2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE category_id = $1")).
		WithArgs("cat-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.DeleteEmpty(context.Background(), "admissions")
	var notEmpty *CategoryNotEmptyError
	require.ErrorAs(t, err, &notEmpty)
	assert.Equal(t, 3, notEmpty.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteEmptyForeignKeyBackstop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM document_categories WHERE slug = $1 FOR UPDATE")).
		WithArgs("reports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cat-6"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE category_id = $1")).
		WithArgs("cat-6").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM document_categories WHERE id = $1")).
		WithArgs("cat-6").
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.DeleteEmpty(context.Background(), "reports")
	var notEmpty *CategoryNotEmptyError
	require.ErrorAs(t, err, &notEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryGetOrCreateInsertsThenFetches(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectExec("INSERT INTO document_categories").
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"id", "name", "slug", "description", "icon", "display_order", "is_active"}).
		AddRow("cat-1", "Academic Calendar", "academic-calendar", "", "fas fa-calendar-alt", 1, true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, slug, description, icon, display_order, is_active FROM document_categories WHERE slug = $1")).
		WithArgs("academic-calendar").
		WillReturnRows(rows)

	category, err := repo.GetOrCreate(context.Background(), &models.DocumentCategory{
		ID:           "new-id",
		Name:         "Academic Calendar",
		Slug:         "academic-calendar",
		Icon:         "fas fa-calendar-alt",
		DisplayOrder: 1,
		IsActive:     true,
	})
	require.NoError(t, err)
	// The stored row wins over the candidate defaults.
	assert.Equal(t, "cat-1", category.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
