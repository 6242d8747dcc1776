package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjosephms/school-site-api/internal/models"
)

func documentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "slug", "description", "category_id", "file_path", "file_type", "file_size",
		"thumbnail_path", "download_count", "is_active", "requires_login", "created_by", "created_at", "updated_at", "published_date",
	}).AddRow("doc-1", "Form A", "form-a-f47ac10b", "", "cat-2", "documents/2026/03/07/form-a.pdf", "pdf", "1.2 KB",
		"", 0, true, false, nil, now, now, now)
}

func TestDocumentFindBySlug(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE slug = \\$1").
		WithArgs("form-a-f47ac10b").
		WillReturnRows(documentRows())

	document, err := repo.FindBySlug(context.Background(), "form-a-f47ac10b")
	require.NoError(t, err)
	assert.Equal(t, "Form A", document.Title)
	assert.Equal(t, models.FileTypePDF, document.FileType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentListActiveByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY published_date DESC, title")).
		WithArgs("cat-2").
		WillReturnRows(documentRows())

	documents, err := repo.ListActiveByCategory(context.Background(), "cat-2")
	require.NoError(t, err)
	assert.Len(t, documents, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIncrementDownloadIsSingleStatement(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET download_count = download_count + 1 WHERE slug = $1 RETURNING download_count")).
		WithArgs("form-a-f47ac10b").
		WillReturnRows(sqlmock.NewRows([]string{"download_count"}).AddRow(8))

	count, err := repo.IncrementDownload(context.Background(), "form-a-f47ac10b")
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentIncrementDownloadMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("UPDATE documents SET download_count").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.IncrementDownload(context.Background(), "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentDeleteReportsMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE slug = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	err := repo.Create(context.Background(), &models.Document{
		ID:            "doc-1",
		Title:         "Form A",
		Slug:          "form-a-f47ac10b",
		CategoryID:    "cat-2",
		FilePath:      "documents/2026/03/07/form-a.pdf",
		FileType:      models.FileTypePDF,
		FileSize:      "1.2 KB",
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
		PublishedDate: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
