package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stjosephms/school-site-api/internal/models"
)

// DocumentRepository provides persistence for downloadable documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, title, slug, description, category_id, file_path, file_type, file_size,
thumbnail_path, download_count, is_active, requires_login, created_by, created_at, updated_at, published_date`

// List returns every document, newest publication first.
func (r *DocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents ORDER BY published_date DESC, title", documentColumns)
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// ListActiveByCategory returns the active documents in a category,
// ordered by publication date with title as the stable tiebreak.
func (r *DocumentRepository) ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE category_id = $1 AND is_active = TRUE
ORDER BY published_date DESC, title`, documentColumns)
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, categoryID); err != nil {
		return nil, fmt.Errorf("list category documents: %w", err)
	}
	return documents, nil
}

// FindBySlug returns a document by its slug.
func (r *DocumentRepository) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE slug = $1", documentColumns)
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, slug); err != nil {
		return nil, err
	}
	return &document, nil
}

// FindByID returns a document by its stable identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, id); err != nil {
		return nil, err
	}
	return &document, nil
}

// SlugExists reports whether a slug is already taken.
func (r *DocumentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM documents WHERE slug = $1)", slug); err != nil {
		return false, fmt.Errorf("check document slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new document.
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	query := `INSERT INTO documents (id, title, slug, description, category_id, file_path, file_type, file_size,
thumbnail_path, download_count, is_active, requires_login, created_by, created_at, updated_at, published_date)
VALUES (:id, :title, :slug, :description, :category_id, :file_path, :file_type, :file_size,
:thumbnail_path, :download_count, :is_active, :requires_login, :created_by, :created_at, :updated_at, :published_date)`
	if _, err := r.db.NamedExecContext(ctx, query, document); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Update modifies a document's mutable fields. The slug and the download
// counter are never written here.
func (r *DocumentRepository) Update(ctx context.Context, document *models.Document) error {
	document.UpdatedAt = time.Now().UTC()
	query := `UPDATE documents SET title = :title, description = :description, category_id = :category_id,
file_path = :file_path, file_type = :file_type, file_size = :file_size, thumbnail_path = :thumbnail_path,
is_active = :is_active, requires_login = :requires_login, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, document)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document. Documents carry no ownership guard.
func (r *DocumentRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE slug = $1", slug)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementDownload bumps the download counter in a single atomic
// statement and returns the new count. Concurrent downloads each get
// their own increment; nothing else may write this column.
func (r *DocumentRepository) IncrementDownload(ctx context.Context, slug string) (int, error) {
	var count int
	query := "UPDATE documents SET download_count = download_count + 1 WHERE slug = $1 RETURNING download_count"
	if err := r.db.GetContext(ctx, &count, query, slug); err != nil {
		return 0, err
	}
	return count, nil
}
