package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stjosephms/school-site-api/internal/models"
)

const pgUniqueViolation = "23505"
const pgForeignKeyViolation = "23503"

// IsUniqueViolation reports whether the error is a PostgreSQL unique
// constraint failure. The unique index on slugs is the final authority
// for slug uniqueness under concurrent creates.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation
}

// CategoryNotEmptyError blocks deletion of a category that still owns
// documents.
type CategoryNotEmptyError struct {
	Count int
}

func (e *CategoryNotEmptyError) Error() string {
	return fmt.Sprintf("category still contains %d document(s)", e.Count)
}

// CategoryRepository provides persistence for document categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = "id, name, slug, description, icon, display_order, is_active"

// List returns all categories ordered for display.
func (r *CategoryRepository) List(ctx context.Context) ([]models.DocumentCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM document_categories ORDER BY display_order, name", categoryColumns)
	var categories []models.DocumentCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindBySlug returns a category by its slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM document_categories WHERE slug = $1", categoryColumns)
	var category models.DocumentCategory
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByID returns a category by its stable identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.DocumentCategory, error) {
	query := fmt.Sprintf("SELECT %s FROM document_categories WHERE id = $1", categoryColumns)
	var category models.DocumentCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugExists reports whether a slug is already taken.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM document_categories WHERE slug = $1)", slug); err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.DocumentCategory) error {
	query := `INSERT INTO document_categories (id, name, slug, description, icon, display_order, is_active)
VALUES (:id, :name, :slug, :description, :icon, :display_order, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies the mutable attributes of a category. The slug is
// never rewritten.
func (r *CategoryRepository) Update(ctx context.Context, category *models.DocumentCategory) error {
	query := `UPDATE document_categories SET name = :name, description = :description, icon = :icon,
display_order = :display_order, is_active = :is_active
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteEmpty removes the category only when it owns no documents. The
// count check and the delete run in one transaction, and the foreign key
// RESTRICT on documents.category_id backstops the check against a
// concurrent document create.
func (r *CategoryRepository) DeleteEmpty(ctx context.Context, slug string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id string
	if err := tx.GetContext(ctx, &id, "SELECT id FROM document_categories WHERE slug = $1 FOR UPDATE", slug); err != nil {
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM documents WHERE category_id = $1", id); err != nil {
		return fmt.Errorf("count category documents: %w", err)
	}
	if count > 0 {
		return &CategoryNotEmptyError{Count: count}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_categories WHERE id = $1", id); err != nil {
		if isForeignKeyViolation(err) {
			// A document slipped in after the count; report it the
			// same way as the pre-check.
			return &CategoryNotEmptyError{Count: 1}
		}
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

// GetOrCreate fetches the category with the given slug, inserting it
// with the provided defaults when absent. The insert-if-absent runs at
// the storage layer so concurrent first visits cannot race.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, category *models.DocumentCategory) (*models.DocumentCategory, error) {
	query := `INSERT INTO document_categories (id, name, slug, description, icon, display_order, is_active)
VALUES (:id, :name, :slug, :description, :icon, :display_order, :is_active)
ON CONFLICT (slug) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return nil, fmt.Errorf("bootstrap category: %w", err)
	}
	return r.FindBySlug(ctx, category.Slug)
}
