package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stjosephms/school-site-api/internal/models"
)

// NewsRepository provides persistence for news items.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository creates the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

const newsColumns = "id, title, slug, content, news_type, image_path, is_published, created_by, created_at, updated_at"

// ListPublished returns published news, newest first, optionally
// filtered by type.
func (r *NewsRepository) ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	where := "is_published = TRUE"
	args := []interface{}{}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND news_type = $%d", len(args)+1)
		args = append(args, string(filter.Type))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM news WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		newsColumns, where, size, offset)
	var items []models.News
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM news WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	return items, total, nil
}

// Latest returns the newest published news items for the home feed.
func (r *NewsRepository) Latest(ctx context.Context, limit int) ([]models.News, error) {
	query := fmt.Sprintf("SELECT %s FROM news WHERE is_published = TRUE ORDER BY created_at DESC LIMIT %d", newsColumns, limit)
	var items []models.News
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("latest news: %w", err)
	}
	return items, nil
}

// FindPublishedBySlug returns a published news item by slug.
func (r *NewsRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.News, error) {
	query := fmt.Sprintf("SELECT %s FROM news WHERE slug = $1 AND is_published = TRUE", newsColumns)
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, slug); err != nil {
		return nil, err
	}
	return &item, nil
}

// SlugExists reports whether a news slug is already taken.
func (r *NewsRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM news WHERE slug = $1)", slug); err != nil {
		return false, fmt.Errorf("check news slug: %w", err)
	}
	return exists, nil
}

// Create inserts a news item.
func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	query := `INSERT INTO news (id, title, slug, content, news_type, image_path, is_published, created_by, created_at, updated_at)
VALUES (:id, :title, :slug, :content, :news_type, :image_path, :is_published, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}
