package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/repository"
	"github.com/stjosephms/school-site-api/internal/slug"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

// homeFeedSize is the number of news items on the public landing page.
const homeFeedSize = 7

const homeFeedCacheKey = "page:home:news"

type newsRepository interface {
	ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error)
	Latest(ctx context.Context, limit int) ([]models.News, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.News, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, item *models.News) error
}

type pageCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CreateNewsRequest describes payload for publishing news.
type CreateNewsRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Content     string          `json:"content" validate:"required"`
	NewsType    models.NewsType `json:"news_type"`
	ImagePath   string          `json:"image_path"`
	IsPublished *bool           `json:"is_published"`
}

// NewsService orchestrates news publishing and the cached home feed.
type NewsService struct {
	repo      newsRepository
	cache     pageCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsService creates a new news service instance.
func NewNewsService(repo newsRepository, cache pageCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// HomeFeed returns the latest published news, served from cache when warm.
func (s *NewsService) HomeFeed(ctx context.Context) ([]models.News, error) {
	if s.cache != nil {
		var cached []models.News
		if err := s.cache.Get(ctx, homeFeedCacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("home feed cache read failed", zap.Error(err))
		}
	}

	items, err := s.repo.Latest(ctx, homeFeedSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load home feed")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, homeFeedCacheKey, items, s.cacheTTL); err != nil {
			s.logger.Warn("home feed cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// List returns published news with an optional type filter.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error) {
	if filter.Type != "" && !models.ValidNewsType(filter.Type) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown news type")
	}
	items, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a published news item by slug.
func (s *NewsService) Get(ctx context.Context, slugValue string) (*models.News, error) {
	item, err := s.repo.FindPublishedBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load news")
	}
	return item, nil
}

// Create publishes a news item attributed to the posting staff member.
func (s *NewsService) Create(ctx context.Context, req CreateNewsRequest, creatorID string) (*models.News, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}
	newsType := req.NewsType
	if newsType == "" {
		newsType = models.NewsGeneral
	}
	if !models.ValidNewsType(newsType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown news type")
	}

	id := uuid.NewString()
	slugValue, err := slug.Generate(ctx, req.Title, id, s.repo.SlugExists)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive news slug")
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}
	var creator *string
	if creatorID != "" {
		creator = &creatorID
	}

	now := time.Now().UTC()
	item := &models.News{
		ID:          id,
		Title:       req.Title,
		Slug:        slugValue,
		Content:     req.Content,
		NewsType:    newsType,
		ImagePath:   req.ImagePath,
		IsPublished: published,
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "news slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create news")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, homeFeedCacheKey); err != nil {
			s.logger.Warn("home feed cache invalidation failed", zap.Error(err))
		}
	}
	return item, nil
}
