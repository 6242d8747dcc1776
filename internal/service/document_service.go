package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/repository"
	"github.com/stjosephms/school-site-api/internal/slug"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/storage"
)

type documentRepository interface {
	List(ctx context.Context) ([]models.Document, error)
	ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error)
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, document *models.Document) error
	Update(ctx context.Context, document *models.Document) error
	Delete(ctx context.Context, slug string) error
	IncrementDownload(ctx context.Context, slug string) (int, error)
}

type documentCategoryResolver interface {
	FindBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error)
	FindByID(ctx context.Context, id string) (*models.DocumentCategory, error)
}

type blobStore interface {
	SaveStream(relPath string, r io.Reader) (string, error)
	Delete(relPath string) error
}

type downloadMetrics interface {
	RecordDownload(fileType string)
}

// Upload carries an incoming multipart file.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// CreateDocumentRequest describes payload for uploading a document.
type CreateDocumentRequest struct {
	Title         string `form:"title" validate:"required,max=200"`
	Description   string `form:"description"`
	CategorySlug  string `form:"category" validate:"required"`
	RequiresLogin bool   `form:"requires_login"`
	IsActive      *bool  `form:"is_active"`
}

// UpdateDocumentRequest carries a partial update; a nil field is left
// untouched. A replacement file is passed separately.
type UpdateDocumentRequest struct {
	Title         *string `form:"title" validate:"omitempty,max=200"`
	Description   *string `form:"description"`
	CategorySlug  *string `form:"category"`
	RequiresLogin *bool   `form:"requires_login"`
	IsActive      *bool   `form:"is_active"`
}

// DocumentService orchestrates the downloadable document workflows.
type DocumentService struct {
	repo       documentRepository
	categories documentCategoryResolver
	media      blobStore
	metrics    downloadMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	maxBytes   int64
	now        func() time.Time
}

// NewDocumentService creates a new document service instance.
func NewDocumentService(repo documentRepository, categories documentCategoryResolver, media blobStore, metrics downloadMetrics, validate *validator.Validate, logger *zap.Logger, maxBytes int64) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	return &DocumentService{
		repo:       repo,
		categories: categories,
		media:      media,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		maxBytes:   maxBytes,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns every document for the back-office.
func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	documents, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return documents, nil
}

// Get returns a document by slug.
func (s *DocumentService) Get(ctx context.Context, slugValue string) (*models.Document, error) {
	document, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return document, nil
}

// Create validates the upload, derives the file metadata and slug, stores
// the blob and persists the document. The uploader becomes the creator.
// An optional thumbnail image is stored alongside the file.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest, upload Upload, thumbnail *Upload, creatorID string) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	if upload.Reader == nil || upload.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a file is required")
	}
	if upload.Size > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
	}

	fileType, ok := models.FileTypeFromName(upload.Filename)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed: expected pdf, doc, docx, xls, xlsx, zip, jpg or png")
	}

	category, err := s.resolveCategory(ctx, req.CategorySlug)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	slugValue, err := slug.Generate(ctx, req.Title, id, s.repo.SlugExists)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive document slug")
	}

	now := s.now()
	relPath, err := s.media.SaveStream(storage.DocumentPath(upload.Filename, now), upload.Reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	thumbnailPath, err := s.saveThumbnail(thumbnail)
	if err != nil {
		if cleanupErr := s.media.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	var creator *string
	if creatorID != "" {
		creator = &creatorID
	}

	document := &models.Document{
		ID:            id,
		Title:         req.Title,
		Slug:          slugValue,
		Description:   req.Description,
		CategoryID:    category.ID,
		FilePath:      relPath,
		FileType:      fileType,
		FileSize:      models.HumanFileSize(upload.Size),
		ThumbnailPath: thumbnailPath,
		DownloadCount: 0,
		IsActive:      active,
		RequiresLogin: req.RequiresLogin,
		CreatedBy:     creator,
		CreatedAt:     now,
		UpdatedAt:     now,
		PublishedDate: now,
	}

	if err := s.repo.Create(ctx, document); err != nil {
		for _, orphan := range []string{relPath, thumbnailPath} {
			if orphan == "" {
				continue
			}
			if cleanupErr := s.media.Delete(orphan); cleanupErr != nil {
				s.logger.Warn("failed to remove orphaned upload", zap.String("path", orphan), zap.Error(cleanupErr))
			}
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}
	return document, nil
}

// Update edits metadata. File type and size are re-derived only when a
// replacement file is supplied; plain metadata edits never touch them,
// and the slug is never recomputed. A replacement thumbnail discards the
// previous one.
func (s *DocumentService) Update(ctx context.Context, slugValue string, req UpdateDocumentRequest, upload, thumbnail *Upload) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	document, err := s.Get(ctx, slugValue)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		document.Title = *req.Title
	}
	if req.Description != nil {
		document.Description = *req.Description
	}
	if req.CategorySlug != nil {
		category, err := s.resolveCategory(ctx, *req.CategorySlug)
		if err != nil {
			return nil, err
		}
		document.CategoryID = category.ID
	}
	if req.RequiresLogin != nil {
		document.RequiresLogin = *req.RequiresLogin
	}
	if req.IsActive != nil {
		document.IsActive = *req.IsActive
	}

	if upload != nil && upload.Reader != nil && upload.Filename != "" {
		if upload.Size > s.maxBytes {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
		}
		fileType, ok := models.FileTypeFromName(upload.Filename)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed: expected pdf, doc, docx, xls, xlsx, zip, jpg or png")
		}
		relPath, err := s.media.SaveStream(storage.DocumentPath(upload.Filename, s.now()), upload.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
		}
		document.FilePath = relPath
		document.FileType = fileType
		document.FileSize = models.HumanFileSize(upload.Size)
	}

	if thumbnail != nil && thumbnail.Reader != nil && thumbnail.Filename != "" {
		thumbnailPath, err := s.saveThumbnail(thumbnail)
		if err != nil {
			return nil, err
		}
		if previous := document.ThumbnailPath; previous != "" {
			if err := s.media.Delete(previous); err != nil {
				s.logger.Warn("failed to remove replaced thumbnail", zap.String("path", previous), zap.Error(err))
			}
		}
		document.ThumbnailPath = thumbnailPath
	}

	if err := s.repo.Update(ctx, document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document")
	}
	return document, nil
}

// Delete removes a document unconditionally and discards its blob.
func (s *DocumentService) Delete(ctx context.Context, slugValue string) error {
	document, err := s.Get(ctx, slugValue)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, slugValue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.media.Delete(document.FilePath); err != nil {
		s.logger.Warn("failed to remove document file", zap.String("path", document.FilePath), zap.Error(err))
	}
	if document.ThumbnailPath != "" {
		if err := s.media.Delete(document.ThumbnailPath); err != nil {
			s.logger.Warn("failed to remove document thumbnail", zap.String("path", document.ThumbnailPath), zap.Error(err))
		}
	}
	return nil
}

// saveThumbnail stores an optional thumbnail image and returns its
// relative path. Only jpg and png are accepted.
func (s *DocumentService) saveThumbnail(thumbnail *Upload) (string, error) {
	if thumbnail == nil || thumbnail.Reader == nil || thumbnail.Filename == "" {
		return "", nil
	}
	if thumbnail.Size > s.maxBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("thumbnail exceeds the %d byte limit", s.maxBytes))
	}
	fileType, ok := models.FileTypeFromName(thumbnail.Filename)
	if !ok || (fileType != models.FileTypeJPG && fileType != models.FileTypePNG) {
		return "", appErrors.Clone(appErrors.ErrValidation, "thumbnail must be a jpg or png image")
	}
	relPath, err := s.media.SaveStream(storage.AreaPath(storage.AreaThumbnails, thumbnail.Filename), thumbnail.Reader)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store thumbnail")
	}
	return relPath, nil
}

// ListActiveByCategory returns the active documents of a category.
func (s *DocumentService) ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error) {
	documents, err := s.repo.ListActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return documents, nil
}

// Download authorises and accounts a retrieval. Gated documents require
// an authenticated caller; the counter moves only after the gate passes.
func (s *DocumentService) Download(ctx context.Context, slugValue string, authenticated bool) (*models.Document, error) {
	document, err := s.Get(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	if !document.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	if document.RequiresLogin && !authenticated {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required to download this document")
	}

	count, err := s.repo.IncrementDownload(ctx, slugValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count download")
	}
	document.DownloadCount = count

	if s.metrics != nil {
		s.metrics.RecordDownload(string(document.FileType))
	}
	return document, nil
}

// ResolveByID maps a stable identifier to the current slug, for
// legacy-link redirection. It never mutates the record.
func (s *DocumentService) ResolveByID(ctx context.Context, id string) (string, error) {
	document, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve document")
	}
	return document.Slug, nil
}

func (s *DocumentService) resolveCategory(ctx context.Context, slugOrID string) (*models.DocumentCategory, error) {
	category, err := s.categories.FindBySlug(ctx, slugOrID)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if _, parseErr := uuid.Parse(slugOrID); parseErr == nil {
		category, err = s.categories.FindByID(ctx, slugOrID)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "category does not exist")
}
