package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjosephms/school-site-api/internal/models"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

type documentRepoStub struct {
	mu     sync.Mutex
	bySlug map[string]*models.Document
}

func newDocumentRepoStub() *documentRepoStub {
	return &documentRepoStub{bySlug: map[string]*models.Document{}}
}

func (s *documentRepoStub) List(ctx context.Context) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, 0, len(s.bySlug))
	for _, d := range s.bySlug {
		out = append(out, *d)
	}
	return out, nil
}

func (s *documentRepoStub) ListActiveByCategory(ctx context.Context, categoryID string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, d := range s.bySlug {
		if d.CategoryID == categoryID && d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *documentRepoStub) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bySlug[slug]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *documentRepoStub) FindByID(ctx context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.bySlug {
		if d.ID == id {
			copied := *d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *documentRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *documentRepoStub) Create(ctx context.Context, document *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *document
	s.bySlug[document.Slug] = &copied
	return nil
}

func (s *documentRepoStub) Update(ctx context.Context, document *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bySlug[document.Slug]
	if !ok {
		return sql.ErrNoRows
	}
	copied := *document
	copied.Slug = stored.Slug
	copied.DownloadCount = stored.DownloadCount
	s.bySlug[stored.Slug] = &copied
	return nil
}

func (s *documentRepoStub) Delete(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySlug[slug]; !ok {
		return sql.ErrNoRows
	}
	delete(s.bySlug, slug)
	return nil
}

func (s *documentRepoStub) IncrementDownload(ctx context.Context, slug string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bySlug[slug]
	if !ok {
		return 0, sql.ErrNoRows
	}
	d.DownloadCount++
	return d.DownloadCount, nil
}

type categoryResolverStub struct {
	category *models.DocumentCategory
}

func (s *categoryResolverStub) FindBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error) {
	if s.category != nil && s.category.Slug == slug {
		return s.category, nil
	}
	return nil, sql.ErrNoRows
}

func (s *categoryResolverStub) FindByID(ctx context.Context, id string) (*models.DocumentCategory, error) {
	if s.category != nil && s.category.ID == id {
		return s.category, nil
	}
	return nil, sql.ErrNoRows
}

type blobStoreStub struct {
	saved   []string
	deleted []string
}

func (s *blobStoreStub) SaveStream(relPath string, r io.Reader) (string, error) {
	s.saved = append(s.saved, relPath)
	return relPath, nil
}

func (s *blobStoreStub) Delete(relPath string) error {
	s.deleted = append(s.deleted, relPath)
	return nil
}

type downloadMetricsStub struct {
	mu        sync.Mutex
	fileTypes []string
}

func (s *downloadMetricsStub) RecordDownload(fileType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileTypes = append(s.fileTypes, fileType)
}

func newDocumentFixture(t *testing.T) (*DocumentService, *documentRepoStub, *blobStoreStub, *downloadMetricsStub) {
	t.Helper()
	repo := newDocumentRepoStub()
	blobs := &blobStoreStub{}
	metrics := &downloadMetricsStub{}
	resolver := &categoryResolverStub{category: &models.DocumentCategory{
		ID:   "5f6d1f63-2c85-4ce0-b979-9f6f0e3f1a11",
		Name: "Exam Papers",
		Slug: "exam-papers-5f6d1f63",
	}}
	svc := NewDocumentService(repo, resolver, blobs, metrics, nil, nil, 1024*1024)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return svc, repo, blobs, metrics
}

func createDocument(t *testing.T, svc *DocumentService, title, filename string, size int64, requiresLogin bool) *models.Document {
	t.Helper()
	document, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:         title,
		CategorySlug:  "exam-papers-5f6d1f63",
		RequiresLogin: requiresLogin,
	}, Upload{Filename: filename, Size: size, Reader: strings.NewReader("content")}, nil, "")
	require.NoError(t, err)
	return document
}

func TestDocumentCreateDerivesFileMetadata(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)

	document := createDocument(t, svc, "Term 1 Timetable", "Timetable.PDF", 1228, false)

	assert.Equal(t, models.FileTypePDF, document.FileType)
	assert.Equal(t, "1.2 KB", document.FileSize)
	assert.True(t, strings.HasPrefix(document.Slug, "term-1-timetable-"), "slug %q", document.Slug)
	assert.Equal(t, document.ID[:8], document.Slug[len("term-1-timetable-"):])
	assert.Equal(t, 0, document.DownloadCount)
	require.Len(t, blobs.saved, 1)
	assert.Equal(t, "documents/2026/03/14/Timetable.PDF", blobs.saved[0])
}

func TestDocumentCreateRejectsDisallowedExtension(t *testing.T) {
	svc, repo, blobs, _ := newDocumentFixture(t)

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Setup",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "setup.exe", Size: 100, Reader: strings.NewReader("x")}, nil, "")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, blobs.saved, "nothing should reach storage")
	assert.Empty(t, repo.bySlug)
}

func TestDocumentCreateRejectsOversizedUpload(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Huge",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "huge.zip", Size: 2 * 1024 * 1024, Reader: strings.NewReader("x")}, nil, "")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, blobs.saved)
}

func TestDocumentCreateRejectsUnknownCategory(t *testing.T) {
	svc, _, _, _ := newDocumentFixture(t)

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Orphan",
		CategorySlug: "does-not-exist",
	}, Upload{Filename: "orphan.pdf", Size: 100, Reader: strings.NewReader("x")}, nil, "")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDocumentCreateStoresOptionalThumbnail(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)

	document, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Prospectus",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "prospectus.pdf", Size: 2048, Reader: strings.NewReader("x")},
		&Upload{Filename: "cover.png", Size: 512, Reader: strings.NewReader("png")}, "")
	require.NoError(t, err)

	assert.Equal(t, "document_thumbnails/cover.png", document.ThumbnailPath)
	assert.Contains(t, blobs.saved, "document_thumbnails/cover.png")
}

func TestDocumentCreateRejectsNonImageThumbnail(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Prospectus",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "prospectus.pdf", Size: 2048, Reader: strings.NewReader("x")},
		&Upload{Filename: "cover.zip", Size: 512, Reader: strings.NewReader("zip")}, "")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	// The already stored document blob is discarded again.
	require.Len(t, blobs.saved, 1)
	assert.Equal(t, blobs.saved, blobs.deleted)
}

func TestDocumentUpdateReplacesThumbnail(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)

	document, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Prospectus",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "prospectus.pdf", Size: 2048, Reader: strings.NewReader("x")},
		&Upload{Filename: "cover.png", Size: 512, Reader: strings.NewReader("png")}, "")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), document.Slug, UpdateDocumentRequest{}, nil,
		&Upload{Filename: "cover-2026.jpg", Size: 512, Reader: strings.NewReader("jpg")})
	require.NoError(t, err)

	assert.Equal(t, "document_thumbnails/cover-2026.jpg", updated.ThumbnailPath)
	assert.Contains(t, blobs.deleted, "document_thumbnails/cover.png")
}

func TestDocumentUpdateKeepsFileFieldsWithoutNewUpload(t *testing.T) {
	svc, _, _, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Policy Handbook", "handbook.pdf", 2048, false)

	newTitle := "Policy Handbook 2026"
	updated, err := svc.Update(context.Background(), document.Slug, UpdateDocumentRequest{Title: &newTitle}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Policy Handbook 2026", updated.Title)
	assert.Equal(t, document.Slug, updated.Slug)
	assert.Equal(t, document.FilePath, updated.FilePath)
	assert.Equal(t, models.FileTypePDF, updated.FileType)
	assert.Equal(t, "2.0 KB", updated.FileSize)
}

func TestDocumentUpdateRederivesFileFieldsOnReplacement(t *testing.T) {
	svc, _, blobs, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Fee Schedule", "fees.pdf", 2048, false)

	updated, err := svc.Update(context.Background(), document.Slug, UpdateDocumentRequest{},
		&Upload{Filename: "fees.xlsx", Size: 5 * 1024 * 1024 / 5, Reader: strings.NewReader("x")}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.FileTypeXlsx, updated.FileType)
	assert.Equal(t, "1.0 MB", updated.FileSize)
	assert.NotEqual(t, document.FilePath, updated.FilePath)
	assert.Equal(t, document.Slug, updated.Slug)
	require.Len(t, blobs.saved, 2)
}

func TestDocumentDownloadIncrementsCounter(t *testing.T) {
	svc, _, _, metrics := newDocumentFixture(t)
	document := createDocument(t, svc, "Newsletter", "news.pdf", 512, false)

	first, err := svc.Download(context.Background(), document.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DownloadCount)

	second, err := svc.Download(context.Background(), document.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, 2, second.DownloadCount)

	assert.Equal(t, []string{"pdf", "pdf"}, metrics.fileTypes)
}

func TestDocumentDownloadGatedDeniesAnonymous(t *testing.T) {
	svc, repo, _, metrics := newDocumentFixture(t)
	document := createDocument(t, svc, "Exam Paper", "exam.pdf", 512, true)

	_, err := svc.Download(context.Background(), document.Slug, false)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)

	// The denied attempt must not move the counter or the metrics.
	assert.Equal(t, 0, repo.bySlug[document.Slug].DownloadCount)
	assert.Empty(t, metrics.fileTypes)

	granted, err := svc.Download(context.Background(), document.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, 1, granted.DownloadCount)
}

func TestDocumentDownloadInactiveLooksMissing(t *testing.T) {
	svc, repo, _, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Old Form", "old.pdf", 512, false)
	repo.bySlug[document.Slug].IsActive = false

	_, err := svc.Download(context.Background(), document.Slug, true)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDocumentDownloadConcurrentCounts(t *testing.T) {
	svc, repo, _, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Calendar", "calendar.pdf", 512, false)

	const preset = 5
	repo.bySlug[document.Slug].DownloadCount = preset

	const workers = 40
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Download(context.Background(), document.Slug, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, preset+workers, repo.bySlug[document.Slug].DownloadCount)
}

func TestDocumentDeleteRemovesBlob(t *testing.T) {
	svc, repo, blobs, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Old Notice", "notice.pdf", 512, false)

	require.NoError(t, svc.Delete(context.Background(), document.Slug))
	assert.Empty(t, repo.bySlug)
	require.Len(t, blobs.deleted, 1)
	assert.Equal(t, document.FilePath, blobs.deleted[0])
}

func TestDocumentCreateCleansUpBlobOnConflict(t *testing.T) {
	svc, repo, blobs, _ := newDocumentFixture(t)
	conflictRepo := &conflictOnCreateRepo{documentRepoStub: repo}
	svc.repo = conflictRepo

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		Title:        "Dup",
		CategorySlug: "exam-papers-5f6d1f63",
	}, Upload{Filename: "dup.pdf", Size: 100, Reader: strings.NewReader("x")}, nil, "")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Len(t, blobs.deleted, 1, "orphaned blob should be removed")
}

type conflictOnCreateRepo struct {
	*documentRepoStub
}

func (s *conflictOnCreateRepo) Create(ctx context.Context, document *models.Document) error {
	return &pq.Error{Code: "23505"}
}

func TestDocumentResolveByID(t *testing.T) {
	svc, _, _, _ := newDocumentFixture(t)
	document := createDocument(t, svc, "Timetable", "tt.pdf", 100, false)

	slug, err := svc.ResolveByID(context.Background(), document.ID)
	require.NoError(t, err)
	assert.Equal(t, document.Slug, slug)

	_, err = svc.ResolveByID(context.Background(), "missing")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
