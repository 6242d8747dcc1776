package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Named areas under the media base directory. Documents additionally get
// a date partition below their area.
const (
	AreaDocuments      = "documents"
	AreaThumbnails     = "document_thumbnails"
	AreaNewsImages     = "news_images"
	AreaTeamImages     = "team_images"
	AreaFacilityImages = "facility_images"
)

// MediaStore persists uploaded blobs on disk under a base directory,
// addressed by relative path.
type MediaStore struct {
	baseDir string
}

// NewMediaStore ensures the base directory exists and returns a handle.
func NewMediaStore(baseDir string) (*MediaStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &MediaStore{baseDir: baseDir}, nil
}

// DocumentPath builds the date-partitioned relative path for a document
// upload, e.g. documents/2026/08/28/handbook.pdf.
func DocumentPath(filename string, now time.Time) string {
	return filepath.ToSlash(filepath.Join(AreaDocuments, now.Format("2006/01/02"), sanitize(filename)))
}

// AreaPath builds a relative path inside one of the flat named areas.
func AreaPath(area, filename string) string {
	return filepath.ToSlash(filepath.Join(area, sanitize(filename)))
}

// SaveStream copies from reader into the target relative path. When the
// name is already taken the stored name gets a numeric suffix, so two
// uploads can never clobber each other's bytes; the returned relative
// path is the one actually written and must be the one persisted.
func (s *MediaStore) SaveStream(relPath string, r io.Reader) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.resolve(relPath)), 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	file, actual, err := s.createExclusive(relPath)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write media stream: %w", err)
	}
	return actual, nil
}

// createExclusive opens a fresh file, trying name_1, name_2, … while
// the candidate exists. O_EXCL makes the claim atomic under concurrent
// uploads of the same filename.
func (s *MediaStore) createExclusive(relPath string) (*os.File, string, error) {
	ext := filepath.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)
	candidate := relPath
	for i := 1; ; i++ {
		file, err := os.OpenFile(s.resolve(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create media file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

// Open returns a read-only handle for a stored blob.
func (s *MediaStore) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return file, nil
}

// Delete removes a stored blob if present.
func (s *MediaStore) Delete(relPath string) error {
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

func (s *MediaStore) resolve(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(s.baseDir, relPath)
}

// sanitize strips any directory component from an uploaded filename.
func sanitize(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == string(filepath.Separator) {
		return "upload"
	}
	return filename
}
