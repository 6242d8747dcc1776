package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileType enumerates the accepted document formats.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDoc  FileType = "doc"
	FileTypeDocx FileType = "docx"
	FileTypeXls  FileType = "xls"
	FileTypeXlsx FileType = "xlsx"
	FileTypeZip  FileType = "zip"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
)

// allowedExtensions maps upload extensions to their canonical file type.
// "jpeg" normalises to "jpg".
var allowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"doc":  FileTypeDoc,
	"docx": FileTypeDocx,
	"xls":  FileTypeXls,
	"xlsx": FileTypeXlsx,
	"zip":  FileTypeZip,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// FileTypeFromName derives the canonical file type from a filename.
// Matching is case-insensitive. The second return value is false when the
// extension is not in the allowed set.
func FileTypeFromName(filename string) (FileType, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ft, ok := allowedExtensions[ext]
	return ft, ok
}

// HumanFileSize renders a byte count using the site's display thresholds:
// below 1 KiB in bytes, below 1 MiB in KB with one decimal, otherwise MB.
func HumanFileSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}

// IconClass maps a file type to its Font Awesome icon.
func (t FileType) IconClass() string {
	switch t {
	case FileTypePDF:
		return "fas fa-file-pdf text-danger"
	case FileTypeDoc, FileTypeDocx:
		return "fas fa-file-word text-primary"
	case FileTypeXls, FileTypeXlsx:
		return "fas fa-file-excel text-success"
	case FileTypeZip:
		return "fas fa-file-archive text-warning"
	case FileTypeJPG, FileTypePNG:
		return "fas fa-file-image text-info"
	default:
		return "fas fa-file"
	}
}

// DocumentCategory groups downloadable documents.
type DocumentCategory struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Slug         string `db:"slug" json:"slug"`
	Description  string `db:"description" json:"description"`
	Icon         string `db:"icon" json:"icon"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

// CategoryDefaults seeds a well-known category on first access.
type CategoryDefaults struct {
	Name         string
	Icon         string
	DisplayOrder int
	IsActive     bool
}

// Document is a downloadable file published on the site.
type Document struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Slug          string    `db:"slug" json:"slug"`
	Description   string    `db:"description" json:"description"`
	CategoryID    string    `db:"category_id" json:"category_id"`
	FilePath      string    `db:"file_path" json:"file_path"`
	FileType      FileType  `db:"file_type" json:"file_type"`
	FileSize      string    `db:"file_size" json:"file_size"`
	ThumbnailPath string    `db:"thumbnail_path" json:"thumbnail_path,omitempty"`
	DownloadCount int       `db:"download_count" json:"download_count"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	RequiresLogin bool      `db:"requires_login" json:"requires_login"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	PublishedDate time.Time `db:"published_date" json:"published_date"`
}

// Filename returns the last path segment of the stored file, used for the
// attachment disposition header.
func (d *Document) Filename() string {
	if d.FilePath == "" {
		return d.Slug
	}
	parts := strings.Split(d.FilePath, "/")
	return parts[len(parts)-1]
}
