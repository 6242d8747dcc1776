package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/service"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/response"
	"github.com/stjosephms/school-site-api/pkg/storage"
)

// DocumentHandler handles document endpoints, including the accounted
// download path.
type DocumentHandler struct {
	service   *service.DocumentService
	media     *storage.MediaStore
	loginPath string
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(svc *service.DocumentService, media *storage.MediaStore, loginPath string) *DocumentHandler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &DocumentHandler{service: svc, media: media, loginPath: loginPath}
}

// List returns all documents for the back-office.
func (h *DocumentHandler) List(c *gin.Context) {
	documents, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, nil)
}

// Get returns a document by slug.
func (h *DocumentHandler) Get(c *gin.Context) {
	document, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, document, nil)
}

// Create accepts a multipart upload and stores the document.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	upload, err := formUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	thumbnail, err := optionalFormUpload(c, "thumbnail")
	if err != nil {
		response.Error(c, err)
		return
	}

	var creatorID string
	if claims := claimsFromContext(c); claims != nil {
		creatorID = claims.UserID
	}

	document, err := h.service.Create(c.Request.Context(), req, *upload, thumbnail, creatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, document)
}

// Update edits a document. A replacement file is optional.
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	upload, err := optionalFormUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	thumbnail, err := optionalFormUpload(c, "thumbnail")
	if err != nil {
		response.Error(c, err)
		return
	}

	document, err := h.service.Update(c.Request.Context(), c.Param("slug"), req, upload, thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, document, nil)
}

// Delete removes a document and its stored file.
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download serves the file as an attachment and bumps the counter.
// Login-required documents redirect anonymous callers to the login page
// with the original path in the next parameter.
func (h *DocumentHandler) Download(c *gin.Context) {
	authenticated := claimsFromContext(c) != nil

	document, err := h.service.Download(c.Request.Context(), c.Param("slug"), authenticated)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusUnauthorized {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, fmt.Sprintf("%s?next=%s", h.loginPath, next))
			return
		}
		response.Error(c, err)
		return
	}

	file, err := h.media.Open(document.FilePath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored file unavailable"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored file unavailable"))
		return
	}

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", document.Filename()),
	}
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, headers)
}

// RedirectByID sends stable-id links to the current slug address.
func (h *DocumentHandler) RedirectByID(c *gin.Context) {
	slug, err := h.service.ResolveByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusMovedPermanently, "/api/v1/documents/"+slug)
}

func formUpload(c *gin.Context, field string) (*service.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a file is required")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	// The service consumes the reader within this request; gin closes
	// multipart temp files when the request ends.
	return &service.Upload{Filename: header.Filename, Size: header.Size, Reader: file}, nil
}

// optionalFormUpload returns nil when the field is absent.
func optionalFormUpload(c *gin.Context, field string) (*service.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil || header == nil {
		return nil, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	return &service.Upload{Filename: header.Filename, Size: header.Size, Reader: file}, nil
}
