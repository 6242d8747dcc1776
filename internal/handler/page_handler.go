package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/service"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// PageHandler backs the fixed public category pages, e.g. the academic
// calendar or exam papers listing.
type PageHandler struct {
	service *service.CategoryService
}

// NewPageHandler constructs a page handler.
func NewPageHandler(svc *service.CategoryService) *PageHandler {
	return &PageHandler{service: svc}
}

type categoryPage struct {
	Category  *models.DocumentCategory `json:"category"`
	Documents []models.Document        `json:"documents"`
}

// Show bootstraps the page's category when missing and lists its active
// documents.
func (h *PageHandler) Show(c *gin.Context) {
	h.render(c, c.Param("slug"))
}

// ShowNamed binds a fixed top-level URL to one well-known page.
func (h *PageHandler) ShowNamed(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.render(c, slug)
	}
}

func (h *PageHandler) render(c *gin.Context, slug string) {
	category, documents, err := h.service.WellKnownPage(c.Request.Context(), slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}
	response.JSON(c, http.StatusOK, categoryPage{Category: category, Documents: documents}, nil)
}
