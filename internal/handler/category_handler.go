package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/service"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// CategoryHandler handles document category endpoints.
type CategoryHandler struct {
	service *service.CategoryService
}

// NewCategoryHandler constructs a category handler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List returns all categories.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Get returns a category by slug.
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Create stores a new category.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update edits a category. The slug never changes.
func (h *CategoryHandler) Update(c *gin.Context) {
	var req service.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete removes an empty category.
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RedirectByID sends stable-id links to the current slug address.
func (h *CategoryHandler) RedirectByID(c *gin.Context) {
	slug, err := h.service.ResolveByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusMovedPermanently, "/api/v1/categories/"+slug)
}
