package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/service"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// NewsHandler handles news endpoints.
type NewsHandler struct {
	service *service.NewsService
}

// NewNewsHandler constructs a news handler.
func NewNewsHandler(svc *service.NewsService) *NewsHandler {
	return &NewsHandler{service: svc}
}

// Home returns the cached landing-page feed.
func (h *NewsHandler) Home(c *gin.Context) {
	items, err := h.service.HomeFeed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.News{}
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// List returns published news with an optional type filter.
func (h *NewsHandler) List(c *gin.Context) {
	var filter models.NewsFilter
	filter.Type = models.NewsType(c.Query("type"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get returns a published news item by slug.
func (h *NewsHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create publishes a news item.
func (h *NewsHandler) Create(c *gin.Context) {
	var req service.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	var creatorID string
	if claims := claimsFromContext(c); claims != nil {
		creatorID = claims.UserID
	}
	item, err := h.service.Create(c.Request.Context(), req, creatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}
