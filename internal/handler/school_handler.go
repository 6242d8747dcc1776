package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/service"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// SchoolHandler serves the school profile.
type SchoolHandler struct {
	service *service.SchoolInfoService
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(svc *service.SchoolInfoService) *SchoolHandler {
	return &SchoolHandler{service: svc}
}

// Get returns the school profile.
func (h *SchoolHandler) Get(c *gin.Context) {
	info, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Update saves the school profile.
func (h *SchoolHandler) Update(c *gin.Context) {
	var req service.UpdateSchoolInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	info, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
