package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/service"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// AboutHandler serves the team roster and facilities.
type AboutHandler struct {
	service *service.AboutService
}

// NewAboutHandler constructs an about handler.
func NewAboutHandler(svc *service.AboutService) *AboutHandler {
	return &AboutHandler{service: svc}
}

// Team returns the active team roster in display order.
func (h *AboutHandler) Team(c *gin.Context) {
	members, err := h.service.Team(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Facilities returns all facilities.
func (h *AboutHandler) Facilities(c *gin.Context) {
	facilities, err := h.service.Facilities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if facilities == nil {
		facilities = []models.Facility{}
	}
	response.JSON(c, http.StatusOK, facilities, nil)
}
