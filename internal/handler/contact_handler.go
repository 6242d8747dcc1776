package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/service"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
	"github.com/stjosephms/school-site-api/pkg/response"
)

// ContactHandler serves the contact page and message triage.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

// Info returns the published contact details.
func (h *ContactHandler) Info(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Submit accepts a message from the public contact form.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req service.SubmitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// ListMessages returns messages for staff triage.
func (h *ContactHandler) ListMessages(c *gin.Context) {
	messages, err := h.service.ListMessages(c.Request.Context(), models.ContactStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	if messages == nil {
		messages = []models.ContactMessage{}
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// UpdateMessageStatus transitions a message through triage.
func (h *ContactHandler) UpdateMessageStatus(c *gin.Context) {
	var req service.UpdateContactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
