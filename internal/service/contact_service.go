package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stjosephms/school-site-api/internal/models"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

type contactRepository interface {
	Info(ctx context.Context) (*models.ContactInfo, error)
	CreateMessage(ctx context.Context, msg *models.ContactMessage) error
	ListMessages(ctx context.Context, status models.ContactStatus) ([]models.ContactMessage, error)
	UpdateMessageStatus(ctx context.Context, id string, status models.ContactStatus, notes string) error
}

// SubmitContactRequest is the public contact form payload.
type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=20"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// UpdateContactStatusRequest moves a message through triage.
type UpdateContactStatusRequest struct {
	Status     models.ContactStatus `json:"status" validate:"required"`
	AdminNotes string               `json:"admin_notes"`
}

// ContactService handles the public contact form and staff triage.
type ContactService struct {
	repo      contactRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService creates a new contact service instance.
func NewContactService(repo contactRepository, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, validator: validate, logger: logger}
}

// Info returns the published contact details.
func (s *ContactService) Info(ctx context.Context) (*models.ContactInfo, error) {
	info, err := s.repo.Info(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contact information not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact info")
	}
	return info, nil
}

// Submit stores a message from the public contact form.
func (s *ContactService) Submit(ctx context.Context, req SubmitContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}

	msg := &models.ContactMessage{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Subject:     req.Subject,
		Message:     req.Message,
		Status:      models.ContactPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// ListMessages returns messages for triage, optionally by status.
func (s *ContactService) ListMessages(ctx context.Context, status models.ContactStatus) ([]models.ContactMessage, error) {
	if status != "" && !models.ValidContactStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown message status")
	}
	messages, err := s.repo.ListMessages(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// UpdateStatus transitions a message's triage status.
func (s *ContactService) UpdateStatus(ctx context.Context, id string, req UpdateContactStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ValidContactStatus(req.Status) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown message status")
	}
	if err := s.repo.UpdateMessageStatus(ctx, id, req.Status, req.AdminNotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update message")
	}
	return nil
}
