package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stjosephms/school-site-api/internal/models"
)

// ContactRepository provides persistence for contact info and messages.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates the repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Info returns the published contact details block.
func (r *ContactRepository) Info(ctx context.Context) (*models.ContactInfo, error) {
	query := `SELECT id, title, address, phone, email, fax, office_hours, map_embed, updated_at
FROM contact_info ORDER BY updated_at DESC LIMIT 1`
	var info models.ContactInfo
	if err := r.db.GetContext(ctx, &info, query); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateMessage stores a submitted contact message.
func (r *ContactRepository) CreateMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.SubmittedAt.IsZero() {
		msg.SubmittedAt = time.Now().UTC()
	}
	query := `INSERT INTO contact_messages (id, name, email, phone, subject, message, status, admin_notes, submitted_at)
VALUES (:id, :name, :email, :phone, :subject, :message, :status, :admin_notes, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// ListMessages returns messages for triage, newest first.
func (r *ContactRepository) ListMessages(ctx context.Context, status models.ContactStatus) ([]models.ContactMessage, error) {
	query := `SELECT id, name, email, phone, subject, message, status, admin_notes, submitted_at
FROM contact_messages`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY submitted_at DESC"
	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// UpdateMessageStatus moves a message through the triage workflow.
func (r *ContactRepository) UpdateMessageStatus(ctx context.Context, id string, status models.ContactStatus, notes string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE contact_messages SET status = $1, admin_notes = $2 WHERE id = $3", string(status), notes, id)
	if err != nil {
		return fmt.Errorf("update contact message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
