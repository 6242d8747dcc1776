package models

import "time"

// ContactStatus tracks triage of inbound contact messages.
type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

// ValidContactStatus reports whether the value is a known status.
func ValidContactStatus(s ContactStatus) bool {
	switch s {
	case ContactPending, ContactRead, ContactReplied, ContactArchived:
		return true
	}
	return false
}

// ContactInfo is the published contact details block.
type ContactInfo struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Address     string    `db:"address" json:"address"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	Fax         string    `db:"fax" json:"fax,omitempty"`
	OfficeHours string    `db:"office_hours" json:"office_hours,omitempty"`
	MapEmbed    string    `db:"map_embed" json:"map_embed,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone,omitempty"`
	Subject     string        `db:"subject" json:"subject"`
	Message     string        `db:"message" json:"message"`
	Status      ContactStatus `db:"status" json:"status"`
	AdminNotes  string        `db:"admin_notes" json:"admin_notes,omitempty"`
	SubmittedAt time.Time     `db:"submitted_at" json:"submitted_at"`
}
