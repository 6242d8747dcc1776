package models

import "time"

// TeamMember is a staff or board entry on the about pages.
type TeamMember struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Position      string    `db:"position" json:"position"`
	Department    string    `db:"department" json:"department,omitempty"`
	Qualification string    `db:"qualification" json:"qualification,omitempty"`
	Bio           string    `db:"bio" json:"bio,omitempty"`
	ImagePath     string    `db:"image_path" json:"image_path,omitempty"`
	Email         string    `db:"email" json:"email,omitempty"`
	Phone         string    `db:"phone" json:"phone,omitempty"`
	JoinDate      time.Time `db:"join_date" json:"join_date"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	DisplayOrder  int       `db:"display_order" json:"display_order"`
}

// Facility is a school facility shown on the about pages.
type Facility struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	ImagePath   string `db:"image_path" json:"image_path,omitempty"`
	Icon        string `db:"icon" json:"icon,omitempty"`
}
