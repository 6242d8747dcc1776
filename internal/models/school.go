package models

import "time"

// SchoolInfo is the site-wide school profile. The table holds at most one
// row by convention; readers take the first.
type SchoolInfo struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Motto            string    `db:"motto" json:"motto"`
	Address          string    `db:"address" json:"address"`
	Phone            string    `db:"phone" json:"phone"`
	Email            string    `db:"email" json:"email"`
	PrincipalName    string    `db:"principal_name" json:"principal_name"`
	PrincipalMessage string    `db:"principal_message" json:"principal_message"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
