package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stjosephms/school-site-api/internal/models"
)

// SchoolInfoRepository provides persistence for the school profile.
type SchoolInfoRepository struct {
	db *sqlx.DB
}

// NewSchoolInfoRepository creates the repository.
func NewSchoolInfoRepository(db *sqlx.DB) *SchoolInfoRepository {
	return &SchoolInfoRepository{db: db}
}

const schoolInfoColumns = "id, name, motto, address, phone, email, principal_name, principal_message, updated_at"

// First returns the school profile row. The table holds at most one row
// by convention.
func (r *SchoolInfoRepository) First(ctx context.Context) (*models.SchoolInfo, error) {
	query := fmt.Sprintf("SELECT %s FROM school_info ORDER BY updated_at DESC LIMIT 1", schoolInfoColumns)
	var info models.SchoolInfo
	if err := r.db.GetContext(ctx, &info, query); err != nil {
		return nil, err
	}
	return &info, nil
}

// Upsert writes the profile, inserting on first save.
func (r *SchoolInfoRepository) Upsert(ctx context.Context, info *models.SchoolInfo) error {
	info.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO school_info (id, name, motto, address, phone, email, principal_name, principal_message, updated_at)
VALUES (:id, :name, :motto, :address, :phone, :email, :principal_name, :principal_message, :updated_at)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, motto = EXCLUDED.motto, address = EXCLUDED.address,
phone = EXCLUDED.phone, email = EXCLUDED.email, principal_name = EXCLUDED.principal_name,
principal_message = EXCLUDED.principal_message, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, info); err != nil {
		return fmt.Errorf("upsert school info: %w", err)
	}
	return nil
}
