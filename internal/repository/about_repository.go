package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stjosephms/school-site-api/internal/models"
)

// AboutRepository provides persistence for the team roster and facilities.
type AboutRepository struct {
	db *sqlx.DB
}

// NewAboutRepository creates the repository.
func NewAboutRepository(db *sqlx.DB) *AboutRepository {
	return &AboutRepository{db: db}
}

// ListActiveTeamMembers returns the active roster in display order.
func (r *AboutRepository) ListActiveTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	query := `SELECT id, name, position, department, qualification, bio, image_path, email, phone, join_date, is_active, display_order
FROM team_members WHERE is_active = TRUE ORDER BY display_order, position, name`
	var members []models.TeamMember
	if err := r.db.SelectContext(ctx, &members, query); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// ListFacilities returns all facilities.
func (r *AboutRepository) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	query := "SELECT id, name, description, image_path, icon FROM facilities ORDER BY name"
	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, query); err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}
