package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/stjosephms/school-site-api/internal/models"
	appErrors "github.com/stjosephms/school-site-api/pkg/errors"
)

type aboutRepository interface {
	ListActiveTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	ListFacilities(ctx context.Context) ([]models.Facility, error)
}

// AboutService serves the team roster and facilities for the about pages.
type AboutService struct {
	repo   aboutRepository
	logger *zap.Logger
}

// NewAboutService creates a new about service instance.
func NewAboutService(repo aboutRepository, logger *zap.Logger) *AboutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AboutService{repo: repo, logger: logger}
}

// Team returns the active roster in display order.
func (s *AboutService) Team(ctx context.Context) ([]models.TeamMember, error) {
	members, err := s.repo.ListActiveTeamMembers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team members")
	}
	return members, nil
}

// Facilities returns all facilities.
func (s *AboutService) Facilities(ctx context.Context) ([]models.Facility, error) {
	facilities, err := s.repo.ListFacilities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list facilities")
	}
	return facilities, nil
}
