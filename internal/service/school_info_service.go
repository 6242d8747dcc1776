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

const schoolInfoCacheKey = "page:school-info"

type schoolInfoRepository interface {
	First(ctx context.Context) (*models.SchoolInfo, error)
	Upsert(ctx context.Context, info *models.SchoolInfo) error
}

// UpdateSchoolInfoRequest carries the staff-editable school profile.
type UpdateSchoolInfoRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Motto            string `json:"motto"`
	Address          string `json:"address"`
	Phone            string `json:"phone"`
	Email            string `json:"email" validate:"omitempty,email"`
	PrincipalName    string `json:"principal_name"`
	PrincipalMessage string `json:"principal_message"`
}

// SchoolInfoService manages the site-wide school profile.
type SchoolInfoService struct {
	repo        schoolInfoRepository
	cache       pageCache
	cacheTTL    time.Duration
	defaultName string
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSchoolInfoService creates a new school info service instance.
func NewSchoolInfoService(repo schoolInfoRepository, cache pageCache, cacheTTL time.Duration, defaultName string, validate *validator.Validate, logger *zap.Logger) *SchoolInfoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultName == "" {
		defaultName = "St Joseph Mission School"
	}
	return &SchoolInfoService{repo: repo, cache: cache, cacheTTL: cacheTTL, defaultName: defaultName, validator: validate, logger: logger}
}

// Get returns the school profile, substituting a named default before
// any profile has been saved.
func (s *SchoolInfoService) Get(ctx context.Context) (*models.SchoolInfo, error) {
	if s.cache != nil {
		var cached models.SchoolInfo
		if err := s.cache.Get(ctx, schoolInfoCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("school info cache read failed", zap.Error(err))
		}
	}

	info, err := s.repo.First(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SchoolInfo{Name: s.defaultName}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school info")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, schoolInfoCacheKey, info, s.cacheTTL); err != nil {
			s.logger.Warn("school info cache write failed", zap.Error(err))
		}
	}
	return info, nil
}

// Update writes the profile, creating it on first save.
func (s *SchoolInfoService) Update(ctx context.Context, req UpdateSchoolInfoRequest) (*models.SchoolInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school info payload")
	}

	info, err := s.repo.First(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school info")
		}
		info = &models.SchoolInfo{ID: uuid.NewString()}
	}

	info.Name = req.Name
	info.Motto = req.Motto
	info.Address = req.Address
	info.Phone = req.Phone
	info.Email = req.Email
	info.PrincipalName = req.PrincipalName
	info.PrincipalMessage = req.PrincipalMessage

	if err := s.repo.Upsert(ctx, info); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save school info")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, schoolInfoCacheKey); err != nil {
			s.logger.Warn("school info cache invalidation failed", zap.Error(err))
		}
	}
	return info, nil
}
