package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

// SettingService provides methods for managing system settings
type SettingService struct {
	repo   domain.SettingRepository
	logger logger.Logger
}

var _ domain.SettingService = (*SettingService)(nil)

// NewSettingService creates a new SettingService
func NewSettingService(repo domain.SettingRepository, logger logger.Logger) *SettingService {
	return &SettingService{
		repo:   repo,
		logger: logger,
	}
}

func (s *SettingService) GetSystemSettings(ctx context.Context, session *domain.Session) (*domain.SystemSettings, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	return tracing.Traced(ctx, "SettingService", "GetSystemSettings", s.load)
}

// load reads the system settings without an access check.
func (s *SettingService) load(ctx context.Context) (*domain.SystemSettings, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to list settings")
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	result := &domain.SystemSettings{}
	for _, setting := range settings {
		switch setting.Key {
		case domain.SettingGoogleAPIKey:
			result.GoogleAPIKey = setting.Value
		case domain.SettingGoogleCx:
			result.GoogleCx = setting.Value
		default:
			continue
		}
		if result.UpdatedAt == nil || setting.UpdatedAt.After(*result.UpdatedAt) {
			updated := setting.UpdatedAt
			result.UpdatedAt = &updated
		}
	}
	return result, nil
}

// UpdateSystemSettings upserts the provided keys and returns the merged settings.
func (s *SettingService) UpdateSystemSettings(ctx context.Context, session *domain.Session, req *domain.UpdateSettingsRequest) (*domain.SystemSettings, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "SettingService", "UpdateSystemSettings")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	updates := []struct {
		key   string
		value *string
	}{
		{domain.SettingGoogleAPIKey, req.GoogleAPIKey},
		{domain.SettingGoogleCx, req.GoogleCx},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err = s.repo.Set(ctx, u.key, strings.TrimSpace(*u.value)); err != nil {
			s.logger.WithField("key", u.key).WithField("error", err.Error()).Error("Failed to update setting")
			return nil, fmt.Errorf("failed to update setting %s: %w", u.key, err)
		}
	}

	s.logger.WithField("user_id", session.UserID).Info("System settings updated")

	result, err := s.load(ctx)
	return result, err
}

// GoogleCredentials returns the stored custom search credentials.
func (s *SettingService) GoogleCredentials(ctx context.Context) (apiKey, cx string, err error) {
	settings, err := s.load(ctx)
	if err != nil {
		return "", "", err
	}
	return settings.GoogleAPIKey, settings.GoogleCx, nil
}
