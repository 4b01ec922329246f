package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_setting_repository.go -package mocks github.com/lifenjoy/campaigns/internal/domain SettingRepository
//go:generate mockgen -destination mocks/mock_setting_service.go -package mocks github.com/lifenjoy/campaigns/internal/domain SettingService

// Keys of the system settings stored in the settings table.
const (
	SettingGoogleAPIKey = "google_api_key"
	SettingGoogleCx     = "google_cx"
)

// Setting represents a system setting
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingRepository defines the interface for setting-related database operations
type SettingRepository interface {
	// Get retrieves a setting by key
	Get(ctx context.Context, key string) (*Setting, error)

	// Set creates or updates a setting
	Set(ctx context.Context, key, value string) error

	// List retrieves all settings
	List(ctx context.Context) ([]*Setting, error)
}

// ErrSettingNotFound is returned when a setting is not found
type ErrSettingNotFound struct {
	Key string
}

func (e *ErrSettingNotFound) Error() string {
	return "setting not found: " + e.Key
}

// SystemSettings is the singleton configuration edited in the admin console.
type SystemSettings struct {
	GoogleAPIKey string     `json:"googleApiKey"`
	GoogleCx     string     `json:"googleCx"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// UpdateSettingsRequest upserts the provided keys only.
type UpdateSettingsRequest struct {
	GoogleAPIKey *string `json:"googleApiKey,omitempty"`
	GoogleCx     *string `json:"googleCx,omitempty"`
}

type SettingService interface {
	GetSystemSettings(ctx context.Context, session *Session) (*SystemSettings, error)
	UpdateSystemSettings(ctx context.Context, session *Session, req *UpdateSettingsRequest) (*SystemSettings, error)
}
