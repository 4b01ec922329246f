package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/internal/domain/mocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

func testSession() *domain.Session {
	return &domain.Session{UserID: "user-1", Email: "admin@lifenjoy.com", Role: domain.UserRoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}
}

func TestSettingService_GetSystemSettings(t *testing.T) {
	ctx := context.Background()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	t.Run("merges known keys", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockSettingRepository(ctrl)
		svc := NewSettingService(repo, logger.NewTestLogger(t))

		repo.EXPECT().List(gomock.Any()).Return([]*domain.Setting{
			{Key: domain.SettingGoogleAPIKey, Value: "key", UpdatedAt: older},
			{Key: domain.SettingGoogleCx, Value: "cx", UpdatedAt: newer},
			{Key: "unrelated", Value: "x", UpdatedAt: newer.Add(time.Hour)},
		}, nil)

		settings, err := svc.GetSystemSettings(ctx, testSession())
		require.NoError(t, err)
		assert.Equal(t, "key", settings.GoogleAPIKey)
		assert.Equal(t, "cx", settings.GoogleCx)
		require.NotNil(t, settings.UpdatedAt)
		assert.Equal(t, newer, *settings.UpdatedAt)
	})

	t.Run("empty table", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockSettingRepository(ctrl)
		svc := NewSettingService(repo, logger.NewTestLogger(t))
		repo.EXPECT().List(gomock.Any()).Return(nil, nil)

		settings, err := svc.GetSystemSettings(ctx, testSession())
		require.NoError(t, err)
		assert.Empty(t, settings.GoogleAPIKey)
		assert.Nil(t, settings.UpdatedAt)
	})

	t.Run("requires session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewSettingService(mocks.NewMockSettingRepository(ctrl), logger.NewTestLogger(t))
		_, err := svc.GetSystemSettings(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("repository failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockSettingRepository(ctrl)
		svc := NewSettingService(repo, logger.NewTestLogger(t))
		repo.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))

		_, err := svc.GetSystemSettings(ctx, testSession())
		assert.ErrorContains(t, err, "failed to list settings")
	})
}

func TestSettingService_UpdateSystemSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts provided keys only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockSettingRepository(ctrl)
		svc := NewSettingService(repo, logger.NewTestLogger(t))
		cx := "  my-cx "

		repo.EXPECT().Set(gomock.Any(), domain.SettingGoogleCx, "my-cx").Return(nil)
		repo.EXPECT().List(gomock.Any()).Return([]*domain.Setting{
			{Key: domain.SettingGoogleAPIKey, Value: "old-key"},
			{Key: domain.SettingGoogleCx, Value: "my-cx"},
		}, nil)

		settings, err := svc.UpdateSystemSettings(ctx, testSession(), &domain.UpdateSettingsRequest{GoogleCx: &cx})
		require.NoError(t, err)
		assert.Equal(t, "old-key", settings.GoogleAPIKey)
		assert.Equal(t, "my-cx", settings.GoogleCx)
	})

	t.Run("set failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockSettingRepository(ctrl)
		svc := NewSettingService(repo, logger.NewTestLogger(t))
		key := "k"

		repo.EXPECT().Set(gomock.Any(), domain.SettingGoogleAPIKey, "k").Return(errors.New("db down"))

		_, err := svc.UpdateSystemSettings(ctx, testSession(), &domain.UpdateSettingsRequest{GoogleAPIKey: &key})
		assert.ErrorContains(t, err, "failed to update setting google_api_key")
	})

	t.Run("requires session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewSettingService(mocks.NewMockSettingRepository(ctrl), logger.NewTestLogger(t))
		_, err := svc.UpdateSystemSettings(ctx, nil, &domain.UpdateSettingsRequest{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestSettingService_GoogleCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSettingRepository(ctrl)
	svc := NewSettingService(repo, logger.NewTestLogger(t))
	repo.EXPECT().List(gomock.Any()).Return([]*domain.Setting{
		{Key: domain.SettingGoogleAPIKey, Value: "key"},
		{Key: domain.SettingGoogleCx, Value: "cx"},
	}, nil)

	key, cx, err := svc.GoogleCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key", key)
	assert.Equal(t, "cx", cx)
}
