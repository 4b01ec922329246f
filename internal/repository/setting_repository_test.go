package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/internal/repository/testutil"
)

func TestSQLSettingRepository_Get(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()
	repo := NewSQLSettingRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT key, value, created_at, updated_at FROM settings WHERE key = \$1`).
		WithArgs(domain.SettingGoogleCx).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow(domain.SettingGoogleCx, "cx-123", now, now))

	setting, err := repo.Get(context.Background(), domain.SettingGoogleCx)
	require.NoError(t, err)
	assert.Equal(t, "cx-123", setting.Value)

	mock.ExpectQuery(`FROM settings WHERE key = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "missing")
	var notFound *domain.ErrSettingNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Key)

	mock.ExpectQuery(`FROM settings WHERE key = \$1`).WithArgs("broken").WillReturnError(errors.New("db down"))
	_, err = repo.Get(context.Background(), "broken")
	assert.ErrorContains(t, err, "failed to get setting broken")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSettingRepository_SetAndList(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()
	repo := NewSQLSettingRepository(db)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO settings \(key, value, created_at, updated_at\)`).
		WithArgs(domain.SettingGoogleAPIKey, "key-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Set(context.Background(), domain.SettingGoogleAPIKey, "key-1"))

	mock.ExpectQuery(`SELECT key, value, created_at, updated_at FROM settings ORDER BY key`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow(domain.SettingGoogleAPIKey, "key-1", now, now).
			AddRow(domain.SettingGoogleCx, "cx-1", now, now))

	settings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "cx-1", settings[1].Value)

	assert.NoError(t, mock.ExpectationsWereMet())
}
