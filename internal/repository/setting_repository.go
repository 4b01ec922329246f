package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lifenjoy/campaigns/internal/domain"
)

// SQLSettingRepository is a SQL implementation of the SettingRepository interface
type SQLSettingRepository struct {
	systemDB *sql.DB
}

// NewSQLSettingRepository creates a new SQLSettingRepository
func NewSQLSettingRepository(db *sql.DB) *SQLSettingRepository {
	return &SQLSettingRepository{
		systemDB: db,
	}
}

// Get retrieves a setting by key
func (r *SQLSettingRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := r.systemDB.QueryRowContext(ctx,
		"SELECT key, value, created_at, updated_at FROM settings WHERE key = $1",
		key,
	).Scan(&setting.Key, &setting.Value, &setting.CreatedAt, &setting.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrSettingNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &setting, nil
}

// Set creates or updates a setting
func (r *SQLSettingRepository) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()

	_, err := r.systemDB.ExecContext(ctx, `
		INSERT INTO settings (key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value, now, now)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// List retrieves all settings ordered by key
func (r *SQLSettingRepository) List(ctx context.Context) ([]*domain.Setting, error) {
	rows, err := r.systemDB.QueryContext(ctx,
		"SELECT key, value, created_at, updated_at FROM settings ORDER BY key",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*domain.Setting
	for rows.Next() {
		setting := &domain.Setting{}
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.CreatedAt, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}
	return settings, nil
}
