package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/internal/database/schema"
)

func TestInitializeDatabase(t *testing.T) {
	t.Run("creates tables successfully", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for range schema.TableDefinitions {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}

		require.NoError(t, InitializeDatabase(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))

		err = InitializeDatabase(context.Background(), db)
		assert.ErrorContains(t, err, "failed to create table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSchemaDefinesCampaignTable(t *testing.T) {
	var found bool
	for _, q := range schema.TableDefinitions {
		if assert.NotEmpty(t, q) && containsAll(q, "CREATE TABLE IF NOT EXISTS campaigns", "version BIGINT", "schema_version") {
			found = true
		}
	}
	assert.True(t, found)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !contains(s, p) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
