package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/domain"
)

const legacyDocument = `[{"id":"b1","type":"text","content":{"text":"hello spring"},"style":{}}]`

func execute(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeCmd(t *testing.T) {
	t.Run("wraps legacy block list", func(t *testing.T) {
		path := writeFile(t, "legacy.json", legacyDocument)

		out, errOut, err := execute(NewNormalizeCmd(), "", path)
		require.NoError(t, err)

		var sections []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &sections))
		require.Len(t, sections, 1)
		assert.Equal(t, "sec_migrated", sections[0]["id"])
		children, ok := sections[0]["children"].([]interface{})
		require.True(t, ok)
		require.Len(t, children, 1)
		assert.Equal(t, "b1", children[0].(map[string]interface{})["id"])

		assert.Contains(t, out, "\n  ")
		assert.Contains(t, errOut, "legacy block list")
	})

	t.Run("reads stdin compact", func(t *testing.T) {
		doc := `[{"id":"s1","type":"section","style":{},"children":[]}]`

		out, errOut, err := execute(NewNormalizeCmd(), doc, "-", "--compact")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "\n"))
		assert.Contains(t, out, `"id":"s1"`)
		assert.Empty(t, errOut)
	})

	t.Run("empty input yields empty list", func(t *testing.T) {
		out, _, err := execute(NewNormalizeCmd(), "", "-", "--compact")
		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})

	t.Run("writes output file", func(t *testing.T) {
		path := writeFile(t, "legacy.json", legacyDocument)
		target := filepath.Join(t.TempDir(), "out.json")

		out, _, err := execute(NewNormalizeCmd(), "", path, "-o", target)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), "sec_migrated")
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, _, err := execute(NewNormalizeCmd(), "{not json", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(NewNormalizeCmd(), "", filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})

	t.Run("requires one argument", func(t *testing.T) {
		_, _, err := execute(NewNormalizeCmd(), "")
		assert.Error(t, err)
	})
}

func TestRenderCmd(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		path := writeFile(t, "spring.json", legacyDocument)

		out, _, err := execute(NewRenderCmd(), "", path, "--description", "Spring sale")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "<title>spring</title>")
		assert.Contains(t, out, `<meta property="og:description" content="Spring sale">`)
		assert.Contains(t, out, "hello spring")
		assert.NotContains(t, out, "og:image")
	})

	t.Run("fragment", func(t *testing.T) {
		out, _, err := execute(NewRenderCmd(), legacyDocument, "-", "--fragment")
		require.NoError(t, err)

		assert.Contains(t, out, "hello spring")
		assert.NotContains(t, out, "<!DOCTYPE html>")
	})

	t.Run("single block", func(t *testing.T) {
		out, _, err := execute(NewRenderCmd(), legacyDocument, "-", "--block", "b1")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, `<div class="cb-text"`))
		assert.Contains(t, out, "hello spring")
		assert.NotContains(t, out, "cb-section")
	})

	t.Run("unknown block", func(t *testing.T) {
		_, _, err := execute(NewRenderCmd(), legacyDocument, "-", "--block", "nope")
		assert.EqualError(t, err, "block nope not found")
	})

	t.Run("explicit title and image", func(t *testing.T) {
		out, _, err := execute(NewRenderCmd(), legacyDocument, "-", "--title", "Summer", "--image", "https://cdn.example.com/og.png")
		require.NoError(t, err)

		assert.Contains(t, out, "<title>Summer</title>")
		assert.Contains(t, out, `<meta property="og:image" content="https://cdn.example.com/og.png">`)
	})
}

func stubMigrateDeps(t *testing.T, cfgErr error) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	originalLoad, originalOpen := loadConfig, openDB
	loadConfig = func() (*config.Config, error) {
		if cfgErr != nil {
			return nil, cfgErr
		}
		return &config.Config{LogLevel: "error"}, nil
	}
	openDB = func(cfg *config.Config) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() {
		loadConfig, openDB = originalLoad, originalOpen
		_ = db.Close()
	})
	return mock
}

func TestMigrateCmd(t *testing.T) {
	now := time.Now().UTC()

	t.Run("dry run lists legacy campaigns", func(t *testing.T) {
		mock := stubMigrateDeps(t, nil)
		mock.ExpectQuery(`FROM campaigns WHERE schema_version < \$1 ORDER BY id`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows(domain.CampaignColumns).
				AddRow(int64(4), "Old spring", "draft", []byte(legacyDocument),
					nil, nil, nil, nil, int64(0), int64(1), 1, now, now))
		mock.ExpectClose()

		out, _, err := execute(NewMigrateCmd(), "", "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, out, "4\tOld spring\tschema 1")
		assert.Contains(t, out, "1 campaign(s) to migrate")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to migrate", func(t *testing.T) {
		mock := stubMigrateDeps(t, nil)
		mock.ExpectQuery(`FROM campaigns WHERE schema_version < \$1 ORDER BY id`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows(domain.CampaignColumns))
		mock.ExpectClose()

		out, _, err := execute(NewMigrateCmd(), "")
		require.NoError(t, err)
		assert.Contains(t, out, "Migrated 0 campaign(s)")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list failure", func(t *testing.T) {
		mock := stubMigrateDeps(t, nil)
		mock.ExpectQuery(`FROM campaigns WHERE schema_version < \$1`).
			WillReturnError(errors.New("connection reset"))

		_, _, err := execute(NewMigrateCmd(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("configuration error", func(t *testing.T) {
		stubMigrateDeps(t, errors.New("JWT_SECRET is required"))

		_, _, err := execute(NewMigrateCmd(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})
}
