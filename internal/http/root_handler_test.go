package http_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/lifenjoy/campaigns/internal/http"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

func setupRootHandlerTest(t *testing.T) *http.ServeMux {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>console</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	mux := http.NewServeMux()
	apphttp.NewRootHandler(dir, logger.NewTestLogger(t), "https://api.example.com", "1.4").RegisterRoutes(mux)
	return mux
}

func TestRootHandler(t *testing.T) {
	mux := setupRootHandlerTest(t)

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("config.js", func(t *testing.T) {
		w := serve("/config.js")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
		assert.Equal(t, "window.API_ENDPOINT = \"https://api.example.com\";\nwindow.VERSION = \"1.4\";", w.Body.String())
	})

	t.Run("healthz", func(t *testing.T) {
		w := serve("/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("console asset", func(t *testing.T) {
		w := serve("/console/app.js")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "console.log(1)", w.Body.String())
	})

	t.Run("console spa fallback", func(t *testing.T) {
		w := serve("/console/campaigns/12/edit")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "console")
	})

	t.Run("root redirects", func(t *testing.T) {
		w := serve("/")
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/console", w.Header().Get("Location"))
	})

	t.Run("api status", func(t *testing.T) {
		w := serve("/api")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "api running")
	})

	t.Run("unknown api route", func(t *testing.T) {
		w := serve("/api/nothing.here")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
