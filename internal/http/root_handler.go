package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lifenjoy/campaigns/pkg/logger"
)

// RootHandler serves the admin console bundle, its runtime config and the
// health endpoints.
type RootHandler struct {
	consoleDir  string
	logger      logger.Logger
	apiEndpoint string
	version     string
}

// NewRootHandler creates a root handler that serves the console static files
func NewRootHandler(consoleDir string, logger logger.Logger, apiEndpoint string, version string) *RootHandler {
	return &RootHandler{
		consoleDir:  consoleDir,
		logger:      logger,
		apiEndpoint: apiEndpoint,
		version:     version,
	}
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/config.js", h.serveConfigJS)
	mux.HandleFunc("/healthz", h.serveHealth)
	// catch all route
	mux.HandleFunc("/", h.Handle)
}

func (h *RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/console"):
		h.serveConsole(w, r)
	case r.URL.Path == "/api" || r.URL.Path == "/api/":
		writeJSON(w, http.StatusOK, map[string]string{"status": "api running"})
	case strings.HasPrefix(r.URL.Path, "/api/"):
		WriteJSONError(w, "Not found", http.StatusNotFound)
	case r.URL.Path == "/":
		http.Redirect(w, r, "/console", http.StatusTemporaryRedirect)
	default:
		http.NotFound(w, r)
	}
}

func (h *RootHandler) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// serveConfigJS exposes the runtime settings the console needs before it boots.
func (h *RootHandler) serveConfigJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	endpoint, _ := json.Marshal(h.apiEndpoint)
	version, _ := json.Marshal(h.version)
	_, _ = fmt.Fprintf(w, "window.API_ENDPOINT = %s;\nwindow.VERSION = %s;", endpoint, version)
}

// serveConsole handles serving static files, with a fallback for SPA routing
func (h *RootHandler) serveConsole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.consoleDir == "" {
		http.NotFound(w, r)
		return
	}

	// Strip /console prefix before serving files
	r.URL.Path = strings.TrimPrefix(r.URL.Path, "/console")
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}

	path := filepath.Join(h.consoleDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// If the requested file doesn't exist, serve index.html for SPA routing
		r.URL.Path = "/"
	}

	h.logger.WithField("served_path", r.URL.Path).Debug("Serving console")
	http.FileServer(http.Dir(h.consoleDir)).ServeHTTP(w, r)
}
