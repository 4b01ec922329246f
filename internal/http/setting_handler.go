package http

import (
	"net/http"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

type SettingHandler struct {
	service     domain.SettingService
	requireAuth func(http.Handler) http.Handler
	logger      logger.Logger
}

func NewSettingHandler(service domain.SettingService, requireAuth func(http.Handler) http.Handler, logger logger.Logger) *SettingHandler {
	return &SettingHandler{
		service:     service,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *SettingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/settings.get", h.requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/settings.update", h.requireAuth(http.HandlerFunc(h.handleUpdate)))
}

func (h *SettingHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	settings, err := h.service.GetSystemSettings(r.Context(), sessionFrom(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings,
	})
}

func (h *SettingHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.service.UpdateSystemSettings(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings": settings,
	})
}
