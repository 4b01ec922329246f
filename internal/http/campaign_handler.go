package http

import (
	"net/http"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

type CampaignHandler struct {
	service     domain.CampaignService
	requireAuth func(http.Handler) http.Handler
	logger      logger.Logger
}

func NewCampaignHandler(service domain.CampaignService, requireAuth func(http.Handler) http.Handler, logger logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		service:     service,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *CampaignHandler) RegisterRoutes(mux *http.ServeMux) {
	// Register RPC-style endpoints with dot notation
	mux.Handle("/api/campaigns.list", h.requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/campaigns.get", h.requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/campaigns.create", h.requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("/api/campaigns.update", h.requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("/api/campaigns.delete", h.requireAuth(http.HandlerFunc(h.handleDelete)))
	mux.Handle("/api/campaigns.save", h.requireAuth(http.HandlerFunc(h.handleSave)))
	mux.Handle("/api/campaigns.edit", h.requireAuth(http.HandlerFunc(h.handleEdit)))
	mux.Handle("/api/campaigns.preview", h.requireAuth(http.HandlerFunc(h.handlePreview)))
}

func (h *CampaignHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	campaigns, err := h.service.List(r.Context(), sessionFrom(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list campaigns")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
	})
}

func (h *CampaignHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	var req domain.GetCampaignRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Get(r.Context(), sessionFrom(r), req.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaign": campaign,
	})
}

func (h *CampaignHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.CreateCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Create(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create campaign")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"campaign": campaign,
	})
}

func (h *CampaignHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.UpdateCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Update(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaign": campaign,
	})
}

func (h *CampaignHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.DeleteCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), sessionFrom(r), req.ID); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleSave persists a whole editor document and publishes the campaign.
func (h *CampaignHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.SaveCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Save(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to save campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaign": campaign,
	})
}

func (h *CampaignHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.EditCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Edit(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to edit campaign")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CampaignHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.PreviewCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	html, err := h.service.Preview(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to preview campaign")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"html": html,
	})
}
