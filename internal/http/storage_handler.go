package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// maxUploadBody bounds multipart upload requests. The storage service
// enforces the configured per-file limit on top of it.
const maxUploadBody = 64 << 20

type StorageHandler struct {
	service     domain.StorageService
	requireAuth func(http.Handler) http.Handler
	logger      logger.Logger
}

func NewStorageHandler(service domain.StorageService, requireAuth func(http.Handler) http.Handler, logger logger.Logger) *StorageHandler {
	return &StorageHandler{
		service:     service,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *StorageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/storage.uploadUrl", h.requireAuth(http.HandlerFunc(h.handleUploadURL)))
	mux.Handle("/api/storage.upload", h.requireAuth(http.HandlerFunc(h.handleUpload)))
	mux.Handle("/api/storage.url", h.requireAuth(http.HandlerFunc(h.handleURL)))
}

// handleUploadURL issues a one-time upload target for direct client uploads.
func (h *StorageHandler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	target, err := h.service.GenerateUploadTarget(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to generate upload URL")
		return
	}

	writeJSON(w, http.StatusOK, domain.UploadURLResponse{Target: target})
}

// handleUpload accepts a multipart "file" field and stores it.
func (h *StorageHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, "File is too large", http.StatusRequestEntityTooLarge)
			return
		}
		WriteJSONError(w, "A file field is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	target, err := h.service.GenerateUploadTarget(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to generate upload URL")
		return
	}

	storageID, err := h.service.Transfer(r.Context(), target, strings.TrimSpace(contentType), file)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to upload file")
		return
	}

	resp := domain.UploadResponse{StorageID: storageID}
	if url, err := h.service.ResolveURL(r.Context(), storageID); err != nil {
		h.logger.WithField("storage_id", storageID).WithField("error", err.Error()).Warn("Failed to resolve uploaded file URL")
	} else {
		resp.URL = url
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *StorageHandler) handleURL(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	storageID := r.URL.Query().Get("storageId")
	if storageID == "" {
		WriteJSONError(w, "Missing storageId", http.StatusBadRequest)
		return
	}

	url, err := h.service.ResolveURL(r.Context(), storageID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to resolve file URL")
		return
	}

	writeJSON(w, http.StatusOK, domain.ResolveURLResponse{StorageID: storageID, URL: url})
}
