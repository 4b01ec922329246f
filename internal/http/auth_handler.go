package http

import (
	"net/http"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// AuthHandler serves login and the profile of the signed in user.
type AuthHandler struct {
	service     domain.AuthService
	requireAuth func(http.Handler) http.Handler
	logger      logger.Logger
}

func NewAuthHandler(service domain.AuthService, requireAuth func(http.Handler) http.Handler, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:     service,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("/api/auth.login", h.handleLogin)

	// Protected routes (auth required)
	mux.Handle("/api/users.me", h.requireAuth(http.HandlerFunc(h.handleMe)))
	mux.Handle("/api/users.updateProfile", h.requireAuth(http.HandlerFunc(h.handleUpdateProfile)))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid login request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if domain.IsNotFound(err) {
			// unknown accounts look the same as wrong passwords
			WriteJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		writeServiceError(w, h.logger, err, "Failed to sign in")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	user, err := h.service.Me(r.Context(), sessionFrom(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get current user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req domain.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), sessionFrom(r), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}
