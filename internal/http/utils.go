package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// maxJSONBody bounds decoded request bodies.
const maxJSONBody = 10 << 20

// WriteJSONError writes a JSON error response with the given message and status code.
// It sets the Content-Type header to application/json and automatically formats
// the response as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}

// requireMethod writes 405 and returns false when r is not sent with method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// sessionFrom returns the session stored by the auth middleware, or nil.
func sessionFrom(r *http.Request) *domain.Session {
	session, _ := domain.SessionFromContext(r.Context())
	return session
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var (
		validation  domain.ValidationError
		conflict    *domain.ErrVersionConflict
		incorrect   *domain.ErrIncorrectPassword
		unsupported *domain.ErrUnsupportedMediaType
		operation   *campaign_blocks.OperationError
	)

	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.As(err, &incorrect):
		return http.StatusUnauthorized
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSlugTaken), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.As(err, &validation), errors.As(err, &operation), errors.Is(err, domain.ErrInvalidStorageRef), isDocumentError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isDocumentError(err error) bool {
	for _, target := range []error{
		campaign_blocks.ErrNotConfirmed,
		campaign_blocks.ErrSectionNotFound,
		campaign_blocks.ErrBlockNotFound,
		campaign_blocks.ErrUnknownBlockType,
		campaign_blocks.ErrInvalidSelection,
		campaign_blocks.ErrOpaqueBlock,
		campaign_blocks.ErrInvalidPatch,
		campaign_blocks.ErrInvalidDirection,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeServiceError logs unexpected failures and writes the mapped error.
// Internal errors are reported with fallback instead of the raw message.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithField("error", err.Error()).Error(fallback)
		WriteJSONError(w, fallback, status)
		return
	}
	WriteJSONError(w, err.Error(), status)
}
