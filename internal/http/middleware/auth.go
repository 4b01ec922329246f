package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lifenjoy/campaigns/internal/domain"
)

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Session, error)
}

// RequireAuth verifies the bearer token and stores the session under
// domain.SessionKey before calling next.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Authorization header is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeUnauthorized(w, "Invalid authorization header format")
				return
			}

			session, err := verifier.VerifyToken(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil || session == nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), domain.SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
