package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_auth_service.go -package mocks github.com/lifenjoy/campaigns/internal/domain AuthService

type contextKey string

// SessionKey stores the authenticated *Session in a request context.
const SessionKey contextKey = "session"

// Session is the authenticated caller. Services receive it explicitly.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == UserRoleAdmin
}

// SessionFromContext returns the session stored by the auth middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionKey).(*Session)
	return s, ok && s != nil
}

// RequireSession fails with ErrUnauthorized when session is nil or expired.
func RequireSession(session *Session) error {
	if session == nil || session.UserID == "" {
		return ErrUnauthorized
	}
	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		return ErrUnauthorized
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" valid:"required,email"`
	Password string `json:"password" valid:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return fmt.Errorf("invalid login request: %w", err)
	}
	return nil
}

type LoginResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ErrIncorrectPassword is returned when the email exists but the password does not match.
type ErrIncorrectPassword struct{}

func (e *ErrIncorrectPassword) Error() string {
	return "Incorrect password"
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	// VerifyToken validates a bearer token and returns its session.
	VerifyToken(ctx context.Context, token string) (*Session, error)
	Me(ctx context.Context, session *Session) (*User, error)
	UpdateProfile(ctx context.Context, session *Session, req *UpdateProfileRequest) (*User, error)
}
