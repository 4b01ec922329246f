package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

// UserClaims is the JWT payload of an admin console session.
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// DefaultAdmin is created on the first login with these credentials when no such user exists.
type DefaultAdmin struct {
	Email    string
	Password string
	Name     string
}

type AuthService struct {
	repo         domain.UserRepository
	logger       logger.Logger
	secret       []byte
	sessionTTL   time.Duration
	defaultAdmin DefaultAdmin
	hashCost     int
	limiter      *RateLimiter
	now          func() time.Time
}

type AuthServiceConfig struct {
	Repository   domain.UserRepository
	Logger       logger.Logger
	JWTSecret    []byte
	SessionTTL   time.Duration
	DefaultAdmin DefaultAdmin
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
	// LoginLimiter throttles login attempts per email. Optional.
	LoginLimiter *RateLimiter
}

var _ domain.AuthService = (*AuthService)(nil)

func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		secret:       cfg.JWTSecret,
		sessionTTL:   ttl,
		defaultAdmin: cfg.DefaultAdmin,
		hashCost:     cost,
		limiter:      cfg.LoginLimiter,
		now:          time.Now,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "AuthService", "Login")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	tracing.AddAttribute(ctx, "user.email", req.Email)

	if s.limiter != nil && !s.limiter.Allow(req.Email) {
		s.logger.WithField("email", req.Email).Warn("Too many login attempts")
		err = domain.ErrTooManyAttempts
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		var notFound *domain.ErrUserNotFound
		if !errors.As(err, &notFound) {
			s.logger.WithField("email", req.Email).WithField("error", err.Error()).Error("Failed to get user by email")
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if !s.isDefaultAdmin(req) {
			return nil, err
		}
		if user, err = s.createDefaultAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Login with incorrect password")
		err = &domain.ErrIncorrectPassword{}
		return nil, err
	}

	now := s.now().UTC()
	if updateErr := s.repo.UpdateLastLogin(ctx, user.ID, now); updateErr != nil {
		s.logger.WithField("user_id", user.ID).WithField("error", updateErr.Error()).Warn("Failed to update last login")
	} else {
		user.LastLogin = &now
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		s.logger.WithField("user_id", user.ID).WithField("error", err.Error()).Error("Failed to sign session token")
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	if s.limiter != nil {
		s.limiter.Reset(req.Email)
	}
	return &domain.LoginResponse{Token: token, User: *user, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) isDefaultAdmin(req *domain.LoginRequest) bool {
	return s.defaultAdmin.Email != "" &&
		req.Email == s.defaultAdmin.Email &&
		req.Password == s.defaultAdmin.Password
}

func (s *AuthService) createDefaultAdmin(ctx context.Context) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultAdmin.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        s.defaultAdmin.Email,
		Name:         s.defaultAdmin.Name,
		Role:         domain.UserRoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		var exists *domain.ErrUserExists
		if errors.As(err, &exists) {
			// created concurrently by another login
			return s.repo.GetUserByEmail(ctx, user.Email)
		}
		s.logger.WithField("email", user.Email).WithField("error", err.Error()).Error("Failed to create default admin")
		return nil, fmt.Errorf("failed to create default admin: %w", err)
	}
	s.logger.WithField("email", user.Email).Info("Created default admin account")
	return user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)
	claims := UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, expiresAt, err
}

func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.Session, error) {
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	session := &domain.Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   domain.UserRole(claims.Role),
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *AuthService) Me(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	return tracing.Traced(ctx, "AuthService", "Me", func(ctx context.Context) (*domain.User, error) {
		return s.repo.GetUserByID(ctx, session.UserID)
	})
}

func (s *AuthService) UpdateProfile(ctx context.Context, session *domain.Session, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if err := domain.RequireSession(session); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	ctx, span := tracing.StartSpan(ctx, "AuthService", "UpdateProfile")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	var hash *string
	if req.Password != nil {
		var b []byte
		if b, err = bcrypt.GenerateFromPassword([]byte(*req.Password), s.hashCost); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(b)
		hash = &h
	}

	if err = s.repo.UpdateProfile(ctx, session.UserID, req.Name, hash); err != nil {
		s.logger.WithField("user_id", session.UserID).WithField("error", err.Error()).Error("Failed to update profile")
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
