package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/internal/domain/mocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

var testJWTSecret = []byte("test-secret-key-0123456789")

func setupAuthTest(t *testing.T) (*AuthService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	svc, err := NewAuthService(AuthServiceConfig{
		Repository: repo,
		Logger:     logger.NewTestLogger(t),
		JWTSecret:  testJWTSecret,
		SessionTTL: time.Hour,
		DefaultAdmin: DefaultAdmin{
			Email:    "admin@lifenjoy.com",
			Password: "1234",
			Name:     "Super Admin",
		},
		HashCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return svc, repo
}

func hashPassword(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(AuthServiceConfig{})
	assert.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		user := &domain.User{ID: "user-1", Email: "staff@lifenjoy.com", Name: "Staff", Role: domain.UserRoleStaff, PasswordHash: hashPassword(t, "secret")}

		repo.EXPECT().GetUserByEmail(gomock.Any(), "staff@lifenjoy.com").Return(user, nil)
		repo.EXPECT().UpdateLastLogin(gomock.Any(), "user-1", gomock.Any()).Return(nil)

		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: " Staff@Lifenjoy.com ", Password: "secret"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "user-1", resp.User.ID)
		require.NotNil(t, resp.User.LastLogin)

		session, err := svc.VerifyToken(ctx, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		assert.Equal(t, domain.UserRoleStaff, session.Role)
		assert.WithinDuration(t, resp.ExpiresAt, session.ExpiresAt, time.Second)
	})

	t.Run("incorrect password", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		user := &domain.User{ID: "user-1", Email: "staff@lifenjoy.com", PasswordHash: hashPassword(t, "secret")}
		repo.EXPECT().GetUserByEmail(gomock.Any(), "staff@lifenjoy.com").Return(user, nil)

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "wrong"})
		var incorrect *domain.ErrIncorrectPassword
		assert.ErrorAs(t, err, &incorrect)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), "nobody@lifenjoy.com").Return(nil, &domain.ErrUserNotFound{Message: "User not found"})

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "nobody@lifenjoy.com", Password: "1234"})
		var notFound *domain.ErrUserNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "1234"})
		assert.ErrorContains(t, err, "failed to get user")
	})

	t.Run("invalid request", func(t *testing.T) {
		svc, _ := setupAuthTest(t)
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "not-an-email", Password: "1234"})
		assert.Error(t, err)
	})

	t.Run("creates default admin on first login", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		var created *domain.User

		repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@lifenjoy.com").Return(nil, &domain.ErrUserNotFound{Message: "User not found"})
		repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
			created = u
			return nil
		})
		repo.EXPECT().UpdateLastLogin(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "admin@lifenjoy.com", Password: "1234"})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, domain.UserRoleAdmin, created.Role)
		assert.Equal(t, "Super Admin", created.Name)
		assert.NotEqual(t, "1234", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("1234")))
		assert.Equal(t, created.ID, resp.User.ID)
	})

	t.Run("default admin email with wrong password is not created", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		repo.EXPECT().GetUserByEmail(gomock.Any(), "admin@lifenjoy.com").Return(nil, &domain.ErrUserNotFound{Message: "User not found"})

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "admin@lifenjoy.com", Password: "12345"})
		assert.Error(t, err)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		user := &domain.User{ID: "user-1", Email: "staff@lifenjoy.com", PasswordHash: hashPassword(t, "secret")}
		repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(user, nil)
		repo.EXPECT().UpdateLastLogin(gomock.Any(), "user-1", gomock.Any()).Return(errors.New("timeout"))

		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "secret"})
		require.NoError(t, err)
		assert.Nil(t, resp.User.LastLogin)
	})
}

func TestAuthService_LoginThrottling(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)

	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	svc, err := NewAuthService(AuthServiceConfig{
		Repository:   repo,
		Logger:       logger.NewTestLogger(t),
		JWTSecret:    testJWTSecret,
		HashCost:     bcrypt.MinCost,
		LoginLimiter: limiter,
	})
	require.NoError(t, err)

	user := &domain.User{ID: "user-1", Email: "staff@lifenjoy.com", PasswordHash: hashPassword(t, "secret")}

	t.Run("blocks after repeated failures", func(t *testing.T) {
		repo.EXPECT().GetUserByEmail(gomock.Any(), "staff@lifenjoy.com").Return(user, nil).Times(2)

		for i := 0; i < 2; i++ {
			_, err := svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "wrong"})
			var incorrect *domain.ErrIncorrectPassword
			require.ErrorAs(t, err, &incorrect)
		}

		// the repository is not consulted once the limit is reached
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "Staff@lifenjoy.com", Password: "secret"})
		assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	})

	t.Run("successful login clears attempts", func(t *testing.T) {
		limiter.Reset("staff@lifenjoy.com")
		repo.EXPECT().GetUserByEmail(gomock.Any(), "staff@lifenjoy.com").Return(user, nil).Times(3)
		repo.EXPECT().UpdateLastLogin(gomock.Any(), "user-1", gomock.Any()).Return(nil)

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "wrong"})
		require.Error(t, err)
		_, err = svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "secret"})
		require.NoError(t, err)

		// two more attempts fit in the window again
		_, err = svc.Login(ctx, &domain.LoginRequest{Email: "staff@lifenjoy.com", Password: "wrong"})
		var incorrect *domain.ErrIncorrectPassword
		assert.ErrorAs(t, err, &incorrect)
	})
}

func TestAuthService_VerifyToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuthTest(t)
	user := &domain.User{ID: "user-1", Email: "staff@lifenjoy.com", Role: domain.UserRoleAdmin}

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		other, _ := setupAuthTest(t)
		other.secret = []byte("another-secret-0123456789")
		token, _, err := other.generateToken(user)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		past, _ := setupAuthTest(t)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.generateToken(user)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := UserClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("valid", func(t *testing.T) {
		token, _, err := svc.generateToken(user)
		require.NoError(t, err)

		session, err := svc.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.True(t, session.IsAdmin())
		assert.NoError(t, domain.RequireSession(session))
	})
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupAuthTest(t)

	_, err := svc.Me(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	repo.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1", Name: "Staff"}, nil)
	user, err := svc.Me(ctx, &domain.Session{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Staff", user.Name)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	session := &domain.Session{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("name and password", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		name := "  New <b>Name</b> "
		password := "new-password"

		repo.EXPECT().UpdateProfile(gomock.Any(), "user-1", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, n *string, hash *string) error {
				require.NotNil(t, n)
				assert.Equal(t, "New Name", *n)
				require.NotNil(t, hash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*hash), []byte("new-password")))
				return nil
			})
		repo.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1", Name: "New Name"}, nil)

		user, err := svc.UpdateProfile(ctx, session, &domain.UpdateProfileRequest{Name: &name, Password: &password})
		require.NoError(t, err)
		assert.Equal(t, "New Name", user.Name)
	})

	t.Run("name only", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		name := "Staff"
		repo.EXPECT().UpdateProfile(gomock.Any(), "user-1", gomock.Any(), (*string)(nil)).Return(nil)
		repo.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1", Name: name}, nil)

		_, err := svc.UpdateProfile(ctx, session, &domain.UpdateProfileRequest{Name: &name})
		require.NoError(t, err)
	})

	t.Run("empty request", func(t *testing.T) {
		svc, _ := setupAuthTest(t)
		_, err := svc.UpdateProfile(ctx, session, &domain.UpdateProfileRequest{})
		assert.Error(t, err)
	})

	t.Run("no session", func(t *testing.T) {
		svc, _ := setupAuthTest(t)
		name := "x"
		_, err := svc.UpdateProfile(ctx, nil, &domain.UpdateProfileRequest{Name: &name})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, repo := setupAuthTest(t)
		name := "Staff"
		repo.EXPECT().UpdateProfile(gomock.Any(), "user-1", gomock.Any(), gomock.Any()).Return(&domain.ErrUserNotFound{Message: "User not found"})

		_, err := svc.UpdateProfile(ctx, session, &domain.UpdateProfileRequest{Name: &name})
		assert.True(t, domain.IsNotFound(err))
	})
}
