package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.opencensus.io/trace"

	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

type userRepository struct {
	systemDB *sql.DB
	psql     sq.StatementBuilderType
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		systemDB: db,
		psql:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository", "CreateUser", trace.StringAttribute("email", user.Email))
	defer span.End()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.UserRoleStaff
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, name, role, password_hash, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.PasswordHash,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrUserExists{Message: "user already exists"}
		}
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) getUser(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.psql.Select(domain.UserColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	user, err := domain.ScanUser(r.systemDB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrUserNotFound{Message: "User not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository", "GetUserByEmail")
	defer span.End()
	return r.getUser(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository", "GetUserByID")
	defer span.End()
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, name *string, passwordHash *string) error {
	builder := r.psql.Update("users").Set("updated_at", time.Now().UTC()).Where(sq.Eq{"id": id})
	if name != nil {
		builder = builder.Set("name", *name)
	}
	if passwordHash != nil {
		builder = builder.Set("password_hash", *passwordHash)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}
	result, err := r.systemDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrUserNotFound{Message: "User not found"}
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.systemDB.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
