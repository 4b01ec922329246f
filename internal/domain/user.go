package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_user_repository.go -package mocks github.com/lifenjoy/campaigns/internal/domain UserRepository

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

// User is an admin console account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         UserRole   `json:"role"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ScanUser scans the columns listed in UserColumns.
func ScanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (*User, error) {
	var u User
	var role string
	if err := scanner.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = UserRole(role)
	return &u, nil
}

var UserColumns = []string{"id", "email", "name", "role", "password_hash", "last_login", "created_at", "updated_at"}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	// UpdateProfile writes the non-nil fields.
	UpdateProfile(ctx context.Context, id string, name *string, passwordHash *string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// ErrUserNotFound is returned when a user is not found
type ErrUserNotFound struct {
	Message string
}

func (e *ErrUserNotFound) Error() string {
	return e.Message
}

// ErrUserExists is returned when trying to create a user that already exists
type ErrUserExists struct {
	Message string
}

func (e *ErrUserExists) Error() string {
	return e.Message
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name == nil && r.Password == nil {
		return fmt.Errorf("invalid update profile request: nothing to update")
	}
	if r.Name != nil {
		name := SanitizeText(*r.Name)
		if !govalidator.StringLength(name, "1", "100") {
			return fmt.Errorf("invalid update profile request: name length must be between 1 and 100")
		}
		r.Name = &name
	}
	if r.Password != nil && *r.Password == "" {
		return fmt.Errorf("invalid update profile request: password must not be empty")
	}
	return nil
}
