package domain

import (
	"errors"
	"fmt"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ErrCampaignNotFound is returned when a campaign lookup by id or slug misses.
type ErrCampaignNotFound struct {
	Key string
}

func (e *ErrCampaignNotFound) Error() string {
	return CampaignNotFoundMessage
}

// CampaignNotFoundMessage is shown to visitors of a missing campaign page.
const CampaignNotFoundMessage = "존재하지 않거나 삭제된 캠페인입니다."

// ErrSlugTaken is returned when another campaign already owns the requested slug.
var ErrSlugTaken = errors.New("이미 사용 중인 단축 주소입니다.")

// ErrVersionConflict is returned when a save carries a stale base version.
type ErrVersionConflict struct {
	CampaignID int64
	Expected   int64
	Actual     int64
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("campaign %d was modified concurrently (base version %d, current %d)", e.CampaignID, e.Expected, e.Actual)
}

// ErrUnauthorized is returned for missing, expired or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTooManyAttempts is returned when an account exceeds the login attempt limit.
var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	var cnf *ErrCampaignNotFound
	var snf *ErrSettingNotFound
	var unf *ErrUserNotFound
	return errors.As(err, &nf) || errors.As(err, &cnf) || errors.As(err, &snf) || errors.As(err, &unf)
}
