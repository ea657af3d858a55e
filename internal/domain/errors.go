// Package domain contains the core business entities for Stockroom.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoUsers indicates a user listing yielded no records.
	// Deliberately an error: the API reports an empty collection as a
	// 400-class failure rather than an empty list.
	ErrNoUsers = errors.New("no users found")

	// ErrUsernameTaken indicates another user already holds the username
	// under case/accent-insensitive comparison.
	ErrUsernameTaken = errors.New("username already exist")

	// ErrUserInactive indicates the user account is disabled.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ===========================================
	// Product Errors
	// ===========================================

	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoProducts indicates a product listing yielded no records.
	ErrNoProducts = errors.New("no products found")

	// ErrTitleTaken indicates another product already holds the title
	// under case/accent-insensitive comparison.
	ErrTitleTaken = errors.New("title already exist")

	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrMissingFields indicates required request fields are absent or
	// of the wrong shape.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidData indicates storage rejected the write.
	ErrInvalidData = errors.New("invalid data received")
)

// ValidationError wraps ErrMissingFields with the exact message the API
// must return for the failing operation.
type ValidationError struct {
	// Message is the client-facing description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns ErrMissingFields so errors.Is classification works.
func (e *ValidationError) Unwrap() error {
	return ErrMissingFields
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError wraps a uniqueness sentinel (ErrUsernameTaken or
// ErrTitleTaken) with the exact client-facing message, which embeds the
// duplicate value as submitted.
type ConflictError struct {
	// Err is ErrUsernameTaken or ErrTitleTaken.
	Err error

	// Message is the client-facing description.
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel so errors.Is classification works.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NewConflictError creates a ConflictError with the given message.
func NewConflictError(sentinel error, format string, args ...any) *ConflictError {
	return &ConflictError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
