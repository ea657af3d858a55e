// Package service provides business logic services for Stockroom.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError indicates an unexpected infrastructure failure.
	// Handlers report it as a generic server error.
	ErrInternalError = errors.New("internal server error")
)
