package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique index rejected the write. This is
	// the authoritative duplicate signal; the service-level pre-check is
	// only a best-effort courtesy for a better error message.
	ErrDuplicate = errors.New("duplicate key")
)

// Cache errors
var (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)
