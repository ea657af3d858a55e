// Package repository provides the data access layer for Stockroom.
// This file contains the driver-selection types used by the server entry
// point to build repositories from configuration.
package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	User    UserRepository
	Product ProductRepository
}

// DatabaseHealth is the minimal surface the health endpoint and shutdown
// path need from a database connection, regardless of driver.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
