// Package repository defines data access interfaces for Stockroom.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/stockroom-io/stockroom/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByFold retrieves a user by folded username. This is the
	// case/accent-insensitive lookup used for duplicate pre-checks.
	GetByFold(ctx context.Context, usernameFold string) (*domain.User, error)

	// List returns all users in insertion order.
	List(ctx context.Context) ([]*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create creates a new product, assigns the next sequence number to
	// product.No, and persists the seed log entry.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product, including its log, by ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByFold retrieves a product by folded title. This is the
	// case/accent-insensitive lookup used for duplicate pre-checks.
	GetByFold(ctx context.Context, titleFold string) (*domain.Product, error)

	// List returns all products in insertion order, each with its log
	// entries in append order.
	List(ctx context.Context) ([]*domain.Product, error)

	// Update replaces the product's fields and appends any log entries
	// present on the product beyond those already persisted. Persisted
	// entries are never rewritten.
	Update(ctx context.Context, product *domain.Product) error

	// Delete deletes a product and its log by ID.
	Delete(ctx context.Context, id string) error
}
