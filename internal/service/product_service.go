// Package service provides business logic services for Stockroom.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/repository"
	"github.com/stockroom-io/stockroom/internal/storage"
)

// defaultResolveConcurrency bounds the per-product fan-out when resolving
// log entry authors to usernames.
const defaultResolveConcurrency = 8

// ProductService handles product management operations.
type ProductService struct {
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	cache          repository.Cache
	images         storage.ImageStore
	resolveWorkers int
	logger         zerolog.Logger
}

// NewProductService creates a new ProductService. cache and images may be nil.
func NewProductService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cache repository.Cache,
	images storage.ImageStore,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{
		productRepo:    productRepo,
		userRepo:       userRepo,
		cache:          cache,
		images:         images,
		resolveWorkers: defaultResolveConcurrency,
		logger:         logger.With().Str("service", "product").Logger(),
	}
}

// ProductView is a product as returned by the read path: every log entry
// carries the author's current username, or the deleted-user placeholder
// when the reference dangles.
type ProductView struct {
	domain.Product
	Log []domain.ResolvedLogEntry `json:"log"`
}

// List returns all products in insertion order with resolved log authors.
// An empty result set is an error by policy.
func (s *ProductService) List(ctx context.Context) ([]*ProductView, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if len(products) == 0 {
		return nil, domain.ErrNoProducts
	}

	views := make([]*ProductView, len(products))
	for i, product := range products {
		resolved, err := s.resolveLog(ctx, product.Log)
		if err != nil {
			return nil, err
		}
		views[i] = &ProductView{Product: *product, Log: resolved}
	}

	return views, nil
}

// resolveLog maps every log entry's userId to the current username. The
// lookups are independent, so they fan out concurrently; the join is by
// index, which keeps the response order identical to the log order no
// matter which lookup finishes first.
func (s *ProductService) resolveLog(ctx context.Context, log []domain.LogEntry) ([]domain.ResolvedLogEntry, error) {
	resolved := make([]domain.ResolvedLogEntry, len(log))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveWorkers)

	for i, entry := range log {
		g.Go(func() error {
			username, err := s.resolveUsername(gctx, entry.UserID)
			if err != nil {
				return err
			}
			resolved[i] = domain.ResolvedLogEntry{LogEntry: entry, Username: username}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve log usernames")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return resolved, nil
}

// resolveUsername returns the current username for a user ID, consulting
// the cache first. A dangling reference resolves to the placeholder.
func (s *ProductService) resolveUsername(ctx context.Context, userID string) (string, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, usernameCacheKey(userID)); err == nil {
			return string(val), nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DeletedUserPlaceholder, nil
		}
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, usernameCacheKey(userID), []byte(user.Username), usernameCacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to cache username")
		}
	}

	return user.Username, nil
}

// CreateProductInput contains the data needed to create a new product.
type CreateProductInput struct {
	Title       string
	Description string

	// ImgURLs must be present as a sequence; nil means the field was
	// absent or not an array.
	ImgURLs []string

	// UserID and Amount seed the product's first log entry.
	UserID string
	Amount *float64
}

// Create creates a new product with exactly one seed log entry.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Title == "" || input.Description == "" || input.ImgURLs == nil ||
		input.UserID == "" || input.Amount == nil {
		return nil, domain.NewValidationError("All fields are required")
	}

	// Best-effort duplicate pre-check; the unique index on the folded
	// column is the authoritative constraint under concurrent creates.
	if _, err := s.productRepo.GetByFold(ctx, domain.Fold(input.Title)); err == nil {
		return nil, domain.NewConflictError(domain.ErrTitleTaken,
			"Title %q already exist", input.Title)
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to check title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	seed := domain.LogEntry{
		UserID:        input.UserID,
		Amount:        *input.Amount,
		OperationTime: time.Now().UTC(),
	}
	product := domain.NewProduct(input.Title, input.Description, input.ImgURLs, seed)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflictError(domain.ErrTitleTaken,
				"Title %q already exist", input.Title)
		}
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to create product")
		return nil, domain.NewValidationError("Invalid product data received")
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Int64("no", product.No).
		Str("title", product.Title).
		Msg("product created")

	return product, nil
}

// UpdateProductInput contains the data needed to update a product.
type UpdateProductInput struct {
	ID          string
	Title       string
	Description string
	ImgURLs     []string

	// Available must be present; decoded as a pointer so a missing
	// boolean is distinguishable from false.
	Available *bool

	// Amount, when present, appends one log entry authored by UserID.
	// Zero is a valid amount and appends like any other value.
	UserID string
	Amount *float64
}

// Update replaces the product's fields and optionally appends one log
// entry. Prior entries are never modified or reordered.
func (s *ProductService) Update(ctx context.Context, input UpdateProductInput) (*domain.Product, error) {
	if input.ID == "" || input.Title == "" || input.Description == "" ||
		input.ImgURLs == nil || input.Available == nil {
		return nil, domain.NewValidationError("All fields are required")
	}
	if input.Amount != nil && input.UserID == "" {
		return nil, domain.NewValidationError("All fields are required")
	}

	product, err := s.productRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", input.ID).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Duplicate check excluding self: keeping the same title is fine.
	if dup, err := s.productRepo.GetByFold(ctx, domain.Fold(input.Title)); err == nil {
		if dup.ID != input.ID {
			return nil, domain.NewConflictError(domain.ErrTitleTaken,
				"Title %q already exist", input.Title)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to check title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	product.Title = input.Title
	product.TitleFold = domain.Fold(input.Title)
	product.Description = input.Description
	product.ImgURLs = input.ImgURLs
	product.Available = *input.Available

	if input.Amount != nil {
		product.AppendLog(domain.LogEntry{
			UserID:        input.UserID,
			Amount:        *input.Amount,
			OperationTime: time.Now().UTC(),
		})
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, domain.NewConflictError(domain.ErrTitleTaken,
				"Title %q already exist", input.Title)
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to update product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("title", product.Title).
		Int("log_len", len(product.Log)).
		Msg("product updated")

	return product, nil
}

// Delete deletes a product and returns the deleted record.
func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.NewValidationError("ID is required")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("title", product.Title).
		Msg("product deleted")

	return product, nil
}

// AttachImage stores an uploaded image and appends its public URL to the
// product's image list.
func (s *ProductService) AttachImage(ctx context.Context, productID, filename string, r io.Reader, contentType string) (*domain.Product, error) {
	if s.images == nil {
		return nil, fmt.Errorf("%w: image storage not configured", ErrInternalError)
	}
	if productID == "" {
		return nil, domain.NewValidationError("ID is required")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	url, err := s.images.Put(ctx, storage.ImageKey(product.ID, filename), r, contentType)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to store image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	product.ImgURLs = append(product.ImgURLs, url)

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to persist image URL")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("url", url).
		Msg("image attached")

	return product, nil
}
