// Package service provides business logic services for Stockroom.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/repository"
)

// usernameCacheTTL bounds how long a resolved username may be served from
// cache. The user service also invalidates eagerly on update and delete.
const usernameCacheTTL = time.Minute

// usernameCacheKey is the cache key for a userId -> username lookup.
func usernameCacheKey(userID string) string {
	return "username:" + userID
}

// UserService handles user management operations.
type UserService struct {
	userRepo repository.UserRepository
	cache    repository.Cache
	logger   zerolog.Logger
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(userRepo repository.UserRepository, cache repository.Cache, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// List returns all users. The credential hash is excluded by the entity's
// serialization. An empty result set is an error by policy.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if len(users) == 0 {
		return nil, domain.ErrNoUsers
	}

	return users, nil
}

// CreateUserInput contains the data needed to create a new user.
type CreateUserInput struct {
	Username string
	Password string

	// Roles is optional; when empty the default role is assigned.
	Roles []string
}

// Create creates a new user account.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, domain.NewValidationError("All fields are required")
	}

	// Best-effort duplicate pre-check; the unique index on the folded
	// column is the authoritative constraint under concurrent creates.
	if _, err := s.userRepo.GetByFold(ctx, domain.Fold(input.Username)); err == nil {
		return nil, domain.NewConflictError(domain.ErrUsernameTaken,
			"Username %q already exist", input.Username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, string(hash), input.Roles)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflictError(domain.ErrUsernameTaken,
				"Username %q already exist", input.Username)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, domain.NewValidationError("Invalid user data received")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return user, nil
}

// UpdateUserInput contains the data needed to update a user.
type UpdateUserInput struct {
	ID       string
	Username string
	Roles    []string

	// Active must be present; the handler decodes it as a pointer so a
	// missing boolean is distinguishable from false.
	Active *bool

	// Password is optional; empty means keep the current credential.
	Password string
}

// Update replaces a user's username, roles and active flag, and optionally
// replaces the credential. Changing the password clears the first-login flag.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	if input.ID == "" || input.Username == "" || len(input.Roles) == 0 || input.Active == nil {
		return nil, domain.NewValidationError("All fields except password are required")
	}

	user, err := s.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", input.ID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Duplicate check excluding self: keeping your own username is fine.
	if dup, err := s.userRepo.GetByFold(ctx, domain.Fold(input.Username)); err == nil {
		if dup.ID != input.ID {
			return nil, domain.NewConflictError(domain.ErrUsernameTaken,
				"Username %q already exist", input.Username)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user.Username = input.Username
	user.UsernameFold = domain.Fold(input.Username)
	user.Roles = input.Roles
	user.Active = *input.Active

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = string(hash)
		user.FirstLogin = false
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, domain.NewConflictError(domain.ErrUsernameTaken,
				"Username %q already exist", input.Username)
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to update user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidateUsername(ctx, user.ID)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Bool("active", user.Active).
		Msg("user updated")

	return user, nil
}

// Delete deletes a user account and returns the deleted record.
func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.NewValidationError("User ID required")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidateUsername(ctx, id)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user deleted")

	return user, nil
}

// Authenticate verifies user credentials and returns the user.
// Session or token issuance is the upstream authenticator's concern.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.NewValidationError("All fields are required")
	}

	user, err := s.userRepo.GetByFold(ctx, domain.Fold(username))
	if err != nil {
		// Don't expose whether the username exists.
		s.logger.Debug().Str("username", username).Msg("user not found during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("username", username).Msg("inactive user attempted authentication")
		return nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// invalidateUsername drops the cached username for a user so product log
// resolution never serves a stale name.
func (s *UserService) invalidateUsername(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, usernameCacheKey(userID)); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate username cache")
	}
}
