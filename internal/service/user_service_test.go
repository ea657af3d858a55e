package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-io/stockroom/internal/domain"
)

func newTestUser(username, password string, roles []string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return domain.NewUser(username, string(hash), roles)
}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     CreateUserInput
		wantErr   error
		wantMsg   string
		setupRepo func(*MockUserRepository)
	}{
		{
			name:  "success",
			input: CreateUserInput{Username: "alice", Password: "secret", Roles: []string{"Admin"}},
		},
		{
			name:  "success with default role",
			input: CreateUserInput{Username: "bob", Password: "secret"},
		},
		{
			name:    "missing username",
			input:   CreateUserInput{Password: "secret"},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name:    "missing password",
			input:   CreateUserInput{Username: "alice"},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name:    "duplicate username",
			input:   CreateUserInput{Username: "alice", Password: "secret"},
			wantErr: domain.ErrUsernameTaken,
			wantMsg: `Username "alice" already exist`,
			setupRepo: func(m *MockUserRepository) {
				m.AddUser(newTestUser("alice", "pw", nil))
			},
		},
		{
			name:    "duplicate username differing in case",
			input:   CreateUserInput{Username: "ALICE", Password: "secret"},
			wantErr: domain.ErrUsernameTaken,
			wantMsg: `Username "ALICE" already exist`,
			setupRepo: func(m *MockUserRepository) {
				m.AddUser(newTestUser("alice", "pw", nil))
			},
		},
		{
			name:    "duplicate username differing in accents",
			input:   CreateUserInput{Username: "José", Password: "secret"},
			wantErr: domain.ErrUsernameTaken,
			wantMsg: `Username "José" already exist`,
			setupRepo: func(m *MockUserRepository) {
				m.AddUser(newTestUser("jose", "pw", nil))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}

			svc := NewUserService(repo, nil, zerolog.Nop())
			user, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if tt.wantMsg != "" && err != nil && err.Error() != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if user.Username != tt.input.Username {
				t.Errorf("expected username %s, got %s", tt.input.Username, user.Username)
			}
			if len(tt.input.Roles) == 0 {
				if len(user.Roles) != 1 || user.Roles[0] != domain.DefaultRole {
					t.Errorf("expected default role, got %v", user.Roles)
				}
			}
			if !user.Active || !user.FirstLogin {
				t.Error("new users should be active with first-login set")
			}
			if user.PasswordHash == tt.input.Password {
				t.Error("password must be stored hashed")
			}
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)) != nil {
				t.Error("stored hash should verify the original password")
			}
		})
	}
}

func TestUserService_Update(t *testing.T) {
	active := true
	inactive := false

	tests := []struct {
		name      string
		input     func(existingID string) UpdateUserInput
		wantErr   error
		wantMsg   string
		setupRepo func(*MockUserRepository) string // returns the target user's ID
	}{
		{
			name: "success",
			setupRepo: func(m *MockUserRepository) string {
				u := newTestUser("alice", "pw", nil)
				m.AddUser(u)
				return u.ID
			},
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "alicia", Roles: []string{"Admin"}, Active: &inactive}
			},
		},
		{
			name: "keeping own username is not a conflict",
			setupRepo: func(m *MockUserRepository) string {
				u := newTestUser("alice", "pw", nil)
				m.AddUser(u)
				return u.ID
			},
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "Alice", Roles: []string{"Admin"}, Active: &active}
			},
		},
		{
			name: "username held by another user",
			setupRepo: func(m *MockUserRepository) string {
				m.AddUser(newTestUser("bob", "pw", nil))
				u := newTestUser("alice", "pw", nil)
				m.AddUser(u)
				return u.ID
			},
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "BOB", Roles: []string{"Admin"}, Active: &active}
			},
			wantErr: domain.ErrUsernameTaken,
			wantMsg: `Username "BOB" already exist`,
		},
		{
			name: "missing roles",
			setupRepo: func(m *MockUserRepository) string {
				u := newTestUser("alice", "pw", nil)
				m.AddUser(u)
				return u.ID
			},
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "alice", Active: &active}
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields except password are required",
		},
		{
			name: "missing active flag",
			setupRepo: func(m *MockUserRepository) string {
				u := newTestUser("alice", "pw", nil)
				m.AddUser(u)
				return u.ID
			},
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "alice", Roles: []string{"Admin"}}
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields except password are required",
		},
		{
			name:      "user not found",
			setupRepo: func(m *MockUserRepository) string { return "missing-id" },
			input: func(id string) UpdateUserInput {
				return UpdateUserInput{ID: id, Username: "alice", Roles: []string{"Admin"}, Active: &active}
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			id := tt.setupRepo(repo)

			svc := NewUserService(repo, nil, zerolog.Nop())
			input := tt.input(id)
			user, err := svc.Update(context.Background(), input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if tt.wantMsg != "" && err != nil && err.Error() != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Username != input.Username {
				t.Errorf("expected username %s, got %s", input.Username, user.Username)
			}
			if user.Active != *input.Active {
				t.Errorf("expected active %v, got %v", *input.Active, user.Active)
			}
		})
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	repo := NewMockUserRepository()
	existing := newTestUser("alice", "old-pw", nil)
	repo.AddUser(existing)

	active := true
	svc := NewUserService(repo, nil, zerolog.Nop())

	// Without a password the credential and first-login flag are untouched.
	user, err := svc.Update(context.Background(), UpdateUserInput{
		ID: existing.ID, Username: "alice", Roles: []string{"Admin"}, Active: &active,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.FirstLogin {
		t.Error("first-login flag should survive an update without a password")
	}
	if user.PasswordHash != existing.PasswordHash {
		t.Error("credential should be unchanged without a password")
	}

	// With a password the credential is rehashed and first-login clears.
	user, err = svc.Update(context.Background(), UpdateUserInput{
		ID: existing.ID, Username: "alice", Roles: []string{"Admin"}, Active: &active,
		Password: "new-pw",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.FirstLogin {
		t.Error("changing the password should clear the first-login flag")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-pw")) != nil {
		t.Error("new credential should verify the new password")
	}
}

func TestUserService_Delete(t *testing.T) {
	t.Run("success returns the deleted record", func(t *testing.T) {
		repo := NewMockUserRepository()
		existing := newTestUser("alice", "pw", nil)
		repo.AddUser(existing)

		svc := NewUserService(repo, nil, zerolog.Nop())
		user, err := svc.Delete(context.Background(), existing.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected deleted record, got %+v", user)
		}
		if _, err := repo.GetByID(context.Background(), existing.ID); err == nil {
			t.Error("user should be gone after delete")
		}
	})

	t.Run("empty id", func(t *testing.T) {
		svc := NewUserService(NewMockUserRepository(), nil, zerolog.Nop())
		_, err := svc.Delete(context.Background(), "")
		if !errors.Is(err, domain.ErrMissingFields) {
			t.Errorf("expected validation error, got %v", err)
		}
		if err.Error() != "User ID required" {
			t.Errorf("expected message %q, got %q", "User ID required", err.Error())
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := NewUserService(NewMockUserRepository(), nil, zerolog.Nop())
		_, err := svc.Delete(context.Background(), "missing")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUserService_List(t *testing.T) {
	t.Run("empty store is an error", func(t *testing.T) {
		svc := NewUserService(NewMockUserRepository(), nil, zerolog.Nop())
		_, err := svc.List(context.Background())
		if !errors.Is(err, domain.ErrNoUsers) {
			t.Errorf("expected ErrNoUsers, got %v", err)
		}
	})

	t.Run("returns users in insertion order", func(t *testing.T) {
		repo := NewMockUserRepository()
		repo.AddUser(newTestUser("alice", "pw", nil))
		repo.AddUser(newTestUser("bob", "pw", nil))

		svc := NewUserService(repo, nil, zerolog.Nop())
		users, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
			t.Errorf("unexpected listing: %+v", users)
		}
	})
}

func TestUserService_Authenticate(t *testing.T) {
	repo := NewMockUserRepository()
	existing := newTestUser("alice", "secret", nil)
	repo.AddUser(existing)

	inactive := newTestUser("carol", "secret", nil)
	inactive.Active = false
	repo.AddUser(inactive)

	svc := NewUserService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice", "secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != existing.ID {
			t.Errorf("expected user %s, got %s", existing.ID, user.ID)
		}
	})

	t.Run("case-insensitive username lookup", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "ALICE", "secret"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "alice", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "nobody", "secret"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("inactive user", func(t *testing.T) {
		if _, err := svc.Authenticate(ctx, "carol", "secret"); !errors.Is(err, domain.ErrUserInactive) {
			t.Errorf("expected ErrUserInactive, got %v", err)
		}
	})
}

func TestUserService_CacheInvalidation(t *testing.T) {
	repo := NewMockUserRepository()
	existing := newTestUser("alice", "pw", nil)
	repo.AddUser(existing)

	cache := NewMockCache()
	cache.Set(context.Background(), usernameCacheKey(existing.ID), []byte("alice"), 0)

	active := true
	svc := NewUserService(repo, cache, zerolog.Nop())

	if _, err := svc.Update(context.Background(), UpdateUserInput{
		ID: existing.ID, Username: "alicia", Roles: []string{"Admin"}, Active: &active,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cache.Get(context.Background(), usernameCacheKey(existing.ID)); err == nil {
		t.Error("rename should invalidate the cached username")
	}
}
