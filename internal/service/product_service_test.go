package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

func newTestProduct(title, userID string, amount float64) *domain.Product {
	return domain.NewProduct(title, "a description", []string{}, domain.LogEntry{
		UserID:        userID,
		Amount:        amount,
		OperationTime: time.Now().UTC(),
	})
}

func TestProductService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     CreateProductInput
		wantErr   error
		wantMsg   string
		setupRepo func(*MockProductRepository)
	}{
		{
			name: "success",
			input: CreateProductInput{
				Title: "Drill", Description: "Cordless drill",
				ImgURLs: []string{"http://img/1.png"},
				UserID:  "u1", Amount: float64Ptr(10),
			},
		},
		{
			name: "zero amount is a valid seed",
			input: CreateProductInput{
				Title: "Hammer", Description: "Claw hammer",
				ImgURLs: []string{},
				UserID:  "u1", Amount: float64Ptr(0),
			},
		},
		{
			name: "missing title",
			input: CreateProductInput{
				Description: "Cordless drill", ImgURLs: []string{},
				UserID: "u1", Amount: float64Ptr(10),
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name: "missing image list",
			input: CreateProductInput{
				Title: "Drill", Description: "Cordless drill",
				UserID: "u1", Amount: float64Ptr(10),
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name: "missing amount",
			input: CreateProductInput{
				Title: "Drill", Description: "Cordless drill",
				ImgURLs: []string{}, UserID: "u1",
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name: "duplicate title differing in case",
			input: CreateProductInput{
				Title: "DRILL", Description: "Another drill",
				ImgURLs: []string{}, UserID: "u1", Amount: float64Ptr(1),
			},
			wantErr: domain.ErrTitleTaken,
			wantMsg: `Title "DRILL" already exist`,
			setupRepo: func(m *MockProductRepository) {
				m.AddProduct(newTestProduct("drill", "u1", 5))
			},
		},
		{
			name: "duplicate title differing in accents",
			input: CreateProductInput{
				Title: "Café table", Description: "Small table",
				ImgURLs: []string{}, UserID: "u1", Amount: float64Ptr(1),
			},
			wantErr: domain.ErrTitleTaken,
			wantMsg: `Title "Café table" already exist`,
			setupRepo: func(m *MockProductRepository) {
				m.AddProduct(newTestProduct("cafe table", "u1", 5))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockProductRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}

			svc := NewProductService(repo, NewMockUserRepository(), nil, nil, zerolog.Nop())
			product, err := svc.Create(context.Background(), tt.input)

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
			if product.Title != tt.input.Title {
				t.Errorf("expected title %s, got %s", tt.input.Title, product.Title)
			}
			if product.No == 0 {
				t.Error("sequence number should be assigned at creation")
			}
			if len(product.Log) != 1 {
				t.Fatalf("new product should carry exactly one log entry, got %d", len(product.Log))
			}
			if product.Log[0].UserID != tt.input.UserID || product.Log[0].Amount != *tt.input.Amount {
				t.Errorf("seed entry mismatch: %+v", product.Log[0])
			}
			if !product.Available {
				t.Error("new products should be available")
			}
		})
	}
}

func TestProductService_SequenceNeverReused(t *testing.T) {
	repo := NewMockProductRepository()
	svc := NewProductService(repo, NewMockUserRepository(), nil, nil, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateProductInput{
		Title: "Drill", Description: "d", ImgURLs: []string{}, UserID: "u1", Amount: float64Ptr(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Create(ctx, CreateProductInput{
		Title: "Hammer", Description: "h", ImgURLs: []string{}, UserID: "u1", Amount: float64Ptr(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.No <= first.No {
		t.Errorf("sequence numbers must keep increasing: first=%d second=%d", first.No, second.No)
	}
}

func TestProductService_Update(t *testing.T) {
	tests := []struct {
		name       string
		setupRepo  func(*MockProductRepository) string // returns target product ID
		input      func(id string) UpdateProductInput
		wantErr    error
		wantMsg    string
		wantLogLen int
	}{
		{
			name: "field update without amount leaves the log alone",
			setupRepo: func(m *MockProductRepository) string {
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "Drill XL", Description: "bigger",
					ImgURLs: []string{"http://img/2.png"}, Available: boolPtr(false),
				}
			},
			wantLogLen: 1,
		},
		{
			name: "amount appends one entry",
			setupRepo: func(m *MockProductRepository) string {
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "drill", Description: "d",
					ImgURLs: []string{}, Available: boolPtr(true),
					UserID: "u2", Amount: float64Ptr(-3),
				}
			},
			wantLogLen: 2,
		},
		{
			name: "zero amount still appends",
			setupRepo: func(m *MockProductRepository) string {
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "drill", Description: "d",
					ImgURLs: []string{}, Available: boolPtr(true),
					UserID: "u2", Amount: float64Ptr(0),
				}
			},
			wantLogLen: 2,
		},
		{
			name: "keeping own title is not a conflict",
			setupRepo: func(m *MockProductRepository) string {
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "DRILL", Description: "d",
					ImgURLs: []string{}, Available: boolPtr(true),
				}
			},
			wantLogLen: 1,
		},
		{
			name: "title held by another product",
			setupRepo: func(m *MockProductRepository) string {
				m.AddProduct(newTestProduct("hammer", "u1", 5))
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "Hammer", Description: "d",
					ImgURLs: []string{}, Available: boolPtr(true),
				}
			},
			wantErr: domain.ErrTitleTaken,
			wantMsg: `Title "Hammer" already exist`,
		},
		{
			name: "missing available flag",
			setupRepo: func(m *MockProductRepository) string {
				p := newTestProduct("drill", "u1", 5)
				m.AddProduct(p)
				return p.ID
			},
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "drill", Description: "d", ImgURLs: []string{},
				}
			},
			wantErr: domain.ErrMissingFields,
			wantMsg: "All fields are required",
		},
		{
			name:      "product not found",
			setupRepo: func(m *MockProductRepository) string { return "missing-id" },
			input: func(id string) UpdateProductInput {
				return UpdateProductInput{
					ID: id, Title: "drill", Description: "d",
					ImgURLs: []string{}, Available: boolPtr(true),
				}
			},
			wantErr: domain.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockProductRepository()
			id := tt.setupRepo(repo)

			svc := NewProductService(repo, NewMockUserRepository(), nil, nil, zerolog.Nop())
			input := tt.input(id)
			product, err := svc.Update(context.Background(), input)

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
			if len(product.Log) != tt.wantLogLen {
				t.Errorf("expected log length %d, got %d", tt.wantLogLen, len(product.Log))
			}
			if product.Title != input.Title {
				t.Errorf("expected title %s, got %s", input.Title, product.Title)
			}
			if product.Available != *input.Available {
				t.Errorf("expected available %v, got %v", *input.Available, product.Available)
			}

			// The seed entry must be intact after any update.
			if product.Log[0].UserID != "u1" || product.Log[0].Amount != 5 {
				t.Errorf("seed entry was rewritten: %+v", product.Log[0])
			}
		})
	}
}

func TestProductService_Delete(t *testing.T) {
	t.Run("success returns the deleted record", func(t *testing.T) {
		repo := NewMockProductRepository()
		p := newTestProduct("drill", "u1", 5)
		repo.AddProduct(p)

		svc := NewProductService(repo, NewMockUserRepository(), nil, nil, zerolog.Nop())
		product, err := svc.Delete(context.Background(), p.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if product.Title != "drill" {
			t.Errorf("expected deleted record, got %+v", product)
		}
		if _, err := repo.GetByID(context.Background(), p.ID); err == nil {
			t.Error("product should be gone after delete")
		}
	})

	t.Run("empty id", func(t *testing.T) {
		svc := NewProductService(NewMockProductRepository(), NewMockUserRepository(), nil, nil, zerolog.Nop())
		_, err := svc.Delete(context.Background(), "")
		if !errors.Is(err, domain.ErrMissingFields) {
			t.Errorf("expected validation error, got %v", err)
		}
		if err.Error() != "ID is required" {
			t.Errorf("expected message %q, got %q", "ID is required", err.Error())
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := NewProductService(NewMockProductRepository(), NewMockUserRepository(), nil, nil, zerolog.Nop())
		_, err := svc.Delete(context.Background(), "missing")
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestProductService_List(t *testing.T) {
	t.Run("empty store is an error", func(t *testing.T) {
		svc := NewProductService(NewMockProductRepository(), NewMockUserRepository(), nil, nil, zerolog.Nop())
		_, err := svc.List(context.Background())
		if !errors.Is(err, domain.ErrNoProducts) {
			t.Errorf("expected ErrNoProducts, got %v", err)
		}
	})

	t.Run("resolves log authors to current usernames", func(t *testing.T) {
		userRepo := NewMockUserRepository()
		author := newTestUser("alice", "pw", nil)
		userRepo.AddUser(author)

		productRepo := NewMockProductRepository()
		p := newTestProduct("drill", author.ID, 5)
		p.AppendLog(domain.LogEntry{UserID: "gone", Amount: -1, OperationTime: time.Now().UTC()})
		productRepo.AddProduct(p)

		svc := NewProductService(productRepo, userRepo, nil, nil, zerolog.Nop())
		views, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected one product, got %d", len(views))
		}

		log := views[0].Log
		if len(log) != 2 {
			t.Fatalf("expected two log entries, got %d", len(log))
		}
		if log[0].Username != "alice" {
			t.Errorf("expected resolved username alice, got %s", log[0].Username)
		}
		if log[1].Username != domain.DeletedUserPlaceholder {
			t.Errorf("expected placeholder for deleted author, got %s", log[1].Username)
		}
		// Entry order must match log order regardless of lookup timing.
		if log[0].Amount != 5 || log[1].Amount != -1 {
			t.Errorf("entries out of order: %+v", log)
		}
	})

	t.Run("memoizes username lookups in the cache", func(t *testing.T) {
		userRepo := NewMockUserRepository()
		author := newTestUser("alice", "pw", nil)
		userRepo.AddUser(author)

		productRepo := NewMockProductRepository()
		productRepo.AddProduct(newTestProduct("drill", author.ID, 5))

		cache := NewMockCache()
		svc := NewProductService(productRepo, userRepo, cache, nil, zerolog.Nop())

		if _, err := svc.List(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cache.sets != 1 {
			t.Errorf("expected one cache fill, got %d", cache.sets)
		}

		val, err := cache.Get(context.Background(), usernameCacheKey(author.ID))
		if err != nil {
			t.Fatalf("cache should hold the username: %v", err)
		}
		if string(val) != "alice" {
			t.Errorf("expected cached username alice, got %s", val)
		}
	})

	t.Run("serves usernames from cache when present", func(t *testing.T) {
		userRepo := NewMockUserRepository()
		productRepo := NewMockProductRepository()
		productRepo.AddProduct(newTestProduct("drill", "u1", 5))

		cache := NewMockCache()
		cache.Set(context.Background(), usernameCacheKey("u1"), []byte("cached-name"), 0)

		svc := NewProductService(productRepo, userRepo, cache, nil, zerolog.Nop())
		views, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if views[0].Log[0].Username != "cached-name" {
			t.Errorf("expected cached username, got %s", views[0].Log[0].Username)
		}
	})
}

func TestProductService_AttachImage(t *testing.T) {
	repo := NewMockProductRepository()
	p := newTestProduct("drill", "u1", 5)
	repo.AddProduct(p)

	store := &mockImageStore{url: "http://img/abc.png"}
	svc := NewProductService(repo, NewMockUserRepository(), nil, store, zerolog.Nop())

	product, err := svc.AttachImage(context.Background(), p.ID, "abc.png", nil, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(product.ImgURLs) != 1 || product.ImgURLs[0] != "http://img/abc.png" {
		t.Errorf("expected stored URL on product, got %v", product.ImgURLs)
	}

	if _, err := svc.AttachImage(context.Background(), "missing", "abc.png", nil, "image/png"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
