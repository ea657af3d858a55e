package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/repository"
)

// =============================================================================
// Mock User Repository
// =============================================================================

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[string]*domain.User // keyed by ID
	order     []string                // insertion order of IDs
	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.UsernameFold == user.UsernameFold {
			return fmt.Errorf("%w: username '%s'", repository.ErrDuplicate, user.Username)
		}
	}
	m.users[user.ID] = user
	m.order = append(m.order, user.ID)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, exists := m.users[id]; exists {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByFold(ctx context.Context, usernameFold string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.UsernameFold == usernameFold {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*domain.User, 0, len(m.order))
	for _, id := range m.order {
		copied := *m.users[id]
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.users[user.ID]; !exists {
		return repository.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.UsernameFold == user.UsernameFold {
			return fmt.Errorf("%w: username '%s'", repository.ErrDuplicate, user.Username)
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.users[id]; !exists {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddUser seeds a user directly, bypassing duplicate checks.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.users[user.ID] = user
	m.order = append(m.order, user.ID)
}

// =============================================================================
// Mock Product Repository
// =============================================================================

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	products  map[string]*domain.Product // keyed by ID
	order     []string
	nextNo    int64
	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{products: make(map[string]*domain.Product)}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, p := range m.products {
		if p.TitleFold == product.TitleFold {
			return fmt.Errorf("%w: title '%s'", repository.ErrDuplicate, product.Title)
		}
	}
	m.nextNo++
	product.No = m.nextNo
	copied := cloneProduct(product)
	m.products[product.ID] = copied
	m.order = append(m.order, product.ID)
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, exists := m.products[id]; exists {
		return cloneProduct(p), nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepository) GetByFold(ctx context.Context, titleFold string) (*domain.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, p := range m.products {
		if p.TitleFold == titleFold {
			return cloneProduct(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*domain.Product, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, cloneProduct(m.products[id]))
	}
	return result, nil
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, exists := m.products[product.ID]
	if !exists {
		return repository.ErrNotFound
	}
	for _, p := range m.products {
		if p.ID != product.ID && p.TitleFold == product.TitleFold {
			return fmt.Errorf("%w: title '%s'", repository.ErrDuplicate, product.Title)
		}
	}
	// Entries beyond those persisted are appended; prior entries stay as-is.
	copied := cloneProduct(product)
	if len(product.Log) > len(stored.Log) {
		copied.Log = append(append([]domain.LogEntry{}, stored.Log...), product.Log[len(stored.Log):]...)
	} else {
		copied.Log = stored.Log
	}
	m.products[product.ID] = copied
	return nil
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.products[id]; !exists {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddProduct seeds a product directly, bypassing sequence assignment.
func (m *MockProductRepository) AddProduct(product *domain.Product) {
	m.products[product.ID] = product
	m.order = append(m.order, product.ID)
}

func cloneProduct(p *domain.Product) *domain.Product {
	copied := *p
	copied.ImgURLs = append([]string{}, p.ImgURLs...)
	copied.Log = append([]domain.LogEntry{}, p.Log...)
	return &copied
}

// =============================================================================
// Mock Cache
// =============================================================================

// MockCache is a mock implementation of repository.Cache.
type MockCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if val, exists := m.entries[key]; exists {
		return val, nil
	}
	return nil, repository.ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.sets++
	m.entries[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.deletes++
	delete(m.entries, key)
	return nil
}

// =============================================================================
// Mock Image Store
// =============================================================================

// mockImageStore is a mock implementation of storage.ImageStore.
type mockImageStore struct {
	url    string
	putErr error
	keys   []string
}

func (m *mockImageStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.keys = append(m.keys, key)
	return m.url, nil
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	return nil
}
