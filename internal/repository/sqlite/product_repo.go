package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/repository"
)

// productRepository implements repository.ProductRepository for SQLite.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, no, title, title_fold, description, img_urls, available, created_at, updated_at`

// Create creates a new product with its seed log entry, assigning the next
// sequence number inside a single transaction. Sequence values are never
// reused, so deleted products leave gaps.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	imgURLs, err := json.Marshal(product.ImgURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image URLs: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Bump the counter and read the assigned value.
		if _, err := tx.ExecContext(ctx,
			`UPDATE sequences SET value = value + 1 WHERE name = 'product_no'`); err != nil {
			return fmt.Errorf("failed to advance product sequence: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT value FROM sequences WHERE name = 'product_no'`).Scan(&product.No); err != nil {
			return fmt.Errorf("failed to read product sequence: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			product.ID,
			product.No,
			product.Title,
			product.TitleFold,
			product.Description,
			string(imgURLs),
			boolToInt(product.Available),
			product.CreatedAt.Format(time.RFC3339Nano),
			product.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: title '%s'", repository.ErrDuplicate, product.Title)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		for _, entry := range product.Log {
			if err := insertLogEntry(ctx, tx, product.ID, entry); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID retrieves a product, including its log, by ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLog(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetByFold retrieves a product by folded title.
func (r *productRepository) GetByFold(ctx context.Context, titleFold string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE title_fold = ?`
	product, err := r.scanProduct(r.db.QueryRowContext(ctx, query, titleFold))
	if err != nil {
		return nil, err
	}
	if err := r.loadLog(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// List returns all products in insertion order with their logs.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY no`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	for _, product := range products {
		if err := r.loadLog(ctx, product); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// Update replaces the product's fields and appends log entries beyond the
// persisted count. Persisted entries are never rewritten.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	imgURLs, err := json.Marshal(product.ImgURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image URLs: %w", err)
	}

	product.UpdatedAt = time.Now().UTC()

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET title = ?, title_fold = ?, description = ?, img_urls = ?,
			    available = ?, updated_at = ?
			WHERE id = ?
		`,
			product.Title,
			product.TitleFold,
			product.Description,
			string(imgURLs),
			boolToInt(product.Available),
			product.UpdatedAt.Format(time.RFC3339Nano),
			product.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: title '%s'", repository.ErrDuplicate, product.Title)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}

		var persisted int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM product_log WHERE product_id = ?`, product.ID).Scan(&persisted); err != nil {
			return fmt.Errorf("failed to count log entries: %w", err)
		}

		for i := persisted; i < len(product.Log); i++ {
			if err := insertLogEntry(ctx, tx, product.ID, product.Log[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete deletes a product by ID. The log is removed by cascade.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// insertLogEntry appends one log row for a product.
func insertLogEntry(ctx context.Context, tx *sql.Tx, productID string, entry domain.LogEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_log (product_id, user_id, amount, operation_time)
		VALUES (?, ?, ?, ?)
	`,
		productID,
		entry.UserID,
		entry.Amount,
		entry.OperationTime.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// loadLog loads the product's log entries in append order.
func (r *productRepository) loadLog(ctx context.Context, product *domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, amount, operation_time
		FROM product_log
		WHERE product_id = ?
		ORDER BY id
	`, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product log: %w", err)
	}
	defer rows.Close()

	log := []domain.LogEntry{}
	for rows.Next() {
		var entry domain.LogEntry
		var operationTime string
		if err := rows.Scan(&entry.UserID, &entry.Amount, &operationTime); err != nil {
			return fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.OperationTime, _ = time.Parse(time.RFC3339Nano, operationTime)
		log = append(log, entry)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating log entries: %w", err)
	}

	product.Log = log
	return nil
}

// scanProduct scans one product row (without its log).
func (r *productRepository) scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var imgURLs string
	var available int
	var createdAt, updatedAt string

	err := row.Scan(
		&product.ID,
		&product.No,
		&product.Title,
		&product.TitleFold,
		&product.Description,
		&imgURLs,
		&available,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if err := json.Unmarshal([]byte(imgURLs), &product.ImgURLs); err != nil {
		return nil, fmt.Errorf("failed to decode image URLs: %w", err)
	}
	if product.ImgURLs == nil {
		product.ImgURLs = []string{}
	}
	product.Available = available != 0
	product.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	product.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return product, nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
