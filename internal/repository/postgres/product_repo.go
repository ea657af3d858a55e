package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stockroom-io/stockroom/internal/domain"
	"github.com/stockroom-io/stockroom/internal/repository"
)

// productRepository implements repository.ProductRepository for PostgreSQL.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, no, title, title_fold, description, img_urls, available, created_at, updated_at`

// Create creates a new product with its seed log entry. The sequence number
// comes from a native sequence, so values are never reused after deletes.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (id, no, title, title_fold, description, img_urls, available, created_at, updated_at)
			VALUES ($1, nextval('product_no_seq'), $2, $3, $4, $5, $6, $7, $8)
			RETURNING no
		`,
			product.ID,
			product.Title,
			product.TitleFold,
			product.Description,
			product.ImgURLs,
			product.Available,
			product.CreatedAt,
			product.UpdatedAt,
		).Scan(&product.No)
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
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := r.scanProduct(ctx, query, id)
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
	query := `SELECT ` + productColumns + ` FROM products WHERE title_fold = $1`
	product, err := r.scanProduct(ctx, query, titleFold)
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
	rows, err := r.db.Pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY no`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product := &domain.Product{}
		if err := scanProductRow(rows, product); err != nil {
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
	product.UpdatedAt = time.Now().UTC()

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET title = $1, title_fold = $2, description = $3, img_urls = $4,
			    available = $5, updated_at = $6
			WHERE id = $7
		`,
			product.Title,
			product.TitleFold,
			product.Description,
			product.ImgURLs,
			product.Available,
			product.UpdatedAt,
			product.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: title '%s'", repository.ErrDuplicate, product.Title)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}

		var persisted int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM product_log WHERE product_id = $1`, product.ID).Scan(&persisted); err != nil {
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
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// insertLogEntry appends one log row for a product.
func insertLogEntry(ctx context.Context, tx pgx.Tx, productID string, entry domain.LogEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO product_log (product_id, user_id, amount, operation_time)
		VALUES ($1, $2, $3, $4)
	`,
		productID,
		entry.UserID,
		entry.Amount,
		entry.OperationTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// loadLog loads the product's log entries in append order.
func (r *productRepository) loadLog(ctx context.Context, product *domain.Product) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT user_id, amount, operation_time
		FROM product_log
		WHERE product_id = $1
		ORDER BY id
	`, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product log: %w", err)
	}
	defer rows.Close()

	log := []domain.LogEntry{}
	for rows.Next() {
		var entry domain.LogEntry
		if err := rows.Scan(&entry.UserID, &entry.Amount, &entry.OperationTime); err != nil {
			return fmt.Errorf("failed to scan log entry: %w", err)
		}
		log = append(log, entry)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating log entries: %w", err)
	}

	product.Log = log
	return nil
}

// scanProduct runs a single-row product query (without its log).
func (r *productRepository) scanProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	product := &domain.Product{}
	row := r.db.Pool.QueryRow(ctx, query, arg)
	if err := scanProductRow(row, product); err != nil {
		return nil, err
	}
	return product, nil
}

// scanProductRow scans one product row into product.
func scanProductRow(row pgx.Row, product *domain.Product) error {
	err := row.Scan(
		&product.ID,
		&product.No,
		&product.Title,
		&product.TitleFold,
		&product.Description,
		&product.ImgURLs,
		&product.Available,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to scan product: %w", err)
	}

	if product.ImgURLs == nil {
		product.ImgURLs = []string{}
	}

	return nil
}

// Ensure productRepository implements repository.ProductRepository.
var _ repository.ProductRepository = (*productRepository)(nil)
