package postgres

import (
	"context"
	"fmt"
)

// schema is the initial schema for Stockroom on PostgreSQL. The product
// sequence is a native sequence so values are monotonic and never reused,
// even across deletes.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    username_fold TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    roles         JSONB NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    first_login   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_fold ON users(username_fold);

CREATE SEQUENCE IF NOT EXISTS product_no_seq;

CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    no          BIGINT NOT NULL,
    title       TEXT NOT NULL,
    title_fold  TEXT NOT NULL,
    description TEXT NOT NULL,
    img_urls    JSONB NOT NULL,
    available   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_no ON products(no);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_title_fold ON products(title_fold);

CREATE TABLE IF NOT EXISTS product_log (
    id             BIGSERIAL PRIMARY KEY,
    product_id     TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    user_id        TEXT NOT NULL,
    amount         DOUBLE PRECISION NOT NULL,
    operation_time TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_product_log_product ON product_log(product_id);
`

// Migrate applies the schema. Statements are idempotent, so running it on
// every startup is safe.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.logger.Info().Msg("schema up to date")
	return nil
}
