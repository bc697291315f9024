package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    position   INTEGER PRIMARY KEY,
    account_id TEXT NOT NULL UNIQUE,
    username   TEXT NOT NULL,
    password   TEXT NOT NULL,
    role       TEXT NOT NULL,
    status     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    position           INTEGER PRIMARY KEY,
    product_id         TEXT NOT NULL UNIQUE,
    seller_username    TEXT NOT NULL,
    name               TEXT NOT NULL,
    category           TEXT NOT NULL,
    original_price     DOUBLE PRECISION NOT NULL,
    discounted_price   DOUBLE PRECISION NOT NULL,
    available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
    expiry_date        TEXT NOT NULL,
    status             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    seq             BIGSERIAL PRIMARY KEY,
    transaction_id  TEXT NOT NULL UNIQUE,
    product_id      TEXT NOT NULL,
    buyer_username  TEXT NOT NULL,
    seller_username TEXT NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON transactions (buyer_username);
CREATE INDEX IF NOT EXISTS idx_transactions_seller ON transactions (seller_username);

CREATE TABLE IF NOT EXISTS audit_log (
    seq           BIGSERIAL PRIMARY KEY,
    logged_at     TIMESTAMP NOT NULL,
    username      TEXT NOT NULL,
    action        TEXT NOT NULL,
    data_affected TEXT NOT NULL,
    result        TEXT NOT NULL
);
`

// Open connects to PostgreSQL, applies the schema and returns a Store backed by it.
func Open(ctx context.Context, cfg config.PostgresConfig, logger zerolog.Logger) (*repository.Store, error) {
	db, err := NewDB(ctx, cfg, logger.With().Str("backend", "postgres").Logger())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &repository.Store{
		Accounts:     NewAccountRepository(db),
		Products:     NewProductRepository(db),
		Transactions: NewTransactionRepository(db),
		AuditLog:     NewAuditLogRepository(db),
		Backend:      db,
	}, nil
}
