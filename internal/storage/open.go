// Package storage opens the configured persistence backend.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/repository/postgres"
	"github.com/prn-tf/freshdeal/internal/repository/sqlite"
	"github.com/prn-tf/freshdeal/internal/repository/xmlfile"
)

// Open returns a Store for cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*repository.Store, error) {
	return OpenDriver(ctx, cfg.Driver, cfg, logger)
}

// OpenDriver returns a Store for driver using the matching section of cfg.
// It lets tools open a backend other than the configured one.
func OpenDriver(ctx context.Context, driver string, cfg config.StorageConfig, logger zerolog.Logger) (*repository.Store, error) {
	switch driver {
	case config.DriverXMLFile:
		return xmlfile.Open(ctx, cfg.DataDir, logger)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.SQLite, logger)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Copy replaces the contents of dst with the contents of src. Ledgers are
// appended to dst in order, so dst's ledgers should start empty.
func Copy(ctx context.Context, src, dst *repository.Store) (Counts, error) {
	var counts Counts

	accounts, err := src.Accounts.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read accounts: %w", err)
	}
	if err := dst.Accounts.Update(ctx, func([]domain.Account) ([]domain.Account, error) {
		return accounts, nil
	}); err != nil {
		return counts, fmt.Errorf("failed to write accounts: %w", err)
	}
	counts.Accounts = len(accounts)

	products, err := src.Products.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read products: %w", err)
	}
	if err := dst.Products.Update(ctx, func([]domain.Product) ([]domain.Product, error) {
		return products, nil
	}); err != nil {
		return counts, fmt.Errorf("failed to write products: %w", err)
	}
	counts.Products = len(products)

	txns, err := src.Transactions.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read transactions: %w", err)
	}
	for _, txn := range txns {
		if err := dst.Transactions.Append(ctx, txn); err != nil {
			return counts, fmt.Errorf("failed to write transaction %s: %w", txn.TransactionID, err)
		}
		counts.Transactions++
	}

	entries, err := src.AuditLog.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read audit log: %w", err)
	}
	for _, entry := range entries {
		if err := dst.AuditLog.Append(ctx, entry); err != nil {
			return counts, fmt.Errorf("failed to write log entry: %w", err)
		}
		counts.LogEntries++
	}

	return counts, nil
}

// Counts reports how many records Copy transferred.
type Counts struct {
	Accounts     int
	Products     int
	Transactions int
	LogEntries   int
}

// Count reports how many records store holds.
func Count(ctx context.Context, store *repository.Store) (Counts, error) {
	var counts Counts

	accounts, err := store.Accounts.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read accounts: %w", err)
	}
	products, err := store.Products.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read products: %w", err)
	}
	txns, err := store.Transactions.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read transactions: %w", err)
	}
	entries, err := store.AuditLog.List(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to read audit log: %w", err)
	}

	counts.Accounts = len(accounts)
	counts.Products = len(products)
	counts.Transactions = len(txns)
	counts.LogEntries = len(entries)
	return counts, nil
}
