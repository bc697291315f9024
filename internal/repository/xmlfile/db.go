// Package xmlfile stores FreshDeal collections as XML documents in a data directory.
//
// Accounts and products are persisted by rewriting the whole document on every
// change. Transactions and the server log are appended by inserting the new
// record just before the closing root tag. Every document has its own lock, so
// a product write never waits for an account write.
package xmlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// Document file names and element names.
const (
	AccountsFile     = "Accounts.xml"
	ProductsFile     = "Products.xml"
	TransactionsFile = "Transactions.xml"
	LogFile          = "server_log.xml"
)

type layout struct {
	file, root, item string
}

var (
	accountsLayout     = layout{AccountsFile, "Accounts", "Account"}
	productsLayout     = layout{ProductsFile, "Products", "Product"}
	transactionsLayout = layout{TransactionsFile, "Transactions", "Transaction"}
	logLayout          = layout{LogFile, "ServerLog", "LogEntry"}
)

// DB is a data directory holding the four collection documents.
type DB struct {
	dir    string
	logger zerolog.Logger
}

// NewDB opens the data directory, creating it and any missing documents.
func NewDB(ctx context.Context, dir string, logger zerolog.Logger) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	for _, l := range []layout{accountsLayout, productsLayout, transactionsLayout, logLayout} {
		path := filepath.Join(dir, l.file)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", l.file, err)
		}
		if err := writeFileAtomic(path, emptyDocument(l.root)); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", l.file, err)
		}
		logger.Info().Str("file", path).Msg("created data file")
	}

	logger.Info().Str("dir", dir).Msg("opened XML data directory")

	return &DB{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (db *DB) Dir() string {
	return db.dir
}

// Ping checks that the data directory is still accessible.
func (db *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(db.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", db.dir)
	}
	return nil
}

// Close is a no-op; documents are closed after every access.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing XML data directory")
	return nil
}

// NewAccountRepository creates the account repository.
func NewAccountRepository(db *DB) repository.AccountRepository {
	return newCollection[domain.Account](db, accountsLayout)
}

// NewProductRepository creates the product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return newCollection[domain.Product](db, productsLayout)
}

// NewTransactionRepository creates the transaction ledger.
func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return newCollection[domain.Transaction](db, transactionsLayout)
}

// NewAuditLogRepository creates the server log.
func NewAuditLogRepository(db *DB) repository.AuditLogRepository {
	return newCollection[domain.LogEntry](db, logLayout)
}

// Open opens dir and returns a Store backed by it.
func Open(ctx context.Context, dir string, logger zerolog.Logger) (*repository.Store, error) {
	db, err := NewDB(ctx, dir, logger.With().Str("backend", "xmlfile").Logger())
	if err != nil {
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
