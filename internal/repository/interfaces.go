// Package repository defines data access interfaces for FreshDeal.
// Every collection is read as a whole snapshot and written back as a whole,
// so backends (XML files, SQLite, PostgreSQL) can be swapped without touching
// service logic.
package repository

import (
	"context"

	"github.com/prn-tf/freshdeal/internal/domain"
)

// Mutator receives the current contents of a collection and returns the
// contents to persist. Returning an error aborts the write and leaves the
// stored collection unchanged.
type Mutator[T any] func(items []T) ([]T, error)

// =============================================================================
// Account Repository
// =============================================================================

// AccountRepository stores the account collection.
type AccountRepository interface {
	// List returns a snapshot of all accounts.
	List(ctx context.Context) ([]domain.Account, error)

	// Update applies fn to the current accounts and persists the result as
	// one unit. Concurrent updates are serialized.
	Update(ctx context.Context, fn Mutator[domain.Account]) error
}

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository stores the product collection.
type ProductRepository interface {
	// List returns a snapshot of all products.
	List(ctx context.Context) ([]domain.Product, error)

	// Update applies fn to the current products and persists the result as
	// one unit. Concurrent updates are serialized.
	Update(ctx context.Context, fn Mutator[domain.Product]) error
}

// =============================================================================
// Ledgers
// =============================================================================

// TransactionRepository is the append-only purchase ledger.
type TransactionRepository interface {
	// List returns every recorded transaction in append order.
	List(ctx context.Context) ([]domain.Transaction, error)

	// Append durably records txn.
	Append(ctx context.Context, txn domain.Transaction) error
}

// AuditLogRepository is the append-only server activity log.
type AuditLogRepository interface {
	// List returns every log entry in append order.
	List(ctx context.Context) ([]domain.LogEntry, error)

	// Append durably records entry.
	Append(ctx context.Context, entry domain.LogEntry) error
}

// DatabaseHealth is an interface for backend health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
