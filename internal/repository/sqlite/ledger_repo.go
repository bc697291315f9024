package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// transactionRepository implements repository.TransactionRepository for SQLite.
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new SQLite transaction ledger.
func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// List returns all transactions in append order.
func (r *transactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT transaction_id, product_id, buyer_username, seller_username, quantity, created_at
		FROM transactions
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var createdAt string
		if err := rows.Scan(&t.TransactionID, &t.ProductID, &t.BuyerUsername, &t.SellerUsername, &t.Quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if err := t.Timestamp.UnmarshalText([]byte(createdAt)); err != nil {
			return nil, fmt.Errorf("%w: transaction %s timestamp: %v", repository.ErrCorrupt, t.TransactionID, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// Append records a transaction.
func (r *transactionRepository) Append(ctx context.Context, t domain.Transaction) error {
	_, err := r.db.db.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, product_id, buyer_username, seller_username, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.TransactionID, t.ProductID, t.BuyerUsername, t.SellerUsername, t.Quantity, t.Timestamp.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate transaction id %s: %w", t.TransactionID, err)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// auditLogRepository implements repository.AuditLogRepository for SQLite.
type auditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new SQLite audit log.
func NewAuditLogRepository(db *DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

// List returns all log entries in append order.
func (r *auditLogRepository) List(ctx context.Context) ([]domain.LogEntry, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT logged_at, username, action, data_affected, result
		FROM audit_log
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		var loggedAt string
		if err := rows.Scan(&loggedAt, &e.User, &e.Action, &e.DataAffected, &e.Result); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if err := e.Timestamp.UnmarshalText([]byte(loggedAt)); err != nil {
			return nil, fmt.Errorf("%w: log entry timestamp: %v", repository.ErrCorrupt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}

// Append records a log entry.
func (r *auditLogRepository) Append(ctx context.Context, e domain.LogEntry) error {
	_, err := r.db.db.ExecContext(ctx, `
		INSERT INTO audit_log (logged_at, username, action, data_affected, result)
		VALUES (?, ?, ?, ?, ?)
	`, e.Timestamp.String(), e.User, e.Action, e.DataAffected, e.Result)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}
