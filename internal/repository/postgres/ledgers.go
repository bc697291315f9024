package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// transactionRepository implements repository.TransactionRepository for PostgreSQL.
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction ledger.
func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// List returns all transactions in append order.
func (r *transactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx, `
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
		var createdAt time.Time
		if err := rows.Scan(&t.TransactionID, &t.ProductID, &t.BuyerUsername, &t.SellerUsername, &t.Quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Timestamp = localTimestamp(createdAt)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// Append records a transaction.
func (r *transactionRepository) Append(ctx context.Context, t domain.Transaction) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO transactions (transaction_id, product_id, buyer_username, seller_username, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.TransactionID, t.ProductID, t.BuyerUsername, t.SellerUsername, t.Quantity, wallClock(t.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// auditLogRepository implements repository.AuditLogRepository for PostgreSQL.
type auditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new PostgreSQL audit log.
func NewAuditLogRepository(db *DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

// List returns all log entries in append order.
func (r *auditLogRepository) List(ctx context.Context) ([]domain.LogEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
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
		var loggedAt time.Time
		if err := rows.Scan(&loggedAt, &e.User, &e.Action, &e.DataAffected, &e.Result); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Timestamp = localTimestamp(loggedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}

// Append records a log entry.
func (r *auditLogRepository) Append(ctx context.Context, e domain.LogEntry) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO audit_log (logged_at, username, action, data_affected, result)
		VALUES ($1, $2, $3, $4, $5)
	`, wallClock(e.Timestamp), e.User, e.Action, e.DataAffected, e.Result)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// wallClock drops the zone so the local wall-clock time is stored as-is in a
// TIMESTAMP WITHOUT TIME ZONE column.
func wallClock(ts domain.Timestamp) time.Time {
	t := ts.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// localTimestamp reinterprets a stored wall-clock time in the local zone.
func localTimestamp(t time.Time) domain.Timestamp {
	return domain.Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)}
}
