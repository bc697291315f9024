package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// accountRepository implements repository.AccountRepository for SQLite.
type accountRepository struct {
	mu sync.Mutex
	db *DB
}

// NewAccountRepository creates a new SQLite account repository.
func NewAccountRepository(db *DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

const selectAccounts = `
	SELECT account_id, username, password, role, status
	FROM accounts
	ORDER BY position
`

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryAccounts(ctx context.Context, q rowQuerier) ([]domain.Account, error) {
	rows, err := q.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		var role, status string
		if err := rows.Scan(&a.AccountID, &a.Username, &a.Password, &role, &status); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Role = domain.Role(role)
		a.Status = domain.AccountStatus(status)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// List returns all accounts.
func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	return queryAccounts(ctx, r.db.db)
}

// Update replaces the account table with the result of fn.
func (r *accountRepository) Update(ctx context.Context, fn repository.Mutator[domain.Account]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := queryAccounts(ctx, tx)
		if err != nil {
			return err
		}

		updated, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("failed to clear accounts: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO accounts (position, account_id, username, password, role, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare account insert: %w", err)
		}
		defer stmt.Close()

		for i, a := range updated {
			if _, err := stmt.ExecContext(ctx, i, a.AccountID, a.Username, a.Password, string(a.Role), string(a.Status)); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate account id %s: %w", a.AccountID, err)
				}
				return fmt.Errorf("failed to insert account: %w", err)
			}
		}
		return nil
	})
}
