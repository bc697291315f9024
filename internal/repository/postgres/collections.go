package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// accountRepository implements repository.AccountRepository for PostgreSQL.
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func queryAccounts(ctx context.Context, q querier) ([]domain.Account, error) {
	rows, err := q.Query(ctx, `
		SELECT account_id, username, password, role, status
		FROM accounts
		ORDER BY position
	`)
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
	return queryAccounts(ctx, r.db.Pool)
}

// Update replaces the account table with the result of fn.
func (r *accountRepository) Update(ctx context.Context, fn repository.Mutator[domain.Account]) error {
	return r.db.WithTableLock(ctx, accountsTable, func(tx pgx.Tx) error {
		current, err := queryAccounts(ctx, tx)
		if err != nil {
			return err
		}
		updated, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("failed to clear accounts: %w", err)
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"accounts"},
			[]string{"position", "account_id", "username", "password", "role", "status"},
			pgx.CopyFromSlice(len(updated), func(i int) ([]any, error) {
				a := updated[i]
				return []any{i, a.AccountID, a.Username, a.Password, string(a.Role), string(a.Status)}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to write accounts: %w", err)
		}
		return nil
	})
}

// productRepository implements repository.ProductRepository for PostgreSQL.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func queryProducts(ctx context.Context, q querier) ([]domain.Product, error) {
	rows, err := q.Query(ctx, `
		SELECT product_id, seller_username, name, category, original_price,
		       discounted_price, available_quantity, expiry_date, status
		FROM products
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var status string
		if err := rows.Scan(
			&p.ProductID,
			&p.SellerUsername,
			&p.Name,
			&p.Category,
			&p.OriginalPrice,
			&p.DiscountedPrice,
			&p.AvailableQuantity,
			&p.ExpiryDate,
			&status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Status = domain.ProductStatus(status)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// List returns all products.
func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	return queryProducts(ctx, r.db.Pool)
}

// Update replaces the product table with the result of fn.
func (r *productRepository) Update(ctx context.Context, fn repository.Mutator[domain.Product]) error {
	return r.db.WithTableLock(ctx, productsTable, func(tx pgx.Tx) error {
		current, err := queryProducts(ctx, tx)
		if err != nil {
			return err
		}
		updated, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"products"},
			[]string{
				"position", "product_id", "seller_username", "name", "category",
				"original_price", "discounted_price", "available_quantity", "expiry_date", "status",
			},
			pgx.CopyFromSlice(len(updated), func(i int) ([]any, error) {
				p := updated[i]
				return []any{
					i, p.ProductID, p.SellerUsername, p.Name, p.Category,
					p.OriginalPrice, p.DiscountedPrice, p.AvailableQuantity, p.ExpiryDate, string(p.Status),
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to write products: %w", err)
		}
		return nil
	})
}

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}
