package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// productRepository implements repository.ProductRepository for SQLite.
type productRepository struct {
	mu sync.Mutex
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func queryProducts(ctx context.Context, q rowQuerier) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx, `
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
	return queryProducts(ctx, r.db.db)
}

// Update replaces the product table with the result of fn.
func (r *productRepository) Update(ctx context.Context, fn repository.Mutator[domain.Product]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := queryProducts(ctx, tx)
		if err != nil {
			return err
		}

		updated, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO products (position, product_id, seller_username, name, category,
			                      original_price, discounted_price, available_quantity,
			                      expiry_date, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare product insert: %w", err)
		}
		defer stmt.Close()

		for i, p := range updated {
			if _, err := stmt.ExecContext(ctx,
				i,
				p.ProductID,
				p.SellerUsername,
				p.Name,
				p.Category,
				p.OriginalPrice,
				p.DiscountedPrice,
				p.AvailableQuantity,
				p.ExpiryDate,
				string(p.Status),
			); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate product id %s: %w", p.ProductID, err)
				}
				return fmt.Errorf("failed to insert product: %w", err)
			}
		}
		return nil
	})
}
