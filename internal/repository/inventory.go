package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/lock"
)

// PurchaseFunc decides a purchase against the current state of product.
// It may mutate product and returns the transaction to record, or an error
// to reject the purchase without changing anything.
type PurchaseFunc func(product *domain.Product) (*domain.Transaction, error)

// Inventory owns the purchase critical region. It is the only way to take
// stock out of a product for a sale: the stock read, the check, the
// decrement, the product write and the ledger append all happen while the
// purchase lock for the product is held.
type Inventory struct {
	products     ProductRepository
	transactions TransactionRepository
	locker       lock.Locker
	logger       zerolog.Logger
}

// NewInventory creates an Inventory guarding products with locker.
func NewInventory(products ProductRepository, transactions TransactionRepository, locker lock.Locker, logger zerolog.Logger) *Inventory {
	return &Inventory{
		products:     products,
		transactions: transactions,
		locker:       locker,
		logger:       logger.With().Str("component", "inventory").Logger(),
	}
}

// Purchase runs fn inside the purchase critical region for productID.
//
// ctx only bounds the wait for the lock. Once the lock is held the purchase
// runs to completion even if ctx is cancelled.
//
// If the ledger append fails the stock change is reverted before the error
// is returned.
func (i *Inventory) Purchase(ctx context.Context, productID string, fn PurchaseFunc) (*domain.Transaction, error) {
	release, err := i.acquire(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)

	var (
		txn     *domain.Transaction
		emptied bool
	)
	err = i.products.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		idx := indexOfProduct(products, productID)
		if idx < 0 {
			return nil, domain.NewDomainError(domain.ErrProductNotFound, "", productID)
		}

		p := &products[idx]
		wasAvailable := p.Status == domain.ProductAvailable

		t, err := fn(p)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, errors.New("purchase produced no transaction")
		}
		if p.AvailableQuantity < 0 {
			return nil, fmt.Errorf("purchase would drive %s stock negative", productID)
		}

		txn = t
		emptied = wasAvailable && p.Status == domain.ProductUnavailable
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	if err := i.transactions.Append(ctx, *txn); err != nil {
		i.logger.Error().Err(err).
			Str("product_id", productID).
			Str("transaction_id", txn.TransactionID).
			Msg("ledger append failed, reverting stock")

		if rbErr := i.restock(ctx, productID, txn.Quantity, emptied); rbErr != nil {
			i.logger.Error().Err(rbErr).Str("product_id", productID).Msg("failed to revert stock")
			return nil, fmt.Errorf("ledger append failed: %v, stock revert failed: %w", err, rbErr)
		}
		return nil, fmt.Errorf("ledger append failed: %w", err)
	}

	return txn, nil
}

// Guard runs fn while holding the purchase lock for productID, so that seller
// edits and purchases of the same product never interleave. A stock revert
// after a failed ledger append therefore cannot overwrite a concurrent edit.
//
// As with Purchase, ctx only bounds the wait for the lock.
func (i *Inventory) Guard(ctx context.Context, productID string, fn func(ctx context.Context) error) error {
	release, err := i.acquire(ctx, productID)
	if err != nil {
		return err
	}
	defer release()

	return fn(context.WithoutCancel(ctx))
}

func (i *Inventory) acquire(ctx context.Context, productID string) (lock.ReleaseFunc, error) {
	key := lock.Keys.Purchase(productID)
	if release, ok := i.locker.TryAcquire(key); ok {
		return release, nil
	}

	i.logger.Debug().Str("product_id", productID).Msg("waiting for purchase lock")
	release, err := i.locker.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire purchase lock: %w", err)
	}
	return release, nil
}

// restock returns quantity units to productID. It refuses to run unless the
// purchase lock for productID is held.
func (i *Inventory) restock(ctx context.Context, productID string, quantity int, reopen bool) error {
	if !i.locker.IsHeld(lock.Keys.Purchase(productID)) {
		return fmt.Errorf("restock of %s without the purchase lock", productID)
	}
	return i.products.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		idx := indexOfProduct(products, productID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		products[idx].Restock(quantity, reopen)
		return products, nil
	})
}

func indexOfProduct(products []domain.Product, productID string) int {
	for i := range products {
		if products[i].ProductID == productID {
			return i
		}
	}
	return -1
}
