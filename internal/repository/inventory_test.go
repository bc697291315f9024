package repository_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/lock"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/repository/xmlfile"
)

func setupInventory(t *testing.T, locker lock.Locker, stock int) (*repository.Store, *repository.Inventory, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	store, err := xmlfile.Open(ctx, t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	p := domain.NewProduct("bob", "Milk", "Dairy", 4, 2, stock, "2030-01-01")
	require.NoError(t, store.Products.Update(ctx, func(ps []domain.Product) ([]domain.Product, error) {
		return append(ps, *p), nil
	}))

	return store, repository.NewInventory(store.Products, store.Transactions, locker, zerolog.Nop()), p
}

func buy(buyer string, qty int) repository.PurchaseFunc {
	return func(p *domain.Product) (*domain.Transaction, error) {
		if err := p.Reserve(qty); err != nil {
			return nil, err
		}
		return domain.NewTransaction(p, buyer, qty), nil
	}
}

func TestInventory_NoOversell(t *testing.T) {
	for name, locker := range map[string]lock.Locker{
		"global":  lock.NewGlobalLocker(),
		"product": lock.NewMemoryLocker(),
	} {
		t.Run(name, func(t *testing.T) {
			const stock, buyers = 5, 20
			store, inv, p := setupInventory(t, locker, stock)
			ctx := context.Background()

			var sold int32
			var wg sync.WaitGroup
			for i := 0; i < buyers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					qty := 1 + i%2
					_, err := inv.Purchase(ctx, p.ProductID, buy("buyer", qty))
					if err == nil {
						atomic.AddInt32(&sold, int32(qty))
						return
					}
					assert.True(t, domain.IsBusinessError(err), "unexpected error: %v", err)
				}(i)
			}
			wg.Wait()

			products, err := store.Products.List(ctx)
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.GreaterOrEqual(t, products[0].AvailableQuantity, 0)
			assert.LessOrEqual(t, int(sold), stock)
			assert.Equal(t, stock-int(sold), products[0].AvailableQuantity)

			txns, err := store.Transactions.List(ctx)
			require.NoError(t, err)
			total := 0
			for _, txn := range txns {
				total += txn.Quantity
			}
			assert.Equal(t, int(sold), total)
		})
	}
}

func TestInventory_ExhaustsExactlyOnce(t *testing.T) {
	store, inv, p := setupInventory(t, lock.NewGlobalLocker(), 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := inv.Purchase(ctx, p.ProductID, buy("alice", 1))
		require.NoError(t, err)
	}

	products, err := store.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, products[0].AvailableQuantity)
	assert.Equal(t, domain.ProductUnavailable, products[0].Status)

	_, err = inv.Purchase(ctx, p.ProductID, buy("alice", 1))
	require.ErrorIs(t, err, domain.ErrProductUnavailable)
}

func TestInventory_RejectionLeavesStock(t *testing.T) {
	store, inv, p := setupInventory(t, lock.NewGlobalLocker(), 2)
	ctx := context.Background()

	_, err := inv.Purchase(ctx, p.ProductID, buy("alice", 5))
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)

	_, err = inv.Purchase(ctx, "PRD-MISSING", buy("alice", 1))
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	products, err := store.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, products[0].AvailableQuantity)

	txns, err := store.Transactions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

type failingLedger struct {
	repository.TransactionRepository
}

func (failingLedger) Append(context.Context, domain.Transaction) error {
	return errors.New("disk full")
}

func TestInventory_LedgerFailureRevertsStock(t *testing.T) {
	store, _, p := setupInventory(t, lock.NewGlobalLocker(), 1)
	ctx := context.Background()

	inv := repository.NewInventory(store.Products, failingLedger{store.Transactions}, lock.NewGlobalLocker(), zerolog.Nop())

	_, err := inv.Purchase(ctx, p.ProductID, buy("alice", 1))
	require.Error(t, err)
	assert.False(t, domain.IsBusinessError(err))

	products, err := store.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, products[0].AvailableQuantity)
	assert.Equal(t, domain.ProductAvailable, products[0].Status)
}

func TestInventory_LockWaitHonoursContext(t *testing.T) {
	locker := lock.NewGlobalLocker()
	_, inv, p := setupInventory(t, locker, 1)

	release, err := locker.Acquire(context.Background(), "held")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = inv.Purchase(ctx, p.ProductID, buy("alice", 1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestInventory_GuardWaitsForPurchaseLock(t *testing.T) {
	for name, locker := range map[string]lock.Locker{
		"global":  lock.NewGlobalLocker(),
		"product": lock.NewMemoryLocker(),
	} {
		t.Run(name, func(t *testing.T) {
			store, inv, p := setupInventory(t, locker, 3)
			ctx := context.Background()

			release, err := locker.Acquire(ctx, lock.Keys.Purchase(p.ProductID))
			require.NoError(t, err)

			var ran atomic.Bool
			done := make(chan error, 1)
			go func() {
				done <- inv.Guard(ctx, p.ProductID, func(ctx context.Context) error {
					ran.Store(true)
					return store.Products.Update(ctx, func(ps []domain.Product) ([]domain.Product, error) {
						ps[0].AvailableQuantity = 10
						return ps, nil
					})
				})
			}()

			assert.Never(t, ran.Load, 100*time.Millisecond, 10*time.Millisecond)
			release()

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("guarded edit never ran")
			}
			assert.True(t, ran.Load())
			assert.False(t, locker.IsHeld(lock.Keys.Purchase(p.ProductID)))

			products, err := store.Products.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 10, products[0].AvailableQuantity)
		})
	}
}

func TestInventory_GuardHonoursContext(t *testing.T) {
	locker := lock.NewMemoryLocker()
	_, inv, p := setupInventory(t, locker, 1)

	release, err := locker.Acquire(context.Background(), lock.Keys.Purchase(p.ProductID))
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err = inv.Guard(ctx, p.ProductID, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestInventory_GuardHoldsLockDuringCall(t *testing.T) {
	locker := lock.NewMemoryLocker()
	_, inv, p := setupInventory(t, locker, 1)

	wantErr := errors.New("rejected")
	err := inv.Guard(context.Background(), p.ProductID, func(context.Context) error {
		assert.True(t, locker.IsHeld(lock.Keys.Purchase(p.ProductID)))
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.False(t, locker.IsHeld(lock.Keys.Purchase(p.ProductID)))
}
