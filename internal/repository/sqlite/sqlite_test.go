package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

func openTestStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := Open(context.Background(), config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "nested", "freshdeal.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_AccountsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	alice := domain.NewAccount("alice", "pw", domain.RoleBuyer)
	bob := domain.NewAccount("bob", "pw", domain.RoleSeller)

	require.NoError(t, store.Accounts.Update(ctx, func(a []domain.Account) ([]domain.Account, error) {
		return append(a, *alice, *bob), nil
	}))

	accounts, err := store.Accounts.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Account{*alice, *bob}, accounts)

	require.NoError(t, store.Accounts.Update(ctx, func(a []domain.Account) ([]domain.Account, error) {
		a[1].Status = domain.AccountApproved
		return a[1:], nil
	}))

	accounts, err = store.Accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "bob", accounts[0].Username)
	assert.Equal(t, domain.AccountApproved, accounts[0].Status)
}

func TestSQLite_UpdateAbortRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	p := domain.NewProduct("bob", "Milk", "Dairy", 4, 2, 3, "2030-01-01")
	require.NoError(t, store.Products.Update(ctx, func(ps []domain.Product) ([]domain.Product, error) {
		return append(ps, *p), nil
	}))

	boom := errors.New("boom")
	err := store.Products.Update(ctx, func(ps []domain.Product) ([]domain.Product, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	products, err := store.Products.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Product{*p}, products)
}

func TestSQLite_Ledgers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	p := domain.NewProduct("bob", "Milk", "Dairy", 4, 2, 3, "2030-01-01")
	txn := domain.NewTransaction(p, "alice", 2)
	require.NoError(t, store.Transactions.Append(ctx, *txn))
	require.Error(t, store.Transactions.Append(ctx, *txn), "duplicate id must be rejected")

	txns, err := store.Transactions.List(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.TransactionID, txns[0].TransactionID)
	assert.True(t, txn.Timestamp.Equal(txns[0].Timestamp.Time))

	entry := domain.NewLogEntry("alice", "BUY_PRODUCT", p.ProductID, domain.ResultSuccess)
	require.NoError(t, store.AuditLog.Append(ctx, *entry))

	entries, err := store.AuditLog.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BUY_PRODUCT", entries[0].Action)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freshdeal.db")

	db, err := NewDB(context.Background(), DefaultConfig(path), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.Close())

	db, err = NewDB(context.Background(), DefaultConfig(path), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
}
