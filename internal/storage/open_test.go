package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/domain"
)

func TestOpenDriver_Unknown(t *testing.T) {
	_, err := OpenDriver(context.Background(), "mongo", config.StorageConfig{}, zerolog.Nop())
	require.Error(t, err)
}

func TestCopy_XMLFileToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.StorageConfig{
		Driver:  config.DriverXMLFile,
		DataDir: filepath.Join(dir, "data"),
		SQLite:  config.SQLiteConfig{Path: filepath.Join(dir, "fd.db")},
	}

	src, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer src.Close()

	p := domain.NewProduct("bob", "Milk", "Dairy", 4, 2, 3, "2030-01-01")
	require.NoError(t, src.Accounts.Update(ctx, func(a []domain.Account) ([]domain.Account, error) {
		return append(a, *domain.NewAccount("bob", "pw", domain.RoleSeller)), nil
	}))
	require.NoError(t, src.Products.Update(ctx, func(ps []domain.Product) ([]domain.Product, error) {
		return append(ps, *p), nil
	}))
	require.NoError(t, src.Transactions.Append(ctx, *domain.NewTransaction(p, "alice", 1)))
	require.NoError(t, src.AuditLog.Append(ctx, *domain.NewLogEntry("alice", "BUY_PRODUCT", p.ProductID, domain.ResultSuccess)))

	dst, err := OpenDriver(ctx, config.DriverSQLite, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer dst.Close()

	counts, err := Copy(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, Counts{Accounts: 1, Products: 1, Transactions: 1, LogEntries: 1}, counts)

	products, err := dst.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{*p}, products)

	dstCounts, err := Count(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, counts, dstCounts)
}
