package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/lock"
	"github.com/prn-tf/freshdeal/internal/pkg/crypto"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/repository/xmlfile"
	"github.com/prn-tf/freshdeal/internal/validation"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type testEnv struct {
	store        *repository.Store
	audit        *audit.Logger
	accounts     *AccountService
	products     *ProductService
	transactions *TransactionService
}

func newTestEnv(t *testing.T, hasher crypto.PasswordHasher) *testEnv {
	t.Helper()

	store, err := xmlfile.Open(context.Background(), t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	v := validation.New()
	auditLog := audit.New(store.AuditLog, audit.Config{}, logger)

	return &testEnv{
		store:    store,
		audit:    auditLog,
		accounts: NewAccountService(store.Accounts, hasher, v, auditLog, logger),
		products: NewProductService(ProductServiceConfig{
			Products:  store.Products,
			Inventory: repository.NewInventory(store.Products, store.Transactions, lock.NewGlobalLocker(), logger),
			Validator: v,
			Audit:     auditLog,
			Logger:    logger,
		}),
		transactions: NewTransactionService(store.Transactions, auditLog, logger),
	}
}

func (e *testEnv) register(t *testing.T, username, password string, role domain.Role) *domain.Account {
	t.Helper()
	a, err := e.accounts.Register(context.Background(), RegisterInput{Username: username, Password: password, Role: string(role)})
	require.NoError(t, err)
	return a
}

func (e *testEnv) addProduct(t *testing.T, seller string, qty int) *domain.Product {
	t.Helper()
	p, err := e.products.Add(context.Background(), AddProductInput{
		Seller:            seller,
		Name:              "Greek Yogurt",
		Category:          "Dairy",
		OriginalPrice:     5,
		DiscountedPrice:   2.5,
		AvailableQuantity: qty,
		ExpiryDate:        "2030-06-30",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) product(t *testing.T, id string) domain.Product {
	t.Helper()
	products, err := e.store.Products.List(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.ProductID == id {
			return p
		}
	}
	t.Fatalf("product %s not found", id)
	return domain.Product{}
}

func (e *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := e.audit.Entries(context.Background())
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action+"/"+entry.Result)
	}
	return actions
}

// =============================================================================
// Mock Repository Types
// =============================================================================

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, fn repository.Mutator[domain.Product]) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *mockAccountRepository) Update(ctx context.Context, fn repository.Mutator[domain.Account]) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) Append(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}
