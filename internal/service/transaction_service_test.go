package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/pkg/crypto"
)

func TestTransactionService_Queries(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	ctx := context.Background()

	milk := env.addProduct(t, "bob", 5)
	bread := env.addProduct(t, "dave", 5)
	for _, buy := range []BuyInput{
		{Buyer: "alice", ProductID: milk.ProductID, Quantity: 1},
		{Buyer: "alice", ProductID: bread.ProductID, Quantity: 2},
		{Buyer: "carol", ProductID: milk.ProductID, Quantity: 1},
	} {
		_, err := env.products.Buy(ctx, buy)
		require.NoError(t, err)
	}

	purchases, err := env.transactions.Purchases(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, purchases, 2)

	sales, err := env.transactions.Sales(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "alice", sales[0].BuyerUsername)
	assert.Equal(t, "carol", sales[1].BuyerUsername)

	all, err := env.transactions.All(ctx, "admin")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := env.transactions.Purchases(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	actions := env.auditActions(t)
	assert.Contains(t, actions, "FETCH_MY_PURCHASES/SUCCESS")
	assert.Contains(t, actions, "FETCH_MY_SALES/SUCCESS")
	assert.Contains(t, actions, "FETCH_ALL_TRANSACTIONS/SUCCESS")
}

func TestTransactionService_StorageFailure(t *testing.T) {
	repo := new(mockTransactionRepository)
	repo.On("List", mock.Anything).Return(nil, errors.New("corrupt"))

	svc := NewTransactionService(repo, nil, zerolog.Nop())
	_, err := svc.All(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrInternalError)
}
