package handler

import (
	"context"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/protocol"
	"github.com/prn-tf/freshdeal/internal/service"
)

// TransactionHandler serves the ledger queries.
type TransactionHandler struct {
	transactions *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// FetchMyPurchases handles FETCH_MY_PURCHASES.
func (h *TransactionHandler) FetchMyPurchases(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	txns, err := h.transactions.Purchases(ctx, req.Username)
	return transactionList("Your purchases.", txns, err)
}

// FetchMySales handles FETCH_MY_SALES.
func (h *TransactionHandler) FetchMySales(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	txns, err := h.transactions.Sales(ctx, req.Username)
	return transactionList("Your sales.", txns, err)
}

// FetchAllTransactions handles FETCH_ALL_TRANSACTIONS.
func (h *TransactionHandler) FetchAllTransactions(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	txns, err := h.transactions.All(ctx, req.Username)
	return transactionList("All transactions.", txns, err)
}

func transactionList(msg string, txns []domain.Transaction, err error) (*protocol.Response, error) {
	if err != nil {
		return nil, err
	}
	return protocol.Success(msg).WithData(&protocol.Data{
		Transactions: &protocol.TransactionList{Transactions: txns},
	}), nil
}
