package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

const (
	actionFetchMyPurchases     = "FETCH_MY_PURCHASES"
	actionFetchMySales         = "FETCH_MY_SALES"
	actionFetchAllTransactions = "FETCH_ALL_TRANSACTIONS"
)

// TransactionService answers read-only queries over the purchase ledger.
type TransactionService struct {
	transactions repository.TransactionRepository
	audit        *audit.Logger
	logger       zerolog.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(transactions repository.TransactionRepository, auditLog *audit.Logger, logger zerolog.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		audit:        auditLog,
		logger:       logger.With().Str("service", "transaction").Logger(),
	}
}

// Purchases returns the transactions in which buyer bought something.
func (s *TransactionService) Purchases(ctx context.Context, buyer string) ([]domain.Transaction, error) {
	result, err := s.filter(ctx, func(t *domain.Transaction) bool { return t.BuyerUsername == buyer })
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, buyer, actionFetchMyPurchases, domain.ResultNone)
	return result, nil
}

// Sales returns the transactions in which seller sold something.
func (s *TransactionService) Sales(ctx context.Context, seller string) ([]domain.Transaction, error) {
	result, err := s.filter(ctx, func(t *domain.Transaction) bool { return t.SellerUsername == seller })
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, seller, actionFetchMySales, domain.ResultNone)
	return result, nil
}

// All returns the whole ledger.
func (s *TransactionService) All(ctx context.Context, requester string) ([]domain.Transaction, error) {
	result, err := s.filter(ctx, func(*domain.Transaction) bool { return true })
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, requester, actionFetchAllTransactions, fmt.Sprintf("count=%d", len(result)))
	return result, nil
}

func (s *TransactionService) filter(ctx context.Context, keep func(*domain.Transaction) bool) ([]domain.Transaction, error) {
	all, err := s.transactions.List(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read transactions")
	}

	result := make([]domain.Transaction, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			result = append(result, all[i])
		}
	}
	return result, nil
}
