package repository

import (
	"context"
)

// Store bundles the repositories of one backend.
type Store struct {
	Accounts     AccountRepository
	Products     ProductRepository
	Transactions TransactionRepository
	AuditLog     AuditLogRepository

	// Backend reports health and releases the backend's resources.
	Backend DatabaseHealth
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.Backend == nil {
		return nil
	}
	return s.Backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.Backend == nil {
		return nil
	}
	return s.Backend.Close()
}
