// Package lock provides the in-process mutual exclusion used to serialize purchases.
// A GlobalLocker guards every key with one lock; a MemoryLocker keeps one lock per key.
package lock

import (
	"context"
)

// ReleaseFunc releases a held lock. Calling it more than once is a no-op.
type ReleaseFunc func()

// Locker defines the interface for local locking.
// This abstraction allows switching between a store-wide lock and
// per-key locks without changing business logic.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)

	// TryAcquire acquires the lock for key only if it is free.
	TryAcquire(key string) (ReleaseFunc, bool)

	// IsHeld reports whether the lock for key is currently held.
	IsHeld(key string) bool
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Purchase returns the lock key guarding the stock of a product.
func (lockKeys) Purchase(productID string) string {
	return "lock:purchase:" + productID
}
