package lock

import (
	"context"
	"sync"
)

// GlobalLocker implements Locker with a single lock shared by every key.
// It gives the coarse, store-wide serialization of purchases.
type GlobalLocker struct {
	ch chan struct{}
}

// NewGlobalLocker creates a new store-wide locker.
func NewGlobalLocker() *GlobalLocker {
	return &GlobalLocker{ch: make(chan struct{}, 1)}
}

func (g *GlobalLocker) releaser() ReleaseFunc {
	var once sync.Once
	return func() {
		once.Do(func() { <-g.ch })
	}
}

// Acquire blocks until the lock is held or ctx is done. The key is ignored.
func (g *GlobalLocker) Acquire(ctx context.Context, _ string) (ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case g.ch <- struct{}{}:
		return g.releaser(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire acquires the lock only if it is free.
func (g *GlobalLocker) TryAcquire(_ string) (ReleaseFunc, bool) {
	select {
	case g.ch <- struct{}{}:
		return g.releaser(), true
	default:
		return nil, false
	}
}

// IsHeld reports whether the lock is held by anyone.
func (g *GlobalLocker) IsHeld(_ string) bool {
	return len(g.ch) == 1
}

// Ensure GlobalLocker implements Locker.
var _ Locker = (*GlobalLocker)(nil)

// New returns the locker for the configured mode: "product" selects per-key
// locks, anything else the store-wide lock.
func New(mode string) Locker {
	if mode == "product" {
		return NewMemoryLocker()
	}
	return NewGlobalLocker()
}
