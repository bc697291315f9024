package lock

import (
	"context"
	"sync"
)

// MemoryLocker implements Locker with one mutex per key.
// Entries are reference counted and removed once no goroutine holds or waits
// for them, so the map only grows with the number of contended keys.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// lockEntry is a single key's lock. A send on ch acquires, a receive releases.
type lockEntry struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a new per-key locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*lockEntry),
	}
}

// ref returns the entry for key, registering the caller as a holder or waiter.
func (m *MemoryLocker) ref(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// unref drops a reference and forgets the entry when it is no longer used.
func (m *MemoryLocker) unref(key string, entry *lockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, key)
	}
}

func (m *MemoryLocker) releaser(key string, entry *lockEntry) ReleaseFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			m.unref(key, entry)
		})
	}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (m *MemoryLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := m.ref(key)
	select {
	case entry.ch <- struct{}{}:
		return m.releaser(key, entry), nil
	case <-ctx.Done():
		m.unref(key, entry)
		return nil, ctx.Err()
	}
}

// TryAcquire acquires the lock for key only if it is free.
func (m *MemoryLocker) TryAcquire(key string) (ReleaseFunc, bool) {
	entry := m.ref(key)
	select {
	case entry.ch <- struct{}{}:
		return m.releaser(key, entry), true
	default:
		m.unref(key, entry)
		return nil, false
	}
}

// IsHeld checks if a lock is currently held.
func (m *MemoryLocker) IsHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	return exists && len(entry.ch) == 1
}

// size returns the number of tracked keys.
func (m *MemoryLocker) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Ensure MemoryLocker implements Locker.
var _ Locker = (*MemoryLocker)(nil)
