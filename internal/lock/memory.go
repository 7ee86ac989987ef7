package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a keyed mutex for a single process.
// Entries are reference counted and removed once no caller holds or awaits them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[Key]*entry
	wait    time.Duration
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates a keyed mutex. A wait of zero or less means callers wait until
// their context is done.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[Key]*entry),
		wait:    wait,
	}
}

// WithLock implements Locker
func (l *MemoryLocker) WithLock(ctx context.Context, key Key, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := l.acquireRef(key)
	defer l.releaseRef(key, e)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return ErrLockTimeout
	}
	defer func() { <-e.sem }()

	return fn(ctx)
}

func (l *MemoryLocker) acquireRef(key Key) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) releaseRef(key Key, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size returns the number of live entries
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
