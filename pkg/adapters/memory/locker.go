package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/msquare/pkg/ports"
)

// lockEntry holds the per-key semaphore and the number of holders and waiters.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// Locker implements ports.DistributedLocker within one process.
// Entries are reference counted and dropped once nobody holds or waits for the key.
// The ttl is ignored: a holder in the same process always releases.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

func (l *Locker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, key)
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	entry := l.acquire(key)
	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			<-entry.sem
			l.release(key)
		})
		return nil
	}, nil
}

// Len reports how many keys are held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
