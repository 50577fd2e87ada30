// Package runlock provides a best-effort, TTL-bounded lock for deduping
// expensive generation runs. The local implementation covers a single
// process; the Redis one extends the guarantee across a fleet.
package runlock

import (
	"context"
	"sync"
	"time"
)

// Locker takes named locks with a bounded lifetime. Acquire never
// blocks: acquired == false means another holder currently has the
// lock. The returned release func is non-nil only when acquired.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLocal creates a LocalLocker.
func NewLocal() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiry, ok := l.held[name]; ok && expiry.After(now) {
		return nil, false, nil
	}
	l.held[name] = now.Add(ttl)

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
	}
	return release, true, nil
}
