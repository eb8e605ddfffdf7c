// Package lock provides keyed, context-aware mutual exclusion used to
// serialize writes per policy and per actor record.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/viant/guaranty/fault"
)

// Locker serializes work per key. Different keys never block each other.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

type entry struct {
	ch   chan struct{}
	refs int
}

// New creates a locker; timeout bounds every Acquire (zero means wait for
// context cancellation only).
func New(timeout time.Duration) *Locker {
	return &Locker{entries: map[string]*entry{}, timeout: timeout}
}

// Acquire locks key and returns its release function. It fails with
// fault.ErrLockTimeout when the lock is not obtained in time.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.ref(key)
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, fault.ErrLockTimeout.With("%s: %v", key, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key)
		})
	}, nil
}

// Held returns the number of keys currently referenced.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return
	}
	if e.refs--; e.refs == 0 {
		delete(l.entries, key)
	}
}

// PolicyKey and ActorKey namespace lock keys.
func PolicyKey(id string) string { return "policy/" + id }

func ActorKey(id string) string { return "actor/" + id }
