package service

import (
	"context"
	"sync"
	"time"
)

// Locker serializes work across callers that share one outbox. The Redis
// locker in pkg/redis spans processes; NewLocalLocker only this one.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]time.Time)}
}

func (l *localLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[key]; ok && (ttl <= 0 || now.Before(expires)) {
		return nil, false, nil
	}

	expires := now.Add(ttl)
	l.held[key] = expires
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key] == expires {
			delete(l.held, key)
		}
	}, true, nil
}
