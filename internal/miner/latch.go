package miner

import (
	"context"
	"sync"
)

// Identity is the account bound to the OAuth token.
type Identity struct {
	UserID int
	Login  string
}

// LoginLatch is a single-assignment cell. Waiters block until Set is called;
// later Set calls are ignored.
type LoginLatch struct {
	once  sync.Once
	done  chan struct{}
	value Identity
}

// NewLoginLatch creates an unset latch.
func NewLoginLatch() *LoginLatch {
	return &LoginLatch{done: make(chan struct{})}
}

// Set stores id and releases all waiters. Only the first call has an effect.
func (l *LoginLatch) Set(id Identity) {
	l.once.Do(func() {
		l.value = id
		close(l.done)
	})
}

// IsSet reports whether Set has been called.
func (l *LoginLatch) IsSet() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the latch is set or ctx is done.
func (l *LoginLatch) Wait(ctx context.Context) (Identity, error) {
	select {
	case <-l.done:
		return l.value, nil
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

// Value returns the stored identity and whether it is set.
func (l *LoginLatch) Value() (Identity, bool) {
	if !l.IsSet() {
		return Identity{}, false
	}
	return l.value, true
}
