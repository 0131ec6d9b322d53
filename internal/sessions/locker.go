package sessions

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when acquiring a conversation lock times out.
var ErrLockTimeout = errors.New("sessions: lock acquisition timeout")

// conversationLock is a single-holder slot for one conversation. The channel
// has capacity 1; a successful send acquires, a receive releases. lastUsed is
// guarded by the manager mutex.
type conversationLock struct {
	ch       chan struct{}
	lastUsed time.Time
}

// LockManager serializes writers per conversation id. Two concurrent chat
// requests against the same conversation must not interleave their
// append/record sequences; requests against different conversations proceed
// independently.
//
// Thread Safety:
// LockManager is safe for concurrent use.
type LockManager struct {
	mu         sync.Mutex
	locks      map[string]*conversationLock
	defaultTTL time.Duration
}

// NewLockManager creates a new lock manager.
func NewLockManager(defaultTTL time.Duration) *LockManager {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}

	mgr := &LockManager{
		locks:      make(map[string]*conversationLock),
		defaultTTL: defaultTTL,
	}

	go mgr.cleanupLoop()

	return mgr
}

// Acquire obtains the write lock for a conversation, waiting up to timeout
// if it is held. Returns a release function that must be called when done.
// A waiter abandoned by timeout or context cancellation leaves nothing
// behind; the current holder's release is unaffected.
func (m *LockManager) Acquire(ctx context.Context, id string, timeout time.Duration) (func(), error) {
	if timeout <= 0 {
		timeout = m.defaultTTL
	}

	m.mu.Lock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &conversationLock{ch: make(chan struct{}, 1)}
		m.locks[id] = lock
	}
	lock.lastUsed = time.Now()
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case lock.ch <- struct{}{}:
		release := func() {
			<-lock.ch
		}
		return release, nil
	case <-timer.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsLocked reports whether the conversation is currently locked.
func (m *LockManager) IsLocked(id string) bool {
	m.mu.Lock()
	lock, ok := m.locks[id]
	m.mu.Unlock()

	return ok && len(lock.ch) == 1
}

// cleanupLoop periodically removes stale lock entries.
func (m *LockManager) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

// cleanup removes unlocked entries that haven't been used recently. The
// cutoff is far above any Acquire wait, so no waiter still holds a pointer
// to an entry by the time it is dropped.
func (m *LockManager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)

	for id, lock := range m.locks {
		if len(lock.ch) == 0 && lock.lastUsed.Before(cutoff) {
			delete(m.locks, id)
		}
	}
}
