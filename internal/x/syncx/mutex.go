package syncx

import (
	"context"
	"sync"
)

// Mutex is a context-aware mutual exclusion lock.
//
// The zero value is an unlocked mutex.
type Mutex struct {
	once sync.Once
	sem  chan struct{}
}

// Lock acquires an exclusive lock on the mutex.
//
// It blocks until the mutex is acquired, or ctx is canceled.
func (m *Mutex) Lock(ctx context.Context) error {
	if ctx.Err() != nil {
		// Bail before competing for the lock, otherwise select may choose to
		// acquire the lock even though the context is already done.
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.channel() <- struct{}{}:
		return nil
	}
}

// TryLock acquires the lock if it is not already held.
//
// It returns false if the lock is already held.
func (m *Mutex) TryLock() bool {
	select {
	case m.channel() <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock releases the mutex.
//
// It panics if the mutex is not currently locked.
func (m *Mutex) Unlock() {
	select {
	case <-m.channel():
	default:
		panic("mutex is not locked")
	}
}

func (m *Mutex) channel() chan struct{} {
	m.once.Do(func() {
		m.sem = make(chan struct{}, 1)
	})
	return m.sem
}
