package surface

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Lock serialises access to the display surface. Acquisition is always
// bounded so a stuck holder cannot freeze the other contexts.
type Lock struct {
	sem *semaphore.Weighted
}

func NewLock() *Lock {
	return &Lock{sem: semaphore.NewWeighted(1)}
}

// Acquire waits at most timeout for the lock and reports whether it was taken.
func (l *Lock) Acquire(timeout time.Duration) bool {
	if l.sem.TryAcquire(1) {
		return true
	}
	if timeout <= 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.sem.Acquire(ctx, 1) == nil
}

func (l *Lock) Release() { l.sem.Release(1) }
