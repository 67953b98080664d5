package cache

import (
	"context"
	"sync"
)

// workLimiter caps the number of simultaneously in-flight precompute
// tasks. The cap is a hard bound on concurrency, not a queue depth limit:
// Acquire blocks until a slot frees or the context ends.
type workLimiter struct {
	sem chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
}

func newWorkLimiter(maxConcurrent int) *workLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &workLimiter{sem: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a slot is available.
func (l *workLimiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	l.active++
	if l.active > l.maxActive {
		l.maxActive = l.active
	}
	l.mu.Unlock()
	return nil
}

// Release frees a slot.
func (l *workLimiter) Release() {
	select {
	case <-l.sem:
		l.mu.Lock()
		l.active--
		l.mu.Unlock()
	default:
		// Release without acquire; nothing to free.
	}
}

// MaxActive reports the high-water mark of concurrent holders.
func (l *workLimiter) MaxActive() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxActive
}
