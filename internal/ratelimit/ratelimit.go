// Package ratelimit implements a process-local fixed-window rate limiter.
// Bursts at window boundaries are possible. State does not survive restarts
// and is not shared across instances.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within fixed windows. Construct with New
// and release with Stop; the sweeper goroutine otherwise keeps running.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// New returns a Limiter whose sweeper removes expired entries every
// sweepEvery, bounding memory growth.
func New(sweepEvery time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go l.sweep(sweepEvery)
	return l
}

// Allow reports whether another request under key fits within the current
// window of max requests per window duration. The first request of a window
// resets the count to 1.
func (l *Limiter) Allow(key string, max int, window time.Duration) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return true
	}

	if e.count >= max {
		return false
	}
	e.count++
	return true
}

// Stop terminates the sweeper goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			now := l.now()
			l.mu.Lock()
			for key, e := range l.entries {
				if now.After(e.resetAt) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
