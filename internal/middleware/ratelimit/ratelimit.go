// Package ratelimit implements a fixed-window per-client request limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts requests per client key in one-minute windows. A client's
// window resets once a full minute has passed since it opened.
type Limiter struct {
	mu           sync.Mutex
	perMinute    int
	clients      map[string]*window
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type window struct {
	start    time.Time
	requests int
}

// New creates a limiter allowing perMinute requests per client. Values
// below one fall back to 60.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	l := &Limiter{
		perMinute:   perMinute,
		clients:     make(map[string]*window),
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from the given client fits in the
// current window.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) > time.Minute {
		l.clients[client] = &window{start: now, requests: 1}
		return true
	}

	w.requests++
	return w.requests <= l.perMinute
}

// ActiveClients returns the number of tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for client, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, client)
		}
	}
}

// Stop terminates the background cleanup goroutine. Safe to call more
// than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}
