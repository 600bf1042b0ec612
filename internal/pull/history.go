package pull

import (
	"sync"
	"time"

	"github.com/toxin-don/rails-security-pr-digest/internal/utils"
)

// History is a thread-safe record of recently digested pull request numbers
// with automatic expiry of stale entries. For each repository key a ring
// buffer of fixed length is kept, so in daemon mode a scheduled re-scan can
// skip pull requests already covered by a recent digest. Repositories whose
// record has not been touched for longer than the TTL are dropped by a
// background janitor.
//
// Usage:
//
//	history := pull.NewHistory(200, 7*24*time.Hour)
//	go history.Serve() // start background expiry
//	history.Record("rails/rails", 51234)
type History struct {
	length int           // maximum numbers remembered per repository
	ttl    time.Duration // inactivity period after which a record expires

	seen    map[string]*utils.RingBuffer[int] // digested numbers per repository
	updates map[string]time.Time              // last touch time per repository

	cleanTicker *time.Ticker
	mu          sync.RWMutex
}

// NewHistory creates a history keeping at most length numbers per
// repository, expiring records untouched for longer than ttl. Call Serve in
// a separate goroutine to start automatic expiry.
func NewHistory(length int, ttl time.Duration) *History {
	return &History{
		length:  length,
		ttl:     ttl,
		seen:    make(map[string]*utils.RingBuffer[int]),
		updates: make(map[string]time.Time),
	}
}

// Record remembers that the pull request number has been digested for the
// given repository key. The repository buffer is created on first use.
func (h *History) Record(repo string, number int) {
	h.mu.RLock()
	buffer, found := h.seen[repo]
	h.mu.RUnlock()

	if !found {
		h.mu.Lock()
		// Re-check under the write lock (double-checked locking)
		if buffer, found = h.seen[repo]; !found {
			buffer = utils.NewRingBuffer[int](h.length)
			h.seen[repo] = buffer
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.updates[repo] = time.Now()
	h.mu.Unlock()

	buffer.Push(number)
}

// Contains reports whether the pull request number is still remembered for
// the repository key.
func (h *History) Contains(repo string, number int) bool {
	h.mu.RLock()
	buffer, found := h.seen[repo]
	h.mu.RUnlock()

	if !found {
		return false
	}
	for _, n := range buffer.ToSlice() {
		if n == number {
			return true
		}
	}
	return false
}

// Serve runs the background janitor that once a minute drops repository
// records untouched for longer than the TTL. It blocks and must be run in
// its own goroutine:
//
//	go history.Serve()
//
// Use Stop to terminate it.
func (h *History) Serve() {
	h.cleanTicker = time.NewTicker(time.Minute)
	for range h.cleanTicker.C {
		var expired []string

		h.mu.RLock()
		now := time.Now()
		for repo, ts := range h.updates {
			if now.Sub(ts) > h.ttl {
				expired = append(expired, repo)
			}
		}
		h.mu.RUnlock()

		if len(expired) > 0 {
			h.mu.Lock()
			for _, repo := range expired {
				delete(h.seen, repo)
				delete(h.updates, repo)
			}
			h.mu.Unlock()
		}
	}
}

// Stop cancels the background janitor. Safe to call even if Serve was
// never started.
func (h *History) Stop() {
	if h.cleanTicker != nil {
		h.cleanTicker.Stop()
	}
}
