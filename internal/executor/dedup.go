package executor

import "sync"

// SessionDedup tracks which markets have already been acted on during this
// process run. Grow-only: no TTL, no eviction, nothing survives restart. A
// long-running process therefore never re-attempts a market, even if the
// opportunity reappears.
type SessionDedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSessionDedup creates an empty tracker.
func NewSessionDedup() *SessionDedup {
	return &SessionDedup{
		seen: make(map[string]struct{}),
	}
}

// Contains reports whether the market has been marked this session.
func (d *SessionDedup) Contains(marketID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[marketID]
	return ok
}

// Mark records the market as acted on for the rest of the session.
func (d *SessionDedup) Mark(marketID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[marketID] = struct{}{}
}

// Len returns the number of marked markets.
func (d *SessionDedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
