// internal/service/regen_guard.go
package service

import (
	"sync"
	"time"
)

// DefaultRegenerationTTL bounds how long a regeneration marker survives
// without a Release. A worker that crashes mid-generation leaves its
// marker behind; after the TTL the marker is treated as abandoned and
// the next caller may force-acquire it.
const DefaultRegenerationTTL = 2 * time.Minute

// RegenerationGuard is a per-user mutual-exclusion marker set preventing
// concurrent plan regeneration for the same user. Markers live only in
// process memory; expiry, not persistence, is what bounds the blast
// radius of a crashed worker.
type RegenerationGuard struct {
	mu      sync.Mutex
	started map[string]time.Time
	ttl     time.Duration
	now     func() time.Time // overridable in tests
}

// NewRegenerationGuard creates a guard with the given marker TTL.
// A non-positive ttl falls back to DefaultRegenerationTTL.
func NewRegenerationGuard(ttl time.Duration) *RegenerationGuard {
	if ttl <= 0 {
		ttl = DefaultRegenerationTTL
	}
	return &RegenerationGuard{
		started: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TryAcquire attempts to claim the regeneration marker for a user.
// Returns false while a live, non-expired marker exists; an expired
// marker is force-acquired.
func (g *RegenerationGuard) TryAcquire(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if startedAt, exists := g.started[userID]; exists {
		if now.Sub(startedAt) < g.ttl {
			return false
		}
		// Abandoned marker from a crashed or stuck worker.
	}
	g.started[userID] = now
	return true
}

// Release removes the user's marker. Safe to call when no marker exists.
func (g *RegenerationGuard) Release(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.started, userID)
}

// InProgress reports whether a live marker exists for the user.
func (g *RegenerationGuard) InProgress(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	startedAt, exists := g.started[userID]
	return exists && g.now().Sub(startedAt) < g.ttl
}
