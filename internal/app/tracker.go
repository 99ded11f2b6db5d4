package app

import (
	"sync"
	"time"

	"github.com/bft-labs/modelstation/internal/domain"
)

// cacheTTL is how long a port-to-identity cache entry stays fresh. The cache
// only avoids reopening a port whose device is already known done; entries
// older than the TTL are treated as absent, not deleted.
const cacheTTL = 5 * time.Second

type portCacheEntry struct {
	mac  domain.MAC
	seen time.Time
}

// Tracker is the process-wide registry of processed device identities and
// the short-lived port-to-identity cache. All operations are serialized by
// one lock; critical sections are O(1) and never block, so coarse locking
// is correct here.
type Tracker struct {
	mu        sync.Mutex
	processed map[domain.MAC]domain.Outcome
	portCache map[string]portCacheEntry

	// now is replaceable in tests to control cache expiry.
	now func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		processed: make(map[domain.MAC]domain.Outcome),
		portCache: make(map[string]portCacheEntry),
		now:       time.Now,
	}
}

// IsProcessed reports whether the identity has concluded a programming
// attempt in this run.
func (t *Tracker) IsProcessed(mac domain.MAC) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.processed[mac]
	return ok
}

// MarkProcessed records the outcome for an identity. The first mark wins;
// later marks are no-ops, which makes the operation idempotent and keeps
// the registry monotone.
func (t *Tracker) MarkProcessed(mac domain.MAC, outcome domain.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.processed[mac]; ok {
		return
	}
	t.processed[mac] = outcome
}

// Snapshot returns a copy of the processed registry, safe to read after the
// tracker is no longer being written.
func (t *Tracker) Snapshot() map[domain.MAC]domain.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := make(map[domain.MAC]domain.Outcome, len(t.processed))
	for mac, outcome := range t.processed {
		snap[mac] = outcome
	}
	return snap
}

// CachedMAC returns the identity last seen on the port, if the cache entry
// is younger than the TTL.
func (t *Tracker) CachedMAC(port string) (domain.MAC, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.portCache[port]
	if !ok {
		return "", false
	}
	if t.now().Sub(entry.seen) >= cacheTTL {
		return "", false
	}
	return entry.mac, true
}

// CachePort records the identity seen on a port, overwriting unconditionally.
func (t *Tracker) CachePort(port string, mac domain.MAC) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.portCache[port] = portCacheEntry{mac: mac, seen: t.now()}
}
