package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mandari/oparlsync/internal/oparl"
)

// IdentityCache is the per-job `(kind, external_id) → surrogate_id` map
// (§3 "Identity cache"). It is a positive-only memoisation: presence means
// "upserted in this process", absence never means "not in store" — callers
// needing an authoritative absence check must fall back to BatchExists.
type IdentityCache struct {
	mu sync.RWMutex
	m  map[identityKey]uuid.UUID
}

type identityKey struct {
	kind       oparl.Kind
	externalID string
}

// NewIdentityCache creates an empty cache, sized for one body job.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{m: make(map[identityKey]uuid.UUID)}
}

// Put records a surrogate id for (kind, externalID). Safe for concurrent use.
func (c *IdentityCache) Put(kind oparl.Kind, externalID string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[identityKey{kind, externalID}] = id
}

// Get returns the surrogate id for (kind, externalID), if this process has
// already upserted it.
func (c *IdentityCache) Get(kind oparl.Kind, externalID string) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.m[identityKey{kind, externalID}]
	return id, ok
}
