package archivecache

import (
	"context"
	"sync"
	"time"

	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
	"certgen/pkg/requestcontext"
)

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// InMemoryCache keeps archives in process memory. Expired entries are
// dropped lazily on access and on each Put.
type InMemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[id.BatchID]memoryEntry
}

// NewInMemoryCache creates a cache whose entries live for ttl.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{ttl: ttl, entries: make(map[id.BatchID]memoryEntry)}
}

func (c *InMemoryCache) Put(ctx context.Context, batchID id.BatchID, e Entry) error {
	now := requestcontext.Now(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		if !now.Before(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	e.Data = append([]byte(nil), e.Data...)
	c.entries[batchID] = memoryEntry{entry: e, expiresAt: now.Add(c.ttl)}
	return nil
}

func (c *InMemoryCache) Get(ctx context.Context, batchID id.BatchID) (Entry, error) {
	now := requestcontext.Now(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[batchID]
	if !ok {
		return Entry{}, sentinel.ErrNotFound
	}
	if !now.Before(v.expiresAt) {
		delete(c.entries, batchID)
		return Entry{}, sentinel.ErrNotFound
	}
	return v.entry, nil
}
