package cache

import (
	"context"
	"sync"
	"time"

	"github.com/billbuddy/billbuddy/internal/engine"
)

// Ensure InMemoryCache implements BalanceCache
var _ BalanceCache = (*InMemoryCache)(nil)

type memoryEntry struct {
	summary   *engine.BalanceSummary
	expiresAt time.Time
}

// InMemoryCache implements BalanceCache with a process-local map. The default
// backend for single-instance deployments and tests.
type InMemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]map[string]memoryEntry // groupID -> member:direction -> entry
}

// NewInMemoryCache creates an in-process balance cache with the given TTL.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		ttl:     ttl,
		entries: make(map[string]map[string]memoryEntry),
	}
}

func (c *InMemoryCache) Get(_ context.Context, groupID, memberID string, dir engine.Direction) (*engine.BalanceSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[groupID][entryField(memberID, dir)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.summary, true
}

func (c *InMemoryCache) Set(_ context.Context, groupID, memberID string, dir engine.Direction, summary *engine.BalanceSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.entries[groupID]
	if !ok {
		group = make(map[string]memoryEntry)
		c.entries[groupID] = group
	}
	group[entryField(memberID, dir)] = memoryEntry{
		summary:   summary,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *InMemoryCache) InvalidateGroup(_ context.Context, groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, groupID)
}

func (c *InMemoryCache) Close() error {
	return nil
}
