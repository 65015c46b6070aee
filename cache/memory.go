package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/surcharge/stress"
)

// MemoryTier is the in-process cache tier. Entries live until deleted or the
// process exits; there is no eviction.
type MemoryTier struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

// NewMemoryTier creates an empty memory tier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
}

// Name returns "memory".
func (c *MemoryTier) Name() string { return "memory" }

// Get returns the field for key or ErrNotFound.
func (c *MemoryTier) Get(_ context.Context, key Key) (*stress.Field, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return entry.Field, nil
}

// Set stores field under key.
func (c *MemoryTier) Set(_ context.Context, key Key, field *stress.Field) error {
	c.mu.Lock()
	c.entries[key] = Entry{Key: key, Field: field, CreatedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryTier) Delete(_ context.Context, key Key) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Entry returns the stored entry including its creation time.
func (c *MemoryTier) Entry(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Len returns the number of entries.
func (c *MemoryTier) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Tier = (*MemoryTier)(nil)
