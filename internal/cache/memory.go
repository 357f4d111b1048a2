package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cart-sync-api/internal/models"
)

// cacheEntry holds one cached cart with its expiration time
type cacheEntry struct {
	snapshot  models.CartSnapshot
	expiresAt time.Time
}

// MemoryCartCache is a thread-safe in-process cart cache with TTL
// eviction. It backs the service when no Redis address is configured
// and is the cache implementation used in tests.
type MemoryCartCache struct {
	items         map[string]*cacheEntry
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	logger        *slog.Logger
}

// NewMemoryCartCache creates an in-memory cart cache with a background
// cleanup loop running at the given interval
func NewMemoryCartCache(cleanupInterval time.Duration, logger *slog.Logger) *MemoryCartCache {
	c := &MemoryCartCache{
		items:       make(map[string]*cacheEntry),
		stopCleanup: make(chan struct{}),
		logger:      logger,
	}

	c.cleanupTicker = time.NewTicker(cleanupInterval)
	go c.cleanupExpiredEntries()

	logger.Info("In-memory cart cache initialized",
		"cleanup_interval", cleanupInterval.String())
	return c
}

// Get retrieves a cached cart if it exists and hasn't expired
func (c *MemoryCartCache) Get(ctx context.Context, userID string) (*models.CartSnapshot, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[userID]
	if !exists {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.logger.Debug("Cached cart expired", "user_id", userID)
		return nil, false, nil
	}

	// Copy the item slice as well, so callers can't mutate the cached
	// entry through the returned snapshot
	snapshot := entry.snapshot
	snapshot.Items = make([]models.CartLineItem, len(entry.snapshot.Items))
	copy(snapshot.Items, entry.snapshot.Items)
	return &snapshot, true, nil
}

// Set stores a cart snapshot with the given TTL, replacing any previous
// entry and resetting its expiration
func (c *MemoryCartCache) Set(ctx context.Context, userID string, cart *models.CartSnapshot, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot := *cart
	snapshot.Items = make([]models.CartLineItem, len(cart.Items))
	copy(snapshot.Items, cart.Items)

	c.items[userID] = &cacheEntry{
		snapshot:  snapshot,
		expiresAt: time.Now().Add(ttl),
	}

	c.logger.Debug("Cached cart set", "user_id", userID, "ttl", ttl.String())
	return nil
}

// Delete removes the cached cart for a user
func (c *MemoryCartCache) Delete(ctx context.Context, userID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, userID)
	return nil
}

// Size returns the current number of entries, including expired ones
// awaiting cleanup
func (c *MemoryCartCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Close stops the cleanup loop
func (c *MemoryCartCache) Close() error {
	c.cleanupTicker.Stop()
	close(c.stopCleanup)
	return nil
}

// cleanupExpiredEntries runs periodically to remove expired entries
func (c *MemoryCartCache) cleanupExpiredEntries() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCartCache) performCleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	expired := 0
	for userID, entry := range c.items {
		if now.After(entry.expiresAt) {
			delete(c.items, userID)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug("Cart cache cleanup completed",
			"expired_entries", expired,
			"remaining_entries", len(c.items))
	}
}
