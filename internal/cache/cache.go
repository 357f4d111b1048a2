package cache

import (
	"context"
	"time"

	"cart-sync-api/internal/models"
)

// DefaultCartTTL is the fixed expiration window for a cached cart.
// Entries not refreshed by a sync write within the TTL are evicted.
const DefaultCartTTL = 24 * time.Hour

// CartCache is the server-side mirror of one user's cart, keyed by user
// identity. Every write is a full-cart replace that resets the TTL.
// Implementations return (snapshot, false, nil) when no entry exists
// and a non-nil error only when the underlying store is unreachable.
type CartCache interface {
	Get(ctx context.Context, userID string) (*models.CartSnapshot, bool, error)
	Set(ctx context.Context, userID string, cart *models.CartSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
	Close() error
}
