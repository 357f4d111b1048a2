package cart

import (
	"log/slog"
	"sync"
	"time"

	"cart-sync-api/internal/models"
)

// Store is the authoritative local representation of the user's cart,
// independent of network availability. Mutations mark the store dirty;
// the dirty flag is cleared only after a confirmed server write. Every
// mutation writes through to local storage synchronously.
type Store struct {
	mu         sync.RWMutex
	items      []models.CartLineItem
	dirty      bool
	generation uint64
	storage    LocalStorage
	logger     *slog.Logger
}

// NewStore creates a cart store backed by the given local storage.
// Previously persisted items are loaded without marking the store dirty.
func NewStore(storage LocalStorage, logger *slog.Logger) *Store {
	s := &Store{
		items:   []models.CartLineItem{},
		storage: storage,
		logger:  logger,
	}

	items, err := storage.Load()
	if err != nil {
		logger.Warn("Failed to load persisted cart, starting empty", "error", err)
	} else if len(items) > 0 {
		s.items = items
		logger.Info("Cart restored from local storage", "item_count", len(items))
	}

	return s
}

// AddItem adds a line item to the cart. An existing entry with the same
// variant key has its quantity incremented instead of a row being
// duplicated. Returns false and leaves the cart unchanged when the item
// has a non-positive quantity or is missing identity fields.
func (s *Store) AddItem(item models.CartLineItem) bool {
	if item.Quantity <= 0 || item.ProductID == "" || item.VariantKey == "" {
		s.logger.Warn("Rejected cart add",
			"product_id", item.ProductID,
			"variant_key", item.VariantKey,
			"quantity", item.Quantity)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.LastModifiedAt = time.Now().UTC()

	merged := false
	for i := range s.items {
		if s.items[i].VariantKey == item.VariantKey {
			s.items[i].Quantity += item.Quantity
			s.items[i].LastModifiedAt = item.LastModifiedAt
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}

	s.markDirtyAndPersist()

	s.logger.Debug("Item added to cart",
		"variant_key", item.VariantKey,
		"quantity", item.Quantity,
		"merged", merged)
	return true
}

// SetQuantity replaces the quantity of the entry with the given variant
// key. A quantity of zero or less removes the entry.
func (s *Store) SetQuantity(variantKey string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(variantKey)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].VariantKey == variantKey {
			s.items[i].Quantity = quantity
			s.items[i].LastModifiedAt = time.Now().UTC()
			s.markDirtyAndPersist()
			return
		}
	}
}

// RemoveItem removes the entry with the given variant key. Removing an
// absent key is a no-op, not an error.
func (s *Store) RemoveItem(variantKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].VariantKey == variantKey {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.markDirtyAndPersist()
			s.logger.Debug("Item removed from cart", "variant_key", variantKey)
			return
		}
	}
}

// Clear empties the cart. An already-empty cart stays clean.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return
	}

	removed := len(s.items)
	s.items = []models.CartLineItem{}
	s.markDirtyAndPersist()
	s.logger.Info("Cart cleared", "removed_items", removed)
}

// LoadSavedCart replaces the entire item list wholesale. This is an
// inbound sync from the server, not a user mutation, so the dirty flag
// is left untouched.
func (s *Store) LoadSavedCart(items []models.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []models.CartLineItem{}
	}
	s.items = make([]models.CartLineItem, len(items))
	copy(s.items, items)
	s.generation++
	s.persist()

	s.logger.Info("Cart replaced from server snapshot", "item_count", len(items))
}

// MarkSynced unconditionally clears the dirty flag. Only the logout
// path uses this, where the cart is cleared in the same step; confirmed
// pushes go through MarkSyncedAt so a concurrent mutation is never
// mistaken for synced.
func (s *Store) MarkSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// MarkSyncedAt clears the dirty flag only if no mutation has landed
// since the given generation was captured via ItemsForSync. Reports
// whether the flag was cleared.
func (s *Store) MarkSyncedAt(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return false
	}
	s.dirty = false
	return true
}

// Dirty reports whether the cart has mutations not yet confirmed-persisted
// server-side
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Items returns a copy of the current line items
func (s *Store) Items() []models.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.CartLineItem, len(s.items))
	copy(items, s.items)
	return items
}

// ItemsForSync returns a copy of the current line items together with
// the mutation generation they were captured at, for handing back to
// MarkSyncedAt after the server confirms the write.
func (s *Store) ItemsForSync() ([]models.CartLineItem, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.CartLineItem, len(s.items))
	copy(items, s.items)
	return items, s.generation
}

// ItemCount returns the total quantity across all line items,
// recomputed on demand
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalItemCount(s.items)
}

// TotalPrice returns the discounted cart total, recomputed on demand
func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalPrice(s.items)
}

// IsEmpty reports whether the cart has no line items
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// markDirtyAndPersist marks the store dirty, advances the mutation
// generation and writes through to local storage. Callers must hold
// the write lock.
func (s *Store) markDirtyAndPersist() {
	s.dirty = true
	s.generation++
	s.persist()
}

// persist writes the current items to local storage. Storage failures
// are logged, never raised: the in-memory cart stays authoritative.
func (s *Store) persist() {
	if err := s.storage.Save(s.items); err != nil {
		s.logger.Error("Failed to persist cart to local storage", "error", err)
	}
}
