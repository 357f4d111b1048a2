package cart

import (
	"log/slog"
	"testing"

	"cart-sync-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NopStorage{}, slog.Default())
}

func lineItem(variantKey string, quantity int, unitPrice, discountPercent float64) models.CartLineItem {
	return models.CartLineItem{
		ProductID:       "P1",
		VariantKey:      variantKey,
		Name:            "Test Product",
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		Size:            "M",
		AvailableStock:  10,
		DiscountPercent: discountPercent,
	}
}

// TestStore_AddItemMergesSameVariant verifies that additions of the same
// variant merge quantities instead of duplicating rows
func TestStore_AddItemMergesSameVariant(t *testing.T) {
	store := newTestStore(t)

	assert.True(t, store.AddItem(lineItem("P1_0_M", 2, 100, 10)))
	assert.True(t, store.AddItem(lineItem("P1_0_M", 1, 100, 10)))

	items := store.Items()
	require.Len(t, items, 1, "Same variant should merge, not duplicate")
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, store.ItemCount())
	assert.InDelta(t, 270.0, store.TotalPrice(), 0.0001, "3 x 100 x 0.9 = 270")
}

// TestStore_AddItemRejectsInvalid verifies rejected additions leave the
// cart unchanged
func TestStore_AddItemRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.AddItem(lineItem("P1_0_M", 0, 100, 0)), "Zero quantity should be rejected")
	assert.False(t, store.AddItem(lineItem("P1_0_M", -1, 100, 0)), "Negative quantity should be rejected")

	missingKey := lineItem("", 1, 100, 0)
	assert.False(t, store.AddItem(missingKey), "Missing variant key should be rejected")

	missingProduct := lineItem("P1_0_M", 1, 100, 0)
	missingProduct.ProductID = ""
	assert.False(t, store.AddItem(missingProduct), "Missing product id should be rejected")

	assert.True(t, store.IsEmpty())
	assert.False(t, store.Dirty(), "Rejected additions should not mark the cart dirty")
}

// TestStore_SetQuantityZeroRemoves verifies setQuantity(key, 0) is
// equivalent to removeItem(key)
func TestStore_SetQuantityZeroRemoves(t *testing.T) {
	store := newTestStore(t)
	store.AddItem(lineItem("P1_0_M", 2, 100, 0))

	store.SetQuantity("P1_0_M", 0)

	assert.True(t, store.IsEmpty())
}

// TestStore_SetQuantityReplaces verifies quantity replacement
func TestStore_SetQuantityReplaces(t *testing.T) {
	store := newTestStore(t)
	store.AddItem(lineItem("P1_0_M", 2, 100, 0))

	store.SetQuantity("P1_0_M", 5)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, store.ItemCount())
}

// TestStore_RemoveAbsentKeyIsNoOp verifies removing a non-existent key
// leaves the cart unchanged
func TestStore_RemoveAbsentKeyIsNoOp(t *testing.T) {
	store := newTestStore(t)
	store.AddItem(lineItem("P1_0_M", 2, 100, 0))
	store.MarkSynced()

	store.RemoveItem("NOT_THERE")

	assert.Equal(t, 2, store.ItemCount())
	assert.False(t, store.Dirty(), "Removing an absent key should not mark the cart dirty")
}

// TestStore_AggregatesRecomputedAfterMutations verifies totals follow
// every mutation
func TestStore_AggregatesRecomputedAfterMutations(t *testing.T) {
	store := newTestStore(t)

	store.AddItem(lineItem("P1_0_M", 2, 100, 10))
	store.AddItem(lineItem("P2_1_L", 1, 50, 0))

	assert.Equal(t, 3, store.ItemCount())
	assert.InDelta(t, 230.0, store.TotalPrice(), 0.0001, "2x100x0.9 + 1x50 = 230")

	store.SetQuantity("P1_0_M", 1)
	assert.Equal(t, 2, store.ItemCount())
	assert.InDelta(t, 140.0, store.TotalPrice(), 0.0001)

	store.RemoveItem("P2_1_L")
	assert.Equal(t, 1, store.ItemCount())
	assert.InDelta(t, 90.0, store.TotalPrice(), 0.0001)
}

// TestStore_LoadSavedCartRoundTrip verifies a wholesale replace returns
// exactly the loaded items and does not set the dirty flag
func TestStore_LoadSavedCartRoundTrip(t *testing.T) {
	store := newTestStore(t)
	saved := []models.CartLineItem{
		lineItem("P1_0_M", 2, 100, 10),
		lineItem("P2_1_L", 4, 25, 0),
	}

	store.LoadSavedCart(saved)

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "P1_0_M", items[0].VariantKey)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "P2_1_L", items[1].VariantKey)
	assert.Equal(t, 4, items[1].Quantity)
	assert.False(t, store.Dirty(), "Inbound sync should not mark the cart dirty")
}

// TestStore_ClearMarksDirtyOnlyWhenNonEmpty verifies the clear semantics
func TestStore_ClearMarksDirtyOnlyWhenNonEmpty(t *testing.T) {
	store := newTestStore(t)

	store.Clear()
	assert.False(t, store.Dirty(), "Clearing an empty cart should stay clean")

	store.AddItem(lineItem("P1_0_M", 1, 100, 0))
	store.MarkSynced()

	store.Clear()
	assert.True(t, store.Dirty())
	assert.True(t, store.IsEmpty())
}

// TestStore_DirtyLifecycle verifies the dirty flag is set by mutations
// and cleared only by MarkSynced
func TestStore_DirtyLifecycle(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Dirty())

	store.AddItem(lineItem("P1_0_M", 1, 100, 0))
	assert.True(t, store.Dirty())

	store.MarkSynced()
	assert.False(t, store.Dirty())
	assert.Equal(t, 1, store.ItemCount(), "MarkSynced should not alter contents")

	store.SetQuantity("P1_0_M", 2)
	assert.True(t, store.Dirty())
}

// TestStore_MarkSyncedAtIgnoresStaleGeneration verifies a mutation that
// lands after a snapshot was captured keeps the store dirty, so the
// change is pushed on the next sync instead of being silently lost
func TestStore_MarkSyncedAtIgnoresStaleGeneration(t *testing.T) {
	store := newTestStore(t)
	store.AddItem(lineItem("P1_0_M", 1, 100, 0))

	items, gen := store.ItemsForSync()
	require.Len(t, items, 1)

	// A second item arrives while the first snapshot is in flight
	store.AddItem(lineItem("P2_0_L", 1, 50, 0))

	assert.False(t, store.MarkSyncedAt(gen), "Stale generation must not clear the dirty flag")
	assert.True(t, store.Dirty())

	items, gen = store.ItemsForSync()
	require.Len(t, items, 2)
	assert.True(t, store.MarkSyncedAt(gen))
	assert.False(t, store.Dirty())
}

// TestVariantKey verifies the composite key format
func TestVariantKey(t *testing.T) {
	assert.Equal(t, "P1_0_M", VariantKey("P1", 0, "M"))
	assert.Equal(t, "P9_3_XL", VariantKey("P9", 3, "XL"))
}
