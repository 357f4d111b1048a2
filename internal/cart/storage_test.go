package cart

import (
	"log/slog"
	"path/filepath"
	"testing"

	"cart-sync-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileStorage_SaveLoadRoundTrip verifies cart contents survive a
// save/load cycle
func TestFileStorage_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "cart.json")
	storage, err := NewFileStorage(path, slog.Default())
	require.NoError(t, err)

	items := []models.CartLineItem{
		lineItem("P1_0_M", 2, 100, 10),
		lineItem("P2_1_L", 1, 50, 0),
	}
	require.NoError(t, storage.Save(items))

	loaded, err := storage.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "P1_0_M", loaded[0].VariantKey)
	assert.Equal(t, 2, loaded[0].Quantity)
	assert.InDelta(t, 100.0, loaded[0].UnitPrice, 0.0001)
}

// TestFileStorage_LoadMissingFileIsEmptyCart verifies a missing file is
// not an error
func TestFileStorage_LoadMissingFileIsEmptyCart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	storage, err := NewFileStorage(path, slog.Default())
	require.NoError(t, err)

	loaded, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

// TestStore_PersistsThroughRestart verifies a new store picks up what a
// previous one persisted, without becoming dirty
func TestStore_PersistsThroughRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	storage, err := NewFileStorage(path, slog.Default())
	require.NoError(t, err)

	first := NewStore(storage, slog.Default())
	first.AddItem(lineItem("P1_0_M", 3, 20, 0))

	second := NewStore(storage, slog.Default())
	assert.Equal(t, 3, second.ItemCount())
	assert.False(t, second.Dirty(), "Restored contents are not unsynced mutations")
}
