package cart

import (
	"testing"

	"cart-sync-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshot_RecomputesAggregates verifies aggregates are derived from
// the items, with discounts applied per line
func TestSnapshot_RecomputesAggregates(t *testing.T) {
	snapshot := Snapshot([]models.CartLineItem{
		lineItem("P1_0_M", 3, 100, 10),
		lineItem("P2_1_L", 2, 19.99, 0),
	})

	assert.Equal(t, 5, snapshot.ItemCount)
	assert.InDelta(t, 309.98, snapshot.Total, 0.0001, "3x100x0.9 + 2x19.99")
}

// TestSnapshot_NilItems verifies a nil item list becomes an empty cart,
// not a null payload
func TestSnapshot_NilItems(t *testing.T) {
	snapshot := Snapshot(nil)

	require.NotNil(t, snapshot.Items)
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, 0, snapshot.ItemCount)
	assert.Zero(t, snapshot.Total)
}

// TestLinePrice_ExactDecimalArithmetic verifies money math does not
// accumulate float error
func TestLinePrice_ExactDecimalArithmetic(t *testing.T) {
	item := lineItem("P1_0_M", 3, 0.1, 0)

	expected, err := decimal.NewFromString("0.3")
	require.NoError(t, err)

	price := LinePrice(item)
	assert.True(t, price.Equal(expected), "0.1 x 3 must be exactly 0.3, got %s", price)
}
