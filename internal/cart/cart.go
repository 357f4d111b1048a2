package cart

import (
	"fmt"

	"cart-sync-api/internal/models"

	"github.com/shopspring/decimal"
)

// VariantKey builds the composite key identifying one line item within
// a cart: same product, style and size always map to the same key.
func VariantKey(productID string, styleIndex int, size string) string {
	return fmt.Sprintf("%s_%d_%s", productID, styleIndex, size)
}

// LinePrice returns the discounted price of a single line item,
// unitPrice * quantity * (1 - discountPercent/100). All arithmetic is
// done in decimal to keep money math exact.
func LinePrice(item models.CartLineItem) decimal.Decimal {
	unit := decimal.NewFromFloat(item.UnitPrice)
	qty := decimal.NewFromInt(int64(item.Quantity))
	discount := decimal.NewFromFloat(item.DiscountPercent).Div(decimal.NewFromInt(100))
	factor := decimal.NewFromInt(1).Sub(discount)
	return unit.Mul(qty).Mul(factor)
}

// TotalPrice recomputes the cart total from its line items
func TotalPrice(items []models.CartLineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LinePrice(item))
	}
	f, _ := total.Float64()
	return f
}

// TotalItemCount recomputes the total quantity across all line items
func TotalItemCount(items []models.CartLineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Snapshot builds a cart snapshot with aggregates recomputed from the
// given items. Aggregates are derived, never carried alongside items.
func Snapshot(items []models.CartLineItem) *models.CartSnapshot {
	if items == nil {
		items = []models.CartLineItem{}
	}
	return &models.CartSnapshot{
		Items:     items,
		Total:     TotalPrice(items),
		ItemCount: TotalItemCount(items),
	}
}
